// Package export renders entry ranges as CSV downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/noobzdxz-gif/Tracking-App/internal/core"
)

var header = []string{"Date", "Type", "Category/Task", "Value", "Start Time", "End Time"}

// WriteCSV emits one header row followed by one row per entry in the range,
// day by day, time entries before expenses within a day. Quoting follows
// RFC 4180 (embedded quotes doubled). A reversed range writes nothing.
func WriteCSV(w io.Writer, buckets map[string]core.DayBucket, r core.DateRange) error {
	if err := r.Validate(); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, day := range r.Days() {
		bucket, ok := buckets[day.Key()]
		if !ok {
			continue
		}
		for _, entry := range bucket.Times {
			record := []string{
				day.Key(),
				"time",
				entry.Task,
				strconv.FormatFloat(entry.Hours, 'f', 2, 64),
				entry.Start,
				entry.End,
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write time row: %w", err)
			}
		}
		for _, entry := range bucket.Expenses {
			record := []string{
				day.Key(),
				"expense",
				entry.Description,
				entry.Amount.Decimal(),
				"",
				"",
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write expense row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename encodes the range bounds into the download name.
func Filename(r core.DateRange) string {
	return fmt.Sprintf("entries_%s_%s.csv", r.Start.Key(), r.End.Key())
}
