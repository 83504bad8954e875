package export

import (
	"errors"
	"strings"
	"testing"

	"github.com/noobzdxz-gif/Tracking-App/internal/core"
)

func TestWriteCSV(t *testing.T) {
	buckets := map[string]core.DayBucket{
		"2025-03-10": {
			Times:    []core.TimeEntry{{Task: "Write report", Start: "09:00", End: "11:30", Hours: 2.5}},
			Expenses: []core.ExpenseEntry{{Description: "Coffee", Amount: core.Money{Cents: 450}}},
		},
		"2025-03-11": {
			Times: []core.TimeEntry{{Task: "Review", Start: "14:00", End: "15:00", Hours: 1}},
		},
	}
	r := core.DateRange{Start: core.NewDate(2025, 3, 10), End: core.NewDate(2025, 3, 11)}

	var buf strings.Builder
	if err := WriteCSV(&buf, buckets, r); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	want := strings.Join([]string{
		"Date,Type,Category/Task,Value,Start Time,End Time",
		"2025-03-10,time,Write report,2.50,09:00,11:30",
		"2025-03-10,expense,Coffee,4.50,,",
		"2025-03-11,time,Review,1.00,14:00,15:00",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestWriteCSVQuotesEmbeddedQuotes(t *testing.T) {
	buckets := map[string]core.DayBucket{
		"2025-03-10": {
			Expenses: []core.ExpenseEntry{{
				Description: `Lunch "special", table 4`,
				Amount:      core.Money{Cents: 1250},
			}},
		},
	}
	r := core.DateRange{Start: core.NewDate(2025, 3, 10), End: core.NewDate(2025, 3, 10)}

	var buf strings.Builder
	if err := WriteCSV(&buf, buckets, r); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	wantRow := `2025-03-10,expense,"Lunch ""special"", table 4",12.50,,`
	if !strings.Contains(buf.String(), wantRow) {
		t.Errorf("output missing quoted row %q:\n%s", wantRow, buf.String())
	}
}

func TestWriteCSVEmptyRange(t *testing.T) {
	r := core.DateRange{Start: core.NewDate(2025, 3, 10), End: core.NewDate(2025, 3, 10)}

	var buf strings.Builder
	if err := WriteCSV(&buf, nil, r); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != "Date,Type,Category/Task,Value,Start Time,End Time\n" {
		t.Errorf("empty range output = %q, want header only", buf.String())
	}
}

func TestWriteCSVReversedRange(t *testing.T) {
	r := core.DateRange{Start: core.NewDate(2025, 3, 11), End: core.NewDate(2025, 3, 10)}

	var buf strings.Builder
	err := WriteCSV(&buf, nil, r)
	if !errors.Is(err, core.ErrInvalidRange) {
		t.Fatalf("reversed range: got %v, want ErrInvalidRange", err)
	}
	if buf.Len() != 0 {
		t.Errorf("reversed range wrote output: %q", buf.String())
	}
}

func TestFilename(t *testing.T) {
	r := core.DateRange{Start: core.NewDate(2025, 3, 10), End: core.NewDate(2025, 3, 16)}
	if got := Filename(r); got != "entries_2025-03-10_2025-03-16.csv" {
		t.Errorf("Filename = %q", got)
	}
}
