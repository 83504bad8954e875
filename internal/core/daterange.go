package core

import (
	"fmt"
	"time"
)

// Period selects how wide a summary range is around an anchor date.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ResolveRange computes the inclusive range containing the anchor date.
// Weeks start on Monday; month and year ranges are full calendar spans of
// the anchor. The anchor navigates: resolving against last Tuesday yields
// last week, not the current one.
func ResolveRange(p Period, anchor Date) (DateRange, error) {
	if err := anchor.Validate(); err != nil {
		return DateRange{}, err
	}
	switch p {
	case PeriodDay:
		return DateRange{Start: anchor, End: anchor}, nil
	case PeriodWeek:
		start := weekMonday(anchor)
		return DateRange{Start: start, End: Date{start.AddDate(0, 0, 6)}}, nil
	case PeriodMonth:
		start := NewDate(anchor.Year(), int(anchor.Month()), 1)
		return DateRange{Start: start, End: Date{start.AddDate(0, 1, -1)}}, nil
	case PeriodYear:
		start := NewDate(anchor.Year(), 1, 1)
		return DateRange{Start: start, End: NewDate(anchor.Year(), 12, 31)}, nil
	default:
		return DateRange{}, fmt.Errorf("unknown period %q", p)
	}
}

// weekMonday returns the Monday of the anchor's week.
func weekMonday(d Date) Date {
	weekday := int(d.Weekday())
	if weekday == int(time.Sunday) {
		weekday = 7
	}
	return Date{d.AddDate(0, 0, -(weekday - 1))}
}

// GridCell is one day of a calendar-grid view with its totals.
type GridCell struct {
	Day        Date
	TotalHours float64
	TotalMoney Money
}

// Grid produces per-day totals for the month containing the anchor, one
// cell per calendar day in order.
func Grid(buckets map[string]DayBucket, anchor Date) ([]GridCell, error) {
	r, err := ResolveRange(PeriodMonth, anchor)
	if err != nil {
		return nil, err
	}

	days := r.Days()
	cells := make([]GridCell, 0, len(days))
	for _, day := range days {
		cell := GridCell{Day: day}
		if bucket, ok := buckets[day.Key()]; ok {
			for _, entry := range bucket.Times {
				cell.TotalHours += entry.Hours
			}
			for _, entry := range bucket.Expenses {
				cell.TotalMoney = cell.TotalMoney.Add(entry.Amount)
			}
			cell.TotalHours = round2(cell.TotalHours)
		}
		cells = append(cells, cell)
	}
	return cells, nil
}
