// Package core holds the pure computation heart of the tracker: the
// time-range parser, the duration calculator, the aggregation engine and the
// entry model they share. Nothing here performs I/O; every function is safe
// to call concurrently.
package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrParseFailure means free text did not resolve to two valid clock times.
	ErrParseFailure = errors.New("time range did not parse")

	// ErrInvalidRange means an end before (or equal to) its start, for both
	// clock-time spans and date ranges.
	ErrInvalidRange = errors.New("invalid range")

	ErrEmptyTask        = errors.New("task label must not be empty")
	ErrEmptyDescription = errors.New("description must not be empty")
	ErrInvalidAmount    = errors.New("amount must not be negative")
	ErrInvalidDate      = errors.New("invalid date")
)

// SyncStatus tracks an entry's position in the optimistic-update lifecycle:
// written locally, confirmed by the hosted store, or given up on.
type SyncStatus string

const (
	SyncPending   SyncStatus = "pending"
	SyncConfirmed SyncStatus = "confirmed"
	SyncFailed    SyncStatus = "failed"
)

const dateKeyLayout = "2006-01-02"

// Date is a calendar day with no clock component.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO "YYYY-MM-DD" day key.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateKeyLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{t}, nil
}

// Key returns the ISO day key used everywhere entries are bucketed.
func (d Date) Key() string {
	return d.Format(dateKeyLayout)
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	return Date{d.AddDate(0, 0, 1)}
}

// Validate rejects the zero value.
func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Money is an amount in cents. Cents avoid the float drift that plagues
// summed decimals.
type Money struct {
	Cents int64
}

// Validate rejects negative amounts; zero is allowed.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal renders the amount as a plain two-decimal string, e.g. "4.50".
func (m Money) Decimal() string {
	return formatCents(m.Cents)
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// TimeEntry is a timed task on one day. Hours is derived from Start and End
// and is never independently authoritative.
type TimeEntry struct {
	ID     string
	Task   string
	Start  string
	End    string
	Hours  float64
	Status SyncStatus
}

// NewTimeEntry validates the task label and clock times and derives Hours.
// The entry starts out pending.
func NewTimeEntry(id, task, start, end string) (TimeEntry, error) {
	if strings.TrimSpace(task) == "" {
		return TimeEntry{}, ErrEmptyTask
	}
	hours, err := DurationHours(start, end)
	if err != nil {
		return TimeEntry{}, err
	}
	return TimeEntry{
		ID:     id,
		Task:   task,
		Start:  start,
		End:    end,
		Hours:  hours,
		Status: SyncPending,
	}, nil
}

// ExpenseEntry is a spent amount on one day.
type ExpenseEntry struct {
	ID          string
	Description string
	Amount      Money
	Status      SyncStatus
}

// NewExpenseEntry validates the description and amount. The entry starts out
// pending.
func NewExpenseEntry(id, description string, amount Money) (ExpenseEntry, error) {
	if strings.TrimSpace(description) == "" {
		return ExpenseEntry{}, ErrEmptyDescription
	}
	if err := amount.Validate(); err != nil {
		return ExpenseEntry{}, err
	}
	return ExpenseEntry{
		ID:          id,
		Description: description,
		Amount:      amount,
		Status:      SyncPending,
	}, nil
}

// DayBucket holds all entries of one calendar day. Both slices may be empty
// but carry no ordering significance.
type DayBucket struct {
	Times    []TimeEntry
	Expenses []ExpenseEntry
}

// DateRange is an inclusive interval of calendar days.
type DateRange struct {
	Start Date
	End   Date
}

// NewDateRange builds a validated inclusive range.
func NewDateRange(start, end Date) (DateRange, error) {
	r := DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate rejects ranges whose start falls after their end. A reversed
// range is never swapped or clamped.
func (r DateRange) Validate() error {
	if err := r.Start.Validate(); err != nil {
		return err
	}
	if err := r.End.Validate(); err != nil {
		return err
	}
	if r.Start.After(r.End.Time) {
		return ErrInvalidRange
	}
	return nil
}

// Days enumerates every calendar day in the range, in order.
func (r DateRange) Days() []Date {
	var days []Date
	for d := r.Start; !d.After(r.End.Time); d = d.Next() {
		days = append(days, d)
	}
	return days
}
