package core

import (
	"errors"
	"testing"
)

func TestNewTimeEntry(t *testing.T) {
	entry, err := NewTimeEntry("id-1", "Write report", "09:00", "11:30")
	if err != nil {
		t.Fatalf("NewTimeEntry: %v", err)
	}
	if entry.Hours != 2.5 {
		t.Errorf("Hours = %v, want 2.5", entry.Hours)
	}
	if entry.Status != SyncPending {
		t.Errorf("Status = %q, want pending", entry.Status)
	}
}

func TestNewTimeEntryRejects(t *testing.T) {
	if _, err := NewTimeEntry("id", "  ", "09:00", "10:00"); !errors.Is(err, ErrEmptyTask) {
		t.Errorf("blank task: got %v, want ErrEmptyTask", err)
	}
	if _, err := NewTimeEntry("id", "Write", "17:00", "09:00"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("reversed times: got %v, want ErrInvalidRange", err)
	}
	if _, err := NewTimeEntry("id", "Write", "nine", "10:00"); !errors.Is(err, ErrParseFailure) {
		t.Errorf("malformed time: got %v, want ErrParseFailure", err)
	}
}

func TestNewExpenseEntry(t *testing.T) {
	entry, err := NewExpenseEntry("id-1", "Coffee", Money{Cents: 450})
	if err != nil {
		t.Fatalf("NewExpenseEntry: %v", err)
	}
	if entry.Amount.Cents != 450 || entry.Status != SyncPending {
		t.Errorf("unexpected entry: %+v", entry)
	}

	// Zero is a legal amount.
	if _, err := NewExpenseEntry("id-2", "Comped lunch", Money{}); err != nil {
		t.Errorf("zero amount rejected: %v", err)
	}

	if _, err := NewExpenseEntry("id-3", " ", Money{Cents: 100}); !errors.Is(err, ErrEmptyDescription) {
		t.Errorf("blank description: got %v, want ErrEmptyDescription", err)
	}
	if _, err := NewExpenseEntry("id-4", "Refund", Money{Cents: -100}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-10")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Key() != "2025-03-10" {
		t.Errorf("Key = %q", d.Key())
	}

	for _, bad := range []string{"2025-13-01", "10/03/2025", "yesterday", ""} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q): got %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestNewDateRange(t *testing.T) {
	if _, err := NewDateRange(NewDate(2025, 3, 10), NewDate(2025, 3, 16)); err != nil {
		t.Fatalf("NewDateRange: %v", err)
	}
	if _, err := NewDateRange(NewDate(2025, 3, 16), NewDate(2025, 3, 10)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("reversed range: got %v, want ErrInvalidRange", err)
	}
	if _, err := NewDateRange(Date{}, NewDate(2025, 3, 10)); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("zero start: got %v, want ErrInvalidDate", err)
	}
}
