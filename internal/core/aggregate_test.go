package core

import (
	"errors"
	"testing"
)

func TestAggregateExample(t *testing.T) {
	buckets := map[string]DayBucket{
		"2025-03-10": {
			Times:    []TimeEntry{{Task: "Write", Hours: 2.0}},
			Expenses: []ExpenseEntry{{Description: "Coffee", Amount: Money{Cents: 450}}},
		},
		"2025-03-11": {
			Times: []TimeEntry{{Task: "Write", Hours: 1.5}},
		},
	}
	r := DateRange{Start: NewDate(2025, 3, 10), End: NewDate(2025, 3, 11)}

	result, err := Aggregate(buckets, r)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if result.TotalHours != 3.5 {
		t.Errorf("TotalHours = %v, want 3.5", result.TotalHours)
	}
	if result.TotalMoney.Cents != 450 {
		t.Errorf("TotalMoney = %d cents, want 450", result.TotalMoney.Cents)
	}
	if got := result.TaskBreakdown["Write"]; got != 3.5 {
		t.Errorf("TaskBreakdown[Write] = %v, want 3.5", got)
	}
	if got := result.ExpenseBreakdown["Coffee"].Cents; got != 450 {
		t.Errorf("ExpenseBreakdown[Coffee] = %d cents, want 450", got)
	}
}

func TestAggregateEmptyRange(t *testing.T) {
	r := DateRange{Start: NewDate(2025, 3, 10), End: NewDate(2025, 3, 10)}
	result, err := Aggregate(nil, r)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if result.TotalHours != 0 || result.TotalMoney.Cents != 0 {
		t.Errorf("totals = (%v, %d), want zeros", result.TotalHours, result.TotalMoney.Cents)
	}
	if len(result.TaskBreakdown) != 0 || len(result.ExpenseBreakdown) != 0 {
		t.Errorf("breakdowns not empty: %v, %v", result.TaskBreakdown, result.ExpenseBreakdown)
	}
}

func TestAggregateReversedRange(t *testing.T) {
	r := DateRange{Start: NewDate(2025, 3, 11), End: NewDate(2025, 3, 10)}
	if _, err := Aggregate(nil, r); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("reversed range: got %v, want ErrInvalidRange", err)
	}
}

func TestAggregateExactLabelMatch(t *testing.T) {
	buckets := map[string]DayBucket{
		"2025-03-10": {
			Times: []TimeEntry{
				{Task: "Write", Hours: 1},
				{Task: "write", Hours: 1},
				{Task: "Write ", Hours: 1},
			},
		},
	}
	r := DateRange{Start: NewDate(2025, 3, 10), End: NewDate(2025, 3, 10)}

	result, err := Aggregate(buckets, r)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(result.TaskBreakdown) != 3 {
		t.Errorf("labels merged: %v", result.TaskBreakdown)
	}
}

func TestAggregateExcludesOutOfRange(t *testing.T) {
	buckets := map[string]DayBucket{
		"2025-03-09": {Times: []TimeEntry{{Task: "Before", Hours: 5}}},
		"2025-03-10": {Times: []TimeEntry{{Task: "In", Hours: 1}}},
		"2025-03-12": {Times: []TimeEntry{{Task: "After", Hours: 5}}},
	}
	r := DateRange{Start: NewDate(2025, 3, 10), End: NewDate(2025, 3, 11)}

	result, err := Aggregate(buckets, r)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if result.TotalHours != 1 {
		t.Errorf("TotalHours = %v, want 1", result.TotalHours)
	}
	if _, ok := result.TaskBreakdown["Before"]; ok {
		t.Error("entry before range included")
	}
	if _, ok := result.TaskBreakdown["After"]; ok {
		t.Error("entry after range included")
	}
}

func TestRankedTasksOrderAndTies(t *testing.T) {
	buckets := map[string]DayBucket{
		"2025-03-10": {
			Times: []TimeEntry{
				{Task: "Review", Hours: 1},
				{Task: "Write", Hours: 3},
				{Task: "Plan", Hours: 1},
			},
		},
	}
	r := DateRange{Start: NewDate(2025, 3, 10), End: NewDate(2025, 3, 10)}

	result, err := Aggregate(buckets, r)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	ranked := result.RankedTasks()
	want := []TaskShare{
		{Task: "Write", Hours: 3},
		{Task: "Review", Hours: 1}, // ties keep encounter order
		{Task: "Plan", Hours: 1},
	}
	if len(ranked) != len(want) {
		t.Fatalf("ranked = %v, want %v", ranked, want)
	}
	for i := range want {
		if ranked[i] != want[i] {
			t.Errorf("ranked[%d] = %+v, want %+v", i, ranked[i], want[i])
		}
	}
}

func TestRankedExpenses(t *testing.T) {
	buckets := map[string]DayBucket{
		"2025-03-10": {
			Expenses: []ExpenseEntry{
				{Description: "Coffee", Amount: Money{Cents: 450}},
				{Description: "Lunch", Amount: Money{Cents: 1200}},
				{Description: "Coffee", Amount: Money{Cents: 450}},
			},
		},
	}
	r := DateRange{Start: NewDate(2025, 3, 10), End: NewDate(2025, 3, 10)}

	result, err := Aggregate(buckets, r)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	ranked := result.RankedExpenses()
	if len(ranked) != 2 {
		t.Fatalf("ranked = %v, want 2 rows", ranked)
	}
	if ranked[0].Description != "Lunch" || ranked[0].Amount.Cents != 1200 {
		t.Errorf("ranked[0] = %+v", ranked[0])
	}
	if ranked[1].Description != "Coffee" || ranked[1].Amount.Cents != 900 {
		t.Errorf("ranked[1] = %+v", ranked[1])
	}
}
