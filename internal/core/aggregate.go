package core

import "sort"

// TaskShare is one ranked row of the task breakdown.
type TaskShare struct {
	Task  string
	Hours float64
}

// ExpenseShare is one ranked row of the expense breakdown.
type ExpenseShare struct {
	Description string
	Amount      Money
}

// AggregationResult holds totals and per-label breakdowns for one range.
// Breakdown keys are exact strings: labels differing in case or whitespace
// stay distinct. The unexported order slices remember first encounter so the
// ranked views can break ties stably.
type AggregationResult struct {
	TotalHours       float64
	TotalMoney       Money
	TaskBreakdown    map[string]float64
	ExpenseBreakdown map[string]Money

	taskOrder    []string
	expenseOrder []string
}

// Aggregate folds every day of the inclusive range over the given buckets.
// Days without a bucket contribute zero. A reversed range is ErrInvalidRange
// and produces no result; an empty data set yields zero totals and empty
// breakdowns.
func Aggregate(buckets map[string]DayBucket, r DateRange) (AggregationResult, error) {
	if err := r.Validate(); err != nil {
		return AggregationResult{}, err
	}

	result := AggregationResult{
		TaskBreakdown:    make(map[string]float64),
		ExpenseBreakdown: make(map[string]Money),
	}

	for _, day := range r.Days() {
		bucket, ok := buckets[day.Key()]
		if !ok {
			continue
		}
		for _, entry := range bucket.Times {
			if _, seen := result.TaskBreakdown[entry.Task]; !seen {
				result.taskOrder = append(result.taskOrder, entry.Task)
			}
			result.TaskBreakdown[entry.Task] += entry.Hours
			result.TotalHours += entry.Hours
		}
		for _, entry := range bucket.Expenses {
			if _, seen := result.ExpenseBreakdown[entry.Description]; !seen {
				result.expenseOrder = append(result.expenseOrder, entry.Description)
			}
			result.ExpenseBreakdown[entry.Description] = result.ExpenseBreakdown[entry.Description].Add(entry.Amount)
			result.TotalMoney = result.TotalMoney.Add(entry.Amount)
		}
	}

	result.TotalHours = round2(result.TotalHours)
	for task, hours := range result.TaskBreakdown {
		result.TaskBreakdown[task] = round2(hours)
	}

	return result, nil
}

// RankedTasks returns the task breakdown sorted descending by hours, ties in
// encounter order.
func (r AggregationResult) RankedTasks() []TaskShare {
	shares := make([]TaskShare, 0, len(r.taskOrder))
	for _, task := range r.taskOrder {
		shares = append(shares, TaskShare{Task: task, Hours: r.TaskBreakdown[task]})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Hours > shares[j].Hours
	})
	return shares
}

// RankedExpenses returns the expense breakdown sorted descending by amount,
// ties in encounter order.
func (r AggregationResult) RankedExpenses() []ExpenseShare {
	shares := make([]ExpenseShare, 0, len(r.expenseOrder))
	for _, description := range r.expenseOrder {
		shares = append(shares, ExpenseShare{Description: description, Amount: r.ExpenseBreakdown[description]})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Amount.Cents > shares[j].Amount.Cents
	})
	return shares
}
