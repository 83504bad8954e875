// Package services orchestrates entry operations across the local SQLite
// projection, the AMQP sync queue and the hosted row store.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/noobzdxz-gif/Tracking-App/internal/amqp"
	"github.com/noobzdxz-gif/Tracking-App/internal/core"
	"github.com/noobzdxz-gif/Tracking-App/internal/log"
	"github.com/noobzdxz-gif/Tracking-App/internal/storage"
)

const (
	kindTime    = "time"
	kindExpense = "expense"
)

// Entry is the service-level view of one logged entry: the core entry data
// plus its local id and date.
type Entry struct {
	LocalID int64
	Date    core.Date
	Kind    string
	Time    core.TimeEntry
	Expense core.ExpenseEntry
}

// EntryService applies the optimistic-update discipline: every mutation
// lands in SQLite first, then a lightweight sync message goes out. The
// request never waits on — or fails because of — the remote store.
type EntryService struct {
	storage    *storage.Repository
	amqpClient *amqp.Client
	logger     *log.Logger
}

func NewEntryService(repo *storage.Repository, amqpClient *amqp.Client, logger *log.Logger) *EntryService {
	return &EntryService{
		storage:    repo,
		amqpClient: amqpClient,
		logger:     logger.WithComponent("entry-service"),
	}
}

// CreateTime parses the free-text time range, validates the entry and saves
// it locally with a placeholder id. The placeholder is swapped for the
// hosted store's row reference once the sync confirms.
func (s *EntryService) CreateTime(ctx context.Context, date core.Date, task, rangeText string) (Entry, error) {
	if err := date.Validate(); err != nil {
		return Entry{}, err
	}
	start, end, err := core.ParseTimeRange(rangeText)
	if err != nil {
		return Entry{}, err
	}
	entry, err := core.NewTimeEntry(uuid.NewString(), task, start, end)
	if err != nil {
		return Entry{}, err
	}

	id, err := s.storage.CreateEntry(ctx, storage.Entry{
		UUID:       entry.ID,
		Date:       date.Key(),
		Kind:       kindTime,
		Label:      entry.Task,
		StartTime:  entry.Start,
		EndTime:    entry.End,
		Hours:      entry.Hours,
		SyncStatus: string(core.SyncPending),
		Version:    1,
	})
	if err != nil {
		return Entry{}, fmt.Errorf("save time entry: %w", err)
	}

	if err := s.storage.SaveOption(ctx, kindTime, entry.Task); err != nil {
		s.logger.WarnContext(ctx, "Failed to remember task label", "error", err)
	}

	s.enqueueAndPublish(ctx, id, amqp.OpSync, 1)

	return Entry{LocalID: id, Date: date, Kind: kindTime, Time: entry}, nil
}

// CreateExpense parses the decimal amount, validates the entry and saves it
// locally.
func (s *EntryService) CreateExpense(ctx context.Context, date core.Date, description, amountText string) (Entry, error) {
	if err := date.Validate(); err != nil {
		return Entry{}, err
	}
	cents, err := core.ParseDecimalToCents(amountText)
	if err != nil {
		return Entry{}, err
	}
	entry, err := core.NewExpenseEntry(uuid.NewString(), description, core.Money{Cents: cents})
	if err != nil {
		return Entry{}, err
	}

	id, err := s.storage.CreateEntry(ctx, storage.Entry{
		UUID:        entry.ID,
		Date:        date.Key(),
		Kind:        kindExpense,
		Label:       entry.Description,
		AmountCents: entry.Amount.Cents,
		SyncStatus:  string(core.SyncPending),
		Version:     1,
	})
	if err != nil {
		return Entry{}, fmt.Errorf("save expense entry: %w", err)
	}

	if err := s.storage.SaveOption(ctx, kindExpense, entry.Description); err != nil {
		s.logger.WarnContext(ctx, "Failed to remember expense description", "error", err)
	}

	s.enqueueAndPublish(ctx, id, amqp.OpSync, 1)

	return Entry{LocalID: id, Date: date, Kind: kindExpense, Expense: entry}, nil
}

// UpdateTime replaces a time entry's fields. The identifier is preserved;
// the previous state is snapshotted so a failed sync can roll back.
func (s *EntryService) UpdateTime(ctx context.Context, id int64, date core.Date, task, rangeText string) (Entry, error) {
	if err := date.Validate(); err != nil {
		return Entry{}, err
	}
	current, err := s.storage.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if current.Kind != kindTime {
		return Entry{}, fmt.Errorf("entry %d is not a time entry", id)
	}

	start, end, err := core.ParseTimeRange(rangeText)
	if err != nil {
		return Entry{}, err
	}
	entry, err := core.NewTimeEntry(current.UUID, task, start, end)
	if err != nil {
		return Entry{}, err
	}

	if err := s.storage.UpdateEntry(ctx, storage.Entry{
		ID:        id,
		Date:      date.Key(),
		Label:     entry.Task,
		StartTime: entry.Start,
		EndTime:   entry.End,
		Hours:     entry.Hours,
	}); err != nil {
		return Entry{}, fmt.Errorf("update time entry: %w", err)
	}

	s.enqueueAndPublish(ctx, id, amqp.OpSync, current.Version+1)

	return Entry{LocalID: id, Date: date, Kind: kindTime, Time: entry}, nil
}

// UpdateExpense replaces an expense entry's fields.
func (s *EntryService) UpdateExpense(ctx context.Context, id int64, date core.Date, description, amountText string) (Entry, error) {
	if err := date.Validate(); err != nil {
		return Entry{}, err
	}
	current, err := s.storage.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if current.Kind != kindExpense {
		return Entry{}, fmt.Errorf("entry %d is not an expense entry", id)
	}

	cents, err := core.ParseDecimalToCents(amountText)
	if err != nil {
		return Entry{}, err
	}
	entry, err := core.NewExpenseEntry(current.UUID, description, core.Money{Cents: cents})
	if err != nil {
		return Entry{}, err
	}

	if err := s.storage.UpdateEntry(ctx, storage.Entry{
		ID:          id,
		Date:        date.Key(),
		Label:       entry.Description,
		AmountCents: entry.Amount.Cents,
	}); err != nil {
		return Entry{}, fmt.Errorf("update expense entry: %w", err)
	}

	s.enqueueAndPublish(ctx, id, amqp.OpSync, current.Version+1)

	return Entry{LocalID: id, Date: date, Kind: kindExpense, Expense: entry}, nil
}

// Delete soft-deletes the entry locally and schedules the remote delete.
func (s *EntryService) Delete(ctx context.Context, id int64) error {
	current, err := s.storage.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.SoftDeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	s.enqueueAndPublish(ctx, id, amqp.OpDelete, current.Version)

	return nil
}

// BucketsForRange projects the local entries of an inclusive range into the
// per-day buckets the aggregation engine and CSV export consume.
func (s *EntryService) BucketsForRange(ctx context.Context, r core.DateRange) (map[string]core.DayBucket, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.storage.ListRange(ctx, r.Start.Key(), r.End.Key())
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]core.DayBucket)
	for _, row := range rows {
		bucket := buckets[row.Date]
		switch row.Kind {
		case kindTime:
			bucket.Times = append(bucket.Times, core.TimeEntry{
				ID:     entryID(row),
				Task:   row.Label,
				Start:  row.StartTime,
				End:    row.EndTime,
				Hours:  row.Hours,
				Status: core.SyncStatus(row.SyncStatus),
			})
		case kindExpense:
			bucket.Expenses = append(bucket.Expenses, core.ExpenseEntry{
				ID:          entryID(row),
				Description: row.Label,
				Amount:      core.Money{Cents: row.AmountCents},
				Status:      core.SyncStatus(row.SyncStatus),
			})
		}
		buckets[row.Date] = bucket
	}
	return buckets, nil
}

// Summarize aggregates the range: totals plus exact-label breakdowns.
func (s *EntryService) Summarize(ctx context.Context, r core.DateRange) (core.AggregationResult, error) {
	buckets, err := s.BucketsForRange(ctx, r)
	if err != nil {
		return core.AggregationResult{}, err
	}
	return core.Aggregate(buckets, r)
}

// CalendarGrid returns per-day totals for the month containing the anchor.
func (s *EntryService) CalendarGrid(ctx context.Context, anchor core.Date) ([]core.GridCell, error) {
	r, err := core.ResolveRange(core.PeriodMonth, anchor)
	if err != nil {
		return nil, err
	}
	buckets, err := s.BucketsForRange(ctx, r)
	if err != nil {
		return nil, err
	}
	return core.Grid(buckets, anchor)
}

// Options returns remembered labels for a kind ("time" or "expense").
func (s *EntryService) Options(ctx context.Context, kind string) ([]string, error) {
	if kind != kindTime && kind != kindExpense {
		return nil, fmt.Errorf("unknown option kind %q", kind)
	}
	return s.storage.ListOptions(ctx, kind)
}

// entryID prefers the hosted store's reference once the entry is confirmed;
// before that the uuid placeholder stands in.
func entryID(row storage.Entry) string {
	if row.SyncStatus == string(core.SyncConfirmed) && row.RemoteRef != "" {
		return row.RemoteRef
	}
	return row.UUID
}

// enqueueAndPublish records the work durably and nudges the worker over
// AMQP. Publish failures are logged, never surfaced: the durable queue row
// guarantees the catch-up loop will get to it.
func (s *EntryService) enqueueAndPublish(ctx context.Context, id int64, operation string, version int64) {
	if err := s.storage.Enqueue(ctx, id, operation); err != nil {
		s.logger.ErrorContext(ctx, "Failed to enqueue sync work",
			"entry_id", id, "operation", operation, "error", err)
		return
	}

	if s.amqpClient == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, relying on poll loop",
			"entry_id", id)
		return
	}
	if err := s.amqpClient.PublishEntrySync(ctx, id, operation, version); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			"entry_id", id, "operation", operation, "error", err)
	}
}

// Close releases the service's storage and AMQP handles.
func (s *EntryService) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close entry service: %v", errs)
	}
	return nil
}
