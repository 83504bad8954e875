package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/noobzdxz-gif/Tracking-App/internal/core"
	"github.com/noobzdxz-gif/Tracking-App/internal/log"
	"github.com/noobzdxz-gif/Tracking-App/internal/storage"
)

func newTestService(t *testing.T) (*EntryService, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	logger := log.New(log.DefaultConfig())
	return NewEntryService(repo, nil, logger), repo
}

func TestCreateTimeParsesAndDerivesHours(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	entry, err := svc.CreateTime(ctx, core.NewDate(2025, 3, 10), "Write report", "9am to 5pm")
	if err != nil {
		t.Fatalf("CreateTime: %v", err)
	}
	if entry.Time.Start != "09:00" || entry.Time.End != "17:00" {
		t.Errorf("normalized times = (%q, %q)", entry.Time.Start, entry.Time.End)
	}
	if entry.Time.Hours != 8 {
		t.Errorf("Hours = %v, want 8", entry.Time.Hours)
	}
	if entry.Time.Status != core.SyncPending {
		t.Errorf("Status = %q, want pending", entry.Time.Status)
	}
	if entry.Time.ID == "" {
		t.Error("expected a placeholder id")
	}

	stored, err := repo.GetEntry(ctx, entry.LocalID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if stored.Hours != 8 || stored.SyncStatus != "pending" {
		t.Errorf("stored entry: %+v", stored)
	}

	// Each mutation leaves durable sync work behind.
	items, err := repo.DequeueBatch(ctx, 10)
	if err != nil {
		t.Fatalf("DequeueBatch: %v", err)
	}
	if len(items) != 1 || items[0].Operation != "sync" {
		t.Errorf("queue after create: %+v", items)
	}
}

func TestCreateTimeRejectsBadInput(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	date := core.NewDate(2025, 3, 10)

	if _, err := svc.CreateTime(ctx, date, "Write", "noon to 1pm"); !errors.Is(err, core.ErrParseFailure) {
		t.Errorf("unparseable range: got %v, want ErrParseFailure", err)
	}
	if _, err := svc.CreateTime(ctx, date, "Write", "5pm to 9am"); !errors.Is(err, core.ErrInvalidRange) {
		t.Errorf("reversed range: got %v, want ErrInvalidRange", err)
	}
	if _, err := svc.CreateTime(ctx, date, " ", "9am to 5pm"); !errors.Is(err, core.ErrEmptyTask) {
		t.Errorf("blank task: got %v, want ErrEmptyTask", err)
	}

	// Rejected entries are never persisted, not even partially.
	entries, err := repo.ListRange(ctx, "2025-03-10", "2025-03-10")
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("rejected input persisted: %+v", entries)
	}
}

func TestCreateExpense(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	date := core.NewDate(2025, 3, 10)

	entry, err := svc.CreateExpense(ctx, date, "Coffee", "4.50")
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if entry.Expense.Amount.Cents != 450 {
		t.Errorf("Amount = %d cents, want 450", entry.Expense.Amount.Cents)
	}

	if _, err := svc.CreateExpense(ctx, date, "Refund", "-2.00"); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}
	if _, err := svc.CreateExpense(ctx, date, "", "2.00"); !errors.Is(err, core.ErrEmptyDescription) {
		t.Errorf("blank description: got %v, want ErrEmptyDescription", err)
	}
}

func TestUpdatePreservesIdentifier(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	date := core.NewDate(2025, 3, 10)

	created, err := svc.CreateTime(ctx, date, "Write", "9am to 11am")
	if err != nil {
		t.Fatalf("CreateTime: %v", err)
	}

	updated, err := svc.UpdateTime(ctx, created.LocalID, date, "Write more", "9am to 12pm")
	if err != nil {
		t.Fatalf("UpdateTime: %v", err)
	}
	if updated.Time.ID != created.Time.ID {
		t.Errorf("identifier changed on update: %q vs %q", updated.Time.ID, created.Time.ID)
	}
	if updated.Time.Hours != 3 {
		t.Errorf("Hours = %v, want 3", updated.Time.Hours)
	}

	stored, err := repo.GetEntry(ctx, created.LocalID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if stored.Version != 2 {
		t.Errorf("Version = %d, want 2", stored.Version)
	}
}

func TestUpdateRejectsKindMismatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	date := core.NewDate(2025, 3, 10)

	created, err := svc.CreateExpense(ctx, date, "Coffee", "4.50")
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if _, err := svc.UpdateTime(ctx, created.LocalID, date, "Write", "9am to 5pm"); err == nil {
		t.Error("expected kind mismatch error")
	}
}

func TestDeleteHidesEntry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	date := core.NewDate(2025, 3, 10)

	created, err := svc.CreateTime(ctx, date, "Write", "9am to 11am")
	if err != nil {
		t.Fatalf("CreateTime: %v", err)
	}
	if err := svc.Delete(ctx, created.LocalID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	r := core.DateRange{Start: date, End: date}
	buckets, err := svc.BucketsForRange(ctx, r)
	if err != nil {
		t.Fatalf("BucketsForRange: %v", err)
	}
	if len(buckets) != 0 {
		t.Errorf("deleted entry still projected: %+v", buckets)
	}

	if err := svc.Delete(ctx, created.LocalID+100); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing entry: got %v, want ErrNotFound", err)
	}
}

func TestSummarize(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateTime(ctx, core.NewDate(2025, 3, 10), "Write", "9:00 to 11:00"); err != nil {
		t.Fatalf("CreateTime: %v", err)
	}
	if _, err := svc.CreateTime(ctx, core.NewDate(2025, 3, 11), "Write", "9:00 to 10:30"); err != nil {
		t.Fatalf("CreateTime: %v", err)
	}
	if _, err := svc.CreateExpense(ctx, core.NewDate(2025, 3, 10), "Coffee", "4.50"); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	r := core.DateRange{Start: core.NewDate(2025, 3, 10), End: core.NewDate(2025, 3, 11)}
	result, err := svc.Summarize(ctx, r)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if result.TotalHours != 3.5 {
		t.Errorf("TotalHours = %v, want 3.5", result.TotalHours)
	}
	if result.TotalMoney.Cents != 450 {
		t.Errorf("TotalMoney = %d cents, want 450", result.TotalMoney.Cents)
	}
	if result.TaskBreakdown["Write"] != 3.5 {
		t.Errorf("TaskBreakdown = %v", result.TaskBreakdown)
	}
}

func TestOptionsRemembered(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateTime(ctx, core.NewDate(2025, 3, 10), "Write", "9am to 10am"); err != nil {
		t.Fatalf("CreateTime: %v", err)
	}
	if _, err := svc.CreateExpense(ctx, core.NewDate(2025, 3, 10), "Coffee", "4.50"); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	tasks, err := svc.Options(ctx, "time")
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if len(tasks) != 1 || tasks[0] != "Write" {
		t.Errorf("time options = %v", tasks)
	}

	if _, err := svc.Options(ctx, "recipes"); err == nil {
		t.Error("expected error for unknown option kind")
	}
}
