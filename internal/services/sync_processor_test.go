package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/noobzdxz-gif/Tracking-App/internal/core"
	"github.com/noobzdxz-gif/Tracking-App/internal/log"
	"github.com/noobzdxz-gif/Tracking-App/internal/remote/memory"
	"github.com/noobzdxz-gif/Tracking-App/internal/storage"
)

func newTestProcessor(t *testing.T) (*SyncProcessor, *EntryService, *storage.Repository, *memory.Store) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.DefaultConfig())
	store := memory.New()
	config := DefaultSyncProcessorConfig()
	config.MaxRetries = 3

	processor := NewSyncProcessor(repo, store, config, logger)
	svc := NewEntryService(repo, nil, logger)
	return processor, svc, repo, store
}

func TestProcessBatchConfirmsAndSwapsPlaceholder(t *testing.T) {
	processor, svc, repo, store := newTestProcessor(t)
	ctx := context.Background()

	created, err := svc.CreateTime(ctx, core.NewDate(2025, 3, 10), "Write", "9am to 11am")
	if err != nil {
		t.Fatalf("CreateTime: %v", err)
	}

	processor.ProcessBatch(ctx)

	stored, err := repo.GetEntry(ctx, created.LocalID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if stored.SyncStatus != "confirmed" {
		t.Errorf("SyncStatus = %q, want confirmed", stored.SyncStatus)
	}
	if stored.RemoteRef != "mem:1" {
		t.Errorf("RemoteRef = %q, want mem:1", stored.RemoteRef)
	}
	if store.Len() != 1 {
		t.Errorf("remote store holds %d rows, want 1", store.Len())
	}

	// The projected entry now carries the remote reference as its id.
	buckets, err := svc.BucketsForRange(ctx, core.DateRange{
		Start: core.NewDate(2025, 3, 10), End: core.NewDate(2025, 3, 10),
	})
	if err != nil {
		t.Fatalf("BucketsForRange: %v", err)
	}
	times := buckets["2025-03-10"].Times
	if len(times) != 1 || times[0].ID != "mem:1" {
		t.Errorf("projected entry = %+v, want id mem:1", times)
	}
}

func TestProcessBatchUpdatesConfirmedRowInPlace(t *testing.T) {
	processor, svc, repo, store := newTestProcessor(t)
	ctx := context.Background()

	created, err := svc.CreateTime(ctx, core.NewDate(2025, 3, 10), "Write", "9am to 11am")
	if err != nil {
		t.Fatalf("CreateTime: %v", err)
	}
	processor.ProcessBatch(ctx)

	if _, err := svc.UpdateTime(ctx, created.LocalID, core.NewDate(2025, 3, 10), "Write more", "9am to 12pm"); err != nil {
		t.Fatalf("UpdateTime: %v", err)
	}
	processor.ProcessBatch(ctx)

	if store.Len() != 1 {
		t.Errorf("update appended instead of replacing: %d rows", store.Len())
	}
	rows, err := store.ListRange(ctx, core.DateRange{
		Start: core.NewDate(2025, 3, 10), End: core.NewDate(2025, 3, 10),
	})
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if len(rows) != 1 || rows[0].Row.Label != "Write more" || rows[0].Row.Hours != 3 {
		t.Errorf("remote row = %+v", rows)
	}

	stored, err := repo.GetEntry(ctx, created.LocalID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if stored.SyncStatus != "confirmed" {
		t.Errorf("SyncStatus = %q, want confirmed", stored.SyncStatus)
	}
}

func TestProcessBatchDeletesRemoteRow(t *testing.T) {
	processor, svc, _, store := newTestProcessor(t)
	ctx := context.Background()

	created, err := svc.CreateExpense(ctx, core.NewDate(2025, 3, 10), "Coffee", "4.50")
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	processor.ProcessBatch(ctx)
	if store.Len() != 1 {
		t.Fatalf("remote store holds %d rows, want 1", store.Len())
	}

	if err := svc.Delete(ctx, created.LocalID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	processor.ProcessBatch(ctx)

	if store.Len() != 0 {
		t.Errorf("remote row not deleted: %d rows", store.Len())
	}
}

func TestFailedCreateMarksEntryFailed(t *testing.T) {
	processor, svc, repo, store := newTestProcessor(t)
	ctx := context.Background()

	store.FailAppends = true

	created, err := svc.CreateTime(ctx, core.NewDate(2025, 3, 10), "Write", "9am to 11am")
	if err != nil {
		t.Fatalf("CreateTime: %v", err)
	}

	// One batch per retry; the third attempt is terminal.
	for range 3 {
		processor.ProcessBatch(ctx)
	}

	stored, err := repo.GetEntry(ctx, created.LocalID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if stored.SyncStatus != "failed" {
		t.Errorf("SyncStatus = %q, want failed", stored.SyncStatus)
	}

	// The parked item never comes back.
	processor.ProcessBatch(ctx)
	items, err := repo.DequeueBatch(ctx, 10)
	if err != nil {
		t.Fatalf("DequeueBatch: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("terminal item requeued: %+v", items)
	}
}

func TestFailedUpdateRollsBackToConfirmedState(t *testing.T) {
	processor, svc, repo, store := newTestProcessor(t)
	ctx := context.Background()

	created, err := svc.CreateTime(ctx, core.NewDate(2025, 3, 10), "Write", "9am to 11am")
	if err != nil {
		t.Fatalf("CreateTime: %v", err)
	}
	processor.ProcessBatch(ctx)

	if _, err := svc.UpdateTime(ctx, created.LocalID, core.NewDate(2025, 3, 10), "Broken update", "9am to 12pm"); err != nil {
		t.Fatalf("UpdateTime: %v", err)
	}

	// Drop the remote row so the in-place update cannot succeed.
	if err := store.Delete(ctx, "mem:1"); err != nil {
		t.Fatalf("Delete remote row: %v", err)
	}

	for range 3 {
		processor.ProcessBatch(ctx)
	}

	stored, err := repo.GetEntry(ctx, created.LocalID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if stored.Label != "Write" {
		t.Errorf("Label = %q, want the pre-update value", stored.Label)
	}
	if stored.Hours != 2 {
		t.Errorf("Hours = %v, want 2", stored.Hours)
	}
	if stored.SyncStatus != "confirmed" {
		t.Errorf("SyncStatus = %q, want confirmed after rollback", stored.SyncStatus)
	}
	if stored.Version != 1 {
		t.Errorf("Version = %d, want 1", stored.Version)
	}
}

func TestFailedDeleteRestoresLocalEntry(t *testing.T) {
	processor, svc, repo, store := newTestProcessor(t)
	ctx := context.Background()

	created, err := svc.CreateExpense(ctx, core.NewDate(2025, 3, 10), "Coffee", "4.50")
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	processor.ProcessBatch(ctx)

	if err := svc.Delete(ctx, created.LocalID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	store.FailDeletes = true

	for range 3 {
		processor.ProcessBatch(ctx)
	}

	// The remote row survived, so hiding the entry locally would be a silent
	// divergence: it comes back, marked failed.
	if store.Len() != 1 {
		t.Fatalf("remote store holds %d rows, want 1", store.Len())
	}
	stored, err := repo.GetEntry(ctx, created.LocalID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if stored.SyncStatus != "failed" {
		t.Errorf("SyncStatus = %q, want failed", stored.SyncStatus)
	}

	buckets, err := svc.BucketsForRange(ctx, core.DateRange{
		Start: core.NewDate(2025, 3, 10), End: core.NewDate(2025, 3, 10),
	})
	if err != nil {
		t.Fatalf("BucketsForRange: %v", err)
	}
	expenses := buckets["2025-03-10"].Expenses
	if len(expenses) != 1 {
		t.Fatalf("restored entry not visible: %+v", buckets)
	}
	if expenses[0].Status != core.SyncFailed {
		t.Errorf("projected status = %q, want failed", expenses[0].Status)
	}
}

func TestStartStop(t *testing.T) {
	processor, _, _, _ := newTestProcessor(t)
	ctx := context.Background()

	if err := processor.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !processor.IsRunning() {
		t.Error("processor not running after Start")
	}
	if err := processor.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := processor.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if processor.IsRunning() {
		t.Error("processor still running after Stop")
	}
}
