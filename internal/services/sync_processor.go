package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/noobzdxz-gif/Tracking-App/internal/backend"
	"github.com/noobzdxz-gif/Tracking-App/internal/log"
	"github.com/noobzdxz-gif/Tracking-App/internal/remote"
	"github.com/noobzdxz-gif/Tracking-App/internal/storage"
)

// SyncProcessorConfig tunes the poll loop.
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending queue items.
	PollInterval time.Duration

	// BatchSize caps items claimed per poll cycle.
	BatchSize int

	// MaxRetries is how many attempts an item gets before it is terminal.
	MaxRetries int

	// CleanupInterval is how often completed items are swept.
	CleanupInterval time.Duration

	// CleanupAge is how old a completed item must be before the sweep
	// removes it.
	CleanupAge time.Duration

	// StaleAge is how long an item may sit in processing before it is
	// assumed orphaned by a dead worker and returned to pending.
	StaleAge time.Duration
}

// DefaultSyncProcessorConfig returns the defaults used by the binaries.
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval:    10 * time.Second,
		BatchSize:       10,
		MaxRetries:      3,
		CleanupInterval: 1 * time.Hour,
		CleanupAge:      24 * time.Hour,
		StaleAge:        10 * time.Minute,
	}
}

// SyncProcessor drains the durable sync queue into the hosted row store.
// On success the entry is confirmed and its placeholder id swapped for the
// store's row reference; when retries run out the entry rolls back to its
// last confirmed snapshot and is marked failed.
type SyncProcessor struct {
	storage *storage.Repository
	store   backend.Backend
	config  SyncProcessorConfig
	logger  *log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(repo *storage.Repository, store backend.Backend, config SyncProcessorConfig, logger *log.Logger) *SyncProcessor {
	return &SyncProcessor{
		storage: repo,
		store:   store,
		config:  config,
		logger:  logger.WithComponent("sync-processor"),
	}
}

// Start begins the poll loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	// Items a crashed worker left in processing go back to pending.
	if n, err := p.storage.ResetStaleProcessing(ctx, p.config.StaleAge); err != nil {
		p.logger.WarnContext(ctx, "Failed to reset stale processing items", "error", err)
	} else if n > 0 {
		p.logger.InfoContext(ctx, "Requeued stale processing items", "count", n)
	}

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop signals the loop and waits for it to drain or the context to expire.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		p.logger.InfoContext(ctx, "Sync processor stopped")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning reports whether the loop is active.
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	cleanupTicker := time.NewTicker(p.config.CleanupInterval)
	defer cleanupTicker.Stop()

	// Drain whatever accumulated while we were down.
	p.ProcessBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.ProcessBatch(ctx)
		case <-cleanupTicker.C:
			p.cleanupCompleted(ctx)
		}
	}
}

// ProcessBatch claims and processes one batch of pending items. Exported so
// the AMQP worker can trigger a drain as soon as a message arrives instead
// of waiting out the poll interval.
func (p *SyncProcessor) ProcessBatch(ctx context.Context) {
	items, err := p.storage.DequeueBatch(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to dequeue sync batch", "error", err)
		return
	}
	if len(items) == 0 {
		return
	}

	p.logger.DebugContext(ctx, "Processing sync batch", "count", len(items))

	for _, item := range items {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		var processErr error
		switch item.Operation {
		case "sync":
			processErr = p.processSyncItem(ctx, item)
		case "delete":
			processErr = p.processDeleteItem(ctx, item)
		default:
			processErr = fmt.Errorf("unknown operation: %s", item.Operation)
		}

		if processErr != nil {
			p.handleFailure(ctx, item, processErr)
		} else {
			p.handleSuccess(ctx, item)
		}
	}
}

// processSyncItem pushes the entry's current state to the hosted store.
// Unconfirmed entries are appended; confirmed ones update their row in
// place.
func (p *SyncProcessor) processSyncItem(ctx context.Context, item storage.QueueItem) error {
	entry, err := p.storage.GetEntry(ctx, item.EntryID)
	if errors.Is(err, storage.ErrNotFound) {
		// Hard-deleted since enqueue; nothing to push.
		return nil
	}
	if err != nil {
		return fmt.Errorf("get entry %d: %w", item.EntryID, err)
	}

	row := remoteRow(entry)

	if entry.RemoteRef != "" {
		if err := p.store.Update(ctx, entry.RemoteRef, row); err != nil {
			return fmt.Errorf("update remote row %s: %w", entry.RemoteRef, err)
		}
		if err := p.storage.MarkConfirmed(ctx, entry.ID, entry.RemoteRef); err != nil {
			p.logger.WarnContext(ctx, "Failed to mark entry confirmed",
				"entry_id", entry.ID, "error", err)
		}
		p.logger.InfoContext(ctx, "Updated entry on remote store",
			"entry_id", entry.ID, "remote_ref", entry.RemoteRef)
		return nil
	}

	ref, err := p.store.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("append to remote store: %w", err)
	}
	// The uuid placeholder gives way to the store's reference.
	if err := p.storage.MarkConfirmed(ctx, entry.ID, ref); err != nil {
		p.logger.WarnContext(ctx, "Failed to record remote reference",
			"entry_id", entry.ID, "remote_ref", ref, "error", err)
	}
	p.logger.InfoContext(ctx, "Synced entry to remote store",
		"entry_id", entry.ID, "remote_ref", ref)
	return nil
}

// processDeleteItem removes the entry's row from the hosted store. Entries
// that never got a remote reference have nothing to delete.
func (p *SyncProcessor) processDeleteItem(ctx context.Context, item storage.QueueItem) error {
	entry, err := p.storage.GetEntry(ctx, item.EntryID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get entry %d: %w", item.EntryID, err)
	}

	if entry.RemoteRef == "" {
		p.logger.DebugContext(ctx, "Entry was never synced, skipping remote delete",
			"entry_id", entry.ID)
		return nil
	}

	if err := p.store.Delete(ctx, entry.RemoteRef); err != nil {
		return fmt.Errorf("delete remote row %s: %w", entry.RemoteRef, err)
	}

	p.logger.InfoContext(ctx, "Deleted entry from remote store",
		"entry_id", entry.ID, "remote_ref", entry.RemoteRef)
	return nil
}

func (p *SyncProcessor) handleSuccess(ctx context.Context, item storage.QueueItem) {
	if err := p.storage.MarkDone(ctx, item.ID); err != nil {
		p.logger.ErrorContext(ctx, "Failed to mark sync item done",
			"id", item.ID, "error", err)
	}
}

// handleFailure retries until MaxRetries, then parks the item and rolls the
// entry back: syncs return to their last confirmed snapshot, deletes are
// undone locally. Either way the entry ends up marked failed.
func (p *SyncProcessor) handleFailure(ctx context.Context, item storage.QueueItem, processErr error) {
	p.logger.WarnContext(ctx, "Sync processing failed",
		"id", item.ID,
		"entry_id", item.EntryID,
		"operation", item.Operation,
		"attempt", item.Attempts+1,
		"error", processErr)

	if item.Attempts+1 < p.config.MaxRetries {
		if _, err := p.storage.MarkError(ctx, item.ID, processErr.Error()); err != nil {
			p.logger.ErrorContext(ctx, "Failed to record sync attempt",
				"id", item.ID, "error", err)
		}
		return
	}

	if err := p.storage.MarkFailed(ctx, item.ID, processErr.Error()); err != nil {
		p.logger.ErrorContext(ctx, "Failed to park sync item",
			"id", item.ID, "error", err)
	}

	if item.Operation == "delete" {
		// Optimistic rollback for deletes: the remote row survived, so the
		// local soft delete is undone and the entry resurfaces as failed.
		err := p.storage.RestoreSoftDeleted(ctx, item.EntryID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// Already gone or restored elsewhere; nothing to resurface.
		case err != nil:
			p.logger.ErrorContext(ctx, "Failed to restore deleted entry",
				"entry_id", item.EntryID, "error", err)
		default:
			p.logger.InfoContext(ctx, "Restored locally deleted entry after failed remote delete",
				"entry_id", item.EntryID)
		}
	} else {
		if err := p.storage.MarkSyncFailed(ctx, item.EntryID); err != nil {
			p.logger.ErrorContext(ctx, "Failed to mark entry failed",
				"entry_id", item.EntryID, "error", err)
		}

		// Optimistic rollback: restore the last state the remote accepted.
		err := p.storage.RestoreLastRevision(ctx, item.EntryID)
		switch {
		case errors.Is(err, storage.ErrNoRevision):
			// A brand new entry has no good state to return to; it stays
			// visible as failed so the user can retry or discard it.
		case err != nil:
			p.logger.ErrorContext(ctx, "Failed to roll back entry",
				"entry_id", item.EntryID, "error", err)
		default:
			p.logger.InfoContext(ctx, "Rolled entry back to last confirmed state",
				"entry_id", item.EntryID)
		}
	}

	p.logger.ErrorContext(ctx, "Sync item failed permanently",
		"id", item.ID,
		"entry_id", item.EntryID,
		"attempts", item.Attempts+1)
}

func (p *SyncProcessor) cleanupCompleted(ctx context.Context) {
	n, err := p.storage.CleanupCompleted(ctx, p.config.CleanupAge)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to clean up completed sync items", "error", err)
		return
	}
	if n > 0 {
		p.logger.DebugContext(ctx, "Cleaned up completed sync items", "count", n)
	}
}

// remoteRow maps a projection row onto the hosted store's row shape.
func remoteRow(entry storage.Entry) remote.Row {
	row := remote.Row{
		Date:  entry.Date,
		Kind:  entry.Kind,
		Label: entry.Label,
	}
	if entry.Kind == kindExpense {
		row.AmountCents = entry.AmountCents
	} else {
		row.StartTime = entry.StartTime
		row.EndTime = entry.EndTime
		row.Hours = entry.Hours
	}
	return row
}
