// Package worker consumes AMQP sync messages and keeps the local option
// cache warm from the hosted store.
package worker

import (
	"context"
	"fmt"

	"github.com/noobzdxz-gif/Tracking-App/internal/amqp"
	"github.com/noobzdxz-gif/Tracking-App/internal/backend"
	"github.com/noobzdxz-gif/Tracking-App/internal/log"
	"github.com/noobzdxz-gif/Tracking-App/internal/services"
	"github.com/noobzdxz-gif/Tracking-App/internal/storage"
)

var optionKinds = []string{"time", "expense"}

// SyncWorker reacts to AMQP messages by draining the durable sync queue.
// The message itself carries no entry data; it is only a nudge — the queue
// row in SQLite is the source of truth, so a lost message costs nothing but
// latency until the next poll.
type SyncWorker struct {
	storage   *storage.Repository
	processor *services.SyncProcessor
	store     backend.Backend
	logger    *log.Logger
}

func NewSyncWorker(repo *storage.Repository, processor *services.SyncProcessor, store backend.Backend, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		storage:   repo,
		processor: processor,
		store:     store,
		logger:    logger.WithComponent("sync-worker"),
	}
}

// HandleMessage processes one sync nudge. A malformed message is an error
// so the consumer drops it rather than requeueing forever.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid sync message: %w", err)
	}

	w.logger.DebugContext(ctx, "Received sync message",
		"entry_id", msg.EntryID,
		"operation", msg.Operation,
		"version", msg.Version)

	w.processor.ProcessBatch(ctx)
	return nil
}

// StartupCheck drains work that accumulated while the worker was down.
func (w *SyncWorker) StartupCheck(ctx context.Context) {
	w.logger.InfoContext(ctx, "Running startup catch-up sync")
	w.processor.ProcessBatch(ctx)
}

// RefreshOptions pulls saved label suggestions from the hosted store into
// the local cache so the server can offer them without a remote round trip.
func (w *SyncWorker) RefreshOptions(ctx context.Context) error {
	for _, kind := range optionKinds {
		options, err := w.store.ListOptions(ctx, kind)
		if err != nil {
			return fmt.Errorf("list %s options: %w", kind, err)
		}
		for _, content := range options {
			if err := w.storage.SaveOption(ctx, kind, content); err != nil {
				w.logger.WarnContext(ctx, "Failed to cache option",
					"kind", kind, "content", content, "error", err)
			}
		}
		w.logger.DebugContext(ctx, "Refreshed option cache",
			"kind", kind, "count", len(options))
	}
	return nil
}
