// Package storage keeps the local SQLite projection of the entry log and
// the durable queue that feeds the remote sync.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("storage: not found")

// ErrNoRevision is returned when a rollback finds no stored snapshot.
var ErrNoRevision = errors.New("storage: no revision to restore")

// Entry is the projection row for a single logged entry. Kind is "time" or
// "expense"; time entries carry StartTime, EndTime and Hours, expense
// entries carry AmountCents.
type Entry struct {
	ID          int64
	UUID        string
	Date        string
	Kind        string
	Label       string
	AmountCents int64
	StartTime   string
	EndTime     string
	Hours       float64
	RemoteRef   string
	SyncStatus  string
	Version     int64
}

// QueueItem is one pending unit of remote work.
type QueueItem struct {
	ID        int64
	EntryID   int64
	Operation string
	Status    string
	Attempts  int
	LastError string
}

// Repository wraps the SQLite projection database.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if needed) the projection database at dbPath
// and runs pending migrations.
func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

const entryColumns = `id, uuid, entry_date, kind, label, amount_cents,
	start_time, end_time, hours, remote_ref, sync_status, version`

func scanEntry(row interface{ Scan(...any) error }) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.UUID, &e.Date, &e.Kind, &e.Label, &e.AmountCents,
		&e.StartTime, &e.EndTime, &e.Hours, &e.RemoteRef, &e.SyncStatus, &e.Version)
	return e, err
}

// CreateEntry inserts a new entry and returns its local id. SyncStatus and
// Version come from the struct so callers control the initial state.
func (r *Repository) CreateEntry(ctx context.Context, e Entry) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (uuid, entry_date, kind, label, amount_cents,
			start_time, end_time, hours, remote_ref, sync_status, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UUID, e.Date, e.Kind, e.Label, e.AmountCents,
		e.StartTime, e.EndTime, e.Hours, e.RemoteRef, e.SyncStatus, e.Version)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("entry id: %w", err)
	}
	return id, nil
}

// GetEntry fetches an entry by local id, including soft-deleted ones so the
// sync layer can still resolve delete operations.
func (r *Repository) GetEntry(ctx context.Context, id int64) (Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get entry %d: %w", id, err)
	}
	return e, nil
}

// UpdateEntry snapshots the current row into entry_revisions, then applies
// the new field values, bumps the version and resets sync_status to pending.
// The whole step runs in one transaction so a crash cannot lose the snapshot.
func (r *Repository) UpdateEntry(ctx context.Context, e Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO entry_revisions (entry_id, entry_date, kind, label,
			amount_cents, start_time, end_time, hours, remote_ref, version)
		SELECT id, entry_date, kind, label, amount_cents, start_time,
			end_time, hours, remote_ref, version
		FROM entries WHERE id = ? AND deleted_at IS NULL`, e.ID)
	if err != nil {
		return fmt.Errorf("snapshot entry %d: %w", e.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE entries
		SET entry_date = ?, label = ?, amount_cents = ?, start_time = ?,
			end_time = ?, hours = ?, sync_status = 'pending',
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		e.Date, e.Label, e.AmountCents, e.StartTime, e.EndTime, e.Hours, e.ID)
	if err != nil {
		return fmt.Errorf("update entry %d: %w", e.ID, err)
	}

	return tx.Commit()
}

// SoftDeleteEntry marks the entry deleted and pending so the remote delete
// can be replayed until it is confirmed.
func (r *Repository) SoftDeleteEntry(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entries
		SET deleted_at = CURRENT_TIMESTAMP, sync_status = 'pending',
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RestoreSoftDeleted clears deleted_at on an entry whose remote delete could
// not be completed, so it resurfaces in views. The entry is marked failed:
// the remote row still exists and the user decides whether to retry.
func (r *Repository) RestoreSoftDeleted(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entries
		SET deleted_at = NULL, sync_status = 'failed', updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("restore deleted entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRange returns live entries with entry_date between startKey and endKey
// inclusive, ordered by date then insertion order.
func (r *Repository) ListRange(ctx context.Context, startKey, endKey string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE deleted_at IS NULL AND entry_date >= ? AND entry_date <= ?
		ORDER BY entry_date, id`, startKey, endKey)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkConfirmed records the remote reference after a successful push and
// flips the entry to confirmed.
func (r *Repository) MarkConfirmed(ctx context.Context, id int64, remoteRef string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE entries
		SET remote_ref = ?, sync_status = 'confirmed', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, remoteRef, id)
	if err != nil {
		return fmt.Errorf("confirm entry %d: %w", id, err)
	}
	return nil
}

// MarkSyncFailed flips the entry to failed without touching its fields.
func (r *Repository) MarkSyncFailed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE entries
		SET sync_status = 'failed', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark entry %d failed: %w", id, err)
	}
	return nil
}

// RestoreLastRevision rolls the entry back to its most recent snapshot and
// consumes that snapshot. The restored row is marked confirmed again since
// the snapshot reflects the last state the remote store accepted.
func (r *Repository) RestoreLastRevision(ctx context.Context, entryID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, entry_date, kind, label, amount_cents, start_time,
			end_time, hours, remote_ref, version
		FROM entry_revisions
		WHERE entry_id = ?
		ORDER BY id DESC
		LIMIT 1`, entryID)

	var (
		revID                       int64
		date, kind, label           string
		amountCents                 int64
		startTime, endTime, ref     string
		hours                       float64
		version                     int64
	)
	err = row.Scan(&revID, &date, &kind, &label, &amountCents,
		&startTime, &endTime, &hours, &ref, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRevision
	}
	if err != nil {
		return fmt.Errorf("load revision for entry %d: %w", entryID, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE entries
		SET entry_date = ?, label = ?, amount_cents = ?, start_time = ?,
			end_time = ?, hours = ?, remote_ref = ?, version = ?,
			sync_status = 'confirmed', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		date, label, amountCents, startTime, endTime, hours, ref, version, entryID)
	if err != nil {
		return fmt.Errorf("restore entry %d: %w", entryID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entry_revisions WHERE id = ?`, revID); err != nil {
		return fmt.Errorf("consume revision %d: %w", revID, err)
	}

	return tx.Commit()
}

// Enqueue appends a sync operation for the entry.
func (r *Repository) Enqueue(ctx context.Context, entryID int64, operation string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_queue (entry_id, operation) VALUES (?, ?)`,
		entryID, operation)
	if err != nil {
		return fmt.Errorf("enqueue %s for entry %d: %w", operation, entryID, err)
	}
	return nil
}

// DequeueBatch claims up to limit pending items, oldest first, marking them
// processing so concurrent pollers do not pick them up twice.
func (r *Repository) DequeueBatch(ctx context.Context, limit int) ([]QueueItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin dequeue: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, entry_id, operation, status, attempts, last_error
		FROM sync_queue
		WHERE status = 'pending'
		ORDER BY created_at, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending: %w", err)
	}

	var items []QueueItem
	for rows.Next() {
		var it QueueItem
		if err := rows.Scan(&it.ID, &it.EntryID, &it.Operation, &it.Status,
			&it.Attempts, &it.LastError); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range items {
		if _, err := tx.ExecContext(ctx, `
			UPDATE sync_queue
			SET status = 'processing', updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, items[i].ID); err != nil {
			return nil, fmt.Errorf("claim queue item %d: %w", items[i].ID, err)
		}
		items[i].Status = "processing"
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkDone completes a queue item.
func (r *Repository) MarkDone(ctx context.Context, queueID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sync_queue
		SET status = 'done', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, queueID)
	if err != nil {
		return fmt.Errorf("mark queue item %d done: %w", queueID, err)
	}
	return nil
}

// MarkError records a failed attempt and returns the new attempt count.
// The item goes back to pending; the caller decides when it is terminal.
func (r *Repository) MarkError(ctx context.Context, queueID int64, msg string) (int, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sync_queue
		SET status = 'pending', attempts = attempts + 1, last_error = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, msg, queueID)
	if err != nil {
		return 0, fmt.Errorf("record error on queue item %d: %w", queueID, err)
	}

	var attempts int
	err = r.db.QueryRowContext(ctx,
		`SELECT attempts FROM sync_queue WHERE id = ?`, queueID).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("read attempts for queue item %d: %w", queueID, err)
	}
	return attempts, nil
}

// MarkFailed parks a queue item permanently after retries are exhausted.
func (r *Repository) MarkFailed(ctx context.Context, queueID int64, msg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sync_queue
		SET status = 'failed', last_error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, msg, queueID)
	if err != nil {
		return fmt.Errorf("mark queue item %d failed: %w", queueID, err)
	}
	return nil
}

// ResetStaleProcessing returns items stuck in processing longer than age to
// pending. Covers workers that died mid-batch.
func (r *Repository) ResetStaleProcessing(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age).Format("2006-01-02 15:04:05")
	res, err := r.db.ExecContext(ctx, `
		UPDATE sync_queue
		SET status = 'pending', updated_at = CURRENT_TIMESTAMP
		WHERE status = 'processing' AND updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reset stale items: %w", err)
	}
	return res.RowsAffected()
}

// CleanupCompleted drops done queue items older than age.
func (r *Repository) CleanupCompleted(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age).Format("2006-01-02 15:04:05")
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM sync_queue
		WHERE status = 'done' AND updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup queue: %w", err)
	}
	return res.RowsAffected()
}

// SaveOption stores a reusable label suggestion; duplicates are ignored.
func (r *Repository) SaveOption(ctx context.Context, kind, content string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO saved_options (kind, content) VALUES (?, ?)
		ON CONFLICT (kind, content) DO NOTHING`, kind, content)
	if err != nil {
		return fmt.Errorf("save option: %w", err)
	}
	return nil
}

// ListOptions returns saved label suggestions for a kind, oldest first.
func (r *Repository) ListOptions(ctx context.Context, kind string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT content FROM saved_options WHERE kind = ? ORDER BY id`, kind)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	defer rows.Close()

	var options []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		options = append(options, content)
	}
	return options, rows.Err()
}
