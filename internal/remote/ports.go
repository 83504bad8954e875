// Package remote defines the ports for the hosted row store that is
// authoritative for durable entry existence. The store is a black box: two
// logical collections (entries and saved options) behind a request/response
// API, with no server-side logic of its own.
package remote

import (
	"context"

	"github.com/noobzdxz-gif/Tracking-App/internal/core"
)

// Row is the wire shape of one entry in the hosted store. The optional
// fields depend on the kind: time rows carry StartTime, EndTime and Hours;
// expense rows carry AmountCents. The unused fields stay zero.
type Row struct {
	Date        string // ISO day key
	Kind        string // "time" or "expense"
	Label       string // task label or expense description
	AmountCents int64
	StartTime   string
	EndTime     string
	Hours       float64
}

// StoredRow is a Row plus the backend-assigned reference.
type StoredRow struct {
	Ref string
	Row
}

// Ports for the hosted store, composed into backend.Backend.
type (
	RowWriter interface {
		// Append stores a new row and returns the backend row reference.
		Append(ctx context.Context, row Row) (ref string, err error)
	}

	RowUpdater interface {
		// Update replaces the row behind ref, preserving the reference.
		Update(ctx context.Context, ref string, row Row) error
	}

	RowDeleter interface {
		// Delete removes the row behind ref.
		Delete(ctx context.Context, ref string) error
	}

	RowLister interface {
		// ListRange returns every stored row whose date falls in the range.
		ListRange(ctx context.Context, r core.DateRange) ([]StoredRow, error)
	}

	// OptionStore holds the saved-options collection: remembered task labels
	// and expense descriptions, keyed by kind.
	OptionStore interface {
		ListOptions(ctx context.Context, kind string) ([]string, error)
		AppendOption(ctx context.Context, kind, content string) error
	}
)
