// Package backend selects and constructs the hosted row store.
package backend

import (
	"context"
	"fmt"

	"github.com/noobzdxz-gif/Tracking-App/internal/log"
	"github.com/noobzdxz-gif/Tracking-App/internal/remote"
	"github.com/noobzdxz-gif/Tracking-App/internal/remote/memory"
	"github.com/noobzdxz-gif/Tracking-App/internal/remote/sheets"
)

// Backend is the full hosted-store surface the sync layer talks to.
type Backend interface {
	remote.RowWriter
	remote.RowUpdater
	remote.RowDeleter
	remote.RowLister
	remote.OptionStore
}

// Type selects the remote store implementation.
type Type string

const (
	MemoryBackend Type = "memory"
	SheetsBackend Type = "sheets"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid reports whether the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// New creates a backend of the given type.
func New(ctx context.Context, t Type, logger *log.Logger) (Backend, error) {
	switch t {
	case MemoryBackend:
		logger.Info("Initialized memory backend")
		return memory.New(), nil
	case SheetsBackend:
		cli, err := sheets.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		logger.Info("Initialized Google Sheets backend")
		return cli, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", t)
	}
}
