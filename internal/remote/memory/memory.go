// Package memory is an in-memory remote store used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/noobzdxz-gif/Tracking-App/internal/core"
	"github.com/noobzdxz-gif/Tracking-App/internal/remote"
)

type Store struct {
	mu      sync.Mutex
	nextRef int
	rows    map[string]remote.Row // keyed by ref
	refs    []string              // insertion order
	options map[string][]string   // kind -> contents

	// FailAppends and FailDeletes make the matching operation fail, for
	// exercising rollback paths.
	FailAppends bool
	FailDeletes bool
}

func New() *Store {
	return &Store{
		rows:    make(map[string]remote.Row),
		options: make(map[string][]string),
	}
}

// Append stores the row and returns a synthetic reference.
func (s *Store) Append(_ context.Context, row remote.Row) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAppends {
		return "", fmt.Errorf("append rejected")
	}
	s.nextRef++
	ref := fmt.Sprintf("mem:%d", s.nextRef)
	s.rows[ref] = row
	s.refs = append(s.refs, ref)
	return ref, nil
}

// Update replaces the row behind ref.
func (s *Store) Update(_ context.Context, ref string, row remote.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[ref]; !ok {
		return fmt.Errorf("unknown row ref %q", ref)
	}
	s.rows[ref] = row
	return nil
}

// Delete removes the row behind ref.
func (s *Store) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDeletes {
		return fmt.Errorf("delete rejected")
	}
	if _, ok := s.rows[ref]; !ok {
		return fmt.Errorf("unknown row ref %q", ref)
	}
	delete(s.rows, ref)
	return nil
}

// ListRange returns rows within the inclusive range in insertion order.
func (s *Store) ListRange(_ context.Context, r core.DateRange) ([]remote.StoredRow, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	startKey, endKey := r.Start.Key(), r.End.Key()
	var out []remote.StoredRow
	for _, ref := range s.refs {
		row, ok := s.rows[ref]
		if !ok {
			continue // deleted
		}
		if row.Date < startKey || row.Date > endKey {
			continue
		}
		out = append(out, remote.StoredRow{Ref: ref, Row: row})
	}
	return out, nil
}

// ListOptions returns saved options of one kind, sorted and deduplicated.
func (s *Store) ListOptions(_ context.Context, kind string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.options[kind]...)
	sort.Strings(out)
	return out, nil
}

// AppendOption saves one option, ignoring blanks and duplicates.
func (s *Store) AppendOption(_ context.Context, kind, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("empty option content")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.options[kind] {
		if existing == content {
			return nil
		}
	}
	s.options[kind] = append(s.options[kind], content)
	return nil
}

// Len reports the number of live rows, for tests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
