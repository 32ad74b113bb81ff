// Package memory is an in-process LedgerMirror used in tests and local runs.
package memory

import (
	"context"
	"sync"

	"budget/internal/sheets"
)

var _ sheets.LedgerMirror = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	tabs map[string][][]string
}

func New() *Store {
	return &Store{tabs: make(map[string][][]string)}
}

// ReplaceRows stores header followed by rows as the tab's full content.
func (s *Store) ReplaceRows(_ context.Context, tab string, header []string, rows [][]string) error {
	content := make([][]string, 0, len(rows)+1)
	content = append(content, append([]string(nil), header...))
	for _, r := range rows {
		content = append(content, append([]string(nil), r...))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[tab] = content
	return nil
}

// Tab returns a copy of the tab's content and whether it exists.
func (s *Store) Tab(tab string) ([][]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.tabs[tab]
	if !ok {
		return nil, false
	}
	out := make([][]string, len(content))
	for i, r := range content {
		out[i] = append([]string(nil), r...)
	}
	return out, true
}
