package memory

import (
	"context"
	"fmt"
	"sync"

	"bilancio/internal/core"
)

// Store is an in-memory backup destination used in tests and local runs
// without Google credentials.
type Store struct {
	mu    sync.Mutex
	items map[string]core.Transaction
}

func New() *Store {
	return &Store{items: make(map[string]core.Transaction)}
}

// Append stores the record and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, tx core.Transaction, _ string) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[tx.ID] = tx
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Remove deletes the record if present. Removal is idempotent.
func (s *Store) Remove(_ context.Context, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, recordID)
	return nil
}

// Len reports how many records are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Get returns a stored record by ID.
func (s *Store) Get(recordID string) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.items[recordID]
	return tx, ok
}
