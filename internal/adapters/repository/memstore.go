package repository

import (
	"context"
	"sync"

	"github.com/okian/waffles/internal/domain/model"
)

// MemoryStore keeps events in process memory only.
type MemoryStore struct {
	mu     sync.RWMutex
	events []model.Event
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(seed ...model.Event) *MemoryStore {
	return &MemoryStore{events: append([]model.Event{}, seed...)}
}

// Load returns a copy of the stored events.
func (s *MemoryStore) Load(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Event{}, s.events...), nil
}

// Save replaces the stored events with a copy of events.
func (s *MemoryStore) Save(ctx context.Context, events []model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append([]model.Event{}, events...)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
