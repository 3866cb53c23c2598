// Package store provides the persistence drivers behind the registry:
// an in-memory store for tests and single-process use, MongoDB for the
// hosted product, and PostgreSQL for self-hosted installs. All drivers
// implement registry.Store.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/formweave/formweave/internal/registry"
)

// MemoryStore keeps entries in a mutex-guarded map. The mutex covers the
// whole active swap, so a concurrent reader either sees the world before
// the swap or after it, never two active rows. Stored documents are
// treated as immutable; callers must not mutate an entry they read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*registry.Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*registry.Entry)}
}

func (s *MemoryStore) Insert(_ context.Context, e *registry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cur := range s.entries {
		if cur.Entity == e.Entity && cur.Variant == e.Variant && cur.Version == e.Version {
			return registry.ErrExists
		}
	}
	cp := *e
	s.entries[e.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*registry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, registry.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) CompareAndSwap(_ context.Context, e *registry.Entry, expected time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.entries[e.ID]
	if !ok {
		return registry.ErrNotFound
	}
	if cur.Status != registry.StatusDraft {
		return registry.ErrState
	}
	if !cur.UpdatedAt.Equal(expected) {
		return registry.ErrConflict
	}

	cp := *e
	s.entries[e.ID] = &cp
	return nil
}

func (s *MemoryStore) SwapActive(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return registry.ErrNotFound
	}

	for _, cur := range s.entries {
		if cur.ID != id && cur.Entity == e.Entity && cur.Variant == e.Variant && cur.Status == registry.StatusActive {
			cur.Status = registry.StatusDeprecated
			cur.UpdatedAt = bumpToken(cur.UpdatedAt, at)
		}
	}
	e.Status = registry.StatusActive
	e.UpdatedAt = bumpToken(e.UpdatedAt, at)
	return nil
}

func (s *MemoryStore) DeleteDraft(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return registry.ErrNotFound
	}
	if e.Status != registry.StatusDraft {
		return registry.ErrState
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Active(_ context.Context, entity, variant string) (*registry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.Entity == entity && e.Variant == variant && e.Status == registry.StatusActive {
			cp := *e
			return &cp, nil
		}
	}
	return nil, registry.ErrNotFound
}

func (s *MemoryStore) ByStatus(_ context.Context, entity string, status registry.Status) ([]*registry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*registry.Entry
	for _, e := range s.entries {
		if e.Status != status {
			continue
		}
		if entity != "" && e.Entity != entity {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) Close(_ context.Context) error { return nil }

// bumpToken keeps the optimistic-lock token strictly increasing per row.
func bumpToken(prev, at time.Time) time.Time {
	if !at.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return at
}
