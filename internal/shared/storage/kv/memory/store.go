package memory

import (
	"context"
	"sync"

	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/kv"
)

// Store is an in-memory kv.Store and is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	spaces map[string]*space
}

type space struct {
	order  []string
	values map[string]string
}

// New constructs an empty Store.
func New() *Store {
	return &Store{spaces: make(map[string]*space)}
}

// List returns entries of namespace whose key matches pattern, oldest first.
func (s *Store) List(ctx context.Context, namespace, pattern string, withValues bool) ([]kv.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp := s.spaces[namespace]
	if sp == nil {
		return []kv.Entry{}, nil
	}
	out := make([]kv.Entry, 0, len(sp.order))
	for _, key := range sp.order {
		if !kv.Match(pattern, key) {
			continue
		}
		entry := kv.Entry{Key: key}
		if withValues {
			entry.Value = sp.values[key]
		}
		out = append(out, entry)
	}
	return out, nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, namespace, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp := s.spaces[namespace]
	if sp == nil {
		return "", kv.ErrNotFound
	}
	val, ok := sp.values[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return val, nil
}

// Set upserts key. Overwrites keep the original position in the listing order.
func (s *Store) Set(ctx context.Context, namespace, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sp := s.spaces[namespace]
	if sp == nil {
		sp = &space{values: make(map[string]string)}
		s.spaces[namespace] = sp
	}
	if _, ok := sp.values[key]; !ok {
		sp.order = append(sp.order, key)
	}
	sp.values[key] = value
	return nil
}

// Delete removes key, returning kv.ErrNotFound when it was already absent.
func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sp := s.spaces[namespace]
	if sp == nil {
		return kv.ErrNotFound
	}
	if _, ok := sp.values[key]; !ok {
		return kv.ErrNotFound
	}
	delete(sp.values, key)
	for i, k := range sp.order {
		if k == key {
			sp.order = append(sp.order[:i], sp.order[i+1:]...)
			break
		}
	}
	return nil
}

var _ kv.Store = (*Store)(nil)
