package kv

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key is absent. Deletes treat it as success.
	ErrNotFound = errors.New("kv: key not found")
	// ErrUnavailable wraps any failure to reach or query the backing store.
	ErrUnavailable = errors.New("kv: store unavailable")
)

// Entry is a single key/value pair. Value is empty when values were not requested.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Store is a namespaced key-value backend. Entries are listed in insertion order.
type Store interface {
	List(ctx context.Context, namespace, pattern string, withValues bool) ([]Entry, error)
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
}

// RecordStore is a Store bound to one namespace.
type RecordStore interface {
	List(ctx context.Context, pattern string, withValues bool) ([]Entry, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Scope binds store to namespace.
func Scope(store Store, namespace string) RecordStore {
	return scoped{store: store, namespace: namespace}
}

type scoped struct {
	store     Store
	namespace string
}

func (s scoped) List(ctx context.Context, pattern string, withValues bool) ([]Entry, error) {
	return s.store.List(ctx, s.namespace, pattern, withValues)
}

func (s scoped) Get(ctx context.Context, key string) (string, error) {
	return s.store.Get(ctx, s.namespace, key)
}

func (s scoped) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.namespace, key, value)
}

func (s scoped) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, s.namespace, key)
}

// Unavailable marks err as a store availability failure for operation op.
// Caller cancellation is passed through untouched.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("kv %s: %w", op, err)
	}
	return fmt.Errorf("kv %s: %w: %w", op, ErrUnavailable, err)
}
