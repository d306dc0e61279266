package resumes

import (
	"sync"

	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/kv"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/object"
)

// Registry holds one Manager per signed-in user. Managers are created lazily
// and live until Forget (sign-out) or process exit.
type Registry struct {
	records        kv.Store
	artifacts      object.ObjectStore
	reporter       OrphanReporter
	bulkAbortAfter int

	mu       sync.Mutex
	managers map[string]*Manager
}

// NewRegistry constructs a Registry over the shared stores.
func NewRegistry(records kv.Store, artifacts object.ObjectStore, reporter OrphanReporter, bulkAbortAfter int) *Registry {
	return &Registry{
		records:        records,
		artifacts:      artifacts,
		reporter:       reporter,
		bulkAbortAfter: bulkAbortAfter,
		managers:       make(map[string]*Manager),
	}
}

// For returns the Manager for userID, creating it on first use.
func (r *Registry) For(userID string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.managers[userID]; ok {
		return m
	}
	m := NewManager(ManagerConfig{
		UserID:         userID,
		Records:        kv.Scope(r.records, userID),
		Artifacts:      r.artifacts,
		Reporter:       r.reporter,
		BulkAbortAfter: r.bulkAbortAfter,
	})
	r.managers[userID] = m
	return m
}

// Forget drops the user's Manager, discarding any armed confirmation.
func (r *Registry) Forget(userID string) {
	r.mu.Lock()
	delete(r.managers, userID)
	r.mu.Unlock()
}
