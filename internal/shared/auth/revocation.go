package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/kv"
)

// RevocationNamespace holds revoked token ids in a shared kv.Store. User ids
// are provider-prefixed ("google:..."), so it cannot collide with a user.
const RevocationNamespace = "auth:revoked"

// RevocationList remembers signed-out token ids until they would have expired.
// With a shared store, revocations are visible to every instance using it;
// the in-process map then only caches positive answers.
type RevocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
	shared  kv.Store
	now     func() time.Time
}

// NewRevocationList constructs a list local to this process.
func NewRevocationList() *RevocationList {
	return &RevocationList{entries: make(map[string]time.Time), now: time.Now}
}

// NewSharedRevocationList constructs a list that also writes through to store.
func NewSharedRevocationList(store kv.Store) *RevocationList {
	l := NewRevocationList()
	l.shared = store
	return l
}

// Revoke marks jti as revoked until until.
func (l *RevocationList) Revoke(ctx context.Context, jti string, until time.Time) error {
	if l == nil || jti == "" {
		return nil
	}
	l.mu.Lock()
	l.pruneLocked()
	l.entries[jti] = until
	l.mu.Unlock()

	if l.shared == nil {
		return nil
	}
	if err := l.shared.Set(ctx, RevocationNamespace, jti, until.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	l.pruneShared(ctx)
	return nil
}

// Revoked reports whether jti has been revoked and has not yet expired. An
// error means the shared store could not answer.
func (l *RevocationList) Revoked(ctx context.Context, jti string) (bool, error) {
	if l == nil || jti == "" {
		return false, nil
	}
	l.mu.Lock()
	until, ok := l.entries[jti]
	if ok && !l.now().Before(until) {
		delete(l.entries, jti)
		ok = false
	}
	l.mu.Unlock()
	if ok {
		return true, nil
	}
	if l.shared == nil {
		return false, nil
	}

	raw, err := l.shared.Get(ctx, RevocationNamespace, jti)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	until, err = time.Parse(time.RFC3339Nano, raw)
	if err != nil || !l.now().Before(until) {
		_ = l.shared.Delete(ctx, RevocationNamespace, jti)
		return false, nil
	}

	l.mu.Lock()
	l.entries[jti] = until
	l.mu.Unlock()
	return true, nil
}

func (l *RevocationList) pruneLocked() {
	now := l.now()
	for jti, until := range l.entries {
		if !now.Before(until) {
			delete(l.entries, jti)
		}
	}
}

// pruneShared drops expired ids from the shared store. Failures are ignored;
// Revoked also removes stale ids it encounters.
func (l *RevocationList) pruneShared(ctx context.Context) {
	entries, err := l.shared.List(ctx, RevocationNamespace, "*", true)
	if err != nil {
		return
	}
	now := l.now()
	for _, e := range entries {
		until, err := time.Parse(time.RFC3339Nano, e.Value)
		if err != nil || !now.Before(until) {
			_ = l.shared.Delete(ctx, RevocationNamespace, e.Key)
		}
	}
}
