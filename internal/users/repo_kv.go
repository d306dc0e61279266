package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/kv"
)

// Namespace holds user descriptors in a kv.Store, one JSON value per user id.
// Record namespaces are provider-prefixed user ids ("google:..."), so they
// cannot collide with it.
const Namespace = "auth:users"

// KVRepo stores users next to resume records, so the memory and sqlite
// record stores keep users without a users table.
type KVRepo struct {
	store kv.Store
	now   func() time.Time

	// mu serialises read-modify-write of the sign-in counter in this process.
	mu sync.Mutex
}

// NewKVRepo constructs a KVRepo over store.
func NewKVRepo(store kv.Store) *KVRepo {
	return &KVRepo{store: store, now: time.Now}
}

func (r *KVRepo) RecordSignIn(ctx context.Context, profile User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.GetByID(ctx, profile.ID)
	now := r.now().UTC()
	switch {
	case errors.Is(err, ErrNotFound):
		user = User{CreatedAt: now}
	case err != nil:
		return User{}, err
	}

	user = mergeProfile(user, profile)
	user.SignInCount++
	user.LastSignInAt = now
	user.UpdatedAt = now

	raw, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("encode user %s: %w", user.ID, err)
	}
	if err := r.store.Set(ctx, Namespace, user.ID, string(raw)); err != nil {
		return User{}, fmt.Errorf("save user %s: %w", user.ID, err)
	}
	return user, nil
}

func (r *KVRepo) GetByID(ctx context.Context, userID string) (User, error) {
	raw, err := r.store.Get(ctx, Namespace, userID)
	if errors.Is(err, kv.ErrNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return User{}, fmt.Errorf("decode user %s: %w", userID, err)
	}
	return user, nil
}
