package users

import (
	"context"
	"errors"
)

// ErrNotFound indicates no user has signed in with the given id.
var ErrNotFound = errors.New("user not found")

// Repo persists signed-in user descriptors.
type Repo interface {
	// RecordSignIn creates or refreshes the user from a provider profile,
	// counts the sign-in and returns the stored user.
	RecordSignIn(ctx context.Context, profile User) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
}
