package users

import (
	"context"
	"errors"
	"strings"
)

// Service wraps the users repo with input checks.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// RecordSignIn stores the identity returned by the OAuth provider and counts
// the login.
func (s *Service) RecordSignIn(ctx context.Context, profile User) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(profile.ID) == "" || strings.TrimSpace(profile.Email) == "" {
		return User{}, errors.New("user id and email are required")
	}
	return s.Repo.RecordSignIn(ctx, profile)
}

// GetByID returns the stored user.
func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}
