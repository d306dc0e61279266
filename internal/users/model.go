package users

import "time"

// User is the descriptor behind "current user" in the session routes. It is
// written on every sign-in; resume records are keyed by ID.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	GivenName    string    `json:"givenName"`
	FamilyName   string    `json:"familyName"`
	PictureURL   string    `json:"pictureUrl"`
	SignInCount  int       `json:"signInCount"`
	LastSignInAt time.Time `json:"lastSignInAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// mergeProfile overlays the provider profile on the stored user. Empty
// profile fields keep the stored value.
func mergeProfile(stored, profile User) User {
	stored.ID = profile.ID
	stored.Email = profile.Email
	if profile.FullName != "" {
		stored.FullName = profile.FullName
	}
	if profile.GivenName != "" {
		stored.GivenName = profile.GivenName
	}
	if profile.FamilyName != "" {
		stored.FamilyName = profile.FamilyName
	}
	if profile.PictureURL != "" {
		stored.PictureURL = profile.PictureURL
	}
	return stored
}
