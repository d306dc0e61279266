package util

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
)

// HashUserKey returns a filesystem-safe identifier for a user ID.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// OwnsKey reports whether storageKey lies in the user's artifact namespace.
// Object stores place every upload under HashUserKey(userID).
func OwnsKey(userID, storageKey string) bool {
	if userID == "" || storageKey == "" || strings.Contains(storageKey, "..") {
		return false
	}
	clean := path.Clean(strings.ReplaceAll(storageKey, "\\", "/"))
	return strings.HasPrefix(clean, HashUserKey(userID)+"/")
}
