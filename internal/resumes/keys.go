package resumes

import "strings"

const (
	// KeyPrefix prefixes every resume record key.
	KeyPrefix = "resume:"
	// ListPattern matches every resume record key.
	ListPattern = KeyPrefix + "*"
)

// RecordKey returns the record store key for a resume id.
func RecordKey(id string) string {
	return KeyPrefix + id
}

// IDFromKey strips the record prefix; ok is false for foreign keys.
func IDFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, KeyPrefix), true
}
