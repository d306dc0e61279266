package kv

import "strings"

// Match reports whether key matches the glob pattern. '*' matches any run of
// characters (including none) and '?' matches exactly one character; every
// other character, including '/', matches itself.
func Match(pattern, key string) bool {
	p := []rune(pattern)
	k := []rune(key)

	pi, ki := 0, 0
	star, mark := -1, 0
	for ki < len(k) {
		switch {
		case pi < len(p) && (p[pi] == '?' || p[pi] == k[ki]):
			pi++
			ki++
		case pi < len(p) && p[pi] == '*':
			star = pi
			mark = ki
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			ki = mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}

// LikePattern converts a glob into a SQL LIKE pattern using '\' as the escape
// character. LIKE may be case-insensitive, so callers re-check rows with Match.
func LikePattern(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern) + 4)
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
