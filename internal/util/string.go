package util

import (
	"strings"
	"unicode/utf8"
)

// TruncateString truncates a string to maxRunes characters (rune-based, not byte-based)
// If truncated, appends "..." to the result
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// ClipRunes cuts s to at most maxRunes characters without a suffix.
func ClipRunes(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	return string([]rune(s)[:maxRunes])
}

// Normalize performs basic string normalization (lowercase + trim)
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeKey collapses a free-text query into a cache key segment.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(Normalize(s)), " ")
}

// RuneLen counts characters, not bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// StripAngleBrackets removes '<' and '>' from caller-supplied text.
func StripAngleBrackets(s string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(s)
}
