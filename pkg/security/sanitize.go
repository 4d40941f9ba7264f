package security

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeString trims s and strips null bytes and control characters other
// than newline and tab.
func SanitizeString(s string) string {
	return strings.TrimSpace(removeControlCharacters(s))
}

// NormalizeWhitespace collapses every whitespace run to a single space
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateString cuts s to at most maxLength runes
func TruncateString(s string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLength])
}

// SanitizeInput is SanitizeString plus whitespace normalization and a
// length cap, for free-form single-line fields.
func SanitizeInput(s string, maxLength int) string {
	return TruncateString(NormalizeWhitespace(SanitizeString(s)), maxLength)
}

func removeControlCharacters(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
