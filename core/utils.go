package core

import (
	"strings"
	"unicode"
)

// CleanString trims the whitespace around a submitted value and, when lower is set, lowercases it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		s = strings.ToLower(s)
	}
	return s
}

// StripSpace removes every whitespace rune from s, including the line breaks
// that mail clients and some encoders wrap base64 payloads with.
func StripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
