// Package analysis extracts structured contact details from free-form reporter input
// and keeps outbound text within transport limits.
package analysis

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"trustline/backend/internal/config"
)

var emailPattern = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)

// Contact is what could be recognized in a contact reply. Note always keeps the raw input.
type Contact struct {
	Email *string
	Phone *string
	Note  string
}

// ExtractContact finds the first email address and treats all digits as a phone
// number when there are at least config.MinPhoneDigits of them.
func ExtractContact(raw string) Contact {
	c := Contact{Note: raw}
	if m := emailPattern.FindString(raw); m != "" {
		c.Email = &m
	}

	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() >= config.MinPhoneDigits {
		phone := digits.String()
		c.Phone = &phone
	}
	return c
}

// Truncate shortens s to at most limit runes, ending with an ellipsis when cut.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}

// Sanitize trims s and caps it at the transport message limit.
func Sanitize(s string) string {
	return Truncate(strings.TrimSpace(s), config.MaxMessageLength)
}

// NormalizeShortID uppercases a typed short id and drops anything that is not a letter or digit.
func NormalizeShortID(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
