package analysis_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"trustline/backend/internal/analysis"
	"trustline/backend/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestExtractContact(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		email string
		phone string
	}{
		{name: "email only", raw: "write to Jane.Doe@Example.org please", email: "Jane.Doe@Example.org"},
		{name: "phone with punctuation", raw: "+7 (912) 345-67-89", phone: "79123456789"},
		{name: "both", raw: "a@b.io or 123456", email: "a@b.io", phone: "123456"},
		{name: "too few digits", raw: "room 12345"},
		{name: "nothing recognizable", raw: "evenings after six"},
		{name: "digits across email count", raw: "user42@mail.ru 1234", email: "user42@mail.ru", phone: "421234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := analysis.ExtractContact(tt.raw)

			assert.Equal(t, tt.raw, c.Note, "raw text is always kept")
			if tt.email == "" {
				assert.Nil(t, c.Email)
			} else if assert.NotNil(t, c.Email) {
				assert.Equal(t, tt.email, *c.Email)
			}
			if tt.phone == "" {
				assert.Nil(t, c.Phone)
			} else if assert.NotNil(t, c.Phone) {
				assert.Equal(t, tt.phone, *c.Phone)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", analysis.Truncate("short", 10))
	assert.Equal(t, "abcd…", analysis.Truncate("abcdefgh", 5))
	assert.Equal(t, "Прив…", analysis.Truncate("Привет мир", 5), "counts runes, not bytes")
	assert.Equal(t, "keep", analysis.Truncate("keep", 0))
}

func TestSanitize(t *testing.T) {
	long := strings.Repeat("я", config.MaxMessageLength+50)
	out := analysis.Sanitize("  " + long + "  ")

	assert.Equal(t, config.MaxMessageLength, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "…"))
	assert.Equal(t, "hi", analysis.Sanitize("  hi \n"))
}

func TestNormalizeShortID(t *testing.T) {
	assert.Equal(t, "AB12CD34", analysis.NormalizeShortID(" ab12cd34 "))
	assert.Equal(t, "AB12CD34", analysis.NormalizeShortID("#AB12-CD34"))
	assert.Equal(t, "", analysis.NormalizeShortID("   "))
}
