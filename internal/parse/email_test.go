package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEmail_Simple(t *testing.T) {
	e := NewEmail("user@Example.COM")

	assert.True(t, e.Valid)
	assert.Equal(t, "user", e.Local)
	assert.Equal(t, "example.com", e.Domain)
	assert.Equal(t, "example.com", e.DomainUnicode)
}

func TestNewEmail_TrimsWhitespace(t *testing.T) {
	e := NewEmail("  user@example.com  ")

	assert.True(t, e.Valid)
	assert.Equal(t, "user@example.com", e.Raw)
}

func TestNewEmail_SplitsOnFirstAt(t *testing.T) {
	e := NewEmail(`a@b@example.com`)

	assert.True(t, e.Valid)
	assert.Equal(t, "a", e.Local)
	assert.Equal(t, "b@example.com", e.Domain)
}

func TestNewEmail_Invalid(t *testing.T) {
	for _, raw := range []string{"", "plain", "@example.com", "user@", "@"} {
		e := NewEmail(raw)
		assert.False(t, e.Valid, "input %q", raw)
		assert.Equal(t, raw, e.Raw)
	}
}

func TestNewEmail_IDN(t *testing.T) {
	e := NewEmail("user@münchen.de")

	assert.True(t, e.Valid)
	assert.Equal(t, "xn--mnchen-3ya.de", e.Domain)
	assert.Equal(t, "münchen.de", e.DomainUnicode)
}

func TestNewEmail_PunycodeInput(t *testing.T) {
	e := NewEmail("user@xn--mnchen-3ya.de")

	assert.True(t, e.Valid)
	assert.Equal(t, "xn--mnchen-3ya.de", e.Domain)
	assert.Equal(t, "münchen.de", e.DomainUnicode)
}

func TestNewEmail_BadIDN(t *testing.T) {
	// Leading hyphen in a non-ASCII label fails IDNA2008 lookup rules.
	e := NewEmail("user@-ü-.de")
	assert.False(t, e.Valid)
}
