package stage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/mailprobe/internal/parse"
	"github.com/optimode/mailprobe/internal/trustlist"
	"github.com/optimode/mailprobe/stage"
	"github.com/optimode/mailprobe/types"
)

func TestTrustedChecker_ShortCircuitsKnownProvider(t *testing.T) {
	c := stage.NewTrustedChecker(trustlist.Default())
	out := c.Check(context.Background(), parse.NewEmail("user@gmail.com"))

	assert.True(t, out.Passed)
	assert.True(t, out.ShortCircuit)
	assert.True(t, out.Terminal())
	assert.Equal(t, types.StageTrusted, out.Stage)
	assert.Equal(t, types.Certain, out.Confidence)
	assert.Contains(t, out.Message, "gmail.com")
}

func TestTrustedChecker_UnknownDomainContinues(t *testing.T) {
	c := stage.NewTrustedChecker(trustlist.Default())
	out := c.Check(context.Background(), parse.NewEmail("user@example.org"))

	assert.True(t, out.Passed)
	assert.False(t, out.ShortCircuit)
	assert.False(t, out.Terminal())
	assert.Empty(t, out.Suggestion)
}

func TestTrustedChecker_TypoSuggestion(t *testing.T) {
	c := stage.NewTrustedChecker(trustlist.Default())

	tests := []struct {
		email string
		want  string
	}{
		{"user@gmial.com", "gmail.com"},
		{"user@hotmial.com", "hotmail.com"},
		{"user@outlok.com", "outlook.com"},
		{"user@yaho.com", "yahoo.com"},
	}
	for _, tt := range tests {
		out := c.Check(context.Background(), parse.NewEmail(tt.email))
		require.True(t, out.Passed, tt.email)
		assert.False(t, out.ShortCircuit, tt.email)
		assert.Equal(t, tt.want, out.Suggestion, tt.email)
		assert.Contains(t, out.Message, tt.want, tt.email)
	}
}

func TestTrustedChecker_NoSuggestionForDistantDomain(t *testing.T) {
	c := stage.NewTrustedChecker(trustlist.Default())
	out := c.Check(context.Background(), parse.NewEmail("user@totally-unrelated.example"))

	assert.True(t, out.Passed)
	assert.Empty(t, out.Suggestion)
}

func TestTrustedChecker_ExtraTrusted(t *testing.T) {
	list := trustlist.New(nil, []string{"corp.example"})
	c := stage.NewTrustedChecker(list)

	out := c.Check(context.Background(), parse.NewEmail("user@corp.example"))
	assert.True(t, out.ShortCircuit)
}

func TestTrustedChecker_CaseInsensitive(t *testing.T) {
	c := stage.NewTrustedChecker(trustlist.Default())
	out := c.Check(context.Background(), parse.NewEmail("User@GMail.com"))

	assert.True(t, out.ShortCircuit)
}
