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

func TestDisposableChecker_KnownDisposable(t *testing.T) {
	c := stage.NewDisposableChecker(trustlist.Default())
	out := c.Check(context.Background(), parse.NewEmail("user@mailinator.com"))

	assert.False(t, out.Passed)
	assert.True(t, out.Terminal())
	assert.Equal(t, types.StageDisposable, out.Stage)
	assert.Equal(t, types.Certain, out.Confidence)
	assert.Equal(t, types.ReasonDisposableDomain, out.Reason)
	assert.Contains(t, out.Message, "mailinator.com")
}

func TestDisposableChecker_UnknownDomainPasses(t *testing.T) {
	c := stage.NewDisposableChecker(trustlist.Default())
	out := c.Check(context.Background(), parse.NewEmail("user@example.org"))

	assert.True(t, out.Passed)
	assert.False(t, out.Terminal())
	assert.Equal(t, types.ReasonNone, out.Reason)
}

func TestDisposableChecker_TrustedDomainPasses(t *testing.T) {
	// The trusted shortcut belongs to the next stage.
	c := stage.NewDisposableChecker(trustlist.Default())
	out := c.Check(context.Background(), parse.NewEmail("user@gmail.com"))

	assert.True(t, out.Passed)
	assert.False(t, out.ShortCircuit)
}

func TestDisposableChecker_ExtraDomains(t *testing.T) {
	list := trustlist.New([]string{"Throwaway.Example"}, nil)
	c := stage.NewDisposableChecker(list)

	out := c.Check(context.Background(), parse.NewEmail("x@throwaway.example"))
	require.False(t, out.Passed)
	assert.Equal(t, types.ReasonDisposableDomain, out.Reason)
}

func TestDisposableChecker_CaseInsensitive(t *testing.T) {
	c := stage.NewDisposableChecker(trustlist.Default())
	out := c.Check(context.Background(), parse.NewEmail("user@MAILINATOR.COM"))

	assert.False(t, out.Passed)
}
