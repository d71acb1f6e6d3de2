package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWait_NoLimitsIsImmediate(t *testing.T) {
	l := New(Limits{})

	start := time.Now()
	for i := 0; i < 100; i++ {
		assert.NoError(t, l.Wait(context.Background(), "example.com"))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWait_DomainLimitersAreIndependent(t *testing.T) {
	l := New(Limits{DomainPerSecond: 1})

	// First token for each domain is free (burst 1), even back to back.
	start := time.Now()
	assert.NoError(t, l.Wait(context.Background(), "a.example"))
	assert.NoError(t, l.Wait(context.Background(), "b.example"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWait_SameDomainThrottled(t *testing.T) {
	l := New(Limits{DomainPerSecond: 10})

	start := time.Now()
	for i := 0; i < 3; i++ {
		assert.NoError(t, l.Wait(context.Background(), "a.example"))
	}
	// 10/s with burst 10: three immediate tokens.
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWait_ContextCancellation(t *testing.T) {
	l := New(Limits{DomainPerSecond: 0.5})

	// Exhaust the single burst token.
	assert.NoError(t, l.Wait(context.Background(), "a.example"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, "a.example")
	assert.Error(t, err)
}
