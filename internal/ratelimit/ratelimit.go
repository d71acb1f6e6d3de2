// Package ratelimit throttles outbound probes. Large providers penalize
// hosts that probe too fast, so the probe stage takes a token from both a
// global limiter and a per-domain limiter before touching the network.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limits configures the limiter set. Zero values disable throttling.
type Limits struct {
	// GlobalPerSecond caps probes across all domains.
	GlobalPerSecond float64
	// DomainPerSecond caps probes against any single domain.
	DomainPerSecond float64
}

// Limiter combines one global token bucket with lazily created per-domain
// buckets. Safe for concurrent use.
type Limiter struct {
	global  *rate.Limiter
	perRate rate.Limit
	burst   int

	mu      sync.Mutex
	domains map[string]*rate.Limiter
}

// New builds a Limiter. Passing zero limits yields a no-op limiter.
func New(l Limits) *Limiter {
	lim := &Limiter{domains: make(map[string]*rate.Limiter)}
	if l.GlobalPerSecond > 0 {
		lim.global = rate.NewLimiter(rate.Limit(l.GlobalPerSecond), burstFor(l.GlobalPerSecond))
	}
	if l.DomainPerSecond > 0 {
		lim.perRate = rate.Limit(l.DomainPerSecond)
		lim.burst = burstFor(l.DomainPerSecond)
	}
	return lim
}

// Wait blocks until a probe against domain may proceed, or ctx ends.
func (l *Limiter) Wait(ctx context.Context, domain string) error {
	if l.global != nil {
		if err := l.global.Wait(ctx); err != nil {
			return err
		}
	}
	if l.perRate > 0 {
		if err := l.forDomain(domain).Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (l *Limiter) forDomain(domain string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, ok := l.domains[domain]
	if !ok {
		d = rate.NewLimiter(l.perRate, l.burst)
		l.domains[domain] = d
	}
	return d
}

// burstFor allows at least one token even for sub-1/s rates.
func burstFor(perSecond float64) int {
	if perSecond < 1 {
		return 1
	}
	return int(perSecond)
}
