// Package resolve provides the DNS facilities the pipeline depends on: a
// resolver interface with the stdlib implementation, a TTL cache with
// singleflight deduplication, and a direct wire-protocol client for
// environments where the system resolver is restricted.
package resolve

import (
	"context"
	"errors"
	"net"
)

// Resolver is the lookup surface the pipeline stages use. Both the cache
// and the raw net implementation satisfy it, and tests substitute mocks.
type Resolver interface {
	// LookupMX returns the MX records for a domain.
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
	// LookupHost returns the A/AAAA addresses for a hostname.
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Net is the stdlib-backed Resolver.
type Net struct {
	r net.Resolver
}

func NewNet() *Net {
	return &Net{}
}

func (n *Net) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return n.r.LookupMX(ctx, domain)
}

func (n *Net) LookupHost(ctx context.Context, host string) ([]string, error) {
	return n.r.LookupHost(ctx, host)
}

// IsNotFound reports whether err is a confirmed name-not-found answer, as
// opposed to an operational resolution failure (timeout, SERVFAIL). The
// pipeline keeps the two apart: only the former proves a domain does not
// exist.
func IsNotFound(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.IsNotFound
}

// IsTimeout reports whether err is a resolution timeout.
func IsTimeout(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsTimeout {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
