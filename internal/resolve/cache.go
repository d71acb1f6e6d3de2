package resolve

import (
	"context"
	"net"
	"sync"
	"time"
)

// Cache wraps a Resolver with a TTL cache. Concurrent lookups for the same
// name are deduplicated: one query runs, all waiters receive its result.
// Negative results are cached too, so a burst of requests for a dead
// domain costs one query.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	ttl      time.Duration
	timeout  time.Duration
	upstream Resolver
}

type entry struct {
	mx      []*net.MX
	hosts   []string
	err     error
	expires time.Time
	done    chan struct{} // closed when the lookup completes
}

// NewCache wraps upstream with the given per-lookup timeout and entry TTL.
func NewCache(upstream Resolver, timeout, ttl time.Duration) *Cache {
	return &Cache{
		entries:  make(map[string]*entry),
		ttl:      ttl,
		timeout:  timeout,
		upstream: upstream,
	}
}

// LookupMX implements Resolver.
func (c *Cache) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	e, err := c.lookup(ctx, "mx:"+domain, func(lctx context.Context, e *entry) {
		e.mx, e.err = c.upstream.LookupMX(lctx, domain)
	})
	if err != nil {
		return nil, err
	}
	return copyMX(e.mx), e.err
}

// LookupHost implements Resolver.
func (c *Cache) LookupHost(ctx context.Context, host string) ([]string, error) {
	e, err := c.lookup(ctx, "host:"+host, func(lctx context.Context, e *entry) {
		e.hosts, e.err = c.upstream.LookupHost(lctx, host)
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), e.hosts...), e.err
}

// Len returns the number of cached entries (for diagnostics).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// lookup returns a completed entry for key, running fn at most once per
// TTL window. Waiters abandon the wait if their own context ends; the
// in-flight query itself is bounded by the cache timeout, not by the
// first caller's context, so a cancelled request cannot poison the
// shared result.
func (c *Cache) lookup(ctx context.Context, key string, fn func(context.Context, *entry)) (*entry, error) {
	c.mu.Lock()

	if e, ok := c.entries[key]; ok {
		select {
		case <-e.done:
			if time.Now().Before(e.expires) {
				c.mu.Unlock()
				return e, nil
			}
			// expired, fall through and refresh
		default:
			c.mu.Unlock()
			select {
			case <-e.done:
				return e, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	e := &entry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	lctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	fn(lctx, e)
	e.expires = time.Now().Add(c.ttl)
	close(e.done)

	return e, nil
}

// copyMX deep-copies MX records so callers can sort without mutating the
// cached slice.
func copyMX(records []*net.MX) []*net.MX {
	if records == nil {
		return nil
	}
	out := make([]*net.MX, len(records))
	for i, r := range records {
		cp := *r
		out[i] = &cp
	}
	return out
}
