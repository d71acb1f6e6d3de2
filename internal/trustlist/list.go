// Package trustlist holds the static domain allow/block lists the pipeline
// consults. A List is built once at startup from the embedded data plus any
// configured extras and is never mutated afterwards, so concurrent requests
// can share it without locking.
package trustlist

import "strings"

// Tier is the trust classification of a domain.
type Tier int

const (
	// Unknown means the domain is on neither list; the pipeline keeps going.
	Unknown Tier = iota
	// Trusted means a large, known-good provider; deep probing is skipped.
	Trusted
	// Disposable means a throwaway-mailbox provider; always rejected.
	Disposable
)

func (t Tier) String() string {
	switch t {
	case Trusted:
		return "trusted"
	case Disposable:
		return "disposable"
	default:
		return "unknown"
	}
}

// List is an immutable pair of domain sets.
type List struct {
	disposable map[string]struct{}
	trusted    map[string]struct{}
}

// New builds a List from the embedded data, extended with the given
// domains. Extras are normalized the same way lookups are (trimmed,
// lower-cased); empty entries are ignored.
func New(extraDisposable, extraTrusted []string) *List {
	l := &List{
		disposable: parseSet(embeddedDisposable),
		trusted:    parseSet(embeddedTrusted),
	}
	for _, d := range extraDisposable {
		if d = normalize(d); d != "" {
			l.disposable[d] = struct{}{}
		}
	}
	for _, d := range extraTrusted {
		if d = normalize(d); d != "" {
			l.trusted[d] = struct{}{}
		}
	}
	return l
}

// Default returns a List built from the embedded data only.
func Default() *List {
	return New(nil, nil)
}

// Tier classifies a domain. Comparison is exact and case-insensitive.
// The disposable list wins if a domain somehow appears on both.
func (l *List) Tier(domain string) Tier {
	domain = normalize(domain)
	if _, ok := l.disposable[domain]; ok {
		return Disposable
	}
	if _, ok := l.trusted[domain]; ok {
		return Trusted
	}
	return Unknown
}

// parseSet reads one domain per line, ignoring blanks and # comments.
func parseSet(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		line = normalize(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[line] = struct{}{}
	}
	return set
}

func normalize(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}
