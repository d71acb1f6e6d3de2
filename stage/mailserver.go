package stage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/optimode/mailprobe/internal/parse"
	"github.com/optimode/mailprobe/internal/resolve"
	"github.com/optimode/mailprobe/types"
)

// DiscoveryStrategy proposes mail server hostnames for a domain. The
// resolver stage tries strategies in a fixed priority order; the first
// candidate that resolves wins. Strategies return an empty slice when
// they have nothing to offer; an error is diagnostic only and never stops
// the cascade.
type DiscoveryStrategy interface {
	Method() types.DiscoveryMethod
	Candidates(ctx context.Context, domain string) ([]string, error)
}

// MailServerResolver discovers the one host the probe stage will act on.
type MailServerResolver struct {
	strategies []DiscoveryStrategy
	resolver   resolve.Resolver
	timeout    time.Duration
}

// NewMailServerResolver builds a resolver with the default strategy
// cascade: MX records, a direct wire query against a public resolver,
// common-prefix guesses, provider overrides, then the domain itself.
// direct may be nil when no public resolver is configured.
func NewMailServerResolver(r resolve.Resolver, direct *resolve.DirectClient, timeout time.Duration) *MailServerResolver {
	strategies := []DiscoveryStrategy{MXRecordStrategy{Resolver: r}}
	if direct != nil {
		strategies = append(strategies, DirectQueryStrategy{Client: direct})
	}
	strategies = append(strategies,
		PrefixGuessStrategy{Resolver: r},
		ProviderOverrideStrategy{},
		DomainItselfStrategy{},
	)
	return NewMailServerResolverWithStrategies(r, timeout, strategies...)
}

// NewMailServerResolverWithStrategies uses an explicit cascade, in order.
func NewMailServerResolverWithStrategies(r resolve.Resolver, timeout time.Duration, strategies ...DiscoveryStrategy) *MailServerResolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MailServerResolver{strategies: strategies, resolver: r, timeout: timeout}
}

// Resolve runs the cascade. The returned candidate is only meaningful
// when the outcome passed.
func (m *MailServerResolver) Resolve(ctx context.Context, email parse.Email) (types.MailServerCandidate, types.StageOutcome) {
	seen := make(map[string]bool)

	for _, s := range m.strategies {
		if ctx.Err() != nil {
			break
		}

		hosts, err := s.Candidates(ctx, email.Domain)
		if err != nil {
			// A failing strategy is routine (restricted environments);
			// the next one gets its chance.
			continue
		}

		for _, host := range hosts {
			host = strings.ToLower(strings.TrimSuffix(host, "."))
			if host == "" || seen[host] {
				continue
			}
			seen[host] = true

			if !m.resolvable(ctx, host) {
				continue
			}

			cand := types.MailServerCandidate{
				Host:       host,
				Method:     s.Method(),
				Resolvable: true,
			}
			return cand, types.StageOutcome{
				Stage:      types.StageMailServer,
				Passed:     true,
				Confidence: types.Likely,
				Host:       host,
				Message:    fmt.Sprintf("mail server found for %s: %s (%s)", email.DomainUnicode, host, s.Method()),
			}
		}
	}

	return types.MailServerCandidate{}, types.StageOutcome{
		Stage:      types.StageMailServer,
		Passed:     false,
		Confidence: types.Likely,
		Reason:     types.ReasonNoMailServer,
		Message:    fmt.Sprintf("no mail server found for domain: %s", email.DomainUnicode),
	}
}

// resolvable checks a candidate by name resolution only, never by
// connecting.
func (m *MailServerResolver) resolvable(ctx context.Context, host string) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	addrs, err := m.resolver.LookupHost(ctx, host)
	return err == nil && len(addrs) > 0
}

// MXRecordStrategy asks the resolver for MX records, lowest preference
// first. This is the authoritative answer when the environment allows it.
type MXRecordStrategy struct {
	Resolver resolve.Resolver
}

func (MXRecordStrategy) Method() types.DiscoveryMethod { return types.DiscoveryMXRecord }

func (s MXRecordStrategy) Candidates(ctx context.Context, domain string) ([]string, error) {
	records, err := s.Resolver.LookupMX(ctx, domain)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Pref < records[j].Pref })

	hosts := make([]string, 0, len(records))
	for _, r := range records {
		h := strings.TrimSuffix(r.Host, ".")
		// A "null MX" (RFC 7505) or a record pointing back at the bare
		// domain adds nothing over the later fallbacks.
		if h == "" || h == domain {
			continue
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// DirectQueryStrategy queries a public recursive resolver on the wire,
// for hosts where the system lookup path is restricted. It keeps the
// first hostnames that differ from the domain itself.
type DirectQueryStrategy struct {
	Client *resolve.DirectClient
}

func (DirectQueryStrategy) Method() types.DiscoveryMethod { return types.DiscoveryDirectQuery }

func (s DirectQueryStrategy) Candidates(ctx context.Context, domain string) ([]string, error) {
	hosts, err := s.Client.QueryMX(ctx, domain)
	if err != nil {
		return nil, err
	}
	out := hosts[:0]
	for _, h := range hosts {
		if h != domain {
			out = append(out, h)
		}
	}
	return out, nil
}

// mailPrefixes are tried in this fixed priority order.
var mailPrefixes = []string{"mail", "smtp", "mx", "mx1"}

// PrefixGuessStrategy proposes conventional mail host names under the
// domain. The cascade's resolvability check is what validates each guess.
type PrefixGuessStrategy struct {
	Resolver resolve.Resolver
}

func (PrefixGuessStrategy) Method() types.DiscoveryMethod { return types.DiscoveryPrefixGuess }

func (s PrefixGuessStrategy) Candidates(_ context.Context, domain string) ([]string, error) {
	hosts := make([]string, 0, len(mailPrefixes))
	for _, p := range mailPrefixes {
		hosts = append(hosts, p+"."+domain)
	}
	return hosts, nil
}

// providerOverrides maps recognizable hosted-mail domains to the
// provider's well-known exchange host.
var providerOverrides = []struct {
	needle string
	host   string
}{
	{"google", "aspmx.l.google.com"},
	{"gmail", "aspmx.l.google.com"},
	{"outlook", "outlook-com.olc.protection.outlook.com"},
	{"hotmail", "outlook-com.olc.protection.outlook.com"},
	{"live", "outlook-com.olc.protection.outlook.com"},
}

// ProviderOverrideStrategy recognizes domains hosted by the large
// providers and proposes their published exchange hosts.
type ProviderOverrideStrategy struct{}

func (ProviderOverrideStrategy) Method() types.DiscoveryMethod {
	return types.DiscoveryProviderOverride
}

func (ProviderOverrideStrategy) Candidates(_ context.Context, domain string) ([]string, error) {
	for _, o := range providerOverrides {
		if strings.Contains(domain, o.needle) {
			return []string{o.host}, nil
		}
	}
	return nil, nil
}

// DomainItselfStrategy is the last resort: some domains run their mail
// exchanger on the apex host.
type DomainItselfStrategy struct{}

func (DomainItselfStrategy) Method() types.DiscoveryMethod { return types.DiscoveryDomainItself }

func (DomainItselfStrategy) Candidates(_ context.Context, domain string) ([]string, error) {
	return []string{domain}, nil
}
