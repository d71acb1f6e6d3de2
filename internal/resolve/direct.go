package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DirectClient queries a public recursive resolver on the wire instead of
// going through the system resolver. It covers hosts where the libc/system
// lookup path is restricted (containers, serverless sandboxes) but raw UDP
// to a well-known resolver still works.
type DirectClient struct {
	// Server is the resolver address, host:port. Default 8.8.8.8:53.
	Server string
	// Timeout bounds a single exchange. Default 5s.
	Timeout time.Duration
}

// NewDirectClient returns a client for the given resolver address.
// An empty address selects the default public resolver.
func NewDirectClient(server string, timeout time.Duration) *DirectClient {
	if server == "" {
		server = "8.8.8.8:53"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DirectClient{Server: server, Timeout: timeout}
}

// QueryMX returns the MX target hostnames for domain, ordered by
// preference, trailing dots trimmed. An empty slice with nil error means
// the domain answered but has no MX records.
func (d *DirectClient) QueryMX(ctx context.Context, domain string) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), dns.TypeMX)

	c := &dns.Client{Timeout: d.Timeout}
	in, _, err := c.ExchangeContext(ctx, m, d.Server)
	if err != nil {
		return nil, fmt.Errorf("mx query against %s: %w", d.Server, err)
	}
	if in.Rcode == dns.RcodeNameError {
		return nil, fmt.Errorf("domain %s: %w", domain, errNXDomain)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("mx query for %s: rcode %s", domain, dns.RcodeToString[in.Rcode])
	}

	type mx struct {
		host string
		pref uint16
	}
	var records []mx
	for _, ans := range in.Answer {
		if rr, ok := ans.(*dns.MX); ok {
			records = append(records, mx{
				host: strings.TrimSuffix(rr.Mx, "."),
				pref: rr.Preference,
			})
		}
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].pref < records[j].pref })

	hosts := make([]string, 0, len(records))
	for _, r := range records {
		hosts = append(hosts, r.host)
	}
	return hosts, nil
}

var errNXDomain = fmt.Errorf("name does not exist")
