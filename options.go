package mailprobe

import (
	"context"
	"net"
	"time"
)

// DNSOptions configures name resolution for the existence check and the
// mail server discovery cascade.
type DNSOptions struct {
	// Timeout bounds a single lookup. Default: 5s
	Timeout time.Duration
	// CacheTTL is how long lookup results are reused. Default: 5m
	CacheTTL time.Duration
	// PublicResolver is the host:port of a recursive resolver queried
	// directly on the wire when the system resolver yields nothing.
	// Default: 8.8.8.8:53. Set to "off" to disable the direct-query
	// discovery strategy.
	PublicResolver string
}

func defaultDNSOptions() DNSOptions {
	return DNSOptions{
		Timeout:        5 * time.Second,
		CacheTTL:       5 * time.Minute,
		PublicResolver: "8.8.8.8:53",
	}
}

// ListOptions extends the embedded disposable/trusted domain lists.
type ListOptions struct {
	ExtraDisposable []string
	ExtraTrusted    []string
}

// SMTPOptions configures the deliverability probe's network identity.
type SMTPOptions struct {
	// HeloDomain is sent in the EHLO command. Default: mailprobe.local
	HeloDomain string
	// MailFrom is sent in the MAIL FROM command. Default: verify@<HeloDomain>
	MailFrom string
	// Port is the SMTP port. Default: 25
	Port string
	// ConnectTimeout bounds the TCP dial. Default: 6s
	ConnectTimeout time.Duration
	// CommandTimeout bounds the whole SMTP dialogue. Default: 10s
	CommandTimeout time.Duration
	// Socks5Addr optionally routes probes through a SOCKS5 proxy.
	Socks5Addr string
	Socks5User string
	Socks5Pass string
}

func defaultSMTPOptions() SMTPOptions {
	return SMTPOptions{
		HeloDomain:     "mailprobe.local",
		MailFrom:       "verify@mailprobe.local",
		Port:           "25",
		ConnectTimeout: 6 * time.Second,
		CommandTimeout: 10 * time.Second,
	}
}

// ProbeOptions configures probe policy.
type ProbeOptions struct {
	// RejectOnUncertainty makes an unreachable mail server fail the
	// basic-level pipeline instead of passing with a caveat.
	// Default: false (lenient).
	RejectOnUncertainty bool
	// TransientRetries is how many extra attempts a 4xx SMTP reply gets.
	// Default: 1.
	TransientRetries int
	// RetryBackoff is the pause before a transient retry. Default: 500ms.
	RetryBackoff time.Duration
}

// RateLimitOptions throttles outbound probes. Zero values disable
// throttling.
type RateLimitOptions struct {
	GlobalPerSecond float64
	DomainPerSecond float64
}

// LookupFuncs replaces all discovery I/O with the given functions.
// Intended for tests and for embedding in environments with bespoke
// resolution. Setting it disables the direct-query strategy.
type LookupFuncs struct {
	MX   func(ctx context.Context, domain string) ([]*net.MX, error)
	Host func(ctx context.Context, host string) ([]string, error)
}

// DialFunc replaces the probe's TCP dialer. Intended for tests.
type DialFunc = func(ctx context.Context, network, address string) (net.Conn, error)
