package mailprobe

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/optimode/mailprobe/internal/parse"
	"github.com/optimode/mailprobe/internal/ratelimit"
	"github.com/optimode/mailprobe/internal/resolve"
	"github.com/optimode/mailprobe/internal/smtpclient"
	"github.com/optimode/mailprobe/internal/trustlist"
	"github.com/optimode/mailprobe/stage"
	"github.com/optimode/mailprobe/types"
)

// Validator runs the deliverability pipeline: format, disposable check,
// trusted shortcut, domain existence, mail server discovery, probe.
// Configure with the With*
// methods, then call Validate; the pipeline is assembled on first use and
// a Validator is safe for concurrent requests after that.
type Validator struct {
	dnsOpts   DNSOptions
	listOpts  ListOptions
	smtpOpts  SMTPOptions
	probeOpts ProbeOptions
	rateOpts  RateLimitOptions
	lookups   *LookupFuncs
	dial      DialFunc

	once sync.Once
	err  error // configuration error, returned on Validate

	format     *stage.FormatValidator
	disposable *stage.DisposableChecker
	trusted    *stage.TrustedChecker
	exists     *stage.ExistenceChecker
	mailsrv    *stage.MailServerResolver
	prober     *stage.Prober
}

// New creates a Validator with default options: embedded trust lists,
// the system resolver fronted by a TTL cache, direct queries against a
// public resolver as fallback, and the lenient basic-level probe policy.
func New() *Validator {
	return &Validator{
		dnsOpts:   defaultDNSOptions(),
		smtpOpts:  defaultSMTPOptions(),
		probeOpts: ProbeOptions{},
	}
}

// WithDNS overrides resolution options.
func (v *Validator) WithDNS(o DNSOptions) *Validator {
	def := defaultDNSOptions()
	if o.Timeout == 0 {
		o.Timeout = def.Timeout
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = def.CacheTTL
	}
	if o.PublicResolver == "" {
		o.PublicResolver = def.PublicResolver
	}
	v.dnsOpts = o
	return v
}

// WithLists extends the embedded disposable/trusted domain lists.
func (v *Validator) WithLists(o ListOptions) *Validator {
	v.listOpts = o
	return v
}

// WithSMTP overrides the probe's network identity. HeloDomain and
// MailFrom must both be set when either is.
func (v *Validator) WithSMTP(o SMTPOptions) *Validator {
	if o.HeloDomain == "" || o.MailFrom == "" {
		v.err = ErrInvalidSMTPOptions
		return v
	}
	def := defaultSMTPOptions()
	if o.Port == "" {
		o.Port = def.Port
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = def.ConnectTimeout
	}
	if o.CommandTimeout == 0 {
		o.CommandTimeout = def.CommandTimeout
	}
	v.smtpOpts = o
	return v
}

// WithProbePolicy overrides probe policy.
func (v *Validator) WithProbePolicy(o ProbeOptions) *Validator {
	v.probeOpts = o
	return v
}

// WithRateLimits throttles outbound probes.
func (v *Validator) WithRateLimits(o RateLimitOptions) *Validator {
	v.rateOpts = o
	return v
}

// WithLookupFuncs replaces all discovery I/O (and disables the
// direct-query strategy).
func (v *Validator) WithLookupFuncs(f LookupFuncs) *Validator {
	v.lookups = &f
	return v
}

// WithDialFunc replaces the probe's TCP dialer.
func (v *Validator) WithDialFunc(d DialFunc) *Validator {
	v.dial = d
	return v
}

// build assembles the stages once, after all With* calls.
func (v *Validator) build() {
	list := trustlist.New(v.listOpts.ExtraDisposable, v.listOpts.ExtraTrusted)

	var upstream resolve.Resolver
	var direct *resolve.DirectClient
	if v.lookups != nil {
		upstream = lookupResolver{f: *v.lookups}
	} else {
		upstream = resolve.NewNet()
		if v.dnsOpts.PublicResolver != "off" {
			direct = resolve.NewDirectClient(v.dnsOpts.PublicResolver, v.dnsOpts.Timeout)
		}
	}
	cached := resolve.NewCache(upstream, v.dnsOpts.Timeout, v.dnsOpts.CacheTTL)

	client, err := smtpclient.New(smtpclient.Config{
		HeloDomain:     v.smtpOpts.HeloDomain,
		MailFrom:       v.smtpOpts.MailFrom,
		Port:           v.smtpOpts.Port,
		ConnectTimeout: v.smtpOpts.ConnectTimeout,
		CommandTimeout: v.smtpOpts.CommandTimeout,
		Socks5Addr:     v.smtpOpts.Socks5Addr,
		Socks5User:     v.smtpOpts.Socks5User,
		Socks5Pass:     v.smtpOpts.Socks5Pass,
		DialContext:    v.dial,
	})
	if err != nil {
		v.err = err
		return
	}

	limiter := ratelimit.New(ratelimit.Limits{
		GlobalPerSecond: v.rateOpts.GlobalPerSecond,
		DomainPerSecond: v.rateOpts.DomainPerSecond,
	})

	v.format = stage.NewFormatValidator()
	v.disposable = stage.NewDisposableChecker(list)
	v.trusted = stage.NewTrustedChecker(list)
	v.exists = stage.NewExistenceChecker(cached, v.dnsOpts.Timeout)
	v.mailsrv = stage.NewMailServerResolver(cached, direct, v.dnsOpts.Timeout)
	v.prober = stage.NewProber(stage.ProbeConfig{
		RejectOnUncertainty: v.probeOpts.RejectOnUncertainty,
		TransientRetries:    v.probeOpts.TransientRetries,
		RetryBackoff:        v.probeOpts.RetryBackoff,
	}, client, limiter)
}

// Validate runs the pipeline for one address at the given level (empty
// level means basic). The pipeline stops at the first terminal outcome;
// the error return is reserved for configuration mistakes, never for
// network conditions, which always land in the stage outcomes.
func (v *Validator) Validate(ctx context.Context, email string, level types.Level) (Result, error) {
	if v.err != nil {
		return Result{}, v.err
	}
	v.once.Do(v.build)
	if v.err != nil {
		return Result{}, v.err
	}

	switch level {
	case "":
		level = types.LevelBasic
	case types.LevelBasic, types.LevelAdvanced:
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}

	parsed := parse.NewEmail(email)
	result := Result{Email: parsed.Raw, Level: level}

	record := func(out types.StageOutcome) bool {
		result.Stages = append(result.Stages, out)
		return out.Terminal()
	}

	if record(guard(types.StageFormat, func() types.StageOutcome {
		return v.format.Check(ctx, parsed)
	})) {
		return finish(result), nil
	}

	if record(guard(types.StageDisposable, func() types.StageOutcome {
		return v.disposable.Check(ctx, parsed)
	})) {
		return finish(result), nil
	}

	if record(guard(types.StageTrusted, func() types.StageOutcome {
		return v.trusted.Check(ctx, parsed)
	})) {
		return finish(result), nil
	}

	if record(guard(types.StageExistence, func() types.StageOutcome {
		return v.exists.Check(ctx, parsed)
	})) {
		return finish(result), nil
	}

	var cand types.MailServerCandidate
	if record(guard(types.StageMailServer, func() types.StageOutcome {
		var out types.StageOutcome
		cand, out = v.mailsrv.Resolve(ctx, parsed)
		return out
	})) {
		return finish(result), nil
	}

	record(guard(types.StageProbe, func() types.StageOutcome {
		return v.prober.Probe(ctx, parsed, level, cand)
	}))
	return finish(result), nil
}

// finish derives Valid from the recorded outcomes: every stage passed,
// or a short-circuiting pass ended the run.
func finish(r Result) Result {
	for _, s := range r.Stages {
		if !s.Passed {
			r.Valid = false
			return r
		}
	}
	r.Valid = len(r.Stages) > 0
	return r
}

// lookupResolver adapts LookupFuncs to the resolve.Resolver interface.
type lookupResolver struct {
	f LookupFuncs
}

func (r lookupResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	if r.f.MX == nil {
		return nil, &net.DNSError{Err: "no such host", Name: domain, IsNotFound: true}
	}
	return r.f.MX(ctx, domain)
}

func (r lookupResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	if r.f.Host == nil {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	return r.f.Host(ctx, host)
}

// guard converts a stage panic into a failed outcome so the pipeline
// always returns a structured result.
func guard(name types.StageName, fn func() types.StageOutcome) (out types.StageOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = types.StageOutcome{
				Stage:      name,
				Passed:     false,
				Confidence: types.Ambiguous,
				Reason:     types.ReasonUnknown,
				Message:    fmt.Sprintf("internal error in %s stage: %v", name, rec),
			}
		}
	}()
	return fn()
}
