package stage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/optimode/mailprobe/internal/parse"
	"github.com/optimode/mailprobe/internal/ratelimit"
	"github.com/optimode/mailprobe/internal/smtpclient"
	"github.com/optimode/mailprobe/types"
)

// ProbeConfig tunes the deliverability probe.
type ProbeConfig struct {
	// RejectOnUncertainty flips the basic-level policy: when set, an
	// unreachable mail server fails the pipeline instead of passing with
	// a caveat. The lenient default matches how most form gates want to
	// behave on networks that block port 25 outbound.
	RejectOnUncertainty bool
	// TransientRetries is how many extra attempts a 4xx reply gets.
	// Default 1; certain rejections (5xx) are never retried.
	TransientRetries int
	// RetryBackoff is the pause before a transient retry. Default 500ms.
	RetryBackoff time.Duration
}

// Prober judges whether the resolved mail server would likely accept
// mail. Basic level is a bare TCP connect; advanced level drives the
// SMTP handshake through RCPT TO and grades the reply code.
type Prober struct {
	cfg     ProbeConfig
	client  *smtpclient.Client
	limiter *ratelimit.Limiter
}

// NewProber builds a Prober. limiter may be nil to disable throttling.
func NewProber(cfg ProbeConfig, client *smtpclient.Client, limiter *ratelimit.Limiter) *Prober {
	if cfg.TransientRetries < 0 {
		cfg.TransientRetries = 0
	} else if cfg.TransientRetries == 0 {
		cfg.TransientRetries = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.Limits{})
	}
	return &Prober{cfg: cfg, client: client, limiter: limiter}
}

// Probe runs the probe at the requested level against the candidate.
func (p *Prober) Probe(ctx context.Context, email parse.Email, level types.Level, cand types.MailServerCandidate) types.StageOutcome {
	if err := p.limiter.Wait(ctx, email.Domain); err != nil {
		return failure(cand.Host, types.Ambiguous, types.ReasonProbeTimeout,
			fmt.Sprintf("probe of %s abandoned: %v", cand.Host, err))
	}

	if level == types.LevelAdvanced {
		return p.probeAdvanced(ctx, email, cand)
	}
	return p.probeBasic(ctx, cand)
}

// probeBasic opens a TCP connection and nothing more. Connection failure
// is not proof of undeliverability: many networks block the mail port,
// so the lenient policy passes with a caveat unless RejectOnUncertainty
// is set.
func (p *Prober) probeBasic(ctx context.Context, cand types.MailServerCandidate) types.StageOutcome {
	err := p.client.Connect(ctx, cand.Host)
	if err == nil {
		return types.StageOutcome{
			Stage:      types.StageProbe,
			Passed:     true,
			Confidence: types.Likely,
			Host:       cand.Host,
			Message:    fmt.Sprintf("mail server verified and accessible: %s", cand.Host),
		}
	}

	reason := types.ReasonProbeConnection
	if isTimeout(err) {
		reason = types.ReasonProbeTimeout
	}

	if p.cfg.RejectOnUncertainty {
		return failure(cand.Host, types.Ambiguous, reason,
			fmt.Sprintf("mail server %s unreachable: %v", cand.Host, err))
	}

	return types.StageOutcome{
		Stage:      types.StageProbe,
		Passed:     true,
		Confidence: types.Ambiguous,
		Reason:     reason,
		Host:       cand.Host,
		Message:    fmt.Sprintf("mail server found but connection limited: %s (may still accept mail)", cand.Host),
	}
}

// probeAdvanced performs the full handshake and grades the RCPT TO reply.
// Transient (4xx) replies get a bounded retry with backoff; certain
// rejections and indeterminate outcomes never do.
func (p *Prober) probeAdvanced(ctx context.Context, email parse.Email, cand types.MailServerCandidate) types.StageOutcome {
	recipient := email.Local + "@" + email.Domain

	var out types.StageOutcome
	for attempt := 0; ; attempt++ {
		out = p.rcptOnce(ctx, recipient, cand.Host)
		if out.Reason != types.ReasonSMTPTransient || attempt >= p.cfg.TransientRetries {
			return out
		}
		select {
		case <-time.After(p.cfg.RetryBackoff << attempt):
		case <-ctx.Done():
			return out
		}
	}
}

func (p *Prober) rcptOnce(ctx context.Context, recipient, host string) types.StageOutcome {
	reply, err := p.client.CheckRecipient(ctx, host, recipient)
	if err != nil {
		if isTimeout(err) {
			return failure(host, types.Ambiguous, types.ReasonProbeTimeout,
				fmt.Sprintf("mail server %s did not answer in time: %v", host, err))
		}
		return failure(host, types.Ambiguous, types.ReasonProbeConnection,
			fmt.Sprintf("could not complete handshake with %s: %v", host, err))
	}

	out := types.StageOutcome{Stage: types.StageProbe, Host: host, SMTPCode: reply.Code}
	switch reply.Code {
	case 250, 251, 252:
		out.Passed = true
		out.Confidence = types.Certain
		out.Message = fmt.Sprintf("mailbox accepted by %s (code %d)", host, reply.Code)
	case 550, 551, 553:
		out.Confidence = types.Certain
		out.Reason = types.ReasonSMTPRejected
		out.Message = fmt.Sprintf("mailbox rejected by %s: %d %s", host, reply.Code, reply.Text)
	case 450, 451, 452:
		out.Confidence = types.Likely
		out.Reason = types.ReasonSMTPTransient
		out.Message = fmt.Sprintf("temporary refusal from %s (possible greylisting, may succeed later): %d %s", host, reply.Code, reply.Text)
	default:
		out.Confidence = types.Ambiguous
		out.Reason = types.ReasonUnknown
		out.Message = fmt.Sprintf("indeterminate reply from %s: %d %s", host, reply.Code, reply.Text)
	}
	return out
}

func failure(host string, conf types.Confidence, reason types.Reason, msg string) types.StageOutcome {
	return types.StageOutcome{
		Stage:      types.StageProbe,
		Passed:     false,
		Confidence: conf,
		Reason:     reason,
		Host:       host,
		Message:    msg,
	}
}

// isTimeout classifies deadline-style failures apart from refusals.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
