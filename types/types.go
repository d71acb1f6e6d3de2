// Package types contains the shared types for mailprobe.
// This package does not import anything from other mailprobe packages
// to avoid circular imports.
package types

// Level selects how far the deliverability probe goes.
type Level = string

const (
	// LevelBasic opens a TCP connection to the mail server and stops there.
	LevelBasic Level = "basic"
	// LevelAdvanced performs a full SMTP handshake up to RCPT TO.
	LevelAdvanced Level = "advanced"
)

// StageName identifies a pipeline stage.
type StageName = string

const (
	StageFormat     StageName = "format"
	StageDisposable StageName = "disposable"
	StageTrusted    StageName = "trusted"
	StageExistence  StageName = "existence"
	StageMailServer StageName = "mailserver"
	StageProbe      StageName = "probe"
)

// Confidence grades how sure a stage is about its own verdict.
type Confidence string

const (
	// Certain means the verdict will not change on retry (bad syntax,
	// disposable domain, NXDOMAIN, SMTP 250/5xx).
	Certain Confidence = "certain"
	// Likely means the verdict is probably right but the evidence is
	// indirect (TCP connect succeeded, greylisting).
	Likely Confidence = "likely"
	// Ambiguous means the stage could not actually tell (blocked port,
	// timeout, unexpected reply).
	Ambiguous Confidence = "ambiguous"
)

// Reason tags an outcome with a machine-readable cause.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonFormat           Reason = "format_error"
	ReasonDisposableDomain Reason = "disposable_domain"
	ReasonDomainNotFound   Reason = "domain_not_found"
	ReasonDomainResolution Reason = "domain_resolution_error"
	ReasonNoMailServer     Reason = "mail_server_not_found"
	ReasonProbeTimeout     Reason = "probe_timeout"
	ReasonProbeConnection  Reason = "probe_connection_error"
	ReasonSMTPTransient    Reason = "smtp_transient"
	ReasonSMTPRejected     Reason = "smtp_rejected"
	ReasonUnknown          Reason = "unknown_error"
)

// DiscoveryMethod records how a mail server candidate was found.
type DiscoveryMethod string

const (
	DiscoveryMXRecord         DiscoveryMethod = "mx-record"
	DiscoveryDirectQuery      DiscoveryMethod = "direct-query"
	DiscoveryPrefixGuess      DiscoveryMethod = "prefix-guess"
	DiscoveryProviderOverride DiscoveryMethod = "provider-override"
	DiscoveryDomainItself     DiscoveryMethod = "domain-itself"
)

// MailServerCandidate is the host the probe stage acts on.
// At most one candidate is acted upon per request.
type MailServerCandidate struct {
	Host       string          `json:"host"`
	Method     DiscoveryMethod `json:"method"`
	Resolvable bool            `json:"resolvable"`
}

// StageOutcome is the result of a single executed pipeline stage.
// Outcomes are appended in execution order and never reordered.
type StageOutcome struct {
	Stage      StageName  `json:"stage"`
	Passed     bool       `json:"passed"`
	Confidence Confidence `json:"confidence"`
	Reason     Reason     `json:"reason,omitempty"`
	Message    string     `json:"message"`
	// ShortCircuit marks a passing outcome that ends the pipeline early
	// with a full pass (the trusted-provider shortcut).
	ShortCircuit bool `json:"shortCircuit,omitempty"`
	// Host is the mail server the outcome refers to, when one exists.
	Host string `json:"host,omitempty"`
	// SMTPCode is the raw reply code for advanced probe outcomes.
	SMTPCode int `json:"smtpCode,omitempty"`
	// Suggestion is a non-failing "did you mean" domain correction.
	Suggestion string `json:"suggestion,omitempty"`
}

// Terminal reports whether the outcome ends the pipeline: either a
// failure or a short-circuiting pass.
func (o StageOutcome) Terminal() bool {
	return !o.Passed || o.ShortCircuit
}
