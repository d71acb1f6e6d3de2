// Package mailprobe estimates, without sending a real message, whether an
// email address is format-valid, not a known disposable mailbox, and
// backed by a domain that is plausibly able to receive mail.
//
// Basic usage:
//
//	result, err := mailprobe.New().Validate(ctx, "user@example.com", mailprobe.LevelBasic)
//
// Advanced level performs a full SMTP handshake up to RCPT TO:
//
//	v := mailprobe.New().
//	    WithSMTP(mailprobe.SMTPOptions{
//	        HeloDomain: "myapp.com",
//	        MailFrom:   "verify@myapp.com",
//	    })
//	result, err := v.Validate(ctx, "user@example.com", mailprobe.LevelAdvanced)
//
// Every stage degrades to a structured outcome instead of an error; the
// ordered Result.Messages() log explains the verdict.
package mailprobe

import "github.com/optimode/mailprobe/types"

// StageOutcome is a re-export from the types package so that consumers
// don't need to import the types package directly.
type StageOutcome = types.StageOutcome

// Level is a re-export.
type Level = types.Level

// Confidence is a re-export.
type Confidence = types.Confidence

// Level constants re-exported.
const (
	LevelBasic    = types.LevelBasic
	LevelAdvanced = types.LevelAdvanced
)

// Confidence constants re-exported.
const (
	Certain   = types.Certain
	Likely    = types.Likely
	Ambiguous = types.Ambiguous
)
