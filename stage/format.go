package stage

import (
	"context"
	"regexp"

	"github.com/optimode/mailprobe/internal/parse"
	"github.com/optimode/mailprobe/types"
)

// emailPattern is the acceptance grammar: local characters, an @, a
// dotted domain, and an alphabetic TLD of at least two letters.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// FormatValidator checks the address against the grammar. No network
// access, no side effects; failure is terminal for the pipeline.
type FormatValidator struct{}

func NewFormatValidator() *FormatValidator {
	return &FormatValidator{}
}

func (v *FormatValidator) Check(_ context.Context, email parse.Email) types.StageOutcome {
	if email.Raw == "" {
		return types.StageOutcome{
			Stage:      types.StageFormat,
			Passed:     false,
			Confidence: types.Certain,
			Reason:     types.ReasonFormat,
			Message:    "no email address provided",
		}
	}

	// Internationalized domains are matched in their Punycode form; the
	// grammar itself is ASCII.
	candidate := email.Raw
	if email.Valid {
		candidate = email.Local + "@" + email.Domain
	}

	if !email.Valid || !emailPattern.MatchString(candidate) {
		return types.StageOutcome{
			Stage:      types.StageFormat,
			Passed:     false,
			Confidence: types.Certain,
			Reason:     types.ReasonFormat,
			Message:    "invalid email format",
		}
	}

	return types.StageOutcome{
		Stage:      types.StageFormat,
		Passed:     true,
		Confidence: types.Certain,
		Message:    "email format is valid",
	}
}
