package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/optimode/mailprobe/internal/levenshtein"
	"github.com/optimode/mailprobe/internal/parse"
	"github.com/optimode/mailprobe/internal/trustlist"
	"github.com/optimode/mailprobe/types"
)

// knownProviders feeds the typo advisory. A domain within typoThreshold
// edits of one of these gets a suggestion; the stage never fails on it.
var knownProviders = []string{
	"gmail.com", "googlemail.com",
	"yahoo.com", "yahoo.co.uk",
	"outlook.com", "hotmail.com", "live.com", "msn.com",
	"icloud.com", "me.com",
	"protonmail.com", "proton.me",
	"aol.com", "zoho.com", "mail.com",
	"yandex.com", "gmx.com", "gmx.net",
	"fastmail.com", "tutanota.com",
}

const typoThreshold = 2

// TrustedChecker short-circuits the pipeline for large, known-good
// providers: a valid-looking local part there is assumed deliverable, so
// the network stages are skipped entirely. Exact, case-insensitive
// membership test; no I/O.
//
// For unknown domains the stage passes through, attaching a typo
// advisory when the domain is a near-miss of a known provider.
type TrustedChecker struct {
	list *trustlist.List
}

func NewTrustedChecker(list *trustlist.List) *TrustedChecker {
	return &TrustedChecker{list: list}
}

func (c *TrustedChecker) Check(_ context.Context, email parse.Email) types.StageOutcome {
	if c.list.Tier(email.Domain) == trustlist.Trusted {
		return types.StageOutcome{
			Stage:        types.StageTrusted,
			Passed:       true,
			Confidence:   types.Certain,
			ShortCircuit: true,
			Message:      fmt.Sprintf("verified trusted email provider: %s", email.DomainUnicode),
		}
	}

	out := types.StageOutcome{
		Stage:      types.StageTrusted,
		Passed:     true,
		Confidence: types.Certain,
		Message:    "domain is not a known provider, continuing verification",
	}
	if s := typoSuggestion(strings.ToLower(email.DomainUnicode)); s != "" {
		out.Suggestion = s
		out.Message = fmt.Sprintf("domain is not a known provider (did you mean %s?), continuing verification", s)
	}
	return out
}

// typoSuggestion returns the closest known provider within the edit
// threshold, or "" when the domain is an exact match or nothing is close.
func typoSuggestion(domain string) string {
	bestDist := typoThreshold + 1
	best := ""
	for _, provider := range knownProviders {
		if domain == provider {
			return ""
		}
		if d := levenshtein.Distance(domain, provider); d < bestDist {
			bestDist = d
			best = provider
		}
	}
	if bestDist > typoThreshold {
		return ""
	}
	return best
}
