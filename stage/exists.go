package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/optimode/mailprobe/internal/parse"
	"github.com/optimode/mailprobe/internal/resolve"
	"github.com/optimode/mailprobe/types"
)

// ExistenceChecker confirms the domain resolves at the network-name
// level. A confirmed NXDOMAIN and an operational resolution error are both
// terminal, but they carry distinct reason codes and messages: only the
// former proves the domain does not exist.
type ExistenceChecker struct {
	resolver resolve.Resolver
	timeout  time.Duration
}

func NewExistenceChecker(resolver resolve.Resolver, timeout time.Duration) *ExistenceChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ExistenceChecker{resolver: resolver, timeout: timeout}
}

func (c *ExistenceChecker) Check(ctx context.Context, email parse.Email) types.StageOutcome {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	addrs, err := c.resolver.LookupHost(ctx, email.Domain)
	switch {
	case err == nil && len(addrs) > 0:
		return types.StageOutcome{
			Stage:      types.StageExistence,
			Passed:     true,
			Confidence: types.Certain,
			Message:    fmt.Sprintf("domain %s exists and is reachable", email.DomainUnicode),
		}
	case resolve.IsNotFound(err):
		return types.StageOutcome{
			Stage:      types.StageExistence,
			Passed:     false,
			Confidence: types.Certain,
			Reason:     types.ReasonDomainNotFound,
			Message:    fmt.Sprintf("domain %s does not exist", email.DomainUnicode),
		}
	default:
		// Timeout, SERVFAIL, or an empty answer: an operational problem,
		// not a confirmed non-existent domain.
		detail := "no addresses returned"
		if err != nil {
			detail = err.Error()
		}
		return types.StageOutcome{
			Stage:      types.StageExistence,
			Passed:     false,
			Confidence: types.Ambiguous,
			Reason:     types.ReasonDomainResolution,
			Message:    fmt.Sprintf("domain lookup for %s failed (operational error): %s", email.DomainUnicode, detail),
		}
	}
}
