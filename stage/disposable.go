package stage

import (
	"context"
	"fmt"

	"github.com/optimode/mailprobe/internal/parse"
	"github.com/optimode/mailprobe/internal/trustlist"
	"github.com/optimode/mailprobe/types"
)

// DisposableChecker rejects domains run by throwaway-mailbox providers.
// Exact, case-insensitive membership test against the static blocklist;
// no I/O. A match is terminal regardless of deliverability.
type DisposableChecker struct {
	list *trustlist.List
}

func NewDisposableChecker(list *trustlist.List) *DisposableChecker {
	return &DisposableChecker{list: list}
}

func (c *DisposableChecker) Check(_ context.Context, email parse.Email) types.StageOutcome {
	if c.list.Tier(email.Domain) == trustlist.Disposable {
		return types.StageOutcome{
			Stage:      types.StageDisposable,
			Passed:     false,
			Confidence: types.Certain,
			Reason:     types.ReasonDisposableDomain,
			Message:    fmt.Sprintf("disposable email domain detected: %s", email.DomainUnicode),
		}
	}
	return types.StageOutcome{
		Stage:      types.StageDisposable,
		Passed:     true,
		Confidence: types.Certain,
		Message:    "domain is not a known disposable provider",
	}
}
