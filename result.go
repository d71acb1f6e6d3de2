package mailprobe

import "github.com/optimode/mailprobe/types"

// Result is the full outcome of one validation request. Valid is true
// only if every executed terminal-capable stage passed; the trusted
// short-circuit counts as a full pass.
type Result struct {
	Email  string               `json:"email"`
	Valid  bool                 `json:"valid"`
	Level  types.Level          `json:"validation_level"`
	Stages []types.StageOutcome `json:"stages"`
}

// Messages renders the ordered, human-readable explanation of the
// verdict, one line per executed stage. The order matches execution
// order and is the authoritative explanation of the result.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Stages))
	for _, s := range r.Stages {
		out = append(out, s.Message)
	}
	return out
}

// StageFor returns the outcome for the given stage, if it executed.
func (r Result) StageFor(name types.StageName) (types.StageOutcome, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return types.StageOutcome{}, false
}

// FailedStages returns the outcomes that did not pass.
func (r Result) FailedStages() []types.StageOutcome {
	var out []types.StageOutcome
	for _, s := range r.Stages {
		if !s.Passed {
			out = append(out, s)
		}
	}
	return out
}
