// Package stage contains the pipeline stages of mailprobe. Each type
// produces a types.StageOutcome and owns its own error handling: network
// failures become outcomes, never propagated errors. The recommended way
// to run them is the pipeline in the github.com/optimode/mailprobe package.
package stage
