package ports

import "context"

// WorkerOutcomeKind tags the parsed result of one worker invocation.
type WorkerOutcomeKind string

const (
	// OutcomeSuccess: exit 0 and a last line matching the result grammar.
	OutcomeSuccess WorkerOutcomeKind = "success"
	// OutcomeInvalidImage: the worker explicitly rejected the input image.
	OutcomeInvalidImage WorkerOutcomeKind = "invalid_image"
	// OutcomeUncertain: the worker classified but below its confidence floor.
	OutcomeUncertain WorkerOutcomeKind = "uncertain"
	// OutcomeWorkerError: the worker reported a structured internal error.
	OutcomeWorkerError WorkerOutcomeKind = "worker_error"
	// OutcomeUnparseable: exit/output did not match any recognised form.
	OutcomeUnparseable WorkerOutcomeKind = "unparseable"
)

// WorkerOutcome is the tagged result of running and parsing one
// classification. Label and Confidence are set only for OutcomeSuccess;
// Reason carries the worker's user-facing rejection text for the structured
// rejection kinds and the raw diagnostic (log-only) otherwise.
type WorkerOutcome struct {
	Kind       WorkerOutcomeKind
	Label      string
	Confidence float64
	Reason     string
}

// WorkerRunner invokes the external classification process.
type WorkerRunner interface {
	// Resolve maps a reference identity to its model artifact path, or
	// domain.ErrModelNotFound when unknown or missing on disk.
	Resolve(identity string) (string, error)

	// Available lists reference identities whose artifact exists on disk.
	Available() []string

	// Run spawns the worker with the staged image and model paths and parses
	// its output. The process is always allowed to run to completion.
	Run(ctx context.Context, imagePath, modelPath string) WorkerOutcome
}
