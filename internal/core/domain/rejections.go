package domain

import "fmt"

// ModelNotFoundError reports an unknown or missing-on-disk reference identity
// together with the identities that are actually usable right now, so the
// caller can self-correct.
type ModelNotFoundError struct {
	Identity  string
	Available []string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("no trained model found for %q", e.Identity)
}

func (e *ModelNotFoundError) Unwrap() error {
	return ErrModelNotFound
}

// RejectionKind identifies which structured rejection the classifier emitted.
type RejectionKind string

const (
	RejectInvalidImage RejectionKind = "INVALID_IMAGE"
	RejectUncertain    RejectionKind = "UNCERTAIN"
	RejectError        RejectionKind = "ERROR"
)

// WorkerRejection is a structured, user-facing rejection from the classifier:
// the input was received and examined but refused with a reason the caller is
// allowed to see.
type WorkerRejection struct {
	Kind   RejectionKind
	Reason string
}

func (e *WorkerRejection) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}
