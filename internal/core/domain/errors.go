package domain

import "errors"

// Sentinel errors shared between services, repositories and the HTTP error
// handler. The error handler maps each to a deterministic status code and a
// stable machine-readable discriminator.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")

	ErrRecordNotFound = errors.New("record not found")

	ErrModelNotFound = errors.New("no trained model found")

	ErrUploadTooLarge = errors.New("file too large")
	ErrUploadBadType  = errors.New("unsupported file type")

	// ErrWorkerFailed covers opaque classifier failures: non-zero exit with no
	// recognised output, or output that does not match the result grammar.
	// Raw diagnostics are logged, never attached to this error.
	ErrWorkerFailed = errors.New("error processing signature")

	ErrStoreUnavailable = errors.New("datastore unavailable")
)
