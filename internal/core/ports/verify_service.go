package ports

import (
	"context"

	"github.com/veriscribe/signature-api/internal/core/domain"
)

// PredictInput describes one staged verification request. UserID is empty for
// anonymous callers, whose results are returned but never persisted.
type PredictInput struct {
	UserID       string
	StagedPath   string
	OriginalName string
	Identity     string
}

// PredictResult is the caller-visible outcome of a successful classification.
// ImagePath is empty when the artifact was not retained (anonymous caller, or
// a best-effort promotion/persistence failure).
type PredictResult struct {
	Label       domain.Label `json:"label"`
	Confidence  float64      `json:"confidence"`
	ImagePath   string       `json:"imagePath,omitempty"`
	VerifiedFor string       `json:"verifiedFor"`
}

// VerifyService runs the verification pipeline: resolve reference identity,
// dispatch to the worker, parse, and record the outcome.
type VerifyService interface {
	Predict(ctx context.Context, in PredictInput) (*PredictResult, error)
	AvailableModels() []string
}

// HistoryPage is one page of records plus the whole-history aggregate.
type HistoryPage struct {
	Records    []domain.VerificationRecord `json:"records"`
	Page       int                         `json:"page"`
	Limit      int                         `json:"limit"`
	Total      int64                       `json:"total"`
	TotalPages int64                       `json:"totalPages"`
	Summary    domain.HistorySummary       `json:"summary"`
}

// HistoryService implements retrieval and deletion of verification outcomes.
type HistoryService interface {
	List(ctx context.Context, userID string, q HistoryQuery) (*HistoryPage, error)
	DeleteOne(ctx context.Context, userID, recordID string) error
	DeleteBulk(ctx context.Context, userID string, ids []string) (int64, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)

	// CleanOrphaned removes records whose artifact is missing on disk and
	// reports how many were deleted.
	CleanOrphaned(ctx context.Context, userID string) (int64, error)

	// GlobalStats returns the public aggregate. When the store is unreachable
	// it degrades to zeros with degraded=true instead of failing.
	GlobalStats(ctx context.Context) (*domain.GlobalStats, bool)
}

// ArtifactStore promotes staged uploads into the durable history area and
// removes artifacts.
type ArtifactStore interface {
	Promote(stagedPath, originalName, ownerID string) (string, error)
	Discard(path string)

	// ArtifactExists reports whether the file behind a public access path is
	// still present on durable storage.
	ArtifactExists(publicPath string) bool
	RemoveArtifact(publicPath string)
}

// ArtifactCleaner accepts best-effort artifact deletions for asynchronous
// processing, sharded so per-owner deletes stay ordered.
type ArtifactCleaner interface {
	Enqueue(ownerID, publicPath string)
}

// StoreHealth reports the last observed reachability of the datastore. Read
// endpoints that must degrade gracefully consult it instead of blocking on a
// doomed query.
type StoreHealth interface {
	Reachable() bool
}
