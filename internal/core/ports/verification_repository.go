package ports

import (
	"context"
	"time"

	"github.com/veriscribe/signature-api/internal/core/domain"
)

// HistoryStatus filters list results by classification outcome.
type HistoryStatus string

const (
	StatusAll     HistoryStatus = "all"
	StatusGenuine HistoryStatus = "genuine"
	StatusForged  HistoryStatus = "forged"
)

// HistoryFilter narrows a history listing. Zero values mean "no filter".
type HistoryFilter struct {
	// Search matches case-insensitively against the reference identity the
	// upload was checked against.
	Search string
	// Date restricts results to a single calendar day.
	Date *time.Time
	// Status keeps only genuine or only forged records.
	Status HistoryStatus
}

// HistoryQuery combines filters with pagination.
type HistoryQuery struct {
	Filter HistoryFilter
	Page   int
	Limit  int
}

// VerificationRepository defines persistence for verification outcomes.
// Every *Owned operation is scoped by owner id; records that do not belong to
// the owner behave as if they did not exist.
type VerificationRepository interface {
	Insert(ctx context.Context, rec *domain.VerificationRecord) error

	// List returns the requested page sorted newest-first plus the total count
	// of records matching the query.
	List(ctx context.Context, userID string, q HistoryQuery) ([]domain.VerificationRecord, int64, error)

	// Summary aggregates the owner's entire history, ignoring list filters.
	Summary(ctx context.Context, userID string) (*domain.HistorySummary, error)

	FindOwned(ctx context.Context, userID, id string) (*domain.VerificationRecord, error)
	FindOwnedByIDs(ctx context.Context, userID string, ids []string) ([]domain.VerificationRecord, error)
	FindAllOwned(ctx context.Context, userID string) ([]domain.VerificationRecord, error)

	DeleteOwned(ctx context.Context, userID, id string) error
	DeleteOwnedByIDs(ctx context.Context, userID string, ids []string) (int64, error)
	DeleteAllOwned(ctx context.Context, userID string) (int64, error)

	Count(ctx context.Context) (int64, error)
	GlobalCounts(ctx context.Context) (genuine, forged int64, err error)
}
