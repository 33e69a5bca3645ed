package service

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/veriscribe/signature-api/internal/core/domain"
	"github.com/veriscribe/signature-api/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// HistoryService implements retrieval, aggregation and deletion of
// verification outcomes.
type HistoryService struct {
	records ports.VerificationRepository
	users   ports.UserRepository
	store   ports.ArtifactStore
	cleaner ports.ArtifactCleaner
	health  ports.StoreHealth
	logger  zerolog.Logger
}

func NewHistoryService(
	records ports.VerificationRepository,
	users ports.UserRepository,
	store ports.ArtifactStore,
	cleaner ports.ArtifactCleaner,
	health ports.StoreHealth,
	logger zerolog.Logger,
) *HistoryService {
	return &HistoryService{
		records: records,
		users:   users,
		store:   store,
		cleaner: cleaner,
		health:  health,
		logger:  logger,
	}
}

// List returns one page of the owner's history plus the whole-history
// summary. Records whose artifact has gone missing on disk have their access
// path blanked in the response; the records themselves are left alone (see
// CleanOrphaned for the active variant).
func (s *HistoryService) List(ctx context.Context, userID string, q ports.HistoryQuery) (*ports.HistoryPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}

	records, total, err := s.records.List(ctx, userID, q)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].ImagePath != "" && !s.store.ArtifactExists(records[i].ImagePath) {
			records[i].ImagePath = ""
		}
	}

	summary, err := s.records.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	if summary.Total > 0 {
		rate := float64(summary.Genuine) / float64(summary.Total) * 100
		summary.SuccessRate = math.Round(rate*10) / 10
	}

	return &ports.HistoryPage{
		Records:    records,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: (total + int64(q.Limit) - 1) / int64(q.Limit),
		Summary:    *summary,
	}, nil
}

// DeleteOne removes a single owned record and queues its artifact for
// deletion. A record that is missing or not owned yields ErrRecordNotFound;
// ownership and absence are deliberately indistinguishable.
func (s *HistoryService) DeleteOne(ctx context.Context, userID, recordID string) error {
	rec, err := s.records.FindOwned(ctx, userID, recordID)
	if err != nil {
		return err
	}

	if err := s.records.DeleteOwned(ctx, userID, recordID); err != nil {
		return err
	}
	s.cleaner.Enqueue(userID, rec.ImagePath)
	return nil
}

// DeleteBulk removes the subset of ids actually owned by the caller,
// silently dropping malformed or foreign ids, and reports how many records
// were removed.
func (s *HistoryService) DeleteBulk(ctx context.Context, userID string, ids []string) (int64, error) {
	records, err := s.records.FindOwnedByIDs(ctx, userID, ids)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	owned := make([]string, 0, len(records))
	for _, rec := range records {
		owned = append(owned, rec.ID)
	}

	deleted, err := s.records.DeleteOwnedByIDs(ctx, userID, owned)
	if err != nil {
		return 0, err
	}

	for _, rec := range records {
		s.cleaner.Enqueue(userID, rec.ImagePath)
	}
	return deleted, nil
}

// DeleteAll clears the owner's entire history with artifact cleanup.
func (s *HistoryService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	records, err := s.records.FindAllOwned(ctx, userID)
	if err != nil {
		return 0, err
	}

	deleted, err := s.records.DeleteAllOwned(ctx, userID)
	if err != nil {
		return 0, err
	}

	for _, rec := range records {
		s.cleaner.Enqueue(userID, rec.ImagePath)
	}
	return deleted, nil
}

// CleanOrphaned deletes the owner's records whose artifact is missing on
// disk and reports how many were removed. Unlike the blanking done during
// List, this mutates the store.
func (s *HistoryService) CleanOrphaned(ctx context.Context, userID string) (int64, error) {
	records, err := s.records.FindAllOwned(ctx, userID)
	if err != nil {
		return 0, err
	}

	var orphaned []string
	for _, rec := range records {
		if rec.ImagePath != "" && !s.store.ArtifactExists(rec.ImagePath) {
			orphaned = append(orphaned, rec.ID)
		}
	}
	if len(orphaned) == 0 {
		return 0, nil
	}

	deleted, err := s.records.DeleteOwnedByIDs(ctx, userID, orphaned)
	if err != nil {
		return 0, err
	}

	s.logger.Info().Str("user_id", userID).Int64("removed", deleted).Msg("orphaned history records cleaned")
	return deleted, nil
}

// GlobalStats returns the public, unscoped aggregate. When the datastore is
// unreachable it degrades to zeros with degraded=true rather than failing
// the request.
func (s *HistoryService) GlobalStats(ctx context.Context) (*domain.GlobalStats, bool) {
	if !s.health.Reachable() {
		return &domain.GlobalStats{}, true
	}

	stats := &domain.GlobalStats{}

	total, err := s.records.Count(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("global stats unavailable")
		return &domain.GlobalStats{}, true
	}
	stats.TotalVerifications = total

	users, err := s.users.Count(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("global stats unavailable")
		return &domain.GlobalStats{}, true
	}
	stats.TotalUsers = users

	genuine, forged, err := s.records.GlobalCounts(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("global stats unavailable")
		return &domain.GlobalStats{}, true
	}
	stats.GenuineCount = genuine
	stats.ForgedCount = forged

	return stats, false
}
