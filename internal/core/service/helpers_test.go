package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/veriscribe/signature-api/internal/core/domain"
	"github.com/veriscribe/signature-api/internal/core/ports"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// stubRecordRepo is an in-memory VerificationRepository.
type stubRecordRepo struct {
	mu      sync.Mutex
	records []domain.VerificationRecord
	nextID  int

	insertErr error
	listErr   error
}

func newStubRecordRepo() *stubRecordRepo {
	return &stubRecordRepo{}
}

func (r *stubRecordRepo) Insert(_ context.Context, rec *domain.VerificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.nextID++
	rec.ID = fmt.Sprintf("rec_%d", r.nextID)
	r.records = append(r.records, *rec)
	return nil
}

func (r *stubRecordRepo) owned(userID string) []domain.VerificationRecord {
	out := make([]domain.VerificationRecord, 0)
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	// newest first, mirroring the store's sort order
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func (r *stubRecordRepo) List(_ context.Context, userID string, q ports.HistoryQuery) ([]domain.VerificationRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, 0, r.listErr
	}

	matched := make([]domain.VerificationRecord, 0)
	for _, rec := range r.owned(userID) {
		if q.Filter.Status == ports.StatusGenuine && rec.Label != domain.LabelGenuine {
			continue
		}
		if q.Filter.Status == ports.StatusForged && rec.Label != domain.LabelForged {
			continue
		}
		matched = append(matched, rec)
	}

	total := int64(len(matched))
	start := (q.Page - 1) * q.Limit
	if start >= len(matched) {
		return []domain.VerificationRecord{}, total, nil
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *stubRecordRepo) Summary(_ context.Context, userID string) (*domain.HistorySummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary := &domain.HistorySummary{}
	var confidenceSum float64
	for _, rec := range r.owned(userID) {
		summary.Total++
		confidenceSum += rec.Confidence
		if rec.Label == domain.LabelGenuine {
			summary.Genuine++
		} else {
			summary.Forged++
		}
	}
	if summary.Total > 0 {
		summary.AvgConfidence = confidenceSum / float64(summary.Total)
	}
	return summary, nil
}

func (r *stubRecordRepo) FindOwned(_ context.Context, userID, id string) (*domain.VerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id && rec.UserID == userID {
			clone := rec
			return &clone, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *stubRecordRepo) FindOwnedByIDs(_ context.Context, userID string, ids []string) ([]domain.VerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]domain.VerificationRecord, 0)
	for _, rec := range r.records {
		if _, ok := want[rec.ID]; ok && rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *stubRecordRepo) FindAllOwned(_ context.Context, userID string) ([]domain.VerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owned(userID), nil
}

func (r *stubRecordRepo) DeleteOwned(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rec := range r.records {
		if rec.ID == id && rec.UserID == userID {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

func (r *stubRecordRepo) DeleteOwnedByIDs(_ context.Context, userID string, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	kept := r.records[:0]
	var deleted int64
	for _, rec := range r.records {
		if _, ok := want[rec.ID]; ok && rec.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return deleted, nil
}

func (r *stubRecordRepo) DeleteAllOwned(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	var deleted int64
	for _, rec := range r.records {
		if rec.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return deleted, nil
}

func (r *stubRecordRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.records)), nil
}

func (r *stubRecordRepo) GlobalCounts(_ context.Context) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var genuine, forged int64
	for _, rec := range r.records {
		if rec.Label == domain.LabelGenuine {
			genuine++
		} else {
			forged++
		}
	}
	return genuine, forged, nil
}

// stubArtifactStore tracks promoted and removed artifacts in memory.
type stubArtifactStore struct {
	mu       sync.Mutex
	existing map[string]bool
	removed  []string

	promoteErr error
	promoted   int
}

func newStubArtifactStore() *stubArtifactStore {
	return &stubArtifactStore{existing: make(map[string]bool)}
}

func (s *stubArtifactStore) Promote(_, originalName, ownerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.promoteErr != nil {
		return "", s.promoteErr
	}
	s.promoted++
	path := fmt.Sprintf("/uploads/history/hist_%s_%d_%s", ownerID, s.promoted, originalName)
	s.existing[path] = true
	return path, nil
}

func (s *stubArtifactStore) Discard(string) {}

func (s *stubArtifactStore) ArtifactExists(publicPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existing[publicPath]
}

func (s *stubArtifactStore) RemoveArtifact(publicPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.existing, publicPath)
	s.removed = append(s.removed, publicPath)
}

// stubCleaner applies deletions synchronously so tests can assert on them.
type stubCleaner struct {
	store *stubArtifactStore

	mu       sync.Mutex
	enqueued []string
}

func (c *stubCleaner) Enqueue(_, publicPath string) {
	if publicPath == "" {
		return
	}
	c.mu.Lock()
	c.enqueued = append(c.enqueued, publicPath)
	c.mu.Unlock()
	if c.store != nil {
		c.store.RemoveArtifact(publicPath)
	}
}

type stubHealth struct{ reachable bool }

func (h *stubHealth) Reachable() bool { return h.reachable }

// stubRunner returns a canned outcome and records the paths it was invoked
// with.
type stubRunner struct {
	models  []string
	outcome ports.WorkerOutcome

	mu        sync.Mutex
	ranImages []string
}

func (r *stubRunner) Resolve(identity string) (string, error) {
	for _, m := range r.models {
		if m == identity {
			return identity + ".h5", nil
		}
	}
	return "", &domain.ModelNotFoundError{Identity: identity, Available: r.models}
}

func (r *stubRunner) Available() []string { return r.models }

func (r *stubRunner) Run(_ context.Context, imagePath, _ string) ports.WorkerOutcome {
	r.mu.Lock()
	r.ranImages = append(r.ranImages, imagePath)
	r.mu.Unlock()
	return r.outcome
}

var errStoreDown = errors.New("store down")
