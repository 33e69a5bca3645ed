package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/veriscribe/signature-api/internal/api/metrics"
	"github.com/veriscribe/signature-api/internal/core/domain"
	"github.com/veriscribe/signature-api/internal/core/ports"
)

// VerifyService runs the verification pipeline: resolve the reference
// identity, dispatch the staged upload to the external worker, and record the
// outcome for identified callers.
type VerifyService struct {
	runner  ports.WorkerRunner
	store   ports.ArtifactStore
	history ports.VerificationRepository
	logger  zerolog.Logger
}

func NewVerifyService(
	runner ports.WorkerRunner,
	store ports.ArtifactStore,
	history ports.VerificationRepository,
	logger zerolog.Logger,
) *VerifyService {
	return &VerifyService{runner: runner, store: store, history: history, logger: logger}
}

func (s *VerifyService) AvailableModels() []string {
	return s.runner.Available()
}

// Predict classifies one staged upload against a reference identity.
//
// The staged file is the caller's to clean up (handlers defer a discard);
// this method only consumes it via promotion on the success path. Once the
// worker has classified successfully, failures of the history side-effect do
// not fail the request: the result is returned without an artifact path and
// the loss is logged.
func (s *VerifyService) Predict(ctx context.Context, in ports.PredictInput) (*ports.PredictResult, error) {
	identity := strings.ToLower(strings.TrimSpace(in.Identity))

	modelPath, err := s.runner.Resolve(identity)
	if err != nil {
		return nil, err
	}

	outcome := s.runner.Run(ctx, in.StagedPath, modelPath)

	switch outcome.Kind {
	case ports.OutcomeSuccess:
		// parser already normalised the label and bounded the confidence

	case ports.OutcomeInvalidImage:
		return nil, &domain.WorkerRejection{Kind: domain.RejectInvalidImage, Reason: outcome.Reason}
	case ports.OutcomeUncertain:
		return nil, &domain.WorkerRejection{Kind: domain.RejectUncertain, Reason: outcome.Reason}
	case ports.OutcomeWorkerError:
		return nil, &domain.WorkerRejection{Kind: domain.RejectError, Reason: outcome.Reason}
	default:
		return nil, domain.ErrWorkerFailed
	}

	result := &ports.PredictResult{
		Label:       domain.Label(outcome.Label),
		Confidence:  outcome.Confidence,
		VerifiedFor: identity,
	}

	if in.UserID == "" {
		// Anonymous attempts are classified but never persisted.
		return result, nil
	}

	imagePath, err := s.store.Promote(in.StagedPath, in.OriginalName, in.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", in.UserID).Msg("artifact promotion failed; returning result without history")
		return result, nil
	}

	rec := &domain.VerificationRecord{
		UserID:      in.UserID,
		FileName:    in.OriginalName,
		ImagePath:   imagePath,
		VerifiedFor: identity,
		Label:       result.Label,
		Confidence:  result.Confidence,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.history.Insert(ctx, rec); err != nil {
		metrics.HistoryPersistFailuresTotal.Inc()
		s.logger.Error().Err(err).Str("user_id", in.UserID).Msg("failed to save verification record")
		// The artifact was promoted but the record was lost; report the
		// classification anyway, without an access path nothing references.
		s.cleanupAfterLostRecord(in.UserID, imagePath)
		return result, nil
	}

	result.ImagePath = imagePath
	return result, nil
}

func (s *VerifyService) cleanupAfterLostRecord(userID, imagePath string) {
	s.store.RemoveArtifact(imagePath)
	s.logger.Warn().Str("user_id", userID).Str("image_path", imagePath).Msg("removed artifact for unpersisted record")
}
