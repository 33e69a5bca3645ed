package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/veriscribe/signature-api/internal/core/domain"
	"github.com/veriscribe/signature-api/internal/core/ports"
)

// UserService implements profile operations for the owning user.
type UserService struct {
	users   ports.UserRepository
	history ports.VerificationRepository
	store   ports.ArtifactStore
	cleaner ports.ArtifactCleaner
	logger  zerolog.Logger
}

func NewUserService(
	users ports.UserRepository,
	history ports.VerificationRepository,
	store ports.ArtifactStore,
	cleaner ports.ArtifactCleaner,
	logger zerolog.Logger,
) *UserService {
	return &UserService{users: users, history: history, store: store, cleaner: cleaner, logger: logger}
}

func (s *UserService) Profile(ctx context.Context, userID string) (*domain.User, int64, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	summary, err := s.history.Summary(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return user, summary.Total, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ports.ProfileUpdate) (*domain.User, error) {
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		upd.Email = &email

		inUse, err := s.users.EmailInUse(ctx, email, userID)
		if err != nil {
			return nil, err
		}
		if inUse {
			return nil, domain.ErrEmailTaken
		}
	}

	// A replacement avatar obsoletes the old artifact, but the old file must
	// survive until the document actually references the new one.
	var obsoleteImage string
	if upd.ProfileImage != nil {
		current, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		obsoleteImage = current.ProfileImage
	}

	user, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		return nil, err
	}

	if obsoleteImage != "" {
		s.cleaner.Enqueue(userID, obsoleteImage)
	}
	return user, nil
}

// ChangePassword re-hashes the credential and bumps the session epoch in the
// same store write, so every outstanding session dies with the old password.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePasswordAndEpoch(ctx, userID, string(hash)); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", userID).Msg("password changed, sessions invalidated")
	return nil
}

// DeleteAccount removes the user together with all owned verification
// records and their artifacts.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.ProfileImage != "" {
		s.cleaner.Enqueue(userID, user.ProfileImage)
	}

	records, err := s.history.FindAllOwned(ctx, userID)
	if err != nil {
		return err
	}
	for _, rec := range records {
		s.cleaner.Enqueue(userID, rec.ImagePath)
	}

	if _, err := s.history.DeleteAllOwned(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", userID).Int("records", len(records)).Msg("account deleted")
	return nil
}
