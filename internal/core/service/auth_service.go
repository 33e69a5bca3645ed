package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/veriscribe/signature-api/internal/core/domain"
	"github.com/veriscribe/signature-api/internal/core/ports"
	"github.com/veriscribe/signature-api/internal/core/token"
)

const bcryptCost = 12

// AuthService implements registration, login and session revocation.
type AuthService struct {
	users  ports.UserRepository
	codec  *token.Codec
	logger zerolog.Logger
}

func NewAuthService(users ports.UserRepository, codec *token.Codec, logger zerolog.Logger) *AuthService {
	return &AuthService{users: users, codec: codec, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (string, *domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	if taken, err := s.users.UsernameExists(ctx, username); err != nil {
		return "", nil, err
	} else if taken {
		return "", nil, domain.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", nil, err
	}

	epoch := int64(0)
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		SessionEpoch: &epoch,
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return "", nil, err
	}

	tok, err := s.issue(created)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("email", created.Email).Msg("new user registered")
	return tok, created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		// Absent user and wrong password are indistinguishable to the caller.
		return "", nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	// Legacy documents predate the epoch field; pin it to 0 on first login so
	// later increments have a concrete base.
	if user.SessionEpoch == nil {
		s.logger.Info().Str("email", user.Email).Msg("migrating legacy user: setting session epoch to 0")
		if err := s.users.SetEpoch(ctx, user.ID, 0); err != nil {
			return "", nil, err
		}
		epoch := int64(0)
		user.SessionEpoch = &epoch
	}

	tok, err := s.issue(user)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("email", user.Email).Int64("session_epoch", domain.EpochValue(user.SessionEpoch)).Msg("user logged in")
	return tok, user, nil
}

// InvalidateAllSessions bumps the stored epoch by exactly one, rejecting
// every outstanding token for the user — including the caller's own.
func (s *AuthService) InvalidateAllSessions(ctx context.Context, userID string) error {
	if err := s.users.IncrementEpoch(ctx, userID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("all sessions invalidated")
	return nil
}

// issue mints a token snapshotting the user's current epoch.
func (s *AuthService) issue(user *domain.User) (string, error) {
	return s.codec.Encode(user.ID, user.Username, user.Email, domain.EpochValue(user.SessionEpoch))
}
