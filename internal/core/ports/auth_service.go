package ports

import (
	"context"

	"github.com/veriscribe/signature-api/internal/core/domain"
)

// AuthService implements registration, login and session revocation.
// The returned token is the signed bearer credential; transport (cookie
// setting/clearing) is the handler's concern.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)

	// InvalidateAllSessions bumps the user's session epoch, rejecting every
	// previously issued token — including the caller's own.
	InvalidateAllSessions(ctx context.Context, userID string) error
}

// UserService implements profile operations for the owning user.
type UserService interface {
	Profile(ctx context.Context, userID string) (*domain.User, int64, error)
	UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*domain.User, error)

	// ChangePassword verifies the current credential, re-hashes the new one
	// and bumps the session epoch in the same store write.
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error

	// DeleteAccount removes the user together with all owned verification
	// records and their artifacts.
	DeleteAccount(ctx context.Context, userID string) error
}
