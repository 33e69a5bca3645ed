package ports

import (
	"context"

	"github.com/veriscribe/signature-api/internal/core/domain"
)

// ProfileUpdate carries the mutable profile fields. Nil pointers mean
// "leave unchanged".
type ProfileUpdate struct {
	Email        *string
	Age          *int
	College      *string
	Bio          *string
	ProfileImage *string
}

// UserRepository defines persistence for identity records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// EpochByID fetches only the session epoch for the given user, projecting
	// away every other field. Returns domain.ErrUserNotFound when absent.
	// A nil epoch means the document predates the epoch field.
	EpochByID(ctx context.Context, id string) (*int64, error)

	EmailInUse(ctx context.Context, email, excludeUserID string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	// IncrementEpoch atomically bumps the session epoch by exactly one at the
	// store level. Concurrent calls must never lose an update.
	IncrementEpoch(ctx context.Context, id string) error

	// SetEpoch writes an explicit epoch value; used to migrate legacy
	// documents that lack the field.
	SetEpoch(ctx context.Context, id string, epoch int64) error

	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*domain.User, error)

	// UpdatePasswordAndEpoch replaces the password hash and bumps the epoch in
	// a single store operation, so no token minted against the old credential
	// survives the change.
	UpdatePasswordAndEpoch(ctx context.Context, id, passwordHash string) error

	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
