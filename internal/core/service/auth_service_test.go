package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/veriscribe/signature-api/internal/core/domain"
	"github.com/veriscribe/signature-api/internal/core/ports"
	"github.com/veriscribe/signature-api/internal/core/token"
)

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User // keyed by id
	nextID int

	createErr error
	updateErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.SessionEpoch != nil {
		epoch := *u.SessionEpoch
		clone.SessionEpoch = &epoch
	}
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	copy := cloneUser(user)
	r.nextID++
	copy.ID = fmt.Sprintf("user_%d", r.nextID)
	copy.CreatedAt = time.Now().UTC()
	r.users[copy.ID] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) EpochByID(_ context.Context, id string) (*int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if u.SessionEpoch == nil {
		return nil, nil
	}
	epoch := *u.SessionEpoch
	return &epoch, nil
}

func (r *stubUserRepo) EmailInUse(_ context.Context, email, excludeUserID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.Email == email && id != excludeUserID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) IncrementEpoch(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	next := domain.EpochValue(u.SessionEpoch) + 1
	u.SessionEpoch = &next
	return nil
}

func (r *stubUserRepo) SetEpoch(_ context.Context, id string, epoch int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.SessionEpoch = &epoch
	return nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, upd ports.ProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Age != nil {
		u.Age = *upd.Age
	}
	if upd.College != nil {
		u.College = *upd.College
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.ProfileImage != nil {
		u.ProfileImage = *upd.ProfileImage
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdatePasswordAndEpoch(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	next := domain.EpochValue(u.SessionEpoch) + 1
	u.SessionEpoch = &next
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func testCodec() *token.Codec {
	return token.NewCodec("test-secret", time.Hour)
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, testCodec(), testLogger())

	tok, user, err := svc.Register(context.Background(), "Alice", "Alice@Example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if tok == "" {
		t.Fatalf("expected a session token")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalised: %s", user.Email)
	}
	if user.PasswordHash == "hunter2secret" {
		t.Fatalf("expected password to be hashed")
	}

	stored, _ := repo.FindByID(context.Background(), user.ID)
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter2secret")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if got := domain.EpochValue(stored.SessionEpoch); got != 0 {
		t.Fatalf("new account should start at epoch 0, got %d", got)
	}
}

func TestAuthService_Register_UsernameTaken(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, testCodec(), testLogger())

	if _, _, err := svc.Register(context.Background(), "alice", "a@example.com", "hunter2secret"); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if _, _, err := svc.Register(context.Background(), "alice", "b@example.com", "hunter2secret"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	codec := testCodec()
	svc := NewAuthService(repo, codec, testLogger())

	_, user, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tok, _, err := svc.Login(context.Background(), "Alice@Example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	claims, err := codec.Decode(tok)
	if err != nil {
		t.Fatalf("issued token does not decode: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("token identifies wrong user: %s", claims.UserID)
	}
	if got := domain.EpochValue(claims.Epoch); got != 0 {
		t.Fatalf("token should carry epoch 0, got %d", got)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, testCodec(), testLogger())

	if _, _, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter2secret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, _, err := svc.Login(context.Background(), "alice@example.com", "wrong-password")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmailSameError(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, testCodec(), testLogger())

	// An unknown account and a wrong password must be indistinguishable.
	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever123")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err != nil && strings.Contains(err.Error(), "not found") {
		t.Fatalf("error leaks account existence: %v", err)
	}
}

func TestAuthService_Login_MigratesLegacyEpoch(t *testing.T) {
	repo := newStubUserRepo()
	codec := testCodec()
	svc := NewAuthService(repo, codec, testLogger())

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2secret"), bcrypt.MinCost)
	legacy, err := repo.Create(context.Background(), &domain.User{
		Username:     "legacy",
		Email:        "legacy@example.com",
		PasswordHash: string(hash),
		SessionEpoch: nil,
	})
	if err != nil {
		t.Fatalf("seeding legacy user failed: %v", err)
	}

	tok, _, err := svc.Login(context.Background(), "legacy@example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	epoch, err := repo.EpochByID(context.Background(), legacy.ID)
	if err != nil {
		t.Fatalf("EpochByID failed: %v", err)
	}
	if epoch == nil || *epoch != 0 {
		t.Fatalf("legacy account should be migrated to an explicit epoch 0, got %v", epoch)
	}

	claims, err := codec.Decode(tok)
	if err != nil {
		t.Fatalf("token decode failed: %v", err)
	}
	if got := domain.EpochValue(claims.Epoch); got != 0 {
		t.Fatalf("migrated login should carry epoch 0, got %d", got)
	}
}

func TestAuthService_InvalidateAllSessions(t *testing.T) {
	repo := newStubUserRepo()
	codec := testCodec()
	svc := NewAuthService(repo, codec, testLogger())

	tok, user, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := svc.InvalidateAllSessions(context.Background(), user.ID); err != nil {
		t.Fatalf("InvalidateAllSessions returned error: %v", err)
	}

	epoch, err := repo.EpochByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("EpochByID failed: %v", err)
	}
	if domain.EpochValue(epoch) != 1 {
		t.Fatalf("expected epoch 1 after invalidation, got %d", domain.EpochValue(epoch))
	}

	// The pre-invalidation token still decodes but carries the stale epoch.
	claims, err := codec.Decode(tok)
	if err != nil {
		t.Fatalf("token decode failed: %v", err)
	}
	if domain.EpochValue(claims.Epoch) == domain.EpochValue(epoch) {
		t.Fatalf("old token should carry a stale epoch")
	}
}

func TestAuthService_ConcurrentInvalidationsNeverLoseABump(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, testCodec(), testLogger())

	_, user, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	const goroutines = 16
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_ = svc.InvalidateAllSessions(context.Background(), user.ID)
		}()
	}
	wg.Wait()

	epoch, err := repo.EpochByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("EpochByID failed: %v", err)
	}
	if domain.EpochValue(epoch) != goroutines {
		t.Fatalf("expected epoch %d after %d concurrent invalidations, got %d",
			goroutines, goroutines, domain.EpochValue(epoch))
	}
}
