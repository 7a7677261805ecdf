package auth

import (
	"context"
	"testing"
	"time"

	"music-store/internal/apperrors"
	"music-store/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	byEmail map[string]*models.User
	nextID  int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*models.User), nextID: 1}
}

func (f *fakeUserStore) CreateUser(_ context.Context, email, passwordHash, role string) (*models.User, error) {
	if _, exists := f.byEmail[email]; exists {
		return nil, apperrors.ErrEmailTaken
	}
	user := &models.User{
		ID:           f.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	f.nextID++
	f.byEmail[email] = user
	return user, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, nil
}

func newTestService(t *testing.T) (*Service, *fakeUserStore) {
	t.Helper()
	tokens, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	store := newFakeUserStore()
	return NewService(store, tokens), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, "  Chopin@Example.COM ", "nocturne-op9")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "chopin@example.com", resp.User.Email)
	assert.Equal(t, models.RoleCustomer, resp.User.Role)

	// the stored hash is never the raw password
	stored := store.byEmail["chopin@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "nocturne-op9", stored.PasswordHash)

	login, err := svc.Login(ctx, "chopin@example.com", "nocturne-op9")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterShortPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), "short@example.com", "abc")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dupe@example.com", "password-one")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "DUPE@example.com", "password-two")
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
}

func TestLoginRejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "liszt@example.com", "la-campanella")
	require.NoError(t, err)

	// unknown account and wrong password are indistinguishable
	_, err = svc.Login(ctx, "nobody@example.com", "whatever-pass")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "liszt@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestProfileNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Profile(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
