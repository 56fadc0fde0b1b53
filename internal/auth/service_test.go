package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusledger/campusledger/internal/shared"
)

type stubUserRepo struct {
	users map[string]*User
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	if u, ok := r.users[email]; ok {
		return u, nil
	}
	return nil, shared.ErrUserNotFound
}

func newTestUser(t *testing.T, password string, active bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &User{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		Email:        "finance@campus.test",
		Name:         "Finance Manager",
		PasswordHash: string(hash),
		Role:         shared.RoleFinanceManager,
		IsActive:     active,
	}
}

func TestAuthenticate(t *testing.T) {
	user := newTestUser(t, "correct-horse", true)
	svc := NewService(&stubUserRepo{users: map[string]*User{user.Email: user}}, "secret", time.Hour)

	t.Run("valid credentials", func(t *testing.T) {
		got, err := svc.Authenticate(context.Background(), user.Email, "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), user.Email, "wrong")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "nobody@campus.test", "correct-horse")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		inactive := newTestUser(t, "correct-horse", false)
		inactive.Email = "gone@campus.test"
		svc := NewService(&stubUserRepo{users: map[string]*User{inactive.Email: inactive}}, "secret", time.Hour)
		_, err := svc.Authenticate(context.Background(), inactive.Email, "correct-horse")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	user := newTestUser(t, "correct-horse", true)
	svc := NewService(&stubUserRepo{}, "secret", time.Hour)

	token, expires, err := svc.IssueToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	identity, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, user.TenantID, identity.TenantID)
	assert.Equal(t, shared.RoleFinanceManager, identity.Role)
	assert.Equal(t, user.Email, identity.Email)
}

func TestVerifyToken(t *testing.T) {
	user := newTestUser(t, "correct-horse", true)
	svc := NewService(&stubUserRepo{}, "secret", time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.VerifyToken("not-a-token")
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(&stubUserRepo{}, "other-secret", time.Hour)
		token, _, err := other.IssueToken(user)
		require.NoError(t, err)
		_, err = svc.VerifyToken(token)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		issued := time.Now().Add(-2 * time.Hour)
		svc.WithNow(func() time.Time { return issued })
		token, _, err := svc.IssueToken(user)
		require.NoError(t, err)
		svc.WithNow(time.Now)
		_, err = svc.VerifyToken(token)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}
