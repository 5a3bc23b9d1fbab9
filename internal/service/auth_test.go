package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/usedcar_market/internal/models"
	"github.com/Skotchmaster/usedcar_market/internal/tokens"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "alice", "secret123")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.NotEqual(t, "secret123", user.PasswordHash)

	res, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, user.ID, res.UserID)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.False(t, res.IsAdmin)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "alice", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice@example.com", "someone_else", "secret123")
	require.ErrorIs(t, err, ErrConflict)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "alice", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "other@example.com", "alice", "secret123")
	require.ErrorIs(t, err, ErrConflict)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "alice", "secret123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice@example.com", "not-the-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokenStoredHashed(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "alice", "secret123")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	var stored models.RefreshToken
	require.NoError(t, svc.Repo.DB.First(&stored).Error)
	require.NotEqual(t, res.RefreshToken, stored.Token)
	require.Equal(t, tokens.Sha256Hex(res.RefreshToken), stored.Token)
}

func TestRotateRevokesOldToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "alice", "secret123")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	rotated, err := svc.Rotate(ctx, res.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, res.RefreshToken, rotated.RefreshToken)

	// the old token is spent
	_, err = svc.Rotate(ctx, res.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// the new one still works
	_, err = svc.Rotate(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRotateGarbageToken(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Rotate(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "alice", "secret123")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.RefreshToken))
	require.NoError(t, svc.Logout(ctx, res.RefreshToken))
	require.NoError(t, svc.Logout(ctx, ""))

	_, err = svc.Rotate(ctx, res.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
