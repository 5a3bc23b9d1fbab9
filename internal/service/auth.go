package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/usedcar_market/internal/hash"
	"github.com/Skotchmaster/usedcar_market/internal/logging"
	"github.com/Skotchmaster/usedcar_market/internal/models"
	"github.com/Skotchmaster/usedcar_market/internal/repo"
	"github.com/Skotchmaster/usedcar_market/internal/tokens"
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
}

type LoginResult struct {
	UserID       uint
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
}

func roleOf(u *models.User) string {
	if u.IsAdmin {
		return "admin"
	}
	return "user"
}

func (s *AuthService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if email == "" || username == "" || password == "" {
		return nil, fmt.Errorf("email, username and password are required: %w", ErrValidation)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: pwHash,
	}

	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) || errors.Is(err, repo.ErrUsernameTaken) {
			l.Warn("register_error", "status", 409, "reason", err.Error())
			return nil, fmt.Errorf("%v: %w", err, ErrConflict)
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	return &user, nil
}

// Login verifies the credentials and issues the access/refresh pair.
// The refresh token is persisted (hashed) so it can be revoked.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, fmt.Errorf("wrong email or password: %w", ErrInvalidCredentials)
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "password mismatch", "user_id", user.ID)
		return nil, fmt.Errorf("wrong email or password: %w", ErrInvalidCredentials)
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*LoginResult, error) {
	accessExp := time.Now().Add(tokens.AccessTTL)
	accessToken, err := tokens.SignAccessToken(user.ID, roleOf(user), s.JWTSecret, accessExp)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(tokens.RefreshTTL)
	refreshToken, err := tokens.SignRefreshToken(user.ID, s.RefreshSecret, refreshExp)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.SaveRefreshToken(ctx, refreshToken, user.ID, refreshExp); err != nil {
		return nil, err
	}

	return &LoginResult{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      user.IsAdmin,
	}, nil
}

// Logout revokes the refresh token. Unknown or already revoked
// tokens revoke to the same state, so calling it twice is fine.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	if rawRefresh == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, rawRefresh)
}

// Rotate exchanges a live refresh token for a fresh token pair,
// revoking the old one in the same transaction.
func (s *AuthService) Rotate(ctx context.Context, rawRefresh string) (*LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(rawRefresh, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", ErrInvalidCredentials)
	}

	userID64 := uint64(0)
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID64); err != nil {
		return nil, fmt.Errorf("invalid refresh subject: %w", ErrInvalidCredentials)
	}

	user, err := s.Repo.UserByID(ctx, uint(userID64))
	if err != nil {
		return nil, fmt.Errorf("unknown user: %w", ErrInvalidCredentials)
	}

	accessExp := time.Now().Add(tokens.AccessTTL)
	accessToken, err := tokens.SignAccessToken(user.ID, roleOf(user), s.JWTSecret, accessExp)
	if err != nil {
		return nil, err
	}
	refreshExp := time.Now().Add(tokens.RefreshTTL)
	refreshToken, err := tokens.SignRefreshToken(user.ID, s.RefreshSecret, refreshExp)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.RotateRefreshToken(ctx, rawRefresh, refreshToken, user.ID, refreshExp); err != nil {
		if errors.Is(err, repo.ErrTokenExpiredOrRevoked) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("refresh token no longer valid: %w", ErrInvalidCredentials)
		}
		return nil, err
	}

	return &LoginResult{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      user.IsAdmin,
	}, nil
}
