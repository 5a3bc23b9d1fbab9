package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/usedcar_market/internal/models"
	"github.com/Skotchmaster/usedcar_market/internal/tokens"
)

var ErrTokenExpiredOrRevoked = errors.New("token expired or revoked")

// SaveRefreshToken stores the sha256 of a freshly issued refresh JWT.
func (r *GormRepo) SaveRefreshToken(ctx context.Context, rawToken string, userID uint, exp time.Time) error {
	row := models.RefreshToken{
		Token:     tokens.Sha256Hex(rawToken),
		UserID:    userID,
		ExpiresAt: exp.Unix(),
	}
	return r.DB.WithContext(ctx).Create(&row).Error
}

// RevokeRefreshToken marks the token unusable. Revoking an unknown
// token is a no-op, which keeps logout idempotent.
func (r *GormRepo) RevokeRefreshToken(ctx context.Context, rawToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", tokens.Sha256Hex(rawToken)).
		Update("revoked", true).Error
}

// RotateRefreshToken revokes the old token and stores the new one in
// a single transaction, so a stolen old token cannot race the
// rotation into two live sessions.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldRaw, newRaw string, userID uint, newExp time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := tx.Where("token = ?", tokens.Sha256Hex(oldRaw)).First(&stored).Error; err != nil {
			return err
		}
		if stored.Revoked || stored.ExpiresAt < time.Now().Unix() {
			return ErrTokenExpiredOrRevoked
		}
		if err := tx.Model(&models.RefreshToken{}).
			Where("id = ?", stored.ID).
			Update("revoked", true).Error; err != nil {
			return err
		}
		row := models.RefreshToken{
			Token:     tokens.Sha256Hex(newRaw),
			UserID:    userID,
			ExpiresAt: newExp.Unix(),
		}
		return tx.Create(&row).Error
	})
}
