package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/usedcar_market/internal/models"
)

// ToggleFavorite flips the favorite state for (userID, carID) and
// reports the resulting state. Delete-then-insert runs in one
// transaction; a duplicate-key error from a concurrent toggle means
// the row already exists, which is the state we were asked for.
func (r *GormRepo) ToggleFavorite(ctx context.Context, userID, carID uint) (bool, error) {
	var favorited bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND car_id = ?", userID, carID).
			Delete(&models.Favorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			favorited = false
			return nil
		}

		if err := tx.Create(&models.Favorite{UserID: userID, CarID: carID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				favorited = true
				return nil
			}
			return err
		}
		favorited = true
		return nil
	})
	return favorited, err
}

func (r *GormRepo) IsFavorite(ctx context.Context, userID, carID uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND car_id = ?", userID, carID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FavoriteCars returns the cars the user favorited, most recently
// favorited first.
func (r *GormRepo) FavoriteCars(ctx context.Context, userID uint) ([]models.Car, error) {
	var cars []models.Car
	err := r.DB.WithContext(ctx).Model(&models.Car{}).
		Joins("JOIN favorites ON favorites.car_id = cars.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Find(&cars).Error
	if err != nil {
		return nil, err
	}
	return cars, nil
}
