package repo

import (
	"context"

	"github.com/Skotchmaster/usedcar_market/internal/models"
)

func (r *GormRepo) CreateMessage(ctx context.Context, msg *models.Message) error {
	return r.DB.WithContext(ctx).Create(msg).Error
}

func (r *GormRepo) MessagesForCar(ctx context.Context, carID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := r.DB.WithContext(ctx).
		Where("car_id = ?", carID).
		Order("created_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
