package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/usedcar_market/internal/models"
)

// CarFilter mirrors the /cars query params. Nil price bounds mean
// "not supplied or malformed" and leave the query unconstrained.
type CarFilter struct {
	Query    string
	Brand    string
	City     string
	MinPrice *int
	MaxPrice *int
}

// SearchCars returns active cars matching the filter, newest first.
// The free-text query is a case-insensitive substring match over
// title OR model OR brand; brand and city are exact.
func (r *GormRepo) SearchCars(ctx context.Context, f CarFilter) ([]models.Car, error) {
	q := r.DB.WithContext(ctx).Model(&models.Car{}).Where("is_active = ?", true)

	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where(
			"LOWER(title) LIKE LOWER(?) OR LOWER(model) LIKE LOWER(?) OR LOWER(brand) LIKE LOWER(?)",
			like, like, like,
		)
	}
	if f.Brand != "" {
		q = q.Where("brand = ?", f.Brand)
	}
	if f.City != "" {
		q = q.Where("city = ?", f.City)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}

	var cars []models.Car
	if err := q.Order("created_at DESC").Find(&cars).Error; err != nil {
		return nil, err
	}
	return cars, nil
}

func (r *GormRepo) CarByID(ctx context.Context, id uint) (*models.Car, error) {
	var car models.Car
	if err := r.DB.WithContext(ctx).First(&car, id).Error; err != nil {
		return nil, err
	}
	return &car, nil
}

func (r *GormRepo) CreateCar(ctx context.Context, car *models.Car) error {
	return r.DB.WithContext(ctx).Create(car).Error
}

// SaveCar writes all scalar columns back; edits resupply every field.
func (r *GormRepo) SaveCar(ctx context.Context, car *models.Car) error {
	return r.DB.WithContext(ctx).Save(car).Error
}

func (r *GormRepo) DeactivateCar(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Car{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCar removes the car and everything it owns. The store has no
// declarative cascades, so messages and favorites go in the same
// transaction.
func (r *GormRepo) DeleteCar(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("car_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("car_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Car{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) CarsBySeller(ctx context.Context, sellerID uint, activeOnly bool) ([]models.Car, error) {
	q := r.DB.WithContext(ctx).Where("seller_id = ?", sellerID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var cars []models.Car
	if err := q.Order("created_at DESC").Find(&cars).Error; err != nil {
		return nil, err
	}
	return cars, nil
}
