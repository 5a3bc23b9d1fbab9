package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/usedcar_market/internal/logging"
	"github.com/Skotchmaster/usedcar_market/internal/models"
	"github.com/Skotchmaster/usedcar_market/internal/repo"
	"github.com/Skotchmaster/usedcar_market/internal/transport"
)

// Identity is the authenticated caller, resolved by the auth
// middleware and passed explicitly into every operation that needs
// authorization.
type Identity struct {
	UserID  uint
	IsAdmin bool
}

type MarketService struct {
	Repo *repo.GormRepo
}

func (s *MarketService) SearchCars(ctx context.Context, f repo.CarFilter) ([]models.Car, error) {
	return s.Repo.SearchCars(ctx, f)
}

// GetCar hides inactive listings from everyone but admins; a seller
// looking at their own withdrawn car gets ErrNotFound too.
func (s *MarketService) GetCar(ctx context.Context, id uint, viewer *Identity) (*models.Car, error) {
	car, err := s.Repo.CarByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("car %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if !car.IsActive && (viewer == nil || !viewer.IsAdmin) {
		return nil, fmt.Errorf("car %d: %w", id, ErrNotFound)
	}
	return car, nil
}

func (s *MarketService) CreateCar(ctx context.Context, form *transport.CarForm, sellerID uint, imageFilename string) (*models.Car, error) {
	l := logging.FromContext(ctx).With("svc", "market.create_car", "seller_id", sellerID)

	if errs := form.Validate(); errs != nil {
		return nil, fmt.Errorf("%d invalid fields: %w", len(errs), ErrValidation)
	}

	car := models.Car{
		Title:         form.Title,
		Brand:         form.Brand,
		Model:         form.Model,
		Year:          form.Year,
		MileageKM:     form.MileageKM,
		Price:         form.Price,
		City:          form.City,
		Description:   form.Description,
		ImageFilename: imageFilename,
		IsActive:      true,
		SellerID:      sellerID,
	}
	if err := s.Repo.CreateCar(ctx, &car); err != nil {
		l.Error("create_car_error", "status", 500, "error", err)
		return nil, err
	}
	return &car, nil
}

func (s *MarketService) canModify(car *models.Car, ident Identity) bool {
	return car.SellerID == ident.UserID || ident.IsAdmin
}

// GetCarForEdit fetches a listing for the edit form prefill. Unlike
// GetCar it ignores the active flag: sellers may edit withdrawn
// listings.
func (s *MarketService) GetCarForEdit(ctx context.Context, id uint, ident Identity) (*models.Car, error) {
	car, err := s.Repo.CarByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("car %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if !s.canModify(car, ident) {
		return nil, fmt.Errorf("only the seller or an admin may edit: %w", ErrForbidden)
	}
	return car, nil
}

// EditCar resupplies every scalar field; the image is replaced only
// when newImage is non-empty.
func (s *MarketService) EditCar(ctx context.Context, id uint, form *transport.CarForm, ident Identity, newImage string) (*models.Car, error) {
	car, err := s.Repo.CarByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("car %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if !s.canModify(car, ident) {
		return nil, fmt.Errorf("only the seller or an admin may edit: %w", ErrForbidden)
	}
	if errs := form.Validate(); errs != nil {
		return nil, fmt.Errorf("%d invalid fields: %w", len(errs), ErrValidation)
	}

	car.Title = form.Title
	car.Brand = form.Brand
	car.Model = form.Model
	car.Year = form.Year
	car.MileageKM = form.MileageKM
	car.Price = form.Price
	car.City = form.City
	car.Description = form.Description
	if newImage != "" {
		car.ImageFilename = newImage
	}

	if err := s.Repo.SaveCar(ctx, car); err != nil {
		return nil, err
	}
	return car, nil
}

func (s *MarketService) WithdrawCar(ctx context.Context, id uint, ident Identity) error {
	car, err := s.Repo.CarByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("car %d: %w", id, ErrNotFound)
		}
		return err
	}
	if !s.canModify(car, ident) {
		return fmt.Errorf("only the seller or an admin may withdraw: %w", ErrForbidden)
	}
	return s.Repo.DeactivateCar(ctx, id)
}

func (s *MarketService) DeactivateCar(ctx context.Context, id uint, ident Identity) error {
	if !ident.IsAdmin {
		return fmt.Errorf("admin access required: %w", ErrForbidden)
	}
	if err := s.Repo.DeactivateCar(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("car %d: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

// DeleteCar hard-deletes a listing together with its messages and
// favorites.
func (s *MarketService) DeleteCar(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteCar(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("car %d: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *MarketService) ToggleFavorite(ctx context.Context, userID, carID uint) (bool, error) {
	if _, err := s.Repo.CarByID(ctx, carID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("car %d: %w", carID, ErrNotFound)
		}
		return false, err
	}
	return s.Repo.ToggleFavorite(ctx, userID, carID)
}

func (s *MarketService) IsFavorite(ctx context.Context, userID, carID uint) (bool, error) {
	return s.Repo.IsFavorite(ctx, userID, carID)
}

// Profile returns the user's own active listings and everything they
// favorited.
func (s *MarketService) Profile(ctx context.Context, userID uint) (own, favorites []models.Car, err error) {
	own, err = s.Repo.CarsBySeller(ctx, userID, true)
	if err != nil {
		return nil, nil, err
	}
	favorites, err = s.Repo.FavoriteCars(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return own, favorites, nil
}

// PostMessage appends a note to a listing. The listing's active
// state does not matter and the seller may message their own car.
func (s *MarketService) PostMessage(ctx context.Context, carID, authorID uint, req *transport.MessageRequest) (*models.Message, error) {
	if errs := req.Validate(); errs != nil {
		return nil, fmt.Errorf("content must be 2-500 characters: %w", ErrValidation)
	}
	if _, err := s.Repo.CarByID(ctx, carID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("car %d: %w", carID, ErrNotFound)
		}
		return nil, err
	}

	msg := models.Message{
		CarID:   carID,
		UserID:  authorID,
		Content: req.Content,
	}
	if err := s.Repo.CreateMessage(ctx, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *MarketService) ListMessages(ctx context.Context, carID uint) ([]models.Message, error) {
	return s.Repo.MessagesForCar(ctx, carID)
}
