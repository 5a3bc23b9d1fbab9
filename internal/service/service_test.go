package service

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/usedcar_market/internal/config"
	"github.com/Skotchmaster/usedcar_market/internal/hash"
	"github.com/Skotchmaster/usedcar_market/internal/models"
	"github.com/Skotchmaster/usedcar_market/internal/repo"
	"github.com/Skotchmaster/usedcar_market/internal/transport"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	return &repo.GormRepo{DB: db}
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return &AuthService{
		Repo:          newTestRepo(t),
		JWTSecret:     []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func seedUser(t *testing.T, r *repo.GormRepo, email, username string, admin bool) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword("password1")
	require.NoError(t, err)

	u := models.User{Email: email, Username: username, PasswordHash: pwHash, IsAdmin: admin}
	require.NoError(t, r.DB.Create(&u).Error)
	return &u
}

func seedCar(t *testing.T, r *repo.GormRepo, sellerID uint, title, brand, model, city string, price int, createdAt time.Time) *models.Car {
	t.Helper()

	car := models.Car{
		Title:     title,
		Brand:     brand,
		Model:     model,
		Year:      2015,
		MileageKM: 120_000,
		Price:     price,
		City:      city,
		IsActive:  true,
		SellerID:  sellerID,
		CreatedAt: createdAt,
	}
	require.NoError(t, r.DB.Create(&car).Error)
	return &car
}

func validForm() *transport.CarForm {
	return &transport.CarForm{
		Title:       "Honda Civic 2016",
		Brand:       "Honda",
		Model:       "Civic",
		Year:        2016,
		MileageKM:   85_000,
		Price:       950_000,
		City:        "Kazan",
		Description: "One owner, full service history.",
	}
}
