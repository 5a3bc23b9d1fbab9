package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/usedcar_market/internal/models"
	"github.com/Skotchmaster/usedcar_market/internal/repo"
	"github.com/Skotchmaster/usedcar_market/internal/transport"
)

func intPtr(v int) *int { return &v }

func TestSearchCarsFreeText(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	older := seedCar(t, r, seller.ID, "Honda Civic 2016", "Honda", "Civic", "Kazan", 950_000, base)
	newer := seedCar(t, r, seller.ID, "Clean sedan", "Honda", "civic", "Moscow", 700_000, base.Add(time.Hour))
	seedCar(t, r, seller.ID, "Toyota Corolla", "Toyota", "Corolla", "Kazan", 800_000, base.Add(2*time.Hour))

	hidden := seedCar(t, r, seller.ID, "Civic parts car", "Honda", "Civic", "Kazan", 100_000, base.Add(3*time.Hour))
	require.NoError(t, r.DeactivateCar(ctx, hidden.ID))

	cars, err := svc.SearchCars(ctx, repo.CarFilter{Query: "CIVIC"})
	require.NoError(t, err)
	require.Len(t, cars, 2)
	require.Equal(t, newer.ID, cars[0].ID)
	require.Equal(t, older.ID, cars[1].ID)
}

func TestSearchCarsPriceBounds(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cheap := seedCar(t, r, seller.ID, "Cheap one", "Lada", "Granta", "Tula", 300_000, base)
	mid := seedCar(t, r, seller.ID, "Mid one", "Kia", "Rio", "Tula", 900_000, base.Add(time.Minute))
	seedCar(t, r, seller.ID, "Pricey one", "BMW", "X5", "Tula", 4_500_000, base.Add(2*time.Minute))

	cars, err := svc.SearchCars(ctx, repo.CarFilter{MinPrice: intPtr(300_000), MaxPrice: intPtr(900_000)})
	require.NoError(t, err)
	require.Len(t, cars, 2) // both bounds are inclusive
	require.Equal(t, mid.ID, cars[0].ID)
	require.Equal(t, cheap.ID, cars[1].ID)

	cars, err = svc.SearchCars(ctx, repo.CarFilter{MinPrice: intPtr(1_000_000)})
	require.NoError(t, err)
	require.Len(t, cars, 1)
}

func TestSearchCarsExactBrandAndCity(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seedCar(t, r, seller.ID, "A", "Honda", "Civic", "Kazan", 500_000, base)
	seedCar(t, r, seller.ID, "B", "honda", "Civic", "Kazan", 500_000, base.Add(time.Minute))
	seedCar(t, r, seller.ID, "C", "Honda", "Accord", "Moscow", 500_000, base.Add(2*time.Minute))

	cars, err := svc.SearchCars(ctx, repo.CarFilter{Brand: "Honda"})
	require.NoError(t, err)
	require.Len(t, cars, 2)

	cars, err = svc.SearchCars(ctx, repo.CarFilter{Brand: "Honda", City: "Kazan"})
	require.NoError(t, err)
	require.Len(t, cars, 1)
	require.Equal(t, "A", cars[0].Title)
}

func TestGetCarHidesInactive(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)
	admin := seedUser(t, r, "admin@example.com", "admin", true)

	car := seedCar(t, r, seller.ID, "Honda Civic", "Honda", "Civic", "Kazan", 500_000, time.Now())
	require.NoError(t, r.DeactivateCar(ctx, car.ID))

	_, err := svc.GetCar(ctx, car.ID, nil)
	require.ErrorIs(t, err, ErrNotFound)

	// the seller gets no special treatment on the public view
	_, err = svc.GetCar(ctx, car.ID, &Identity{UserID: seller.ID})
	require.ErrorIs(t, err, ErrNotFound)

	got, err := svc.GetCar(ctx, car.ID, &Identity{UserID: admin.ID, IsAdmin: true})
	require.NoError(t, err)
	require.Equal(t, car.ID, got.ID)
}

func TestGetCarUnknownID(t *testing.T) {
	svc := &MarketService{Repo: newTestRepo(t)}

	_, err := svc.GetCar(context.Background(), 4242, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateCarValidation(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	seller := seedUser(t, r, "seller@example.com", "seller", false)

	form := validForm()
	form.Year = 1920
	_, err := svc.CreateCar(context.Background(), form, seller.ID, "")
	require.ErrorIs(t, err, ErrValidation)

	var count int64
	require.NoError(t, r.DB.Model(&models.Car{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateCar(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	seller := seedUser(t, r, "seller@example.com", "seller", false)

	car, err := svc.CreateCar(context.Background(), validForm(), seller.ID, "abc123.png")
	require.NoError(t, err)
	require.NotZero(t, car.ID)
	require.True(t, car.IsActive)
	require.Equal(t, seller.ID, car.SellerID)
	require.Equal(t, "abc123.png", car.ImageFilename)
}

func TestEditCarForbiddenForNonOwner(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)
	other := seedUser(t, r, "other@example.com", "other", false)

	car := seedCar(t, r, seller.ID, "Original title", "Honda", "Civic", "Kazan", 500_000, time.Now())

	form := validForm()
	form.Title = "Hijacked title"
	_, err := svc.EditCar(ctx, car.ID, form, Identity{UserID: other.ID}, "")
	require.ErrorIs(t, err, ErrForbidden)

	reloaded, err := r.CarByID(ctx, car.ID)
	require.NoError(t, err)
	require.Equal(t, "Original title", reloaded.Title)
}

func TestEditCarByOwnerAndAdmin(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)
	admin := seedUser(t, r, "admin@example.com", "admin", true)

	car := seedCar(t, r, seller.ID, "Original title", "Honda", "Civic", "Kazan", 500_000, time.Now())

	form := validForm()
	form.Title = "Updated by owner"
	form.Price = 880_000
	got, err := svc.EditCar(ctx, car.ID, form, Identity{UserID: seller.ID}, "")
	require.NoError(t, err)
	require.Equal(t, "Updated by owner", got.Title)
	require.Equal(t, 880_000, got.Price)

	form.Title = "Updated by admin"
	got, err = svc.EditCar(ctx, car.ID, form, Identity{UserID: admin.ID, IsAdmin: true}, "")
	require.NoError(t, err)
	require.Equal(t, "Updated by admin", got.Title)
}

func TestEditCarImageHandling(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)

	car, err := svc.CreateCar(ctx, validForm(), seller.ID, "original.png")
	require.NoError(t, err)

	// no new upload keeps the old image
	got, err := svc.EditCar(ctx, car.ID, validForm(), Identity{UserID: seller.ID}, "")
	require.NoError(t, err)
	require.Equal(t, "original.png", got.ImageFilename)

	got, err = svc.EditCar(ctx, car.ID, validForm(), Identity{UserID: seller.ID}, "replacement.jpg")
	require.NoError(t, err)
	require.Equal(t, "replacement.jpg", got.ImageFilename)
}

func TestWithdrawCar(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)
	other := seedUser(t, r, "other@example.com", "other", false)

	car := seedCar(t, r, seller.ID, "Honda Civic", "Honda", "Civic", "Kazan", 500_000, time.Now())

	err := svc.WithdrawCar(ctx, car.ID, Identity{UserID: other.ID})
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.WithdrawCar(ctx, car.ID, Identity{UserID: seller.ID}))

	_, err = svc.GetCar(ctx, car.ID, nil)
	require.ErrorIs(t, err, ErrNotFound)

	cars, err := svc.SearchCars(ctx, repo.CarFilter{})
	require.NoError(t, err)
	require.Empty(t, cars)
}

func TestDeactivateCarAdminOnly(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)
	admin := seedUser(t, r, "admin@example.com", "admin", true)

	car := seedCar(t, r, seller.ID, "Honda Civic", "Honda", "Civic", "Kazan", 500_000, time.Now())

	err := svc.DeactivateCar(ctx, car.ID, Identity{UserID: seller.ID})
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.DeactivateCar(ctx, car.ID, Identity{UserID: admin.ID, IsAdmin: true}))

	err = svc.DeactivateCar(ctx, 4242, Identity{UserID: admin.ID, IsAdmin: true})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCarCascades(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)
	buyer := seedUser(t, r, "buyer@example.com", "buyer", false)

	car := seedCar(t, r, seller.ID, "Honda Civic", "Honda", "Civic", "Kazan", 500_000, time.Now())
	keep := seedCar(t, r, seller.ID, "Toyota Corolla", "Toyota", "Corolla", "Kazan", 600_000, time.Now())

	_, err := svc.PostMessage(ctx, car.ID, buyer.ID, &transport.MessageRequest{Content: "Still available?"})
	require.NoError(t, err)
	_, err = svc.ToggleFavorite(ctx, buyer.ID, car.ID)
	require.NoError(t, err)
	_, err = svc.ToggleFavorite(ctx, buyer.ID, keep.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCar(ctx, car.ID))

	var msgs, favs int64
	require.NoError(t, r.DB.Model(&models.Message{}).Where("car_id = ?", car.ID).Count(&msgs).Error)
	require.NoError(t, r.DB.Model(&models.Favorite{}).Where("car_id = ?", car.ID).Count(&favs).Error)
	require.Zero(t, msgs)
	require.Zero(t, favs)

	_, err = r.CarByID(ctx, car.ID)
	require.Error(t, err)

	// the unrelated favorite survives
	fav, err := svc.IsFavorite(ctx, buyer.ID, keep.ID)
	require.NoError(t, err)
	require.True(t, fav)

	require.ErrorIs(t, svc.DeleteCar(ctx, car.ID), ErrNotFound)
}

func TestToggleFavorite(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)
	buyer := seedUser(t, r, "buyer@example.com", "buyer", false)

	car := seedCar(t, r, seller.ID, "Honda Civic", "Honda", "Civic", "Kazan", 500_000, time.Now())

	fav, err := svc.ToggleFavorite(ctx, buyer.ID, car.ID)
	require.NoError(t, err)
	require.True(t, fav)

	fav, err = svc.ToggleFavorite(ctx, buyer.ID, car.ID)
	require.NoError(t, err)
	require.False(t, fav)

	fav, err = svc.ToggleFavorite(ctx, buyer.ID, car.ID)
	require.NoError(t, err)
	require.True(t, fav)

	var count int64
	require.NoError(t, r.DB.Model(&models.Favorite{}).
		Where("user_id = ? AND car_id = ?", buyer.ID, car.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestToggleFavoriteUnknownCar(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	buyer := seedUser(t, r, "buyer@example.com", "buyer", false)

	_, err := svc.ToggleFavorite(context.Background(), buyer.ID, 4242)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostMessageLengthBounds(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)
	buyer := seedUser(t, r, "buyer@example.com", "buyer", false)

	car := seedCar(t, r, seller.ID, "Honda Civic", "Honda", "Civic", "Kazan", 500_000, time.Now())

	_, err := svc.PostMessage(ctx, car.ID, buyer.ID, &transport.MessageRequest{Content: "x"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.PostMessage(ctx, car.ID, buyer.ID, &transport.MessageRequest{Content: strings.Repeat("a", 501)})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.PostMessage(ctx, car.ID, buyer.ID, &transport.MessageRequest{Content: "hi"})
	require.NoError(t, err)

	msg, err := svc.PostMessage(ctx, car.ID, buyer.ID, &transport.MessageRequest{Content: strings.Repeat("a", 500)})
	require.NoError(t, err)
	require.NotZero(t, msg.ID)
}

func TestPostMessageOnInactiveCar(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)
	buyer := seedUser(t, r, "buyer@example.com", "buyer", false)

	car := seedCar(t, r, seller.ID, "Honda Civic", "Honda", "Civic", "Kazan", 500_000, time.Now())
	require.NoError(t, r.DeactivateCar(ctx, car.ID))

	// conversations continue after a listing is withdrawn, and the
	// seller may reply on their own car
	_, err := svc.PostMessage(ctx, car.ID, buyer.ID, &transport.MessageRequest{Content: "Why withdrawn?"})
	require.NoError(t, err)
	_, err = svc.PostMessage(ctx, car.ID, seller.ID, &transport.MessageRequest{Content: "Sold already."})
	require.NoError(t, err)

	msgs, err := svc.ListMessages(ctx, car.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
}

func TestPostMessageUnknownCar(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	buyer := seedUser(t, r, "buyer@example.com", "buyer", false)

	_, err := svc.PostMessage(context.Background(), 4242, buyer.ID, &transport.MessageRequest{Content: "hello"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProfile(t *testing.T) {
	r := newTestRepo(t)
	svc := &MarketService{Repo: r}
	ctx := context.Background()
	seller := seedUser(t, r, "seller@example.com", "seller", false)
	other := seedUser(t, r, "other@example.com", "other", false)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mine := seedCar(t, r, seller.ID, "My active car", "Honda", "Civic", "Kazan", 500_000, base)
	withdrawn := seedCar(t, r, seller.ID, "My withdrawn car", "Honda", "Accord", "Kazan", 700_000, base.Add(time.Minute))
	require.NoError(t, r.DeactivateCar(ctx, withdrawn.ID))
	theirs := seedCar(t, r, other.ID, "Their car", "Toyota", "Corolla", "Moscow", 600_000, base.Add(2*time.Minute))

	_, err := svc.ToggleFavorite(ctx, seller.ID, theirs.ID)
	require.NoError(t, err)

	own, favorites, err := svc.Profile(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, mine.ID, own[0].ID)
	require.Len(t, favorites, 1)
	require.Equal(t, theirs.ID, favorites[0].ID)
}
