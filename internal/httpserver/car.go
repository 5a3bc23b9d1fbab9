package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/usedcar_market/internal/logging"
	authmw "github.com/Skotchmaster/usedcar_market/internal/middleware/auth"
	"github.com/Skotchmaster/usedcar_market/internal/models"
	"github.com/Skotchmaster/usedcar_market/internal/mykafka"
	"github.com/Skotchmaster/usedcar_market/internal/repo"
	"github.com/Skotchmaster/usedcar_market/internal/service"
	"github.com/Skotchmaster/usedcar_market/internal/service/search"
	"github.com/Skotchmaster/usedcar_market/internal/transport"
	"github.com/Skotchmaster/usedcar_market/internal/upload"
)

type CarHandler struct {
	Svc      *service.MarketService
	Uploads  *upload.Saver
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *CarHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "car_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *CarHandler) indexCar(c echo.Context, car *models.Car) {
	if h.ES == nil {
		return
	}
	if err := search.IndexCar(c.Request().Context(), h.ES, h.Index, car); err != nil {
		logging.FromContext(c.Request().Context()).Error("es index error", "car_id", car.ID, "error", err)
	}
}

func (h *CarHandler) dropFromIndex(c echo.Context, carID uint) {
	if h.ES == nil {
		return
	}
	if err := search.DeleteCar(c.Request().Context(), h.ES, h.Index, carID); err != nil {
		logging.FromContext(c.Request().Context()).Error("es delete error", "car_id", carID, "error", err)
	}
}

func (h *CarHandler) ListCars(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "car.list")

	filter := repo.CarFilter{
		Query:    c.QueryParam("q"),
		Brand:    c.QueryParam("brand"),
		City:     c.QueryParam("city"),
		MinPrice: parseBound(c.QueryParam("min_price")),
		MaxPrice: parseBound(c.QueryParam("max_price")),
	}

	cars, err := h.Svc.SearchCars(ctx, filter)
	if err != nil {
		l.Error("list_cars_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list cars")
	}

	return c.JSON(http.StatusOK, echo.Map{"data": cars, "total": len(cars)})
}

func (h *CarHandler) GetCar(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	viewer := authmw.CurrentUser(c)
	car, err := h.Svc.GetCar(ctx, id, viewer)
	if err != nil {
		return serviceError(err)
	}

	msgs, err := h.Svc.ListMessages(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load messages")
	}

	isFav := false
	if viewer != nil {
		isFav, err = h.Svc.IsFavorite(ctx, viewer.UserID, id)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot load favorite state")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"car":         car,
		"messages":    msgs,
		"is_favorite": isFav,
	})
}

func (h *CarHandler) CreateCar(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "car.create")

	ident := authmw.CurrentUser(c)

	var form transport.CarForm
	if err := c.Bind(&form); err != nil {
		l.Warn("create_car_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if errs := form.Validate(); errs != nil {
		l.Warn("create_car_failed", "status", 400, "reason", "field validation")
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	filename, err := h.saveImage(c)
	if err != nil {
		l.Error("create_car_failed", "status", 500, "reason", "cannot save upload", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save upload")
	}

	car, err := h.Svc.CreateCar(ctx, &form, ident.UserID, filename)
	if err != nil {
		return serviceError(err)
	}

	h.indexCar(c, car)
	h.publish(c, fmt.Sprint(ident.UserID), map[string]any{
		"type":      "car_created",
		"car_id":    car.ID,
		"seller_id": ident.UserID,
	})

	l.Info("create_car_success", "car_id", car.ID)
	return c.JSON(http.StatusCreated, car)
}

func (h *CarHandler) GetCarForEdit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	car, err := h.Svc.GetCarForEdit(c.Request().Context(), id, *authmw.CurrentUser(c))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, car)
}

func (h *CarHandler) EditCar(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "car.edit")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	ident := authmw.CurrentUser(c)

	var form transport.CarForm
	if err := c.Bind(&form); err != nil {
		l.Warn("edit_car_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if errs := form.Validate(); errs != nil {
		l.Warn("edit_car_failed", "status", 400, "reason", "field validation")
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	filename, err := h.saveImage(c)
	if err != nil {
		l.Error("edit_car_failed", "status", 500, "reason", "cannot save upload", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save upload")
	}

	car, err := h.Svc.EditCar(ctx, id, &form, *ident, filename)
	if err != nil {
		return serviceError(err)
	}

	h.indexCar(c, car)
	h.publish(c, fmt.Sprint(ident.UserID), map[string]any{
		"type":   "car_updated",
		"car_id": car.ID,
	})

	l.Info("edit_car_success", "car_id", car.ID)
	return c.JSON(http.StatusOK, car)
}

func (h *CarHandler) WithdrawCar(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "car.withdraw")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	ident := authmw.CurrentUser(c)

	if err := h.Svc.WithdrawCar(ctx, id, *ident); err != nil {
		return serviceError(err)
	}

	h.dropFromIndex(c, id)
	h.publish(c, fmt.Sprint(ident.UserID), map[string]any{
		"type":   "car_withdrawn",
		"car_id": id,
	})

	l.Info("withdraw_car_success", "car_id", id)
	return c.JSON(http.StatusOK, echo.Map{"message": "car withdrawn"})
}

func (h *CarHandler) DeactivateCar(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "car.deactivate")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	ident := authmw.CurrentUser(c)

	if err := h.Svc.DeactivateCar(ctx, id, *ident); err != nil {
		return serviceError(err)
	}

	h.dropFromIndex(c, id)
	h.publish(c, fmt.Sprint(ident.UserID), map[string]any{
		"type":   "car_deactivated",
		"car_id": id,
		"by":     ident.UserID,
	})

	l.Info("deactivate_car_success", "car_id", id)
	return c.JSON(http.StatusOK, echo.Map{"message": "car deactivated"})
}

func (h *CarHandler) Profile(c echo.Context) error {
	ctx := c.Request().Context()

	ident := authmw.CurrentUser(c)
	own, favorites, err := h.Svc.Profile(ctx, ident.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load profile")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"my_cars":   own,
		"favorites": favorites,
	})
}

// saveImage stores an optional multipart "image" part. No file and
// disallowed extensions both come back as an empty filename.
func (h *CarHandler) saveImage(c echo.Context) (string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return "", nil
	}
	return h.Uploads.Save(fh)
}
