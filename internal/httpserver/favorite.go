package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/usedcar_market/internal/logging"
	authmw "github.com/Skotchmaster/usedcar_market/internal/middleware/auth"
)

func (h *CarHandler) ToggleFavorite(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "car.favorite")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	ident := authmw.CurrentUser(c)

	favorited, err := h.Svc.ToggleFavorite(ctx, ident.UserID, id)
	if err != nil {
		return serviceError(err)
	}

	h.publish(c, fmt.Sprint(ident.UserID), map[string]any{
		"type":      "favorite_toggled",
		"car_id":    id,
		"user_id":   ident.UserID,
		"favorited": favorited,
	})

	l.Info("toggle_favorite_success", "car_id", id, "favorited", favorited)
	return c.JSON(http.StatusOK, echo.Map{"favorited": favorited})
}
