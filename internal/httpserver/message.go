package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/usedcar_market/internal/logging"
	authmw "github.com/Skotchmaster/usedcar_market/internal/middleware/auth"
	"github.com/Skotchmaster/usedcar_market/internal/transport"
)

// PostMessage appends a message to a listing. Works for inactive
// listings too, and the seller may reply on their own car.
func (h *CarHandler) PostMessage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "car.message")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	ident := authmw.CurrentUser(c)

	var req transport.MessageRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("post_message_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if errs := req.Validate(); errs != nil {
		l.Warn("post_message_failed", "status", 400, "reason", "field validation")
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	msg, err := h.Svc.PostMessage(ctx, id, ident.UserID, &req)
	if err != nil {
		return serviceError(err)
	}

	h.publish(c, fmt.Sprint(ident.UserID), map[string]any{
		"type":    "message_posted",
		"car_id":  id,
		"user_id": ident.UserID,
	})

	l.Info("post_message_success", "car_id", id, "message_id", msg.ID)
	return c.JSON(http.StatusCreated, msg)
}
