package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/usedcar_market/internal/logging"
	"github.com/Skotchmaster/usedcar_market/internal/mykafka"
	"github.com/Skotchmaster/usedcar_market/internal/service"
	"github.com/Skotchmaster/usedcar_market/internal/tokens"
	"github.com/Skotchmaster/usedcar_market/internal/transport"
)

type AuthHandler struct {
	Svc      *service.AuthService
	Producer *mykafka.Producer
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if errs := req.Validate(); errs != nil {
		l.Warn("register_failed", "status", 400, "reason", "field validation")
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	user, err := h.Svc.Register(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		return serviceError(err)
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return serviceError(err)
	}

	c.SetCookie(tokens.CreateCookie(tokens.AccessCookieName, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookieName, res.RefreshToken, "/", res.RefreshExp))

	h.publish(c, fmt.Sprint(res.UserID), map[string]any{
		"type":    "user_logged_in",
		"user_id": res.UserID,
	})

	l.Info("login_success", "user_id", res.UserID)
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"is_admin":      res.IsAdmin,
	})
}

// Logout revokes the refresh token and expires both cookies. Safe to
// call without a session.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	if refreshCookie, err := c.Cookie(tokens.RefreshCookieName); err == nil {
		if err := h.Svc.Logout(ctx, refreshCookie.Value); err != nil {
			return serviceError(err)
		}
	}

	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookieName, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookieName, "/"))
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
