package auth

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/usedcar_market/internal/service"
	"github.com/Skotchmaster/usedcar_market/internal/tokens"
)

// AutoRefreshMiddleware authenticates requests from the access token
// cookie and transparently rotates an expired access token against
// the stored refresh token.
type AutoRefreshMiddleware struct {
	JWTSecret []byte
	Auth      *service.AuthService
}

func New(secret []byte, auth *service.AuthService) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{JWTSecret: secret, Auth: auth}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

// OptionalAuth resolves the identity when a valid session is present
// and lets the request through anonymously otherwise.
func (m *AutoRefreshMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accessCookie, err := c.Cookie(tokens.AccessCookieName)
		if err != nil || accessCookie.Value == "" {
			return next(c)
		}
		claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
		if err == nil && claims != nil {
			setUserContext(c, claims)
		}
		return next(c)
	}
}

func (m *AutoRefreshMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accessCookie, err := c.Cookie(tokens.AccessCookieName)
		if err != nil || accessCookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
		if err == nil && claims != nil {
			if validator != nil {
				if validationErr := validator(claims); validationErr != nil {
					return validationErr
				}
			}
			setUserContext(c, claims)
			return next(c)
		}

		if !errors.Is(err, jwt.ErrTokenExpired) {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		refreshCookie, rErr := c.Cookie(tokens.RefreshCookieName)
		if rErr != nil || refreshCookie.Value == "" {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}

		res, refErr := m.Auth.Rotate(c.Request().Context(), refreshCookie.Value)
		if refErr != nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
		}

		c.SetCookie(tokens.CreateCookie(tokens.AccessCookieName, res.AccessToken, "/", res.AccessExp))
		c.SetCookie(tokens.CreateCookie(tokens.RefreshCookieName, res.RefreshToken, "/", res.RefreshExp))

		newClaims, pErr := tokens.AccessClaimsFromToken(res.AccessToken, m.JWTSecret)
		if pErr != nil || newClaims == nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
		}

		if validator != nil {
			if validationErr := validator(newClaims); validationErr != nil {
				clearAuthCookies(c)
				return validationErr
			}
		}

		setUserContext(c, newClaims)
		return next(c)
	}
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookieName, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookieName, "/"))
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	id, err := claims.UserID()
	if err != nil {
		return
	}
	c.Set("user_id", id)
	c.Set("is_admin", claims.Role == "admin")
}

// CurrentUser returns the identity placed in the context by the
// middleware, or nil for anonymous requests.
func CurrentUser(c echo.Context) *service.Identity {
	id, ok := c.Get("user_id").(uint)
	if !ok {
		return nil
	}
	isAdmin, _ := c.Get("is_admin").(bool)
	return &service.Identity{UserID: id, IsAdmin: isAdmin}
}
