package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/usedcar_market/internal/middleware/auth"
)

type Deps struct {
	AuthHandler   *AuthHandler
	CarHandler    *CarHandler
	SearchHandler *SearchHandler
	Auth          *authmw.AutoRefreshMiddleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"service": "usedcar_market"})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.GET("/logout", d.AuthHandler.Logout, d.Auth.OptionalAuth)

	cars := e.Group("/cars")
	cars.GET("", d.CarHandler.ListCars)
	if d.SearchHandler != nil {
		cars.GET("/search", d.SearchHandler.Handler)
	}
	cars.POST("/create", d.CarHandler.CreateCar, d.Auth.RequireAuth)
	cars.GET("/:id", d.CarHandler.GetCar, d.Auth.OptionalAuth)
	cars.POST("/:id", d.CarHandler.PostMessage, d.Auth.RequireAuth)
	cars.POST("/:id/favorite", d.CarHandler.ToggleFavorite, d.Auth.RequireAuth)
	cars.GET("/:id/edit", d.CarHandler.GetCarForEdit, d.Auth.RequireAuth)
	cars.POST("/:id/edit", d.CarHandler.EditCar, d.Auth.RequireAuth)
	cars.POST("/:id/withdraw", d.CarHandler.WithdrawCar, d.Auth.RequireAuth)

	e.GET("/profile", d.CarHandler.Profile, d.Auth.RequireAuth)

	e.POST("/admin/cars/:id/deactivate", d.CarHandler.DeactivateCar, d.Auth.RequireAdmin)
}
