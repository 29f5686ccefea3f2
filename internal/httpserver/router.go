package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/basket_shop/internal/middleware"
	"github.com/Skotchmaster/basket_shop/pkg/middleware/csrf"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Store   Pinger
	Auth    *AuthHTTP
	Catalog *CatalogHTTP
	Basket  *BasketHTTP
	AuthMW  *middleware.Auth
	// CSRF enables the double-submit check for cookie-authenticated calls.
	CSRF bool
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("")
	if d.CSRF {
		api.Use(csrf.Middleware(csrf.DefaultConfig()))
	}
	auth := d.AuthMW.RequireAuth

	api.POST("/register", d.Auth.Register)
	api.POST("/login", d.Auth.Login)
	api.POST("/logout", d.Auth.LogOut, auth)
	api.GET("/profile", d.Auth.Profile, auth)

	api.GET("/product/:id", d.Catalog.GetProduct)
	api.POST("/product/store", d.Catalog.CreateProduct, auth)
	api.POST("/product/:id/update", d.Catalog.UpdateProduct, auth)
	api.POST("/product/:id/delete", d.Catalog.DeleteProduct, auth)

	basket := api.Group("/basket", auth)
	basket.POST("/new", d.Basket.CreateBasket)
	basket.POST("/items", d.Basket.ListItems)
	basket.POST("/item/add", d.Basket.AddItem)
	basket.POST("/item/delete", d.Basket.RemoveItem)
}
