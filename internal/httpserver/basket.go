package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/basket_shop/internal/middleware"
	"github.com/Skotchmaster/basket_shop/internal/service"
	"github.com/Skotchmaster/basket_shop/internal/transport"
	"github.com/Skotchmaster/basket_shop/pkg/logging"
)

type BasketHTTP struct {
	Svc *service.BasketService
	// LegacyConflictStatus answers membership conflicts with 201 and an
	// error body instead of 409.
	LegacyConflictStatus bool
}

func (h *BasketHTTP) conflict(c echo.Context, err error) error {
	msg := publicMessage(err)
	if h.LegacyConflictStatus {
		return c.JSON(http.StatusCreated, echo.Map{"error": msg})
	}
	return echo.NewHTTPError(http.StatusConflict, msg)
}

func (h *BasketHTTP) CreateBasket(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "basket.create")

	r, ok := middleware.RequesterFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}

	b, err := h.Svc.Create(ctx, r)
	if err != nil {
		return fail(l, "create_basket_error", err)
	}

	l.Info("basket_created", "basket_id", b.ID)
	return c.JSON(http.StatusOK, transport.BasketResponse{Message: "Basket created successfully", Basket: b})
}

func (h *BasketHTTP) ListItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "basket.list_items")

	r, ok := middleware.RequesterFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	var req transport.BasketTokenRequest
	if err := bindAndValidate(c, l, "list_items_error", &req); err != nil {
		return err
	}

	b, err := h.Svc.ListItems(ctx, req.BasketToken, r)
	if err != nil {
		return fail(l, "list_items_error", err)
	}
	return c.JSON(http.StatusOK, transport.BasketResponse{Message: "Basket items", Basket: b})
}

func (h *BasketHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "basket.add_item")

	r, ok := middleware.RequesterFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	var req transport.BasketItemRequest
	if err := bindAndValidate(c, l, "add_item_error", &req); err != nil {
		return err
	}

	if err := h.Svc.AddItem(ctx, req.BasketToken, req.ProductID, r); err != nil {
		if errors.Is(err, service.ErrConflict) {
			l.Warn("add_item_error", "status", 409, "reason", "already in basket", "product_id", req.ProductID)
			return h.conflict(c, err)
		}
		return fail(l, "add_item_error", err)
	}

	l.Info("item_added", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product added to basket"})
}

func (h *BasketHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "basket.remove_item")

	r, ok := middleware.RequesterFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	var req transport.BasketItemRequest
	if err := bindAndValidate(c, l, "remove_item_error", &req); err != nil {
		return err
	}

	if err := h.Svc.RemoveItem(ctx, req.BasketToken, req.ProductID, r); err != nil {
		if errors.Is(err, service.ErrConflict) {
			l.Warn("remove_item_error", "status", 409, "reason", "not in basket", "product_id", req.ProductID)
			return h.conflict(c, err)
		}
		return fail(l, "remove_item_error", err)
	}

	l.Info("item_removed", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product removed from basket"})
}
