package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/basket_shop/internal/middleware"
	"github.com/Skotchmaster/basket_shop/internal/service"
	"github.com/Skotchmaster/basket_shop/internal/transport"
	"github.com/Skotchmaster/basket_shop/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

// productID treats anything that is not a positive integer as an unknown product.
func productID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return uint(id), nil
}

func toProductInput(req transport.ProductRequest) service.ProductInput {
	return service.ProductInput{
		Name:     req.Name,
		Price:    req.Price.Decimal,
		Quantity: *req.Quantity,
	}
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := productID(c)
	if err != nil {
		l.Warn("get_product_error", "status", 404, "reason", "bad id", "id", c.Param("id"))
		return err
	}

	p, err := h.Svc.Find(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, transport.ProductResponse{Message: "Product found", Product: p})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	r, ok := middleware.RequesterFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	if !r.IsAdmin {
		l.Warn("create_product_error", "status", 403, "reason", "not admin")
		return echo.NewHTTPError(http.StatusForbidden, "Only admins can add products!")
	}

	var req transport.ProductRequest
	if err := bindAndValidate(c, l, "create_product_error", &req); err != nil {
		return err
	}

	p, err := h.Svc.Create(ctx, toProductInput(req), r)
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	l.Info("product_created", "product_id", p.ID)
	return c.JSON(http.StatusOK, transport.ProductResponse{Message: "Product created successfully", Product: p})
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	r, ok := middleware.RequesterFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	if !r.IsAdmin {
		l.Warn("update_product_error", "status", 403, "reason", "not admin")
		return echo.NewHTTPError(http.StatusForbidden, "Only admins can update products!")
	}

	id, err := productID(c)
	if err != nil {
		return err
	}
	var req transport.ProductRequest
	if err := bindAndValidate(c, l, "update_product_error", &req); err != nil {
		return err
	}

	p, err := h.Svc.Update(ctx, id, toProductInput(req), r)
	if err != nil {
		return fail(l, "update_product_error", err)
	}

	l.Info("product_updated", "product_id", p.ID)
	return c.JSON(http.StatusOK, transport.ProductResponse{Message: "Product updated successfully", Product: p})
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	r, ok := middleware.RequesterFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	if !r.IsAdmin {
		l.Warn("delete_product_error", "status", 403, "reason", "not admin")
		return echo.NewHTTPError(http.StatusForbidden, "Only admins can delete products!")
	}

	id, err := productID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id, r); err != nil {
		return fail(l, "delete_product_error", err)
	}

	l.Info("product_deleted", "product_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product deleted successfully"})
}
