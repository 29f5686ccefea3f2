package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/basket_shop/internal/middleware"
	"github.com/Skotchmaster/basket_shop/internal/service"
	"github.com/Skotchmaster/basket_shop/internal/transport"
	jwthelp "github.com/Skotchmaster/basket_shop/pkg/jwt"
	"github.com/Skotchmaster/basket_shop/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) respondWithSession(c echo.Context, res *service.AuthResult) error {
	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, res.AccessToken, "/", res.ExpiresAt))
	return c.JSON(http.StatusOK, transport.AuthResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		User:        res.User,
	})
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := bindAndValidate(c, l, "register_error", &req); err != nil {
		return err
	}

	res, err := h.Svc.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			l.Warn("register_error", "status", 422, "reason", "email taken")
			return service.NewValidationError("email", "The email has already been taken.")
		}
		return fail(l, "register_error", err)
	}

	l.Info("register_successful", "user_id", res.User.ID)
	return h.respondWithSession(c, res)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bindAndValidate(c, l, "login_error", &req); err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			l.Warn("login_failed", "status", 401, "reason", "bad credentials")
			return echo.NewHTTPError(http.StatusUnauthorized, "The provided credentials are incorrect.")
		}
		return fail(l, "login_failed", err)
	}

	l.Info("login_successful", "user_id", res.User.ID)
	return h.respondWithSession(c, res)
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	r, ok := middleware.RequesterFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	if err := h.Svc.LogOut(ctx, r); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.profile")

	r, ok := middleware.RequesterFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	user, err := h.Svc.Profile(ctx, r)
	if err != nil {
		return fail(l, "profile_error", err)
	}
	return c.JSON(http.StatusOK, user)
}
