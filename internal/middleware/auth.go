package middleware

import (
	"context"
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/basket_shop/internal/domain"
	"github.com/Skotchmaster/basket_shop/internal/service"
	jwthelp "github.com/Skotchmaster/basket_shop/pkg/jwt"
	"github.com/Skotchmaster/basket_shop/pkg/logging"
	"github.com/Skotchmaster/basket_shop/pkg/tokens"
)

const (
	tokenContextKey     = "token"
	requesterContextKey = "requester"
)

type SessionResolver interface {
	ResolveSession(ctx context.Context, claims *tokens.AccessClaims) (domain.Requester, error)
}

// Auth accepts a Bearer header or the accessToken cookie, verifies the JWT
// with tokens.AccessClaimsFromToken and resolves its session. The requester
// lands in the echo context.
type Auth struct {
	Sessions SessionResolver
	verify   echo.MiddlewareFunc
}

func NewAuth(secret []byte, sessions SessionResolver) *Auth {
	verify := echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:Authorization:Bearer ,cookie:" + jwthelp.AccessCookie,
		ContextKey:  tokenContextKey,
		ParseTokenFunc: func(_ echo.Context, raw string) (any, error) {
			return tokens.AccessClaimsFromToken(raw, secret)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 401, "reason", "missing or invalid token", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
		},
	})
	return &Auth{Sessions: sessions, verify: verify}
}

func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.verify(func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx)

		claims, ok := c.Get(tokenContextKey).(*tokens.AccessClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
		}

		r, err := m.Sessions.ResolveSession(ctx, claims)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				l.Warn("auth_failed", "status", 401, "reason", "session rejected", "error", err)
				c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
			}
			l.Error("auth_failed", "status", 500, "reason", "cannot resolve session", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}

		setRequester(c, r)
		return next(c)
	})
}

func setRequester(c echo.Context, r domain.Requester) {
	c.Set(requesterContextKey, r)
	c.Set("user_id", r.UserID)

	req := c.Request()
	l := logging.FromContext(req.Context()).With("user_id", r.UserID)
	c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))
}

func RequesterFrom(c echo.Context) (domain.Requester, bool) {
	r, ok := c.Get(requesterContextKey).(domain.Requester)
	return r, ok
}
