package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho(cfg Config) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(cfg))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/form", ok)
	e.POST("/submit", ok)
	e.POST("/login", ok)
	return e
}

func csrfCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "XSRF-TOKEN" {
			return ck
		}
	}
	t.Fatal("csrf cookie not set")
	return nil
}

func TestMiddleware_SafeMethodIssuesToken(t *testing.T) {
	t.Parallel()

	e := newEcho(Config{})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/form", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	ck := csrfCookie(t, rec)
	assert.NotEmpty(t, ck.Value)
	assert.Equal(t, ck.Value, rec.Header().Get("X-CSRF-Token"))
}

func TestMiddleware_UnsafeMethod(t *testing.T) {
	t.Parallel()

	e := newEcho(Config{EnforceSameOrigin: true})

	tests := []struct {
		name   string
		origin string
		header string
		cookie string
		bearer bool
		path   string
		want   int
	}{
		{name: "no token", origin: "http://example.com", cookie: "tok", path: "/submit", want: http.StatusForbidden},
		{name: "mismatched token", origin: "http://example.com", cookie: "tok", header: "other", path: "/submit", want: http.StatusForbidden},
		{name: "cross origin", origin: "http://evil.test", cookie: "tok", header: "tok", path: "/submit", want: http.StatusForbidden},
		{name: "valid", origin: "http://example.com", cookie: "tok", header: "tok", path: "/submit", want: http.StatusOK},
		{name: "bearer exempt", bearer: true, path: "/submit", want: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.header != "" {
				req.Header.Set("X-CSRF-Token", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tt.cookie})
			}
			if tt.bearer {
				req.Header.Set(echo.HeaderAuthorization, "Bearer abc")
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMiddleware_SkipPaths(t *testing.T) {
	t.Parallel()

	e := newEcho(Config{SkipPaths: []string{"/login"}})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
