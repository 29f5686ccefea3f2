package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/basket_shop/internal/middleware"
	"github.com/Skotchmaster/basket_shop/internal/models"
	"github.com/Skotchmaster/basket_shop/internal/repo"
	"github.com/Skotchmaster/basket_shop/internal/service"
	"github.com/Skotchmaster/basket_shop/pkg/db"
)

var testSecret = []byte("http-test-secret")

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	e       *echo.Echo
	repo    *repo.GormRepo
	clock   *testClock
	baskets *service.BasketService
}

func newTestEnv(t *testing.T, legacyConflict bool) *testEnv {
	t.Helper()

	gdb, err := db.Open(context.Background(), db.DriverSQLite, db.SQLiteFileDSN(filepath.Join(t.TempDir(), "http.db")))
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	rp := repo.New(gdb)
	clock := &testClock{t: time.Now().UTC()}
	authSvc := &service.AuthService{Repo: rp, JWTSecret: testSecret}
	baskets := &service.BasketService{Repo: rp, Now: clock.Now}

	e := echo.New()
	Register(e, &Deps{
		Store:   rp,
		Auth:    &AuthHTTP{Svc: authSvc},
		Catalog: &CatalogHTTP{Svc: &service.CatalogService{Repo: rp}},
		Basket:  &BasketHTTP{Svc: baskets, LegacyConflictStatus: legacyConflict},
		AuthMW:  middleware.NewAuth(testSecret, authSvc),
	})

	return &testEnv{e: e, repo: rp, clock: clock, baskets: baskets}
}

func doJSONRequest(t *testing.T, e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// register creates a user and returns its access token and id.
func (env *testEnv) register(t *testing.T, email string) (string, uint) {
	t.Helper()
	rec := doJSONRequest(t, env.e, http.MethodPost, "/register", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	user := body["user"].(map[string]any)
	return body["access_token"].(string), uint(user["id"].(float64))
}

func (env *testEnv) promote(t *testing.T, userID uint) {
	t.Helper()
	require.NoError(t, env.repo.DB.Model(&models.User{}).Where("id = ?", userID).Update("is_admin", true).Error)
}

func (env *testEnv) seedProduct(t *testing.T, qty int) uint {
	t.Helper()
	p := &models.Product{Name: "widget", Price: decimal.RequireFromString("9.99"), Quantity: qty}
	require.NoError(t, env.repo.CreateProduct(context.Background(), p))
	return p.ID
}

func (env *testEnv) newBasket(t *testing.T, token string) string {
	t.Helper()
	rec := doJSONRequest(t, env.e, http.MethodPost, "/basket/new", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	basket := decode(t, rec)["basket"].(map[string]any)
	return basket["token"].(string)
}

func productPath(id uint, action string) string {
	if action == "" {
		return fmt.Sprintf("/product/%d", id)
	}
	return fmt.Sprintf("/product/%d/%s", id, action)
}
