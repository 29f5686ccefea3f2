package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/basket_shop/internal/domain"
	"github.com/Skotchmaster/basket_shop/internal/models"
)

type mapCache struct {
	mu      sync.Mutex
	items   map[uint]models.Product
	hits    int
	failGet bool
}

func newMapCache() *mapCache { return &mapCache{items: map[uint]models.Product{}} }

func (c *mapCache) GetProduct(_ context.Context, id uint) (*models.Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("redis down")
	}
	p, ok := c.items[id]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &p, true, nil
}

func (c *mapCache) SetProduct(_ context.Context, p *models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[p.ID] = *p
	return nil
}

func (c *mapCache) DeleteProduct(_ context.Context, id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	return nil
}

var admin = domain.Requester{UserID: 10, IsAdmin: true, SessionID: "s-admin"}

func newCatalogEnv(t *testing.T) (*CatalogService, *mapCache, *recordingPublisher) {
	t.Helper()
	cache := newMapCache()
	events := &recordingPublisher{}
	return &CatalogService{Repo: newTestRepo(t), Cache: cache, Events: events}, cache, events
}

func validInput() ProductInput {
	return ProductInput{Name: "Lamp", Price: decimal.RequireFromString("19.90"), Quantity: 3}
}

func TestCatalogService_WritesRequireAdmin(t *testing.T) {
	t.Parallel()
	svc, _, _ := newCatalogEnv(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, validInput(), admin)
	require.NoError(t, err)

	_, err = svc.Create(ctx, validInput(), alice)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Update(ctx, p.ID, validInput(), alice)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, p.ID, alice), ErrForbidden)

	// the capability check comes before the lookup
	_, err = svc.Update(ctx, 9999, validInput(), alice)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCatalogService_Validation(t *testing.T) {
	t.Parallel()
	svc, _, _ := newCatalogEnv(t)

	tests := []struct {
		name  string
		in    ProductInput
		field string
	}{
		{name: "empty name", in: ProductInput{Name: " ", Price: decimal.NewFromInt(1)}, field: "name"},
		{name: "long name", in: ProductInput{Name: strings.Repeat("x", 256), Price: decimal.NewFromInt(1)}, field: "name"},
		{name: "negative price", in: ProductInput{Name: "a", Price: decimal.NewFromInt(-1)}, field: "price"},
		{name: "negative quantity", in: ProductInput{Name: "a", Price: decimal.NewFromInt(1), Quantity: -1}, field: "quantity"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Create(context.Background(), tt.in, admin)
			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
}

func TestCatalogService_ZeroPriceAndQuantityAllowed(t *testing.T) {
	t.Parallel()
	svc, _, _ := newCatalogEnv(t)

	p, err := svc.Create(context.Background(), ProductInput{Name: "Freebie", Price: decimal.Zero}, admin)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Quantity)
}

func TestCatalogService_CRUDAndCache(t *testing.T) {
	t.Parallel()
	svc, cache, events := newCatalogEnv(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput(), admin)
	require.NoError(t, err)

	got, err := svc.Find(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Name)
	assert.Zero(t, cache.hits)

	_, err = svc.Find(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	upd, err := svc.Update(ctx, created.ID, ProductInput{Name: "Desk lamp", Price: decimal.NewFromInt(25), Quantity: 0}, admin)
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", upd.Name)
	assert.True(t, decimal.NewFromInt(25).Equal(upd.Price))

	got, err = svc.Find(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", got.Name, "update must invalidate the cached copy")

	require.NoError(t, svc.Delete(ctx, created.ID, admin))
	_, err = svc.Find(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID, admin), ErrNotFound)

	_, err = svc.Update(ctx, created.ID, validInput(), admin)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"product_created", "product_updated", "product_deleted"}, events.types())
	assert.EqualValues(t, admin.UserID, events.events[0].Event["createdBy"])
}

func TestCatalogService_Find_CacheErrorFallsBackToStore(t *testing.T) {
	t.Parallel()
	svc, cache, _ := newCatalogEnv(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput(), admin)
	require.NoError(t, err)

	cache.failGet = true
	got, err := svc.Find(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestCatalogService_WithoutCache(t *testing.T) {
	t.Parallel()
	svc := &CatalogService{Repo: newTestRepo(t)}
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput(), admin)
	require.NoError(t, err)
	got, err := svc.Find(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
}
