package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/basket_shop/internal/models"
)

// ProductCache keeps read-through copies of products keyed by id.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

func productKey(id uint) string {
	return fmt.Sprintf("%sproduct:%d", keyPrefix, id)
}

func (c *ProductCache) GetProduct(ctx context.Context, id uint) (*models.Product, bool, error) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, fmt.Errorf("decode cached product %d: %w", id, err)
	}
	return &p, true, nil
}

func (c *ProductCache) SetProduct(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKey(p.ID), data, c.ttl).Err()
}

func (c *ProductCache) DeleteProduct(ctx context.Context, id uint) error {
	return c.client.Del(ctx, productKey(id)).Err()
}
