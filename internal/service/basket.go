package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/basket_shop/internal/domain"
	"github.com/Skotchmaster/basket_shop/internal/models"
	"github.com/Skotchmaster/basket_shop/internal/repo"
	jwthelp "github.com/Skotchmaster/basket_shop/pkg/jwt"
	"github.com/Skotchmaster/basket_shop/pkg/logging"
	"github.com/Skotchmaster/basket_shop/pkg/mykafka"
)

const (
	BasketTTL = 24 * time.Hour

	// MinStockForBasket is the stock a product needs before it can be added.
	// TODO: confirm with product owner whether the last unit (quantity 1) should be addable.
	MinStockForBasket = 2
)

type BasketStore interface {
	CreateBasket(ctx context.Context, b *models.Basket) error
	AddBasketItem(ctx context.Context, ch repo.BasketItemChange) (*models.BasketItem, error)
	RemoveBasketItem(ctx context.Context, ch repo.BasketItemChange) (*models.BasketItem, error)
	GetBasketWithItems(ctx context.Context, token string, userID uint, now time.Time) (*models.Basket, error)
	ExpiredBasketIDs(ctx context.Context, now time.Time) ([]uint, error)
	DeleteExpiredBasket(ctx context.Context, id uint, now time.Time) (bool, error)
}

type BasketService struct {
	Repo   BasketStore
	Events EventPublisher
	Now    func() time.Time
}

func (s *BasketService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// mapBasketErr collapses ownership mismatch into the same NotFound as a
// missing basket so callers cannot probe for other users' tokens.
func mapBasketErr(err error) error {
	switch {
	case errors.Is(err, repo.ErrBasketNotFound), errors.Is(err, repo.ErrBasketNotOwned):
		return fmt.Errorf("basket not found: %w", ErrNotFound)
	case errors.Is(err, repo.ErrProductUnavailable):
		return fmt.Errorf("product not found or not enough quantity: %w", ErrNotFound)
	case errors.Is(err, repo.ErrItemExists):
		return fmt.Errorf("product already in basket: %w", ErrConflict)
	case errors.Is(err, repo.ErrItemMissing):
		return fmt.Errorf("product already not in basket: %w", ErrConflict)
	default:
		return err
	}
}

func validateItemRef(token string, productID uint) error {
	verr := &ValidationError{}
	if strings.TrimSpace(token) == "" {
		verr.Add("basket_token", "basket_token is required")
	}
	if productID == 0 {
		verr.Add("product_id", "product_id is required")
	}
	return verr.OrNil()
}

func (s *BasketService) Create(ctx context.Context, r domain.Requester) (*models.Basket, error) {
	l := logging.FromContext(ctx).With("svc", "basket.create", "user_id", r.UserID)

	if r.UserID == 0 {
		return nil, fmt.Errorf("no requester: %w", ErrUnauthorized)
	}

	now := s.now()
	b := &models.Basket{
		UserID:    r.UserID,
		Token:     jwthelp.NewOpaqueToken(),
		ExpiresAt: now.Add(BasketTTL),
		CreatedAt: now,
		Items:     []models.BasketItem{},
	}
	if err := s.Repo.CreateBasket(ctx, b); err != nil {
		l.Error("create_basket_error", "reason", "cannot insert basket", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicBasketEvents, strconv.FormatUint(uint64(b.ID), 10), map[string]any{
		"type":      "basket_created",
		"basketID":  b.ID,
		"userID":    b.UserID,
		"expiresAt": b.ExpiresAt,
	})
	return b, nil
}

func (s *BasketService) AddItem(ctx context.Context, token string, productID uint, r domain.Requester) error {
	l := logging.FromContext(ctx).With("svc", "basket.add_item", "user_id", r.UserID, "product_id", productID)

	if err := validateItemRef(token, productID); err != nil {
		return err
	}

	item, err := s.Repo.AddBasketItem(ctx, repo.BasketItemChange{
		Token:       token,
		UserID:      r.UserID,
		ProductID:   productID,
		MinQuantity: MinStockForBasket,
		Now:         s.now(),
	})
	if err != nil {
		l.Warn("add_item_rejected", "reason", err.Error())
		return mapBasketErr(err)
	}

	publish(ctx, s.Events, mykafka.TopicBasketEvents, strconv.FormatUint(uint64(item.BasketID), 10), map[string]any{
		"type":      "basket_item_added",
		"basketID":  item.BasketID,
		"productID": item.ProductID,
		"userID":    r.UserID,
	})
	return nil
}

func (s *BasketService) RemoveItem(ctx context.Context, token string, productID uint, r domain.Requester) error {
	l := logging.FromContext(ctx).With("svc", "basket.remove_item", "user_id", r.UserID, "product_id", productID)

	if err := validateItemRef(token, productID); err != nil {
		return err
	}

	item, err := s.Repo.RemoveBasketItem(ctx, repo.BasketItemChange{
		Token:     token,
		UserID:    r.UserID,
		ProductID: productID,
		Now:       s.now(),
	})
	if err != nil {
		l.Warn("remove_item_rejected", "reason", err.Error())
		return mapBasketErr(err)
	}

	publish(ctx, s.Events, mykafka.TopicBasketEvents, strconv.FormatUint(uint64(item.BasketID), 10), map[string]any{
		"type":      "basket_item_removed",
		"basketID":  item.BasketID,
		"productID": item.ProductID,
		"userID":    r.UserID,
	})
	return nil
}

func (s *BasketService) ListItems(ctx context.Context, token string, r domain.Requester) (*models.Basket, error) {
	if strings.TrimSpace(token) == "" {
		return nil, NewValidationError("basket_token", "basket_token is required")
	}

	b, err := s.Repo.GetBasketWithItems(ctx, token, r.UserID, s.now())
	if err != nil {
		logging.FromContext(ctx).Warn("list_items_rejected", "user_id", r.UserID, "reason", err.Error())
		return nil, mapBasketErr(err)
	}
	if b.Items == nil {
		b.Items = []models.BasketItem{}
	}
	return b, nil
}

// SweepExpired removes every basket whose expiry is before now. A store
// error stops the batch; the baskets left over are picked up by the next run.
func (s *BasketService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	l := logging.FromContext(ctx).With("svc", "basket.sweep")

	ids, err := s.Repo.ExpiredBasketIDs(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list expired baskets: %w", err)
	}

	removed := 0
	for _, id := range ids {
		ok, err := s.Repo.DeleteExpiredBasket(ctx, id, now)
		if err != nil {
			l.Error("sweep_failed", "basket_id", id, "removed", removed, "error", err)
			return removed, fmt.Errorf("remove basket %d: %w", id, err)
		}
		if ok {
			removed++
			l.Info("basket_removed", "basket_id", id)
		}
	}

	if removed > 0 {
		publish(ctx, s.Events, mykafka.TopicBasketEvents, "sweep", map[string]any{
			"type":    "baskets_swept",
			"removed": removed,
			"before":  now,
		})
	}
	return removed, nil
}
