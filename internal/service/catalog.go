package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/basket_shop/internal/domain"
	"github.com/Skotchmaster/basket_shop/internal/models"
	"github.com/Skotchmaster/basket_shop/internal/repo"
	"github.com/Skotchmaster/basket_shop/pkg/logging"
	"github.com/Skotchmaster/basket_shop/pkg/mykafka"
)

const maxNameLen = 255

type CatalogStore interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id uint, f repo.ProductFields) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type ProductCache interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, bool, error)
	SetProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

type ProductInput struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

func (in ProductInput) validate() error {
	verr := &ValidationError{}
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		verr.Add("name", "name is required")
	case utf8.RuneCountInString(name) > maxNameLen:
		verr.Add("name", "name may not be greater than 255 characters")
	}
	if in.Price.IsNegative() {
		verr.Add("price", "price must be at least 0")
	}
	if in.Quantity < 0 {
		verr.Add("quantity", "quantity must be at least 0")
	}
	return verr.OrNil()
}

type CatalogService struct {
	Repo   CatalogStore
	Cache  ProductCache
	Events EventPublisher
}

func requireAdmin(r domain.Requester, action string) error {
	if !r.IsAdmin {
		return fmt.Errorf("only admins can %s products: %w", action, ErrForbidden)
	}
	return nil
}

func productKey(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func (s *CatalogService) Find(ctx context.Context, id uint) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.find", "product_id", id)

	if s.Cache != nil {
		p, ok, err := s.Cache.GetProduct(ctx, id)
		if err != nil {
			l.Warn("product_cache_get_failed", "error", err)
		} else if ok {
			return p, nil
		}
	}

	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.SetProduct(ctx, p); err != nil {
			l.Warn("product_cache_set_failed", "error", err)
		}
	}
	return p, nil
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput, r domain.Requester) (*models.Product, error) {
	if err := requireAdmin(r, "add"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &models.Product{Name: strings.TrimSpace(in.Name), Price: in.Price, Quantity: in.Quantity}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicProductEvents, productKey(p.ID), map[string]any{
		"type":      "product_created",
		"productID": p.ID,
		"name":      p.Name,
		"price":     p.Price.String(),
		"quantity":  p.Quantity,
		"createdBy": r.UserID,
	})
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, id uint, in ProductInput, r domain.Requester) (*models.Product, error) {
	if err := requireAdmin(r, "update"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := s.Repo.UpdateProduct(ctx, id, repo.ProductFields{
		Name:     strings.TrimSpace(in.Name),
		Price:    in.Price,
		Quantity: in.Quantity,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, err
	}
	s.invalidate(ctx, id)

	publish(ctx, s.Events, mykafka.TopicProductEvents, productKey(p.ID), map[string]any{
		"type":      "product_updated",
		"productID": p.ID,
		"name":      p.Name,
		"price":     p.Price.String(),
		"quantity":  p.Quantity,
	})
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uint, r domain.Requester) error {
	if err := requireAdmin(r, "delete"); err != nil {
		return err
	}

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return err
	}
	s.invalidate(ctx, id)

	publish(ctx, s.Events, mykafka.TopicProductEvents, productKey(id), map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, id uint) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.DeleteProduct(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("product_cache_invalidate_failed", "product_id", id, "error", err)
	}
}
