package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/basket_shop/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExist   = errors.New("user already exist")
	ErrSessionNotFound    = errors.New("session not found")

	ErrBasketNotFound     = errors.New("basket not found")
	ErrBasketNotOwned     = errors.New("basket belongs to another user")
	ErrProductUnavailable = errors.New("product not found or not enough quantity")
	ErrItemExists         = errors.New("product already in basket")
	ErrItemMissing        = errors.New("product not in basket")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Product{},
		&models.Basket{},
		&models.BasketItem{},
	)
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
