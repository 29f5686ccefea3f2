package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/basket_shop/internal/models"
)

// BasketItemChange addresses one product line of a live basket.
type BasketItemChange struct {
	Token     string
	UserID    uint
	ProductID uint
	// MinQuantity is the stock a product needs to be added.
	MinQuantity int
	Now         time.Time
}

func (r *GormRepo) CreateBasket(ctx context.Context, b *models.Basket) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func lockLiveBasket(tx *gorm.DB, token string, userID uint, now time.Time) (*models.Basket, error) {
	var b models.Basket
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token = ? AND expires_at > ?", token, now.UTC()).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBasketNotFound
		}
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrBasketNotOwned
	}
	return &b, nil
}

func (r *GormRepo) AddBasketItem(ctx context.Context, ch BasketItemChange) (*models.BasketItem, error) {
	var item models.BasketItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockLiveBasket(tx, ch.Token, ch.UserID, ch.Now)
		if err != nil {
			return err
		}

		var product models.Product
		err = tx.Select("id").
			Where("id = ? AND quantity >= ?", ch.ProductID, ch.MinQuantity).
			First(&product).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductUnavailable
			}
			return err
		}

		item = models.BasketItem{BasketID: b.ID, ProductID: product.ID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&item)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return ErrItemExists
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrItemExists
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveBasketItem returns the deleted line.
func (r *GormRepo) RemoveBasketItem(ctx context.Context, ch BasketItemChange) (*models.BasketItem, error) {
	var item models.BasketItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockLiveBasket(tx, ch.Token, ch.UserID, ch.Now)
		if err != nil {
			return err
		}
		err = tx.Where("basket_id = ? AND product_id = ?", b.ID, ch.ProductID).First(&item).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemMissing
			}
			return err
		}
		res := tx.Delete(&item)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrItemMissing
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) GetBasketWithItems(ctx context.Context, token string, userID uint, now time.Time) (*models.Basket, error) {
	var b models.Basket
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("token = ? AND expires_at > ?", token, now.UTC()).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBasketNotFound
		}
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrBasketNotOwned
	}
	return &b, nil
}

func (r *GormRepo) ExpiredBasketIDs(ctx context.Context, now time.Time) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&models.Basket{}).
		Where("expires_at < ?", now.UTC()).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteExpiredBasket removes the basket and its items in one transaction,
// re-checking expiry so a basket that is no longer expired is left alone.
func (r *GormRepo) DeleteExpiredBasket(ctx context.Context, id uint, now time.Time) (bool, error) {
	deleted := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.Basket{}).Select("id").Where("id = ? AND expires_at < ?", id, now.UTC())
		if err := tx.Where("basket_id IN (?)", expired).Delete(&models.BasketItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND expires_at < ?", id, now.UTC()).Delete(&models.Basket{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
