package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name         string    `gorm:"size:255;not null"         json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	IsAdmin      bool      `gorm:"not null;default:false"    json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is a personal access token issued on register or login.
type Session struct {
	ID        uint      `gorm:"primaryKey"            json:"id"`
	UserID    uint      `gorm:"index;not null"        json:"user_id"`
	JTI       string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null"              json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"        json:"id"`
	Name      string          `gorm:"size:255;not null"               json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"     json:"price"`
	Quantity  int             `gorm:"not null;check:quantity >= 0"    json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Basket struct {
	ID        uint         `gorm:"primaryKey;autoIncrement"     json:"id"`
	UserID    uint         `gorm:"index;not null"               json:"user_id"`
	Token     string       `gorm:"size:64;uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time    `gorm:"index;not null"               json:"expires_at"`
	CreatedAt time.Time    `json:"created_at"`
	Items     []BasketItem `gorm:"constraint:OnDelete:CASCADE"  json:"items"`
}

// BasketItem links a basket to one distinct product.
type BasketItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                  json:"id"`
	BasketID  uint      `gorm:"not null;uniqueIndex:idx_basket_product"   json:"basket_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_basket_product;index" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}
