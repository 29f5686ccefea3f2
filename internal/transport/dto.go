package transport

import (
	"encoding/json"
	"reflect"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/basket_shop/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

// Amount is a decimal whose decode failures surface as *json.UnmarshalTypeError,
// so the json package fills in the offending field name.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	if err := a.Decimal.UnmarshalJSON(b); err != nil {
		return &json.UnmarshalTypeError{Value: string(b), Type: reflect.TypeOf(a.Decimal)}
	}
	return nil
}

// ProductRequest uses pointers so a missing field is told apart from zero.
type ProductRequest struct {
	Name     string  `json:"name"     validate:"required,max=255"`
	Price    *Amount `json:"price"    validate:"required"`
	Quantity *int    `json:"quantity" validate:"required,min=0"`
}

type ProductResponse struct {
	Message string          `json:"message"`
	Product *models.Product `json:"product"`
}

type BasketTokenRequest struct {
	BasketToken string `json:"basket_token" validate:"required"`
}

type BasketItemRequest struct {
	BasketToken string `json:"basket_token" validate:"required"`
	ProductID   uint   `json:"product_id"   validate:"required"`
}

type BasketResponse struct {
	Message string         `json:"message"`
	Basket  *models.Basket `json:"basket"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
