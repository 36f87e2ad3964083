package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity is the largest quantity a single cart line may hold.
const MaxLineQuantity = 999

// CartLine is one product in a customer's cart. A customer holds at most one
// line per product.
type CartLine struct {
	ID                      uint            `json:"id" gorm:"primaryKey"`
	CustomerID              string          `json:"customer_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_customer_product"`
	ProductID               string          `json:"product_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_customer_product"`
	Quantity                int             `json:"quantity" gorm:"not null"`
	PreloadAmount           decimal.Decimal `json:"preload_amount" gorm:"type:decimal(10,2);not null"`
	CustomMessage           *string         `json:"custom_message"`
	PersonalizationImageRef *string         `json:"personalization_image_ref" gorm:"type:varchar(500)"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// CartLineView is a cart line joined with the current catalog data of its product.
type CartLineView struct {
	CartLine
	ProductName string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"price"`
	ImageRef    string          `json:"image_ref"`
	LineTotal   decimal.Decimal `json:"line_total"`
}
