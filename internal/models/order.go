package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
)

// MaxOrderTotal is the largest total a decimal(10,2) column can store.
var MaxOrderTotal = decimal.RequireFromString("99999999.99")

// OrderLine is a cart line copied into an order at checkout. Immutable once written.
type OrderLine struct {
	ID                      uint            `json:"id" gorm:"primaryKey"`
	OrderID                 string          `json:"order_id" gorm:"type:varchar(36);not null;index"`
	ProductID               string          `json:"product_id" gorm:"type:varchar(36);not null;index"`
	Quantity                int             `json:"quantity" gorm:"not null"`
	PreloadAmount           decimal.Decimal `json:"preload_amount" gorm:"type:decimal(10,2);not null"`
	CustomMessage           *string         `json:"custom_message"`
	PersonalizationImageRef *string         `json:"personalization_image_ref" gorm:"type:varchar(500)"`
}

// Order represents a customer order. TotalPrice is always the undiscounted amount.
type Order struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID string          `json:"customer_id" gorm:"type:varchar(36);not null;index"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:decimal(10,2);not null"`
	Status     OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	Lines      []OrderLine     `json:"lines,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// OrderLineFromCart copies the purchasable fields of a cart line into an order line.
func OrderLineFromCart(orderID string, line CartLine) OrderLine {
	return OrderLine{
		OrderID:                 orderID,
		ProductID:               line.ProductID,
		Quantity:                line.Quantity,
		PreloadAmount:           line.PreloadAmount,
		CustomMessage:           line.CustomMessage,
		PersonalizationImageRef: line.PersonalizationImageRef,
	}
}
