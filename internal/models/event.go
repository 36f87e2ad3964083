package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCompletedEvent is published once a checkout has committed.
type OrderCompletedEvent struct {
	OrderID     string          `json:"order_id"`
	CustomerID  string          `json:"customer_id"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	LineCount   int             `json:"line_count"`
	CompletedAt time.Time       `json:"completed_at"`
}
