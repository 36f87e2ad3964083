package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PublishedReport is a report an admin made visible to advertisers.
// Versions increase monotonically; the highest one is the current report.
type PublishedReport struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	Version     int64     `json:"version" gorm:"uniqueIndex;not null"`
	PublisherID string    `json:"publisher_id" gorm:"type:varchar(36);not null;index"`
	Payload     string    `json:"-" gorm:"type:text;not null"`
	PublishedAt time.Time `json:"published_at" gorm:"not null"`
}

// RoleCount is the number of accounts holding a role.
type RoleCount struct {
	Role  Role  `json:"user_type"`
	Count int64 `json:"count"`
}

// ProductSales is the number of order lines referencing a product.
type ProductSales struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	TotalPurchases int64  `json:"total_purchases"`
}

// SalesSummary aggregates completed sales for the admin dashboard.
type SalesSummary struct {
	TotalSales  decimal.Decimal `json:"total_sales"`
	TopProducts []ProductSales  `json:"top_products"`
}
