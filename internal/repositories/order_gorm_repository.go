package repositories

import (
	"context"
	"errors"
	"fmt"

	"hystore/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_lines.id")
	})
}

// ListByCustomer returns the customer's orders with lines, newest first.
func (r *GORMOrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	var orders []models.Order
	err := preloadLines(r.db.WithContext(ctx)).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of %s: %w", customerID, err)
	}
	return orders, nil
}

// GetByID returns an order with its lines.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := preloadLines(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// SalesSummary aggregates completed orders in SQL.
func (r *GORMOrderRepository) SalesSummary(ctx context.Context, top int) (*models.SalesSummary, error) {
	db := r.db.WithContext(ctx)

	var total decimal.Decimal
	err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_price), 0)").
		Where("status = ?", models.OrderStatusCompleted).
		Row().Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to sum completed orders: %w", err)
	}

	topProducts := make([]models.ProductSales, 0, top)
	err = db.Table("order_lines").
		Select("order_lines.product_id AS product_id, products.name AS name, COUNT(*) AS total_purchases").
		Joins("JOIN products ON products.id = order_lines.product_id").
		Group("order_lines.product_id, products.name").
		Order("total_purchases DESC, products.name").
		Limit(top).
		Scan(&topProducts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}

	return &models.SalesSummary{TotalSales: total.Round(2), TopProducts: topProducts}, nil
}
