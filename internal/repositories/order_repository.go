package repositories

import (
	"context"

	"hystore/internal/models"
)

// OrderRepository defines read access to orders. Orders are only ever
// written through a CheckoutStore transaction.
type OrderRepository interface {
	// ListByCustomer returns the customer's orders, newest first, with their lines.
	ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	// GetByID returns an order with its lines.
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// SalesSummary sums completed orders and ranks the top products by
	// number of order lines.
	SalesSummary(ctx context.Context, top int) (*models.SalesSummary, error)
}
