package repositories

import (
	"context"

	"hystore/internal/models"
	"hystore/internal/pricing"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// AddOrMerge inserts line, or, when the customer already holds a line for
	// the product, adds line.Quantity to it and overwrites its preload amount,
	// message and image reference with the values in line.
	AddOrMerge(ctx context.Context, line *models.CartLine) (*models.CartLine, error)
	// ListByCustomer returns the customer's lines in insertion order, joined
	// with the current product data. Lines whose product no longer exists are omitted.
	ListByCustomer(ctx context.Context, customerID string) ([]models.CartLineView, error)
	Delete(ctx context.Context, customerID, productID string) error
}

func withLineTotals(views []models.CartLineView) []models.CartLineView {
	for i := range views {
		views[i].LineTotal = pricing.LineTotal(views[i].UnitPrice, views[i].Quantity, views[i].PreloadAmount)
	}
	return views
}
