package repositories

import (
	"context"

	"hystore/internal/models"
)

// CheckoutTx is the set of operations a checkout performs. Every call made
// through one CheckoutTx commits or rolls back together.
type CheckoutTx interface {
	// LockCartLines reads the customer's cart lines in insertion order and
	// holds them until the transaction ends.
	LockCartLines(customerID string) ([]models.CartLine, error)
	GetProduct(productID string) (*models.Product, error)
	CreateOrder(order *models.Order) error
	CreateOrderLines(lines []models.OrderLine) error
	// DeleteCartLines removes exactly the given lines of the customer and
	// fails if any of them is already gone.
	DeleteCartLines(customerID string, lineIDs []uint) error
	// TransitionOrder moves an order from one status to another and fails if
	// the order is not currently in the from status.
	TransitionOrder(orderID string, from, to models.OrderStatus) error
}

// CheckoutStore runs checkouts atomically.
type CheckoutStore interface {
	// RunInTx calls fn inside a transaction. A non-nil error from fn, or a
	// failed commit, discards every write made through the CheckoutTx.
	RunInTx(ctx context.Context, fn func(tx CheckoutTx) error) error
}
