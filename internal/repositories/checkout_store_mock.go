package repositories

import (
	"context"
	"fmt"
	"time"

	"hystore/internal/models"

	"github.com/google/uuid"
)

// MockCheckoutStore is the in-memory CheckoutStore. A transaction holds the
// cart and order locks for its whole duration and stages its writes; they
// are applied only once fn has returned nil.
type MockCheckoutStore struct {
	carts    *MockCartRepository
	orders   *MockOrderRepository
	products *MockProductRepository
}

// NewMockCheckoutStore creates a store over the given in-memory repositories.
func NewMockCheckoutStore(carts *MockCartRepository, orders *MockOrderRepository, products *MockProductRepository) *MockCheckoutStore {
	return &MockCheckoutStore{carts: carts, orders: orders, products: products}
}

// RunInTx implements CheckoutStore.
func (s *MockCheckoutStore) RunInTx(ctx context.Context, fn func(tx CheckoutTx) error) error {
	s.carts.mu.Lock()
	defer s.carts.mu.Unlock()
	s.orders.mu.Lock()
	defer s.orders.mu.Unlock()
	s.products.mu.RLock()
	defer s.products.mu.RUnlock()

	tx := &mockCheckoutTx{
		store:   s,
		orders:  make(map[string]models.Order),
		deleted: make(map[string]map[uint]bool),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type mockCheckoutTx struct {
	store   *MockCheckoutStore
	orders  map[string]models.Order
	lines   []models.OrderLine
	deleted map[string]map[uint]bool
}

func (t *mockCheckoutTx) LockCartLines(customerID string) ([]models.CartLine, error) {
	var lines []models.CartLine
	for _, l := range t.store.carts.lines[customerID] {
		if !t.deleted[customerID][l.ID] {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func (t *mockCheckoutTx) GetProduct(productID string) (*models.Product, error) {
	p, ok := t.store.products.products[productID]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", productID, ErrNotFound)
	}
	return &p, nil
}

func (t *mockCheckoutTx) CreateOrder(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if _, exists := t.store.orders.orders[order.ID]; exists {
		return fmt.Errorf("failed to create order: order %s already exists", order.ID)
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	staged := *order
	staged.Lines = nil
	t.orders[order.ID] = staged
	return nil
}

func (t *mockCheckoutTx) CreateOrderLines(lines []models.OrderLine) error {
	for _, l := range lines {
		if _, ok := t.orders[l.OrderID]; !ok {
			return fmt.Errorf("failed to create order lines: order %s not created in this transaction", l.OrderID)
		}
	}
	t.lines = append(t.lines, lines...)
	return nil
}

func (t *mockCheckoutTx) DeleteCartLines(customerID string, lineIDs []uint) error {
	present := make(map[uint]bool)
	for _, l := range t.store.carts.lines[customerID] {
		if !t.deleted[customerID][l.ID] {
			present[l.ID] = true
		}
	}
	for _, id := range lineIDs {
		if !present[id] {
			return fmt.Errorf("cart line %d of %s: %w", id, customerID, ErrNotFound)
		}
	}
	if t.deleted[customerID] == nil {
		t.deleted[customerID] = make(map[uint]bool)
	}
	for _, id := range lineIDs {
		t.deleted[customerID][id] = true
	}
	return nil
}

func (t *mockCheckoutTx) TransitionOrder(orderID string, from, to models.OrderStatus) error {
	order, ok := t.orders[orderID]
	if !ok {
		order, ok = t.store.orders.orders[orderID]
	}
	if !ok || order.Status != from {
		return fmt.Errorf("order %s is not %s", orderID, from)
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	t.orders[orderID] = order
	return nil
}

// commit applies the staged writes. Callers hold every store lock.
func (t *mockCheckoutTx) commit() {
	orders := t.store.orders
	for _, l := range t.lines {
		orders.nextLineID++
		l.ID = orders.nextLineID
		order := t.orders[l.OrderID]
		order.Lines = append(order.Lines, l)
		t.orders[l.OrderID] = order
	}
	for id, o := range t.orders {
		if existing, ok := orders.orders[id]; ok && len(o.Lines) == 0 {
			o.Lines = existing.Lines
		}
		orders.orders[id] = o
	}

	carts := t.store.carts
	for customerID, ids := range t.deleted {
		kept := make([]models.CartLine, 0, len(carts.lines[customerID]))
		for _, l := range carts.lines[customerID] {
			if !ids[l.ID] {
				kept = append(kept, l)
			}
		}
		carts.lines[customerID] = kept
	}
}
