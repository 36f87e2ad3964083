package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"hystore/internal/models"

	"github.com/shopspring/decimal"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// Orders are written by MockCheckoutStore.
type MockOrderRepository struct {
	orders     map[string]models.Order
	nextLineID uint
	products   ProductRepository
	mu         sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository(products ProductRepository) *MockOrderRepository {
	return &MockOrderRepository{
		orders:   make(map[string]models.Order),
		products: products,
	}
}

// ListByCustomer returns the customer's orders, newest first.
func (r *MockOrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0)
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			orders = append(orders, cloneOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	order = cloneOrder(order)
	return &order, nil
}

// SalesSummary aggregates completed orders in memory.
func (r *MockOrderRepository) SalesSummary(ctx context.Context, top int) (*models.SalesSummary, error) {
	r.mu.RLock()
	total := decimal.Zero
	counts := make(map[string]int64)
	for _, o := range r.orders {
		if o.Status == models.OrderStatusCompleted {
			total = total.Add(o.TotalPrice)
		}
		for _, l := range o.Lines {
			counts[l.ProductID]++
		}
	}
	r.mu.RUnlock()

	ranked := make([]models.ProductSales, 0, len(counts))
	for productID, n := range counts {
		product, err := r.products.GetByID(ctx, productID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to rank products: %w", err)
		}
		ranked = append(ranked, models.ProductSales{ProductID: productID, Name: product.Name, TotalPurchases: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalPurchases == ranked[j].TotalPurchases {
			return ranked[i].Name < ranked[j].Name
		}
		return ranked[i].TotalPurchases > ranked[j].TotalPurchases
	})
	if len(ranked) > top {
		ranked = ranked[:top]
	}
	return &models.SalesSummary{TotalSales: total.Round(2), TopProducts: ranked}, nil
}

func cloneOrder(o models.Order) models.Order {
	lines := make([]models.OrderLine, len(o.Lines))
	copy(lines, o.Lines)
	o.Lines = lines
	return o
}
