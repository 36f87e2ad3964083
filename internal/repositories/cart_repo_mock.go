package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hystore/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	lines    map[string][]models.CartLine // keyed by customer, insertion order
	nextID   uint
	products ProductRepository
	mu       sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository that
// joins lines against products.
func NewMockCartRepository(products ProductRepository) *MockCartRepository {
	return &MockCartRepository{
		lines:    make(map[string][]models.CartLine),
		products: products,
	}
}

// AddOrMerge adds a line or merges it into the existing one for the same product.
func (r *MockCartRepository) AddOrMerge(ctx context.Context, line *models.CartLine) (*models.CartLine, error) {
	if line.Quantity > models.MaxLineQuantity {
		return nil, ErrQuantityLimit
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	lines := r.lines[line.CustomerID]
	for i := range lines {
		if lines[i].ProductID != line.ProductID {
			continue
		}
		if lines[i].Quantity+line.Quantity > models.MaxLineQuantity {
			return nil, ErrQuantityLimit
		}
		lines[i].Quantity += line.Quantity
		lines[i].PreloadAmount = line.PreloadAmount
		lines[i].CustomMessage = line.CustomMessage
		lines[i].PersonalizationImageRef = line.PersonalizationImageRef
		lines[i].UpdatedAt = now
		stored := lines[i]
		return &stored, nil
	}

	r.nextID++
	stored := *line
	stored.ID = r.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.lines[line.CustomerID] = append(lines, stored)
	return &stored, nil
}

// ListByCustomer returns the customer's lines joined with current product data.
func (r *MockCartRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.CartLineView, error) {
	r.mu.RLock()
	lines := make([]models.CartLine, len(r.lines[customerID]))
	copy(lines, r.lines[customerID])
	r.mu.RUnlock()

	views := make([]models.CartLineView, 0, len(lines))
	for _, line := range lines {
		product, err := r.products.GetByID(ctx, line.ProductID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list cart of %s: %w", customerID, err)
		}
		views = append(views, models.CartLineView{
			CartLine:    line,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			ImageRef:    product.ImageRef,
		})
	}
	return withLineTotals(views), nil
}

// Delete removes the customer's line for a product.
func (r *MockCartRepository) Delete(ctx context.Context, customerID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := r.lines[customerID]
	for i := range lines {
		if lines[i].ProductID == productID {
			r.lines[customerID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("cart line for product %s: %w", productID, ErrNotFound)
}
