package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hystore/internal/models"

	"github.com/google/uuid"
)

// MockCustomerRepository is an in-memory implementation of CustomerRepository.
type MockCustomerRepository struct {
	customers map[string]models.Customer
	mu        sync.RWMutex
}

// NewMockCustomerRepository creates a new instance of MockCustomerRepository.
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		customers: make(map[string]models.Customer),
	}
}

// Create adds a new customer. Usernames are unique.
func (r *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.customers {
		if c.Username == customer.Username {
			return fmt.Errorf("failed to create customer: username %s already exists", customer.Username)
		}
	}
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	r.customers[customer.ID] = *customer
	return nil
}

// GetByUsername returns a customer by username.
func (r *MockCustomerRepository) GetByUsername(ctx context.Context, username string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.customers {
		if c.Username == username {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("customer with username %s: %w", username, ErrNotFound)
}

// GetByID returns a customer by ID.
func (r *MockCustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer with ID %s: %w", id, ErrNotFound)
	}
	return &c, nil
}

// CountByRole returns the number of accounts per role, ordered by role.
func (r *MockCustomerRepository) CountByRole(ctx context.Context) ([]models.RoleCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byRole := make(map[models.Role]int64)
	for _, c := range r.customers {
		byRole[c.Role]++
	}
	counts := make([]models.RoleCount, 0, len(byRole))
	for role, n := range byRole {
		counts = append(counts, models.RoleCount{Role: role, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Role < counts[j].Role })
	return counts, nil
}
