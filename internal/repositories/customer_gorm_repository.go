package repositories

import (
	"context"
	"errors"
	"fmt"

	"hystore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCustomerRepository is a GORM implementation of CustomerRepository.
type GORMCustomerRepository struct {
	db *gorm.DB
}

// NewGORMCustomerRepository creates a new instance of GORMCustomerRepository.
func NewGORMCustomerRepository(db *gorm.DB) *GORMCustomerRepository {
	return &GORMCustomerRepository{
		db: db,
	}
}

// Create creates a new customer in the database.
func (r *GORMCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// GetByUsername retrieves a customer by their username from the database.
func (r *GORMCustomerRepository) GetByUsername(ctx context.Context, username string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer with username %s: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get customer by username %s: %w", username, err)
	}
	return &customer, nil
}

// GetByID retrieves a customer by their ID from the database.
func (r *GORMCustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get customer by ID %s: %w", id, err)
	}
	return &customer, nil
}

// CountByRole returns the number of accounts per role.
func (r *GORMCustomerRepository) CountByRole(ctx context.Context) ([]models.RoleCount, error) {
	var counts []models.RoleCount
	err := r.db.WithContext(ctx).Model(&models.Customer{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Order("role").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count customers by role: %w", err)
	}
	return counts, nil
}
