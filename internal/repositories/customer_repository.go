package repositories

import (
	"context"

	"hystore/internal/models"
)

// CustomerRepository defines the interface for account data access.
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByUsername(ctx context.Context, username string) (*models.Customer, error)
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	CountByRole(ctx context.Context) ([]models.RoleCount, error)
}
