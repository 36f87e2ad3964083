package repositories

import (
	"fmt"

	"hystore/internal/models"

	"gorm.io/gorm"
)

// Set groups the repositories backing one storage engine.
type Set struct {
	Products  ProductRepository
	Customers CustomerRepository
	Carts     CartRepository
	Orders    OrderRepository
	Reports   ReportRepository
	Checkout  CheckoutStore
}

// AutoMigrate creates or updates the schema for every model.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Customer{},
		&models.Product{},
		&models.CartLine{},
		&models.Order{},
		&models.OrderLine{},
		&models.PublishedReport{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// NewGORMSet builds every repository on db.
func NewGORMSet(db *gorm.DB) *Set {
	return &Set{
		Products:  NewGORMProductRepository(db),
		Customers: NewGORMCustomerRepository(db),
		Carts:     NewGORMCartRepository(db),
		Orders:    NewGORMOrderRepository(db),
		Reports:   NewGORMReportRepository(db),
		Checkout:  NewGORMCheckoutStore(db),
	}
}

// NewMockSet builds in-memory repositories that share state with each other.
func NewMockSet() *Set {
	products := NewMockProductRepository()
	carts := NewMockCartRepository(products)
	orders := NewMockOrderRepository(products)
	return &Set{
		Products:  products,
		Customers: NewMockCustomerRepository(),
		Carts:     carts,
		Orders:    orders,
		Reports:   NewMockReportRepository(),
		Checkout:  NewMockCheckoutStore(carts, orders, products),
	}
}
