package repositories

import (
	"context"
	"fmt"

	"hystore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCheckoutStore runs checkouts in a database transaction. On PostgreSQL
// the cart rows are locked with SELECT ... FOR UPDATE; SQLite serializes
// writers on its own.
type GORMCheckoutStore struct {
	db *gorm.DB
}

// NewGORMCheckoutStore creates a new instance of GORMCheckoutStore.
func NewGORMCheckoutStore(db *gorm.DB) *GORMCheckoutStore {
	return &GORMCheckoutStore{db: db}
}

// RunInTx implements CheckoutStore.
func (s *GORMCheckoutStore) RunInTx(ctx context.Context, fn func(tx CheckoutTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormCheckoutTx{tx: tx})
	})
}

type gormCheckoutTx struct {
	tx *gorm.DB
}

func (t *gormCheckoutTx) LockCartLines(customerID string) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ?", customerID).
		Order("id").
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart of %s: %w", customerID, err)
	}
	return lines, nil
}

func (t *gormCheckoutTx) GetProduct(productID string) (*models.Product, error) {
	return findProduct(t.tx, productID)
}

func (t *gormCheckoutTx) CreateOrder(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := t.tx.Omit(clause.Associations).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (t *gormCheckoutTx) CreateOrderLines(lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	if err := t.tx.Create(&lines).Error; err != nil {
		return fmt.Errorf("failed to create order lines: %w", err)
	}
	return nil
}

func (t *gormCheckoutTx) DeleteCartLines(customerID string, lineIDs []uint) error {
	if len(lineIDs) == 0 {
		return nil
	}
	res := t.tx.Where("customer_id = ? AND id IN ?", customerID, lineIDs).Delete(&models.CartLine{})
	if res.Error != nil {
		return fmt.Errorf("failed to clear cart of %s: %w", customerID, res.Error)
	}
	if res.RowsAffected != int64(len(lineIDs)) {
		return fmt.Errorf("cleared %d of %d cart lines of %s", res.RowsAffected, len(lineIDs), customerID)
	}
	return nil
}

func (t *gormCheckoutTx) TransitionOrder(orderID string, from, to models.OrderStatus) error {
	res := t.tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("failed to move order %s to %s: %w", orderID, to, res.Error)
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("order %s is not %s", orderID, from)
	}
	return nil
}
