package repositories

import (
	"context"
	"fmt"

	"hystore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// AddOrMerge upserts a cart line on (customer_id, product_id). The update
// branch only runs while the merged quantity stays within models.MaxLineQuantity.
func (r *GORMCartRepository) AddOrMerge(ctx context.Context, line *models.CartLine) (*models.CartLine, error) {
	if line.Quantity > models.MaxLineQuantity {
		return nil, ErrQuantityLimit
	}
	var stored models.CartLine
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":                  gorm.Expr("cart_lines.quantity + excluded.quantity"),
				"preload_amount":            gorm.Expr("excluded.preload_amount"),
				"custom_message":            gorm.Expr("excluded.custom_message"),
				"personalization_image_ref": gorm.Expr("excluded.personalization_image_ref"),
				"updated_at":                gorm.Expr("excluded.updated_at"),
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("cart_lines.quantity + excluded.quantity <= ?", models.MaxLineQuantity),
			}},
		}
		res := tx.Clauses(upsert).Create(line)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrQuantityLimit
		}
		return tx.First(&stored, "customer_id = ? AND product_id = ?", line.CustomerID, line.ProductID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add product %s to cart of %s: %w", line.ProductID, line.CustomerID, err)
	}
	return &stored, nil
}

// ListByCustomer joins the customer's cart lines with the products table.
func (r *GORMCartRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.CartLineView, error) {
	var views []models.CartLineView
	err := r.db.WithContext(ctx).Table("cart_lines").
		Select("cart_lines.*, products.name AS product_name, products.price AS unit_price, products.image_ref AS image_ref").
		Joins("JOIN products ON products.id = cart_lines.product_id").
		Where("cart_lines.customer_id = ?", customerID).
		Order("cart_lines.id").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cart of %s: %w", customerID, err)
	}
	return withLineTotals(views), nil
}

// Delete removes the customer's line for a product.
func (r *GORMCartRepository) Delete(ctx context.Context, customerID, productID string) error {
	res := r.db.WithContext(ctx).Delete(&models.CartLine{}, "customer_id = ? AND product_id = ?", customerID, productID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart line: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart line for product %s: %w", productID, ErrNotFound)
	}
	return nil
}
