package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hystore/internal/cache"
	"hystore/internal/models"
	"hystore/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// AddLineInput is what a customer supplies when putting a HyCard in the cart.
// Optional fields left nil are stored as their defaults.
type AddLineInput struct {
	ProductID               string
	Quantity                int
	PreloadAmount           decimal.Decimal
	CustomMessage           *string
	PersonalizationImageRef *string
}

// CartService manages the per-customer cart.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	cache    cache.CartCache
	sfg      singleflight.Group
	logger   *zap.Logger
}

func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository, cartCache cache.CartCache, logger *zap.Logger) *CartService {
	if cartCache == nil {
		cartCache = cache.NoopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		carts:    carts,
		products: products,
		cache:    cartCache,
		logger:   logger,
	}
}

// AddOrMergeLine adds a product to the cart. If the customer already holds a
// line for the product its quantity grows by in.Quantity, and its preload
// amount, message and image reference are replaced by the new values.
func (s *CartService) AddOrMergeLine(ctx context.Context, customerID string, in AddLineInput) (*models.CartLine, error) {
	if customerID == "" {
		return nil, ErrUnauthenticated
	}
	if in.Quantity < 1 || in.Quantity > models.MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}
	if in.PreloadAmount.IsNegative() {
		return nil, ErrInvalidPreload
	}

	if _, err := s.products.GetByID(ctx, in.ProductID); err != nil {
		return nil, mapProductError("lookup product", err)
	}

	line, err := s.carts.AddOrMerge(ctx, &models.CartLine{
		CustomerID:              customerID,
		ProductID:               in.ProductID,
		Quantity:                in.Quantity,
		PreloadAmount:           in.PreloadAmount,
		CustomMessage:           blankToNil(in.CustomMessage),
		PersonalizationImageRef: blankToNil(in.PersonalizationImageRef),
	})
	if errors.Is(err, repositories.ErrQuantityLimit) {
		return nil, fmt.Errorf("%w: line for product %s would exceed %d", ErrInvalidQuantity, in.ProductID, models.MaxLineQuantity)
	}
	if err != nil {
		return nil, persistenceError("add cart line", err)
	}

	s.Invalidate(customerID)
	return line, nil
}

// ListLines returns the customer's cart joined with current catalog data, in insertion order.
func (s *CartService) ListLines(ctx context.Context, customerID string) ([]models.CartLineView, error) {
	if customerID == "" {
		return nil, ErrUnauthenticated
	}

	v, err, _ := s.sfg.Do(customerID, func() (interface{}, error) {
		lines, err := s.cache.Get(ctx, customerID)
		if err == nil {
			return lines, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", zap.String("customer_id", customerID), zap.Error(err))
		}

		// the generation is read before the database so that a mutation
		// committed in between makes the Set below a no-op
		version, versionErr := s.cache.Version(ctx, customerID)
		if versionErr != nil {
			s.logger.Warn("cart cache version failed", zap.String("customer_id", customerID), zap.Error(versionErr))
		}

		lines, err = s.carts.ListByCustomer(ctx, customerID)
		if err != nil {
			return nil, persistenceError("list cart", err)
		}
		if lines == nil {
			lines = []models.CartLineView{}
		}

		if versionErr == nil {
			err := s.cache.Set(ctx, customerID, version, lines)
			switch {
			case errors.Is(err, cache.ErrStaleVersion):
				s.logger.Debug("cart changed while listing, not cached", zap.String("customer_id", customerID))
			case err != nil:
				s.logger.Warn("cart cache set failed", zap.String("customer_id", customerID), zap.Error(err))
			}
		}
		return lines, nil
	})
	if err != nil {
		return nil, err
	}

	// callers sharing a singleflight result get their own slice
	shared := v.([]models.CartLineView)
	return append(make([]models.CartLineView, 0, len(shared)), shared...), nil
}

// RemoveLine drops the customer's line for a product.
func (s *CartService) RemoveLine(ctx context.Context, customerID, productID string) error {
	if customerID == "" {
		return ErrUnauthenticated
	}
	if err := s.carts.Delete(ctx, customerID, productID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrLineNotFound
		}
		return persistenceError("remove cart line", err)
	}

	s.Invalidate(customerID)
	return nil
}

// Invalidate drops the cached listing of a customer's cart.
func (s *CartService) Invalidate(customerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, customerID); err != nil {
		s.logger.Warn("cart cache invalidate failed", zap.String("customer_id", customerID), zap.Error(err))
	}
}

func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
