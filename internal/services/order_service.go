package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hystore/internal/locker"
	"hystore/internal/models"
	"hystore/internal/pricing"
	"hystore/internal/repositories"
	"hystore/pkg/rabbitmq"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventPublisher sends a message to a broker exchange.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// CheckoutResult is returned to the client after a successful checkout.
// TotalPrice is what was stored; DisplayTotal applies the caller's role discount.
type CheckoutResult struct {
	OrderID      string             `json:"order_id"`
	Status       models.OrderStatus `json:"status"`
	TotalPrice   decimal.Decimal    `json:"total"`
	DisplayTotal decimal.Decimal    `json:"display_total"`
	Lines        []models.OrderLine `json:"lines"`
}

// checkout states, logged as the transition engine advances
const (
	stateInitiated    = "initiated"
	statePriced       = "priced"
	stateOrderCreated = "order_created"
	stateLinesCopied  = "lines_copied"
	stateCartCleared  = "cart_cleared"
	stateCompleted    = "completed"
	stateFailed       = "failed"
)

// OrderService turns carts into orders and serves order history.
type OrderService struct {
	store     repositories.CheckoutStore
	orders    repositories.OrderRepository
	carts     *CartService
	locker    locker.Locker
	publisher EventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService. publisher may be nil, in which case no events are sent.
func NewOrderService(store repositories.CheckoutStore, orders repositories.OrderRepository, carts *CartService, lk locker.Locker, publisher EventPublisher, logger *zap.Logger) *OrderService {
	if lk == nil {
		lk = locker.NewKeyedMutex()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		store:     store,
		orders:    orders,
		carts:     carts,
		locker:    lk,
		publisher: publisher,
		logger:    logger,
	}
}

// Checkout converts the caller's whole cart into a completed order. Either
// the order exists with all its lines and the cart is empty, or nothing changed.
func (s *OrderService) Checkout(ctx context.Context, id *Identity) (*CheckoutResult, error) {
	if id == nil || id.CustomerID == "" {
		return nil, ErrUnauthenticated
	}
	log := s.logger.With(zap.String("customer_id", id.CustomerID))

	release, err := s.locker.Acquire(ctx, "checkout:"+id.CustomerID)
	if err != nil {
		return nil, persistenceError("acquire checkout lock", err)
	}
	defer release()
	log.Debug("checkout", zap.String("state", stateInitiated))

	var order *models.Order
	err = s.store.RunInTx(ctx, func(tx repositories.CheckoutTx) error {
		lines, err := tx.LockCartLines(id.CustomerID)
		if err != nil {
			return persistenceError("read cart", err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		prices, err := currentPrices(tx, lines)
		if err != nil {
			return err
		}
		if len(prices) == 0 {
			// every line points at a product that has since been deleted
			return ErrEmptyCart
		}
		lookup := func(productID string) (decimal.Decimal, error) {
			price, ok := prices[productID]
			if !ok {
				return decimal.Zero, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
			}
			return price, nil
		}

		total, err := pricing.CartTotal(lines, lookup)
		if err != nil {
			return err
		}
		if !total.IsPositive() {
			return ErrEmptyCart
		}
		if total.GreaterThan(models.MaxOrderTotal) {
			return ErrOrderTooLarge
		}
		log.Debug("checkout", zap.String("state", statePriced), zap.String("total", total.StringFixed(2)))

		order = &models.Order{
			CustomerID: id.CustomerID,
			TotalPrice: total,
			Status:     models.OrderStatusPending,
		}
		if err := tx.CreateOrder(order); err != nil {
			return persistenceError("create order", err)
		}
		log.Debug("checkout", zap.String("state", stateOrderCreated), zap.String("order_id", order.ID))

		orderLines := make([]models.OrderLine, 0, len(lines))
		lineIDs := make([]uint, 0, len(lines))
		for _, line := range lines {
			orderLines = append(orderLines, models.OrderLineFromCart(order.ID, line))
			lineIDs = append(lineIDs, line.ID)
		}
		if copied, err := pricing.OrderTotal(orderLines, lookup); err != nil || !copied.Equal(total) {
			return persistenceError("copy order lines", fmt.Errorf("order lines total %s does not match %s", copied.StringFixed(2), total.StringFixed(2)))
		}
		if err := tx.CreateOrderLines(orderLines); err != nil {
			return persistenceError("copy order lines", err)
		}
		order.Lines = orderLines
		log.Debug("checkout", zap.String("state", stateLinesCopied), zap.Int("lines", len(orderLines)))

		if err := tx.DeleteCartLines(id.CustomerID, lineIDs); err != nil {
			return persistenceError("clear cart", err)
		}
		log.Debug("checkout", zap.String("state", stateCartCleared))

		if err := tx.TransitionOrder(order.ID, models.OrderStatusPending, models.OrderStatusCompleted); err != nil {
			return persistenceError("complete order", err)
		}
		order.Status = models.OrderStatusCompleted
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrEmptyCart) && !errors.Is(err, ErrProductNotFound) && !errors.Is(err, ErrOrderTooLarge) && !errors.Is(err, ErrPersistence) {
			err = persistenceError("commit checkout", err)
		}
		log.Info("checkout", zap.String("state", stateFailed), zap.Error(err))
		return nil, err
	}
	log.Info("checkout", zap.String("state", stateCompleted), zap.String("order_id", order.ID))

	if s.carts != nil {
		s.carts.Invalidate(id.CustomerID)
	}
	s.publishCompleted(order)

	return &CheckoutResult{
		OrderID:      order.ID,
		Status:       order.Status,
		TotalPrice:   order.TotalPrice,
		DisplayTotal: pricing.DisplayTotal(order.TotalPrice, id.Role),
		Lines:        order.Lines,
	}, nil
}

// currentPrices reads the price of every product referenced by lines.
// Products that no longer exist are left out of the result.
func currentPrices(tx repositories.CheckoutTx, lines []models.CartLine) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		if _, ok := prices[line.ProductID]; ok {
			continue
		}
		product, err := tx.GetProduct(line.ProductID)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, persistenceError("read product", err)
		}
		prices[line.ProductID] = product.Price
	}
	return prices, nil
}

func (s *OrderService) publishCompleted(order *models.Order) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(models.OrderCompletedEvent{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		TotalPrice:  order.TotalPrice,
		LineCount:   len(order.Lines),
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to marshal order event", zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(rabbitmq.OrdersExchange, rabbitmq.OrderCompletedKey, body); err != nil {
		s.logger.Warn("failed to publish order completed event", zap.String("order_id", order.ID), zap.Error(err))
	}
}

// ListOrders returns the customer's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, customerID string) ([]models.Order, error) {
	if customerID == "" {
		return nil, ErrUnauthenticated
	}
	orders, err := s.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, persistenceError("list orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// GetOrder returns one of the customer's orders. Orders of other customers are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, customerID, orderID string) (*models.Order, error) {
	if customerID == "" {
		return nil, ErrUnauthenticated
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, persistenceError("get order", err)
	}
	if order.CustomerID != customerID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
