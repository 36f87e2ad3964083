package rabbitmq

import (
	"encoding/json"
	"sync"

	"hystore/internal/models"

	"github.com/shopspring/decimal"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// OrderEventHandler records completed orders seen on the order queue.
type OrderEventHandler struct {
	logger *zap.Logger

	mu        sync.Mutex
	completed int
	revenue   decimal.Decimal
}

func NewOrderEventHandler(logger *zap.Logger) *OrderEventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderEventHandler{logger: logger}
}

// Handle processes one delivery. Malformed or unknown messages are logged and
// dropped rather than requeued, since redelivery cannot fix them.
func (h *OrderEventHandler) Handle(msg amqp.Delivery) error {
	if msg.RoutingKey != OrderCompletedKey {
		h.logger.Warn("ignoring order event", zap.String("routing_key", msg.RoutingKey))
		return nil
	}

	var event models.OrderCompletedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.OrderID == "" {
		h.logger.Warn("dropping malformed order event", zap.ByteString("body", msg.Body), zap.Error(err))
		return nil
	}

	h.mu.Lock()
	h.completed++
	h.revenue = h.revenue.Add(event.TotalPrice)
	h.mu.Unlock()

	h.logger.Info("order completed",
		zap.String("order_id", event.OrderID),
		zap.String("customer_id", event.CustomerID),
		zap.String("total", event.TotalPrice.StringFixed(2)),
		zap.Int("lines", event.LineCount),
	)
	return nil
}

// Stats returns how many completed orders were handled and their summed totals.
func (h *OrderEventHandler) Stats() (int, decimal.Decimal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.completed, h.revenue
}
