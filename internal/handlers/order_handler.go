package handlers

import (
	"hystore/internal/middleware"
	"hystore/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for checkout and order history.
type OrderHandler struct {
	service *services.OrderService
	logger  *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the checkout and order routes behind auth.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Post("/checkout", auth, h.HandleCheckout)
	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// HandleCheckout turns the caller's cart into a completed order.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	result, err := h.service.Checkout(c.UserContext(), identity)
	if err != nil {
		return respondError(c, h.logger, "Checkout failed", err)
	}

	return c.JSON(fiber.Map{
		"message":       "Checkout successful!",
		"order_id":      result.OrderID,
		"status":        result.Status,
		"total":         result.TotalPrice.StringFixed(2),
		"display_total": result.DisplayTotal.StringFixed(2),
		"lines":         result.Lines,
	})
}

// HandleGetOrders lists the caller's orders, newest first.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	orders, err := h.service.ListOrders(c.UserContext(), identity.CustomerID)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID returns one of the caller's orders.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	order, err := h.service.GetOrder(c.UserContext(), identity.CustomerID, c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve order", err)
	}
	return c.JSON(order)
}
