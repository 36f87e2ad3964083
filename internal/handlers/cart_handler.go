package handlers

import (
	"hystore/internal/middleware"
	"hystore/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartHandler handles HTTP requests for the caller's cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: newValidator(),
		logger:   logger,
	}
}

// RegisterRoutes registers the cart routes behind auth.
func (h *CartHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	cartRoutes := router.Group("/cart", auth)
	cartRoutes.Post("/", h.HandleAddToCart)
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/:productId", h.HandleRemoveFromCart)
}

// AddToCartRequest represents the request body for adding a HyCard to the cart.
// Omitted personalization fields reset any previous values on the same line.
type AddToCartRequest struct {
	ProductID               string          `json:"product_id" validate:"required"`
	Quantity                int             `json:"quantity" validate:"required,min=1,max=999"`
	PreloadAmount           decimal.Decimal `json:"preload_amount" validate:"gte=0"`
	CustomMessage           *string         `json:"custom_message" validate:"omitempty,max=500"`
	PersonalizationImageRef *string         `json:"personalization_image_ref" validate:"omitempty,max=500"`
}

// HandleAddToCart adds a line to the cart or merges it into the existing one.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	identity := middleware.IdentityFrom(c)
	line, err := h.service.AddOrMergeLine(c.UserContext(), identity.CustomerID, services.AddLineInput{
		ProductID:               req.ProductID,
		Quantity:                req.Quantity,
		PreloadAmount:           req.PreloadAmount,
		CustomMessage:           req.CustomMessage,
		PersonalizationImageRef: req.PersonalizationImageRef,
	})
	if err != nil {
		return respondError(c, h.logger, "Could not add item to cart", err)
	}

	return c.JSON(fiber.Map{
		"message": "Item added to cart with personalization!",
		"line":    line,
	})
}

// HandleGetCart lists the caller's cart lines with current product data.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	lines, err := h.service.ListLines(c.UserContext(), identity.CustomerID)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve cart", err)
	}
	return c.JSON(lines)
}

// HandleRemoveFromCart removes the caller's line for a product.
func (h *CartHandler) HandleRemoveFromCart(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	if err := h.service.RemoveLine(c.UserContext(), identity.CustomerID, c.Params("productId")); err != nil {
		return respondError(c, h.logger, "Could not remove item from cart", err)
	}
	return c.JSON(fiber.Map{"message": "Item removed from cart"})
}
