package handlers

import (
	"time"

	"hystore/internal/middleware"
	"hystore/internal/models"
	"hystore/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderEventStats reports what the order event consumer has processed.
type OrderEventStats interface {
	Stats() (int, decimal.Decimal)
}

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth     *services.AuthService
	Products *services.ProductService
	Carts    *services.CartService
	Orders   *services.OrderService
	Reports  *services.ReportService

	// OrderEvents is nil when no event consumer is running.
	OrderEvents OrderEventStats
}

// SetupRoutes mounts every handler under /api/v1 plus the /health probe.
func SetupRoutes(app *fiber.App, svc Services, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		}
		if svc.OrderEvents != nil {
			consumed, revenue := svc.OrderEvents.Stats()
			body["order_events"] = fiber.Map{
				"consumed": consumed,
				"revenue":  revenue.StringFixed(2),
			}
		}
		return c.JSON(body)
	})

	api := app.Group("/api/v1")
	auth := middleware.AuthRequired(svc.Auth, logger)

	NewAuthHandler(svc.Auth, logger).RegisterRoutes(api, auth)
	NewProductHandler(svc.Products, logger).RegisterRoutes(api, auth, middleware.RequireRoles(models.RoleAdmin))
	NewCartHandler(svc.Carts, logger).RegisterRoutes(api, auth)
	NewOrderHandler(svc.Orders, logger).RegisterRoutes(api, auth)
	NewReportHandler(svc.Reports, logger).RegisterRoutes(api, auth)
}
