package handlers

import (
	"encoding/json"

	"hystore/internal/middleware"
	"hystore/internal/models"
	"hystore/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ReportHandler serves admin reports and the published report for advertisers.
type ReportHandler struct {
	service *services.ReportService
	logger  *zap.Logger
}

func NewReportHandler(service *services.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{service: service, logger: logger}
}

// RegisterRoutes registers the report routes behind auth and the role gates.
func (h *ReportHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	reports := router.Group("/reports", auth)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	reports.Get("/user-count", adminOnly, h.HandleUserCount)
	reports.Get("/sales-summary", adminOnly, h.HandleSalesSummary)
	reports.Get("/dashboard", adminOnly, h.HandleDashboard)
	reports.Post("/publish", adminOnly, h.HandlePublish)
	reports.Get("/published", middleware.RequireRoles(models.RoleAdmin, models.RoleAdvertiser), h.HandlePublished)
}

func (h *ReportHandler) HandleUserCount(c *fiber.Ctx) error {
	counts, err := h.service.UserCounts(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "Could not count users", err)
	}
	return c.JSON(counts)
}

func (h *ReportHandler) HandleSalesSummary(c *fiber.Ctx) error {
	summary, err := h.service.SalesSummary(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "Could not summarize sales", err)
	}
	return c.JSON(fiber.Map{
		"total_sales":  summary.TotalSales.StringFixed(2),
		"top_products": summary.TopProducts,
	})
}

func (h *ReportHandler) HandleDashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "Could not build dashboard", err)
	}
	return c.JSON(fiber.Map{
		"user_counts": dashboard.UserCounts,
		"sales_summary": fiber.Map{
			"total_sales":  dashboard.SalesSummary.TotalSales.StringFixed(2),
			"top_products": dashboard.SalesSummary.TopProducts,
		},
	})
}

// PublishRequest carries the report an admin makes visible to advertisers.
type PublishRequest struct {
	ReportData json.RawMessage `json:"report_data"`
}

func (h *ReportHandler) HandlePublish(c *fiber.Ctx) error {
	var req PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	identity := middleware.IdentityFrom(c)
	report, err := h.service.Publish(c.UserContext(), identity.CustomerID, req.ReportData)
	if err != nil {
		return respondError(c, h.logger, "Could not publish report", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Report published successfully!",
		"version": report.Version,
	})
}

func (h *ReportHandler) HandlePublished(c *fiber.Ctx) error {
	report, err := h.service.Latest(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "No reports published yet.", err)
	}
	return c.JSON(fiber.Map{
		"report":       json.RawMessage(report.Payload),
		"version":      report.Version,
		"publisher_id": report.PublisherID,
		"published_at": report.PublishedAt,
	})
}
