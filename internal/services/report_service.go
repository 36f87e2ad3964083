package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hystore/internal/models"
	"hystore/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const topProductsLimit = 5

// Dashboard is the combined admin report.
type Dashboard struct {
	UserCounts   []models.RoleCount   `json:"user_counts"`
	SalesSummary *models.SalesSummary `json:"sales_summary"`
}

// ReportService builds sales reports and manages the published report shown to advertisers.
type ReportService struct {
	customers repositories.CustomerRepository
	orders    repositories.OrderRepository
	reports   repositories.ReportRepository
	logger    *zap.Logger
}

func NewReportService(customers repositories.CustomerRepository, orders repositories.OrderRepository, reports repositories.ReportRepository, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{customers: customers, orders: orders, reports: reports, logger: logger}
}

// UserCounts returns the number of accounts per role.
func (s *ReportService) UserCounts(ctx context.Context) ([]models.RoleCount, error) {
	counts, err := s.customers.CountByRole(ctx)
	if err != nil {
		return nil, persistenceError("count users", err)
	}
	if counts == nil {
		counts = []models.RoleCount{}
	}
	return counts, nil
}

// SalesSummary returns total completed sales and the five most purchased products.
func (s *ReportService) SalesSummary(ctx context.Context) (*models.SalesSummary, error) {
	summary, err := s.orders.SalesSummary(ctx, topProductsLimit)
	if err != nil {
		return nil, persistenceError("summarize sales", err)
	}
	if summary.TopProducts == nil {
		summary.TopProducts = []models.ProductSales{}
	}
	return summary, nil
}

// Dashboard computes user counts and the sales summary concurrently.
func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.UserCounts(gctx)
		d.UserCounts = counts
		return err
	})
	g.Go(func() error {
		summary, err := s.SalesSummary(gctx)
		d.SalesSummary = summary
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Publish stores payload as the newest published report.
func (s *ReportService) Publish(ctx context.Context, publisherID string, payload json.RawMessage) (*models.PublishedReport, error) {
	if publisherID == "" {
		return nil, ErrUnauthenticated
	}
	if len(payload) == 0 || !json.Valid(payload) {
		return nil, ErrInvalidReport
	}

	report := &models.PublishedReport{
		PublisherID: publisherID,
		Payload:     string(payload),
		PublishedAt: time.Now().UTC(),
	}
	if err := s.reports.Publish(ctx, report); err != nil {
		return nil, persistenceError("publish report", err)
	}
	s.logger.Info("report published", zap.Int64("version", report.Version), zap.String("publisher_id", publisherID))
	return report, nil
}

// Latest returns the most recently published report.
func (s *ReportService) Latest(ctx context.Context) (*models.PublishedReport, error) {
	report, err := s.reports.Latest(ctx)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, persistenceError("read latest report", err)
	}
	return report, nil
}
