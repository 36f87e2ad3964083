package repositories

import (
	"context"
	"fmt"
	"sync"

	"hystore/internal/models"
)

// MockReportRepository is an in-memory implementation of ReportRepository.
type MockReportRepository struct {
	reports []models.PublishedReport
	mu      sync.RWMutex
}

// NewMockReportRepository creates a new instance of MockReportRepository.
func NewMockReportRepository() *MockReportRepository {
	return &MockReportRepository{}
}

// Publish appends report with the next version.
func (r *MockReportRepository) Publish(ctx context.Context, report *models.PublishedReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report.ID = uint(len(r.reports) + 1)
	report.Version = int64(len(r.reports) + 1)
	r.reports = append(r.reports, *report)
	return nil
}

// Latest returns the last published report.
func (r *MockReportRepository) Latest(ctx context.Context) (*models.PublishedReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.reports) == 0 {
		return nil, fmt.Errorf("published report: %w", ErrNotFound)
	}
	latest := r.reports[len(r.reports)-1]
	return &latest, nil
}
