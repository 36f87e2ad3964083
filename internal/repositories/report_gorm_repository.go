package repositories

import (
	"context"
	"errors"
	"fmt"

	"hystore/internal/models"

	"gorm.io/gorm"
)

// GORMReportRepository is a GORM implementation of ReportRepository.
type GORMReportRepository struct {
	db *gorm.DB
}

// NewGORMReportRepository creates a new instance of GORMReportRepository.
func NewGORMReportRepository(db *gorm.DB) *GORMReportRepository {
	return &GORMReportRepository{db: db}
}

// Publish stores report under the next version. The unique index on version
// rejects a concurrent publisher that read the same maximum.
func (r *GORMReportRepository) Publish(ctx context.Context, report *models.PublishedReport) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest int64
		if err := tx.Model(&models.PublishedReport{}).Select("COALESCE(MAX(version), 0)").Row().Scan(&latest); err != nil {
			return err
		}
		report.Version = latest + 1
		return tx.Create(report).Error
	})
	if err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	return nil
}

// Latest returns the most recent report.
func (r *GORMReportRepository) Latest(ctx context.Context) (*models.PublishedReport, error) {
	var report models.PublishedReport
	if err := r.db.WithContext(ctx).Order("version DESC").First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("published report: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest report: %w", err)
	}
	return &report, nil
}
