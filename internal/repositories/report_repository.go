package repositories

import (
	"context"

	"hystore/internal/models"
)

// ReportRepository stores published reports as an append-only, versioned log.
type ReportRepository interface {
	// Publish assigns report the next version and stores it.
	Publish(ctx context.Context, report *models.PublishedReport) error
	// Latest returns the report with the highest version.
	Latest(ctx context.Context) (*models.PublishedReport, error)
}
