package repositories

import (
	"context"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
)

// ReportFilter narrows report listings. Nil fields match everything.
type ReportFilter struct {
	CompanyID *string
	Status    *domain.ReportStatus
	Limit     int
}

// ReportReader defines read operations for emission reports.
type ReportReader interface {
	// FindReportByID retrieves a specific report by its human-readable ID.
	FindReportByID(ctx context.Context, reportID string) (*domain.Report, error)

	// ListReports retrieves reports matching the filter, newest first.
	ListReports(ctx context.Context, filter ReportFilter) ([]domain.Report, error)
}

// ReportWriter defines write operations for emission reports.
type ReportWriter interface {
	// SaveReport persists a newly submitted report together with its
	// document references.
	SaveReport(ctx context.Context, report domain.Report) error

	// AppendDocuments attaches additional document references to a report
	// that is still pending. Returns apperrors.ErrConflict when the report
	// has already been reviewed.
	AppendDocuments(ctx context.Context, reportID string, docs []domain.Document) error

	// SetLedgerReportID records the external registry id returned by the
	// best-effort companion registration.
	SetLedgerReportID(ctx context.Context, reportID string, ledgerReportID int64) error
}

// ReportRepositoryFacade combines all report-related repository interfaces.
type ReportRepositoryFacade interface {
	ReportReader
	ReportWriter
}
