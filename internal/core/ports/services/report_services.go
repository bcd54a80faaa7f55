package services

import (
	"context"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/dto"
)

// ReportSvcFacade manages emission report submission and retrieval.
// Review decisions (approve/reject) belong to the ReconciliationSvcFacade.
type ReportSvcFacade interface {
	// SubmitReport creates a pending report for the company, stores the
	// uploaded document references, and fires the best-effort chain
	// registration when the company has a linked wallet.
	SubmitReport(ctx context.Context, companyID string, req dto.SubmitReportRequest, docs []domain.Document) (*domain.Report, error)

	// GetReport retrieves a report. Companies can only see their own.
	GetReport(ctx context.Context, reportID string, requester *domain.User) (*domain.Report, error)

	// ListReports lists reports visible to the requester, newest first.
	// Companies see their own; regulators and admins see all.
	ListReports(ctx context.Context, requester *domain.User, status *domain.ReportStatus) ([]domain.Report, error)

	// AttachDocuments adds document references to a still-pending report
	// owned by the requester.
	AttachDocuments(ctx context.Context, reportID string, requester *domain.User, docs []domain.Document) (*domain.Report, error)

	// ListPendingReviews lists all pending reports, oldest first, for the
	// regulator queue.
	ListPendingReviews(ctx context.Context) ([]domain.Report, error)
}
