package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/verdantlabs/carbon_registry_app/internal/apperrors"
	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/ledger"
	portsrepo "github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
	portssvc "github.com/verdantlabs/carbon_registry_app/internal/core/ports/services"
	"github.com/verdantlabs/carbon_registry_app/internal/dto"
	"github.com/verdantlabs/carbon_registry_app/internal/middleware"
	"github.com/verdantlabs/carbon_registry_app/internal/utils"
)

const listReportsLimit = 200

// reportService manages report submission and retrieval.
type reportService struct {
	reportRepo portsrepo.ReportRepositoryFacade
	userRepo   portsrepo.UserReader
	sequences  portsrepo.SequenceAllocator
	chain      ledger.Client
	analytics  *utils.PosthogClientWrapper
}

// NewReportService creates a new report service.
func NewReportService(
	reportRepo portsrepo.ReportRepositoryFacade,
	userRepo portsrepo.UserReader,
	sequences portsrepo.SequenceAllocator,
	chain ledger.Client,
	analytics *utils.PosthogClientWrapper,
) portssvc.ReportSvcFacade {
	return &reportService{
		reportRepo: reportRepo,
		userRepo:   userRepo,
		sequences:  sequences,
		chain:      chain,
		analytics:  analytics,
	}
}

var _ portssvc.ReportSvcFacade = (*reportService)(nil)

// SubmitReport creates a pending report and, when the company has a linked
// wallet, fires the best-effort chain registration in the background.
func (s *reportService) SubmitReport(ctx context.Context, companyID string, req dto.SubmitReportRequest, docs []domain.Document) (*domain.Report, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	figures, err := req.Figures()
	if err != nil {
		return nil, err
	}

	company, err := s.userRepo.FindUserByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve submitting company: %w", err)
	}

	now := time.Now().UTC()
	seq, err := s.sequences.NextSequence(ctx, domain.SeqReports, now.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate report id: %w", err)
	}

	report := domain.Report{
		ReportID:          domain.FormatSequenceID(domain.PrefixReport, now.Year(), seq),
		CompanyID:         companyID,
		Title:             req.Title,
		Category:          domain.ReportCategory(req.Category),
		Description:       req.Description,
		Methodology:       req.Methodology,
		BaselineEmissions: figures.BaselineEmissions,
		ReportedEmissions: figures.ReportedEmissions,
		EstimatedCredits:  figures.EstimatedCredits,
		Status:            domain.ReportPending,
		Documents:         docs,
		SubmittedAt:       now,
		AuditFields:       domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}

	if err := s.reportRepo.SaveReport(ctx, report); err != nil {
		logger.Error("Failed to save report", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	if company.HasWallet() {
		s.registerInBackground(ctx, report.ReportID, *company.WalletAddress, companyID)
	}

	logger.Info("Report submitted", slog.String("report_id", report.ReportID), slog.String("company_id", companyID))
	return &report, nil
}

// registerInBackground runs the companion registry call detached from the
// request: submission already succeeded, so the outcome lands only in the
// log and the ops event counter.
func (s *reportService) registerInBackground(ctx context.Context, reportID, ownerAddress, companyID string) {
	logger := middleware.GetLoggerFromCtx(ctx)
	bgCtx := context.WithoutCancel(ctx)

	go func() {
		registryID, err := s.chain.RegisterReport(bgCtx, chainReportHandle(reportID), ownerAddress)
		if err != nil {
			logger.Warn("Companion report registration failed",
				slog.String("report_id", reportID),
				slog.String("error", err.Error()))
			s.analytics.Enqueue(companyID, utils.EventCompanionFailure, map[string]any{
				"report_id": reportID,
				"error":     err.Error(),
			})
			return
		}
		if err := s.reportRepo.SetLedgerReportID(bgCtx, reportID, registryID); err != nil {
			logger.Warn("Failed to record ledger report id",
				slog.String("report_id", reportID),
				slog.String("error", err.Error()))
		}
	}()
}

// GetReport retrieves a report, hiding other companies' reports from
// company-role requesters.
func (s *reportService) GetReport(ctx context.Context, reportID string, requester *domain.User) (*domain.Report, error) {
	report, err := s.reportRepo.FindReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if requester.Role == domain.RoleCompany && report.CompanyID != requester.UserID {
		return nil, apperrors.ErrForbidden
	}
	return report, nil
}

// ListReports lists reports visible to the requester, newest first.
func (s *reportService) ListReports(ctx context.Context, requester *domain.User, status *domain.ReportStatus) ([]domain.Report, error) {
	filter := portsrepo.ReportFilter{Status: status, Limit: listReportsLimit}
	if requester.Role == domain.RoleCompany {
		companyID := requester.UserID
		filter.CompanyID = &companyID
	}
	return s.reportRepo.ListReports(ctx, filter)
}

// AttachDocuments appends document references to a still-pending report.
func (s *reportService) AttachDocuments(ctx context.Context, reportID string, requester *domain.User, docs []domain.Document) (*domain.Report, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents supplied", apperrors.ErrValidation)
	}

	report, err := s.reportRepo.FindReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if requester.Role == domain.RoleCompany && report.CompanyID != requester.UserID {
		return nil, apperrors.ErrForbidden
	}
	if report.Status != domain.ReportPending {
		return nil, fmt.Errorf("%w: cannot modify a report that is not pending", apperrors.ErrValidation)
	}

	if err := s.reportRepo.AppendDocuments(ctx, reportID, docs); err != nil {
		return nil, fmt.Errorf("failed to attach documents: %w", err)
	}
	report.Documents = append(report.Documents, docs...)
	return report, nil
}

// ListPendingReviews lists the regulator queue, oldest submission first.
func (s *reportService) ListPendingReviews(ctx context.Context) ([]domain.Report, error) {
	pending := domain.ReportPending
	reports, err := s.reportRepo.ListReports(ctx, portsrepo.ReportFilter{Status: &pending, Limit: listReportsLimit})
	if err != nil {
		return nil, err
	}
	// ListReports returns newest first; the review queue is served in
	// submission order.
	for i, j := 0, len(reports)-1; i < j; i, j = i+1, j-1 {
		reports[i], reports[j] = reports[j], reports[i]
	}
	return reports, nil
}
