package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verdantlabs/carbon_registry_app/internal/apperrors"
	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
	"github.com/verdantlabs/carbon_registry_app/internal/models"
)

// psql builds queries with $N placeholders for pgx.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new repository for emission report data.
func NewReportRepository(pool *pgxpool.Pool) repositories.ReportRepositoryFacade {
	return &reportRepository{pool: pool}
}

var _ repositories.ReportRepositoryFacade = (*reportRepository)(nil)

func toReportModel(rep domain.Report) (models.Report, error) {
	docs := rep.Documents
	if docs == nil {
		docs = []domain.Document{}
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return models.Report{}, fmt.Errorf("failed to encode documents for report %s: %w", rep.ReportID, err)
	}
	return models.Report{
		ReportID:          rep.ReportID,
		CompanyID:         rep.CompanyID,
		Title:             rep.Title,
		Category:          string(rep.Category),
		Description:       rep.Description,
		Methodology:       rep.Methodology,
		BaselineEmissions: rep.BaselineEmissions,
		ReportedEmissions: rep.ReportedEmissions,
		EstimatedCredits:  rep.EstimatedCredits,
		IssuedCredits:     rep.IssuedCredits,
		Status:            string(rep.Status),
		RejectionReason:   rep.RejectionReason,
		Documents:         raw,
		SubmittedAt:       rep.SubmittedAt,
		ReviewedAt:        rep.ReviewedAt,
		ReviewedBy:        rep.ReviewedBy,
		LedgerTxHash:      rep.LedgerTxHash,
		LedgerReportID:    rep.LedgerReportID,
		AuditFields: models.AuditFields{
			CreatedAt: rep.CreatedAt,
			UpdatedAt: rep.UpdatedAt,
		},
	}, nil
}

func toReportDomain(m models.Report) (domain.Report, error) {
	var docs []domain.Document
	if len(m.Documents) > 0 {
		if err := json.Unmarshal(m.Documents, &docs); err != nil {
			return domain.Report{}, fmt.Errorf("failed to decode documents for report %s: %w", m.ReportID, err)
		}
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return domain.Report{
		ReportID:          m.ReportID,
		CompanyID:         m.CompanyID,
		Title:             m.Title,
		Category:          domain.ReportCategory(m.Category),
		Description:       m.Description,
		Methodology:       m.Methodology,
		BaselineEmissions: m.BaselineEmissions,
		ReportedEmissions: m.ReportedEmissions,
		EstimatedCredits:  m.EstimatedCredits,
		IssuedCredits:     m.IssuedCredits,
		Status:            domain.ReportStatus(m.Status),
		RejectionReason:   m.RejectionReason,
		Documents:         docs,
		SubmittedAt:       m.SubmittedAt,
		ReviewedAt:        m.ReviewedAt,
		ReviewedBy:        m.ReviewedBy,
		LedgerTxHash:      m.LedgerTxHash,
		LedgerReportID:    m.LedgerReportID,
		AuditFields: domain.AuditFields{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}, nil
}

const reportColumns = `report_id, company_id, title, category, description, methodology, baseline_emissions, reported_emissions, estimated_credits, issued_credits, status, rejection_reason, documents, submitted_at, reviewed_at, reviewed_by, ledger_tx_hash, ledger_report_id, created_at, updated_at`

func scanReport(row pgx.Row) (*models.Report, error) {
	var m models.Report
	err := row.Scan(
		&m.ReportID,
		&m.CompanyID,
		&m.Title,
		&m.Category,
		&m.Description,
		&m.Methodology,
		&m.BaselineEmissions,
		&m.ReportedEmissions,
		&m.EstimatedCredits,
		&m.IssuedCredits,
		&m.Status,
		&m.RejectionReason,
		&m.Documents,
		&m.SubmittedAt,
		&m.ReviewedAt,
		&m.ReviewedBy,
		&m.LedgerTxHash,
		&m.LedgerReportID,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveReport inserts a newly submitted report with its document references.
func (r *reportRepository) SaveReport(ctx context.Context, report domain.Report) error {
	m, err := toReportModel(report)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
	`
	_, err = r.pool.Exec(ctx, query,
		m.ReportID, m.CompanyID, m.Title, m.Category, m.Description, m.Methodology,
		m.BaselineEmissions, m.ReportedEmissions, m.EstimatedCredits, m.IssuedCredits,
		m.Status, m.RejectionReason, m.Documents, m.SubmittedAt, m.ReviewedAt,
		m.ReviewedBy, m.LedgerTxHash, m.LedgerReportID, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: report %s already exists", apperrors.ErrDuplicate, report.ReportID)
		}
		return fmt.Errorf("failed to save report %s: %w", report.ReportID, err)
	}
	return nil
}

func (r *reportRepository) FindReportByID(ctx context.Context, reportID string) (*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE report_id = $1;`
	m, err := scanReport(r.pool.QueryRow(ctx, query, reportID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find report by ID %s: %w", reportID, err)
	}
	rep, err := toReportDomain(*m)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// ListReports retrieves reports matching the filter, newest first.
func (r *reportRepository) ListReports(ctx context.Context, filter repositories.ReportFilter) ([]domain.Report, error) {
	builder := psql.Select(reportColumns).
		From("reports").
		OrderBy("submitted_at DESC")
	if filter.CompanyID != nil {
		builder = builder.Where(sq.Eq{"company_id": *filter.CompanyID})
	}
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": string(*filter.Status)})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build report list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []domain.Report{}
	for rows.Next() {
		m, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		rep, err := toReportDomain(*m)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report rows: %w", err)
	}
	return reports, nil
}

// AppendDocuments attaches document references to a report that is still
// pending. The status guard runs in the UPDATE itself so a concurrent review
// cannot slip documents onto a finalized report.
func (r *reportRepository) AppendDocuments(ctx context.Context, reportID string, docs []domain.Document) error {
	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to encode documents for report %s: %w", reportID, err)
	}
	query := `
		UPDATE reports
		SET documents = documents || $1::jsonb, updated_at = now()
		WHERE report_id = $2 AND status = $3;
	`
	tag, err := r.pool.Exec(ctx, query, raw, reportID, string(domain.ReportPending))
	if err != nil {
		return fmt.Errorf("failed to append documents to report %s: %w", reportID, err)
	}
	if tag.RowsAffected() == 0 {
		// Row missing or already reviewed; distinguish for the caller.
		if _, err := r.FindReportByID(ctx, reportID); err != nil {
			return err
		}
		return fmt.Errorf("%w: report %s has already been reviewed", apperrors.ErrConflict, reportID)
	}
	return nil
}

// SetLedgerReportID records the external registry id from companion
// registration. Never overwrites an id that is already present.
func (r *reportRepository) SetLedgerReportID(ctx context.Context, reportID string, ledgerReportID int64) error {
	query := `
		UPDATE reports
		SET ledger_report_id = $1, updated_at = now()
		WHERE report_id = $2 AND ledger_report_id IS NULL;
	`
	_, err := r.pool.Exec(ctx, query, ledgerReportID, reportID)
	if err != nil {
		return fmt.Errorf("failed to set ledger report id for %s: %w", reportID, err)
	}
	return nil
}
