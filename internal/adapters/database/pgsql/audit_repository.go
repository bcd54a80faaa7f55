package pgsql

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
	"github.com/verdantlabs/carbon_registry_app/internal/models"
)

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new read-side repository for the audit trail.
func NewAuditRepository(pool *pgxpool.Pool) repositories.AuditRepositoryFacade {
	return &auditRepository{pool: pool}
}

var _ repositories.AuditRepositoryFacade = (*auditRepository)(nil)

func toAuditDomain(m models.AuditEntry) domain.AuditEntry {
	return domain.AuditEntry{
		AuditID:        m.AuditID,
		Action:         domain.AuditAction(m.Action),
		ReportID:       m.ReportID,
		ReportTitle:    m.ReportTitle,
		CompanyID:      m.CompanyID,
		CompanyName:    m.CompanyName,
		VerifierID:     m.VerifierID,
		VerifierName:   m.VerifierName,
		Notes:          m.Notes,
		CreditsIssued:  m.CreditsIssued,
		PreviousStatus: domain.ReportStatus(m.PreviousStatus),
		NewStatus:      domain.ReportStatus(m.NewStatus),
		CreatedAt:      m.CreatedAt,
	}
}

const auditColumns = `audit_id, action, report_id, report_title, company_id, company_name, verifier_id, verifier_name, notes, credits_issued, previous_status, new_status, created_at`

// ListAuditEntries retrieves audit entries matching the filter, newest first.
func (r *auditRepository) ListAuditEntries(ctx context.Context, filter repositories.AuditFilter) ([]domain.AuditEntry, error) {
	builder := psql.Select(auditColumns).
		From("audit_entries").
		OrderBy("created_at DESC")
	if filter.Action != nil {
		builder = builder.Where(sq.Eq{"action": string(*filter.Action)})
	}
	if filter.VerifierID != nil {
		builder = builder.Where(sq.Eq{"verifier_id": *filter.VerifierID})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build audit list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var m models.AuditEntry
		err := rows.Scan(
			&m.AuditID,
			&m.Action,
			&m.ReportID,
			&m.ReportTitle,
			&m.CompanyID,
			&m.CompanyName,
			&m.VerifierID,
			&m.VerifierName,
			&m.Notes,
			&m.CreditsIssued,
			&m.PreviousStatus,
			&m.NewStatus,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		entries = append(entries, toAuditDomain(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit rows: %w", err)
	}
	return entries, nil
}

// GetAuditStats aggregates decision counts and the total credits issued
// across all approvals in a single pass.
func (r *auditRepository) GetAuditStats(ctx context.Context) (*domain.AuditStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE action = 'approved'),
			COUNT(*) FILTER (WHERE action = 'rejected'),
			COUNT(*) FILTER (WHERE action = 'reviewed'),
			COALESCE(SUM(credits_issued) FILTER (WHERE action = 'approved'), 0)
		FROM audit_entries;
	`
	var stats domain.AuditStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Approved,
		&stats.Rejected,
		&stats.Reviewed,
		&stats.CreditsIssued,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate audit stats: %w", err)
	}
	return &stats, nil
}
