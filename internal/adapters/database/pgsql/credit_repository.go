package pgsql

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/verdantlabs/carbon_registry_app/internal/apperrors"
	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
	"github.com/verdantlabs/carbon_registry_app/internal/models"
)

type creditRepository struct {
	pool *pgxpool.Pool
}

// NewCreditRepository creates a new read-side repository for credits.
// Credit writes happen only inside ReconciliationRepository commits.
func NewCreditRepository(pool *pgxpool.Pool) repositories.CreditRepositoryFacade {
	return &creditRepository{pool: pool}
}

var _ repositories.CreditRepositoryFacade = (*creditRepository)(nil)

func toCreditDomain(m models.Credit) domain.Credit {
	return domain.Credit{
		CreditID:         m.CreditID,
		ReportID:         m.ReportID,
		CompanyID:        m.CompanyID,
		Amount:           m.Amount,
		Status:           domain.CreditStatus(m.Status),
		CurrentOwnerID:   m.CurrentOwnerID,
		OriginalOwnerID:  m.OriginalOwnerID,
		RetiredAt:        m.RetiredAt,
		RetirementReason: m.RetirementReason,
		LedgerTxHash:     m.LedgerTxHash,
		TokenID:          m.TokenID,
		ContractAddress:  m.ContractAddress,
		IssuedAt:         m.IssuedAt,
		AuditFields: domain.AuditFields{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}
}

const creditColumns = `credit_id, report_id, company_id, amount, status, current_owner_id, original_owner_id, retired_at, retirement_reason, ledger_tx_hash, token_id, contract_address, issued_at, created_at, updated_at`

func scanCredit(row pgx.Row) (*models.Credit, error) {
	var m models.Credit
	err := row.Scan(
		&m.CreditID,
		&m.ReportID,
		&m.CompanyID,
		&m.Amount,
		&m.Status,
		&m.CurrentOwnerID,
		&m.OriginalOwnerID,
		&m.RetiredAt,
		&m.RetirementReason,
		&m.LedgerTxHash,
		&m.TokenID,
		&m.ContractAddress,
		&m.IssuedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *creditRepository) FindCreditByID(ctx context.Context, creditID string) (*domain.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits WHERE credit_id = $1;`
	m, err := scanCredit(r.pool.QueryRow(ctx, query, creditID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find credit by ID %s: %w", creditID, err)
	}
	c := toCreditDomain(*m)
	return &c, nil
}

// ListCreditsByOwner retrieves credits currently owned by a user, newest
// issuance first.
func (r *creditRepository) ListCreditsByOwner(ctx context.Context, ownerID string, status *domain.CreditStatus, limit int) ([]domain.Credit, error) {
	builder := psql.Select(creditColumns).
		From("credits").
		Where(sq.Eq{"current_owner_id": ownerID}).
		OrderBy("issued_at DESC")
	if status != nil {
		builder = builder.Where(sq.Eq{"status": string(*status)})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build credit list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list credits for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	credits := []domain.Credit{}
	for rows.Next() {
		m, err := scanCredit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit row: %w", err)
		}
		credits = append(credits, toCreditDomain(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credit rows: %w", err)
	}
	return credits, nil
}

// SumAmountByOwner totals credit amounts for an owner in a given status.
// COALESCE keeps an empty wallet at zero instead of NULL.
func (r *creditRepository) SumAmountByOwner(ctx context.Context, ownerID string, status domain.CreditStatus) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM credits
		WHERE current_owner_id = $1 AND status = $2;
	`
	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, ownerID, string(status)).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum credits for owner %s: %w", ownerID, err)
	}
	return sum, nil
}
