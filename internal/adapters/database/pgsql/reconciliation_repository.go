package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verdantlabs/carbon_registry_app/internal/apperrors"
	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
)

type reconciliationRepository struct {
	pool *pgxpool.Pool
}

// NewReconciliationRepository creates the repository that performs the
// multi-row commits of the reconciliation engine. Every Commit* method runs
// inside a single database transaction; status-changing updates carry their
// expected prior status in the WHERE clause, and a guard miss rolls the
// whole commit back as ErrConflict.
func NewReconciliationRepository(pool *pgxpool.Pool) repositories.ReconciliationRepository {
	return &reconciliationRepository{pool: pool}
}

var _ repositories.ReconciliationRepository = (*reconciliationRepository)(nil)

// NextSequence atomically increments and returns the counter for a per-year
// id namespace. The upsert makes the first allocation of a new year race-free.
func (r *reconciliationRepository) NextSequence(ctx context.Context, namespace string, year int) (int64, error) {
	query := `
		INSERT INTO sequences (namespace, year, value)
		VALUES ($1, $2, 1)
		ON CONFLICT (namespace, year)
		DO UPDATE SET value = sequences.value + 1
		RETURNING value;
	`
	var value int64
	if err := r.pool.QueryRow(ctx, query, namespace, year).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to allocate sequence %s/%d: %w", namespace, year, err)
	}
	return value, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	query := `
		INSERT INTO transactions (transaction_id, type, from_user_id, to_user_id, credit_id, amount, ledger_tx_hash, block_number, status, retirement_reason, created_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := tx.Exec(ctx, query,
		txn.TransactionID,
		string(txn.Type),
		txn.FromUserID,
		txn.ToUserID,
		txn.CreditID,
		txn.Amount,
		txn.LedgerTxHash,
		txn.BlockNumber,
		string(txn.Status),
		txn.RetirementReason,
		txn.CreatedAt,
		txn.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

func insertAuditEntry(ctx context.Context, tx pgx.Tx, entry domain.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (audit_id, action, report_id, report_title, company_id, company_name, verifier_id, verifier_name, notes, credits_issued, previous_status, new_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := tx.Exec(ctx, query,
		entry.AuditID,
		string(entry.Action),
		entry.ReportID,
		entry.ReportTitle,
		entry.CompanyID,
		entry.CompanyName,
		entry.VerifierID,
		entry.VerifierName,
		entry.Notes,
		entry.CreditsIssued,
		string(entry.PreviousStatus),
		string(entry.NewStatus),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry %s: %w", entry.AuditID, err)
	}
	return nil
}

// CommitIssue finalizes an approval: the report flips to approved, and the
// credit, transaction record, and audit entry appear in the same commit.
func (r *reconciliationRepository) CommitIssue(ctx context.Context, approval domain.ReportApproval, credit domain.Credit, txn domain.Transaction, entry domain.AuditEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin issue commit: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	reportQuery := `
		UPDATE reports
		SET status = $1, issued_credits = $2, reviewed_at = $3, reviewed_by = $4, ledger_tx_hash = $5, updated_at = $3
		WHERE report_id = $6 AND status = $7;
	`
	tag, err := tx.Exec(ctx, reportQuery,
		string(domain.ReportApproved),
		approval.IssuedCredits,
		approval.ReviewedAt,
		approval.ReviewerID,
		approval.LedgerTxHash,
		approval.ReportID,
		string(domain.ReportPending),
	)
	if err != nil {
		return fmt.Errorf("failed to approve report %s: %w", approval.ReportID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: report %s is no longer pending", apperrors.ErrConflict, approval.ReportID)
	}

	creditQuery := `
		INSERT INTO credits (credit_id, report_id, company_id, amount, status, current_owner_id, original_owner_id, retired_at, retirement_reason, ledger_tx_hash, token_id, contract_address, issued_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err = tx.Exec(ctx, creditQuery,
		credit.CreditID,
		credit.ReportID,
		credit.CompanyID,
		credit.Amount,
		string(credit.Status),
		credit.CurrentOwnerID,
		credit.OriginalOwnerID,
		credit.RetiredAt,
		credit.RetirementReason,
		credit.LedgerTxHash,
		credit.TokenID,
		credit.ContractAddress,
		credit.IssuedAt,
		credit.CreatedAt,
		credit.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: report %s already has an issued credit", apperrors.ErrConflict, credit.ReportID)
		}
		return fmt.Errorf("failed to insert credit %s: %w", credit.CreditID, err)
	}

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}
	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit issue for report %s: %w", approval.ReportID, err)
	}
	return nil
}

// CommitReject finalizes a rejection with its audit entry.
func (r *reconciliationRepository) CommitReject(ctx context.Context, rejection domain.ReportRejection, entry domain.AuditEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin reject commit: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	reportQuery := `
		UPDATE reports
		SET status = $1, rejection_reason = $2, reviewed_at = $3, reviewed_by = $4, updated_at = $3
		WHERE report_id = $5 AND status = $6;
	`
	tag, err := tx.Exec(ctx, reportQuery,
		string(domain.ReportRejected),
		rejection.Reason,
		rejection.ReviewedAt,
		rejection.ReviewerID,
		rejection.ReportID,
		string(domain.ReportPending),
	)
	if err != nil {
		return fmt.Errorf("failed to reject report %s: %w", rejection.ReportID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: report %s is no longer pending", apperrors.ErrConflict, rejection.ReportID)
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rejection for report %s: %w", rejection.ReportID, err)
	}
	return nil
}

// CommitTransfer moves ownership of an active credit and appends the
// transaction record in the same commit.
func (r *reconciliationRepository) CommitTransfer(ctx context.Context, creditID string, newOwnerID string, updatedAt time.Time, txn domain.Transaction) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transfer commit: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	creditQuery := `
		UPDATE credits
		SET current_owner_id = $1, status = $2, updated_at = $3
		WHERE credit_id = $4 AND status = $5;
	`
	tag, err := tx.Exec(ctx, creditQuery, newOwnerID, string(domain.CreditTransferred), updatedAt, creditID, string(domain.CreditActive))
	if err != nil {
		return fmt.Errorf("failed to transfer credit %s: %w", creditID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: credit %s is no longer active", apperrors.ErrConflict, creditID)
	}

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transfer of credit %s: %w", creditID, err)
	}
	return nil
}

// CommitRetire terminally retires an active credit and appends the
// transaction record in the same commit.
func (r *reconciliationRepository) CommitRetire(ctx context.Context, creditID string, retiredAt time.Time, reason string, txHash string, txn domain.Transaction) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin retire commit: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	creditQuery := `
		UPDATE credits
		SET status = $1, retired_at = $2, retirement_reason = $3, ledger_tx_hash = $4, updated_at = $2
		WHERE credit_id = $5 AND status = $6;
	`
	tag, err := tx.Exec(ctx, creditQuery,
		string(domain.CreditRetired),
		retiredAt,
		reason,
		txHash,
		creditID,
		string(domain.CreditActive),
	)
	if err != nil {
		return fmt.Errorf("failed to retire credit %s: %w", creditID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: credit %s is no longer active", apperrors.ErrConflict, creditID)
	}

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit retirement of credit %s: %w", creditID, err)
	}
	return nil
}
