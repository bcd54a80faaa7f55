package pgsql

import (
	"context"
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

type transactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new read-side repository for the
// append-only transaction history.
func NewTransactionRepository(pool *pgxpool.Pool) repositories.TransactionRepositoryFacade {
	return &transactionRepository{pool: pool}
}

var _ repositories.TransactionRepositoryFacade = (*transactionRepository)(nil)

func toTransactionDomain(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:    m.TransactionID,
		Type:             domain.TransactionType(m.Type),
		FromUserID:       m.FromUserID,
		ToUserID:         m.ToUserID,
		CreditID:         m.CreditID,
		Amount:           m.Amount,
		LedgerTxHash:     m.LedgerTxHash,
		BlockNumber:      m.BlockNumber,
		Status:           domain.TransactionStatus(m.Status),
		RetirementReason: m.RetirementReason,
		CreatedAt:        m.CreatedAt,
		ConfirmedAt:      m.ConfirmedAt,
	}
}

const transactionColumns = `transaction_id, type, from_user_id, to_user_id, credit_id, amount, ledger_tx_hash, block_number, status, retirement_reason, created_at, confirmed_at`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.Type,
		&m.FromUserID,
		&m.ToUserID,
		&m.CreditID,
		&m.Amount,
		&m.LedgerTxHash,
		&m.BlockNumber,
		&m.Status,
		&m.RetirementReason,
		&m.CreatedAt,
		&m.ConfirmedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *transactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`
	m, err := scanTransaction(r.pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by ID %s: %w", transactionID, err)
	}
	t := toTransactionDomain(*m)
	return &t, nil
}

// ListTransactionsForUser retrieves transactions where the user appears on
// either side, newest first.
func (r *transactionRepository) ListTransactionsForUser(ctx context.Context, userID string, txnType *domain.TransactionType, limit int) ([]domain.Transaction, error) {
	builder := psql.Select(transactionColumns).
		From("transactions").
		Where(sq.Or{sq.Eq{"from_user_id": userID}, sq.Eq{"to_user_id": userID}}).
		OrderBy("created_at DESC")
	if txnType != nil {
		builder = builder.Where(sq.Eq{"type": string(*txnType)})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, toTransactionDomain(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction rows: %w", err)
	}
	return txns, nil
}
