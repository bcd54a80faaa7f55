package repositories

import (
	"context"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
)

// TransactionReader defines read operations for reconciliation records.
// Transactions are append-only; they are written exclusively by the
// ReconciliationRepository commit operations.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction by its human-readable ID.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactionsForUser retrieves transactions where the user is the
	// source or destination, optionally filtered by type, newest first.
	ListTransactionsForUser(ctx context.Context, userID string, txnType *domain.TransactionType, limit int) ([]domain.Transaction, error)
}

// TransactionRepositoryFacade combines transaction repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
}
