package services

import (
	"context"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
)

// TransactionSvcFacade provides read access to reconciliation records.
type TransactionSvcFacade interface {
	// GetTransaction retrieves a transaction the requester is party to.
	GetTransaction(ctx context.Context, transactionID string, requesterID string) (*domain.Transaction, error)

	// ListTransactions lists transactions involving the requester,
	// optionally filtered by type, newest first.
	ListTransactions(ctx context.Context, requesterID string, txnType *domain.TransactionType) ([]domain.Transaction, error)
}
