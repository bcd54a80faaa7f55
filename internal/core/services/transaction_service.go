package services

import (
	"context"

	"github.com/verdantlabs/carbon_registry_app/internal/apperrors"
	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	portsrepo "github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
	portssvc "github.com/verdantlabs/carbon_registry_app/internal/core/ports/services"
)

const listTransactionsLimit = 100

// transactionService provides read access to reconciliation records.
type transactionService struct {
	txnRepo portsrepo.TransactionReader
}

// NewTransactionService creates a new transaction query service.
func NewTransactionService(txnRepo portsrepo.TransactionReader) portssvc.TransactionSvcFacade {
	return &transactionService{txnRepo: txnRepo}
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

// GetTransaction retrieves a transaction the requester is party to.
func (s *transactionService) GetTransaction(ctx context.Context, transactionID string, requesterID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	isFrom := txn.FromUserID != nil && *txn.FromUserID == requesterID
	isTo := txn.ToUserID != nil && *txn.ToUserID == requesterID
	if !isFrom && !isTo {
		return nil, apperrors.ErrForbidden
	}
	return txn, nil
}

// ListTransactions lists transactions involving the requester, newest first.
func (s *transactionService) ListTransactions(ctx context.Context, requesterID string, txnType *domain.TransactionType) ([]domain.Transaction, error) {
	return s.txnRepo.ListTransactionsForUser(ctx, requesterID, txnType, listTransactionsLimit)
}
