package services

import (
	"context"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
)

// CreditSvcFacade provides read access to credit holdings.
type CreditSvcFacade interface {
	// GetCredit retrieves a credit the requester currently owns.
	GetCredit(ctx context.Context, creditID string, requesterID string) (*domain.Credit, error)

	// ListCredits lists the requester's credits, optionally by status.
	ListCredits(ctx context.Context, ownerID string, status *domain.CreditStatus) ([]domain.Credit, error)

	// WalletBalance aggregates the requester's holdings by credit status.
	WalletBalance(ctx context.Context, ownerID string) (*domain.WalletBalance, error)
}
