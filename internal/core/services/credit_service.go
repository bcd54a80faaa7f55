package services

import (
	"context"
	"fmt"

	"github.com/verdantlabs/carbon_registry_app/internal/apperrors"
	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	portsrepo "github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
	portssvc "github.com/verdantlabs/carbon_registry_app/internal/core/ports/services"
)

const listCreditsLimit = 200

// creditService provides read access to credit holdings.
type creditService struct {
	creditRepo portsrepo.CreditReader
}

// NewCreditService creates a new credit query service.
func NewCreditService(creditRepo portsrepo.CreditReader) portssvc.CreditSvcFacade {
	return &creditService{creditRepo: creditRepo}
}

var _ portssvc.CreditSvcFacade = (*creditService)(nil)

// GetCredit retrieves a credit the requester currently owns.
func (s *creditService) GetCredit(ctx context.Context, creditID string, requesterID string) (*domain.Credit, error) {
	credit, err := s.creditRepo.FindCreditByID(ctx, creditID)
	if err != nil {
		return nil, err
	}
	if credit.CurrentOwnerID != requesterID {
		return nil, apperrors.ErrForbidden
	}
	return credit, nil
}

// ListCredits lists the requester's credits, optionally filtered by status.
func (s *creditService) ListCredits(ctx context.Context, ownerID string, status *domain.CreditStatus) ([]domain.Credit, error) {
	return s.creditRepo.ListCreditsByOwner(ctx, ownerID, status, listCreditsLimit)
}

// WalletBalance aggregates the requester's holdings by credit status.
func (s *creditService) WalletBalance(ctx context.Context, ownerID string) (*domain.WalletBalance, error) {
	active, err := s.creditRepo.SumAmountByOwner(ctx, ownerID, domain.CreditActive)
	if err != nil {
		return nil, fmt.Errorf("failed to sum active credits: %w", err)
	}
	transferred, err := s.creditRepo.SumAmountByOwner(ctx, ownerID, domain.CreditTransferred)
	if err != nil {
		return nil, fmt.Errorf("failed to sum transferred credits: %w", err)
	}
	retired, err := s.creditRepo.SumAmountByOwner(ctx, ownerID, domain.CreditRetired)
	if err != nil {
		return nil, fmt.Errorf("failed to sum retired credits: %w", err)
	}
	return &domain.WalletBalance{
		Active:      active,
		Transferred: transferred,
		Retired:     retired,
		Total:       active.Add(transferred).Add(retired),
	}, nil
}
