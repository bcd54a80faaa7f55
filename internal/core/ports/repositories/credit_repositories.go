package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
)

// CreditReader defines read operations for carbon credits. All credit writes
// go through the ReconciliationRepository so that each lifecycle transition
// commits atomically with its Transaction record.
type CreditReader interface {
	// FindCreditByID retrieves a specific credit by its human-readable ID.
	FindCreditByID(ctx context.Context, creditID string) (*domain.Credit, error)

	// ListCreditsByOwner retrieves the credits currently owned by a user,
	// optionally filtered by status, newest issuance first.
	ListCreditsByOwner(ctx context.Context, ownerID string, status *domain.CreditStatus, limit int) ([]domain.Credit, error)

	// SumAmountByOwner totals credit amounts for an owner in a given status.
	SumAmountByOwner(ctx context.Context, ownerID string, status domain.CreditStatus) (decimal.Decimal, error)
}

// CreditRepositoryFacade combines credit repository interfaces.
type CreditRepositoryFacade interface {
	CreditReader
}
