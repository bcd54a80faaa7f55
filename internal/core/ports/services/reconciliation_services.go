package services

import (
	"context"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/dto"
)

// ReconciliationSvcFacade is the Reconciliation Engine: it orchestrates
// validate -> ledger -> commit -> audit for each credit lifecycle transition
// and keeps the record store consistent with what the chain confirmed.
//
// Role gating is the caller's responsibility; the engine validates entity
// state and ownership, not roles.
type ReconciliationSvcFacade interface {
	// ApproveReport mints credits for a pending report. On ledger failure
	// nothing is mutated and the report stays pending. On ledger success
	// the report update, new credit, transaction record, and audit entry
	// commit as one transaction; if that commit fails the drift between
	// chain and store is logged as a reconciliation warning.
	ApproveReport(ctx context.Context, reportID string, reviewer *domain.User, req dto.ApproveReportRequest) (*domain.Report, *domain.Credit, error)

	// RejectReport rejects a pending report. No ledger interaction.
	RejectReport(ctx context.Context, reportID string, reviewer *domain.User, req dto.RejectReportRequest) (*domain.Report, error)

	// TransferCredit records a transfer the owner executed on chain with
	// their own signing context, after validating the destination resolves
	// to a registered wallet and the supplied hash is well-formed.
	TransferCredit(ctx context.Context, creditID string, callerID string, req dto.TransferCreditRequest) (*domain.Credit, *domain.Transaction, error)

	// RetireCredit terminally retires an active credit owned by the caller.
	RetireCredit(ctx context.Context, creditID string, callerID string, req dto.RetireCreditRequest) (*domain.Credit, *domain.Transaction, error)
}
