package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/carbon_registry_app/internal/apperrors"
	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/ledger"
	portsrepo "github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
	portssvc "github.com/verdantlabs/carbon_registry_app/internal/core/ports/services"
	"github.com/verdantlabs/carbon_registry_app/internal/dto"
	"github.com/verdantlabs/carbon_registry_app/internal/middleware"
	"github.com/verdantlabs/carbon_registry_app/internal/utils"
)

// reconciliationService orchestrates validate -> ledger -> commit -> audit
// for each credit lifecycle transition. The chain is called before any
// durable write, so a ledger failure leaves the record store untouched; a
// commit failure after a confirmed chain operation is drift, logged as a
// reconciliation warning and surfaced as ErrReconciliation.
type reconciliationService struct {
	reportRepo      portsrepo.ReportRepositoryFacade
	creditRepo      portsrepo.CreditReader
	userRepo        portsrepo.UserReader
	reconRepo       portsrepo.ReconciliationRepository
	chain           ledger.Client
	analytics       *utils.PosthogClientWrapper
	contractAddress string
	verifyProof     bool
}

// NewReconciliationService creates the Reconciliation Engine.
func NewReconciliationService(
	reportRepo portsrepo.ReportRepositoryFacade,
	creditRepo portsrepo.CreditReader,
	userRepo portsrepo.UserReader,
	reconRepo portsrepo.ReconciliationRepository,
	chain ledger.Client,
	analytics *utils.PosthogClientWrapper,
	contractAddress string,
	verifyProof bool,
) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		reportRepo:      reportRepo,
		creditRepo:      creditRepo,
		userRepo:        userRepo,
		reconRepo:       reconRepo,
		chain:           chain,
		analytics:       analytics,
		contractAddress: contractAddress,
		verifyProof:     verifyProof,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// chainReportHandle derives the numeric handle the registry contract keys
// reports by. FNV keeps it deterministic across restarts.
func chainReportHandle(reportID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(reportID))
	return int64(h.Sum64() >> 1)
}

// ApproveReport implements the issue intent.
func (s *reconciliationService) ApproveReport(ctx context.Context, reportID string, reviewer *domain.User, req dto.ApproveReportRequest) (*domain.Report, *domain.Credit, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	report, err := s.reportRepo.FindReportByID(ctx, reportID)
	if err != nil {
		return nil, nil, err
	}
	if report.Status != domain.ReportPending {
		return nil, nil, fmt.Errorf("%w: report %s is not pending", apperrors.ErrValidation, reportID)
	}

	company, err := s.userRepo.FindUserByID(ctx, report.CompanyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve report company: %w", err)
	}
	if !company.HasWallet() {
		return nil, nil, fmt.Errorf("%w: company wallet address not linked", apperrors.ErrValidation)
	}

	creditsToIssue := report.EstimatedCredits
	if req.IssuedCredits != nil {
		creditsToIssue = *req.IssuedCredits
	}
	if !creditsToIssue.IsPositive() {
		return nil, nil, fmt.Errorf("%w: issued credits must be positive", apperrors.ErrValidation)
	}

	// Companion registration is best-effort: its failure is logged and
	// counted, never propagated into the approval outcome.
	if report.LedgerReportID == nil {
		s.registerReportOnChain(ctx, report, *company.WalletAddress, reviewer.UserID)
	}

	metadata, _ := json.Marshal(map[string]string{
		"reportId": report.ReportID,
		"title":    report.Title,
		"company":  company.Email,
	})

	mint, err := s.chain.Issue(ctx, *company.WalletAddress, creditsToIssue, string(metadata))
	if err != nil {
		logger.Error("Ledger mint failed, report left pending",
			slog.String("report_id", reportID), slog.String("error", err.Error()))
		return nil, nil, err
	}

	// Everything from here on is the committing stage: the mint is already
	// confirmed on chain, so any failure below is drift, not rollback.
	now := time.Now().UTC()
	year := now.Year()

	creditSeq, err := s.reconRepo.NextSequence(ctx, domain.SeqCredits, year)
	if err != nil {
		return nil, nil, s.reportDrift(ctx, reviewer.UserID, reportID, mint.TxHash, "credit sequence allocation", err)
	}
	txnSeq, err := s.reconRepo.NextSequence(ctx, domain.SeqTransactions, year)
	if err != nil {
		return nil, nil, s.reportDrift(ctx, reviewer.UserID, reportID, mint.TxHash, "transaction sequence allocation", err)
	}

	txHash := mint.TxHash
	credit := domain.Credit{
		CreditID:        domain.FormatSequenceID(domain.PrefixCredit, year, creditSeq),
		ReportID:        report.ReportID,
		CompanyID:       report.CompanyID,
		Amount:          creditsToIssue,
		Status:          domain.CreditActive,
		CurrentOwnerID:  report.CompanyID,
		OriginalOwnerID: report.CompanyID,
		LedgerTxHash:    &txHash,
		TokenID:         mint.TokenID,
		IssuedAt:        now,
		AuditFields:     domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	if s.contractAddress != "" {
		addr := s.contractAddress
		credit.ContractAddress = &addr
	}

	companyID := report.CompanyID
	txn := domain.Transaction{
		TransactionID: domain.FormatSequenceID(domain.PrefixTransaction, year, txnSeq),
		Type:          domain.TxnIssued,
		ToUserID:      &companyID,
		CreditID:      credit.CreditID,
		Amount:        creditsToIssue,
		LedgerTxHash:  &txHash,
		BlockNumber:   mint.BlockNumber,
		Status:        domain.TxnConfirmed,
		CreatedAt:     now,
		ConfirmedAt:   &now,
	}

	notes := req.Notes
	if notes == "" {
		notes = "Report approved and credits issued"
	}
	issued := creditsToIssue
	entry := domain.AuditEntry{
		AuditID:        uuid.NewString(),
		Action:         domain.AuditApproved,
		ReportID:       report.ReportID,
		ReportTitle:    report.Title,
		CompanyID:      report.CompanyID,
		CompanyName:    company.DisplayName(),
		VerifierID:     reviewer.UserID,
		VerifierName:   reviewer.DisplayName(),
		Notes:          notes,
		CreditsIssued:  &issued,
		PreviousStatus: domain.ReportPending,
		NewStatus:      domain.ReportApproved,
		CreatedAt:      now,
	}

	approval := domain.ReportApproval{
		ReportID:      report.ReportID,
		IssuedCredits: creditsToIssue,
		ReviewedAt:    now,
		ReviewerID:    reviewer.UserID,
		LedgerTxHash:  txHash,
	}

	if err := s.reconRepo.CommitIssue(ctx, approval, credit, txn, entry); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// A concurrent approval won the status guard. The chain now
			// carries this mint with no matching credit row.
			s.warnDrift(ctx, reviewer.UserID, reportID, mint.TxHash, "approval lost status guard to concurrent review")
			return nil, nil, fmt.Errorf("%w: report %s was reviewed concurrently", apperrors.ErrConflict, reportID)
		}
		return nil, nil, s.reportDrift(ctx, reviewer.UserID, reportID, mint.TxHash, "issue commit", err)
	}

	report.Status = domain.ReportApproved
	report.IssuedCredits = &issued
	report.ReviewedAt = &now
	reviewerID := reviewer.UserID
	report.ReviewedBy = &reviewerID
	report.LedgerTxHash = &txHash
	report.UpdatedAt = now

	logger.Info("Report approved and credits issued",
		slog.String("report_id", report.ReportID),
		slog.String("credit_id", credit.CreditID),
		slog.String("tx_hash", txHash))
	return report, &credit, nil
}

// RejectReport implements the reject intent. No ledger interaction.
func (s *reconciliationService) RejectReport(ctx context.Context, reportID string, reviewer *domain.User, req dto.RejectReportRequest) (*domain.Report, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.RejectionReason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", apperrors.ErrValidation)
	}

	report, err := s.reportRepo.FindReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status != domain.ReportPending {
		return nil, fmt.Errorf("%w: report %s is not pending", apperrors.ErrValidation, reportID)
	}

	company, err := s.userRepo.FindUserByID(ctx, report.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report company: %w", err)
	}

	now := time.Now().UTC()
	notes := req.Notes
	if notes == "" {
		notes = req.RejectionReason
	}

	rejection := domain.ReportRejection{
		ReportID:   report.ReportID,
		Reason:     req.RejectionReason,
		ReviewedAt: now,
		ReviewerID: reviewer.UserID,
	}
	entry := domain.AuditEntry{
		AuditID:        uuid.NewString(),
		Action:         domain.AuditRejected,
		ReportID:       report.ReportID,
		ReportTitle:    report.Title,
		CompanyID:      report.CompanyID,
		CompanyName:    company.DisplayName(),
		VerifierID:     reviewer.UserID,
		VerifierName:   reviewer.DisplayName(),
		Notes:          notes,
		PreviousStatus: domain.ReportPending,
		NewStatus:      domain.ReportRejected,
		CreatedAt:      now,
	}

	if err := s.reconRepo.CommitReject(ctx, rejection, entry); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: report %s was reviewed concurrently", apperrors.ErrConflict, reportID)
		}
		logger.Error("Failed to commit rejection", slog.String("report_id", reportID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to commit rejection: %w", err)
	}

	reason := req.RejectionReason
	reviewerID := reviewer.UserID
	report.Status = domain.ReportRejected
	report.RejectionReason = &reason
	report.ReviewedAt = &now
	report.ReviewedBy = &reviewerID
	report.UpdatedAt = now

	logger.Info("Report rejected", slog.String("report_id", report.ReportID))
	return report, nil
}

// TransferCredit implements the transfer intent. The chain transfer itself
// was executed by the owner's signing context; the engine validates the
// supplied proof and records the ownership change.
func (s *reconciliationService) TransferCredit(ctx context.Context, creditID string, callerID string, req dto.TransferCreditRequest) (*domain.Credit, *domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	credit, err := s.creditRepo.FindCreditByID(ctx, creditID)
	if err != nil {
		return nil, nil, err
	}
	if credit.CurrentOwnerID != callerID {
		return nil, nil, fmt.Errorf("%w: credit %s is not owned by caller", apperrors.ErrForbidden, creditID)
	}
	if credit.Status != domain.CreditActive {
		return nil, nil, fmt.Errorf("%w: credit %s is not active", apperrors.ErrValidation, creditID)
	}
	if !ledger.IsValidAddress(req.ToAddress) {
		return nil, nil, fmt.Errorf("%w: destination is not a valid chain address", apperrors.ErrValidation)
	}
	if !ledger.IsValidTxHash(req.LedgerTxHash) {
		return nil, nil, fmt.Errorf("%w: ledger transaction hash is malformed", apperrors.ErrValidation)
	}

	// Credits must never become unreachable: an unregistered destination is
	// a hard failure, not a warning.
	recipient, err := s.userRepo.FindUserByWalletAddress(ctx, req.ToAddress)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: destination address is not registered", apperrors.ErrValidation)
		}
		return nil, nil, fmt.Errorf("failed to resolve destination address: %w", err)
	}
	if recipient.UserID == callerID {
		return nil, nil, fmt.Errorf("%w: cannot transfer a credit to yourself", apperrors.ErrValidation)
	}

	if s.verifyProof {
		confirmed, err := s.chain.TransactionConfirmed(ctx, req.LedgerTxHash)
		if err != nil {
			return nil, nil, err
		}
		if !confirmed {
			return nil, nil, fmt.Errorf("%w: supplied transaction is not confirmed on chain", apperrors.ErrValidation)
		}
	}

	now := time.Now().UTC()
	txnSeq, err := s.reconRepo.NextSequence(ctx, domain.SeqTransactions, now.Year())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to allocate transaction id: %w", err)
	}

	txHash := req.LedgerTxHash
	recipientID := recipient.UserID
	txn := domain.Transaction{
		TransactionID: domain.FormatSequenceID(domain.PrefixTransaction, now.Year(), txnSeq),
		Type:          domain.TxnTransferred,
		FromUserID:    &callerID,
		ToUserID:      &recipientID,
		CreditID:      credit.CreditID,
		Amount:        credit.Amount,
		LedgerTxHash:  &txHash,
		Status:        domain.TxnConfirmed,
		CreatedAt:     now,
		ConfirmedAt:   &now,
	}

	if err := s.reconRepo.CommitTransfer(ctx, credit.CreditID, recipient.UserID, now, txn); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, nil, fmt.Errorf("%w: credit %s changed state concurrently", apperrors.ErrConflict, creditID)
		}
		logger.Error("Failed to commit transfer", slog.String("credit_id", creditID), slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	credit.Status = domain.CreditTransferred
	credit.CurrentOwnerID = recipient.UserID
	credit.UpdatedAt = now

	logger.Info("Credit transferred",
		slog.String("credit_id", credit.CreditID),
		slog.String("to_user", recipient.UserID),
		slog.String("tx_hash", txHash))
	return credit, &txn, nil
}

// RetireCredit implements the retire intent. Retirement is terminal.
func (s *reconciliationService) RetireCredit(ctx context.Context, creditID string, callerID string, req dto.RetireCreditRequest) (*domain.Credit, *domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Reason == "" {
		return nil, nil, fmt.Errorf("%w: retirement reason is required", apperrors.ErrValidation)
	}

	credit, err := s.creditRepo.FindCreditByID(ctx, creditID)
	if err != nil {
		return nil, nil, err
	}
	if credit.CurrentOwnerID != callerID {
		return nil, nil, fmt.Errorf("%w: credit %s is not owned by caller", apperrors.ErrForbidden, creditID)
	}
	if credit.Status != domain.CreditActive {
		return nil, nil, fmt.Errorf("%w: credit %s is not active", apperrors.ErrValidation, creditID)
	}
	if !ledger.IsValidTxHash(req.LedgerTxHash) {
		return nil, nil, fmt.Errorf("%w: ledger transaction hash is malformed", apperrors.ErrValidation)
	}

	if s.verifyProof {
		confirmed, err := s.chain.TransactionConfirmed(ctx, req.LedgerTxHash)
		if err != nil {
			return nil, nil, err
		}
		if !confirmed {
			return nil, nil, fmt.Errorf("%w: supplied transaction is not confirmed on chain", apperrors.ErrValidation)
		}
	}

	now := time.Now().UTC()
	txnSeq, err := s.reconRepo.NextSequence(ctx, domain.SeqTransactions, now.Year())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to allocate transaction id: %w", err)
	}

	txHash := req.LedgerTxHash
	reason := req.Reason
	txn := domain.Transaction{
		TransactionID:    domain.FormatSequenceID(domain.PrefixTransaction, now.Year(), txnSeq),
		Type:             domain.TxnRetired,
		FromUserID:       &callerID,
		CreditID:         credit.CreditID,
		Amount:           credit.Amount,
		LedgerTxHash:     &txHash,
		Status:           domain.TxnConfirmed,
		RetirementReason: &reason,
		CreatedAt:        now,
		ConfirmedAt:      &now,
	}

	if err := s.reconRepo.CommitRetire(ctx, credit.CreditID, now, req.Reason, req.LedgerTxHash, txn); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, nil, fmt.Errorf("%w: credit %s changed state concurrently", apperrors.ErrConflict, creditID)
		}
		logger.Error("Failed to commit retirement", slog.String("credit_id", creditID), slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("failed to commit retirement: %w", err)
	}

	credit.Status = domain.CreditRetired
	credit.RetiredAt = &now
	credit.RetirementReason = &reason
	credit.LedgerTxHash = &txHash
	credit.UpdatedAt = now

	logger.Info("Credit retired",
		slog.String("credit_id", credit.CreditID),
		slog.String("reason", req.Reason))
	return credit, &txn, nil
}

// registerReportOnChain performs the best-effort companion registration of a
// report on the registry contract.
func (s *reconciliationService) registerReportOnChain(ctx context.Context, report *domain.Report, ownerAddress, actorID string) {
	logger := middleware.GetLoggerFromCtx(ctx)

	registryID, err := s.chain.RegisterReport(ctx, chainReportHandle(report.ReportID), ownerAddress)
	if err != nil {
		logger.Warn("Companion report registration failed",
			slog.String("report_id", report.ReportID),
			slog.String("error", err.Error()))
		s.analytics.Enqueue(actorID, utils.EventCompanionFailure, map[string]any{
			"report_id": report.ReportID,
			"error":     err.Error(),
		})
		return
	}
	if err := s.reportRepo.SetLedgerReportID(ctx, report.ReportID, registryID); err != nil {
		logger.Warn("Failed to record ledger report id",
			slog.String("report_id", report.ReportID),
			slog.String("error", err.Error()))
		return
	}
	report.LedgerReportID = &registryID
}

// warnDrift logs the committing-stage gap: the chain confirmed an operation
// the record store does not fully reflect.
func (s *reconciliationService) warnDrift(ctx context.Context, actorID, reportID, txHash, cause string) {
	middleware.GetLoggerFromCtx(ctx).Warn("Reconciliation drift: chain confirmed but record store did not commit",
		slog.Bool("reconciliation_drift", true),
		slog.String("report_id", reportID),
		slog.String("tx_hash", txHash),
		slog.String("cause", cause))
	s.analytics.Enqueue(actorID, utils.EventReconciliationDrift, map[string]any{
		"report_id": reportID,
		"tx_hash":   txHash,
		"cause":     cause,
	})
}

// reportDrift logs drift and returns the caller-visible error for it. The
// chain-side effect is real, so the message names the transaction an
// operator must reconcile against.
func (s *reconciliationService) reportDrift(ctx context.Context, actorID, reportID, txHash, stage string, err error) error {
	s.warnDrift(ctx, actorID, reportID, txHash, fmt.Sprintf("%s: %v", stage, err))
	return fmt.Errorf("%w: credits were minted on chain (tx %s) but the registry could not record them; manual reconciliation required", apperrors.ErrReconciliation, txHash)
}
