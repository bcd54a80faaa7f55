package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/verdantlabs/carbon_registry_app/internal/apperrors"
	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/ledger"
	portsrepo "github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
	portssvc "github.com/verdantlabs/carbon_registry_app/internal/core/ports/services"
	"github.com/verdantlabs/carbon_registry_app/internal/core/services"
	"github.com/verdantlabs/carbon_registry_app/internal/dto"
	"github.com/verdantlabs/carbon_registry_app/internal/utils"
)

const (
	testWallet      = "0x1111111111111111111111111111111111111111"
	otherWallet     = "0x2222222222222222222222222222222222222222"
	testTxHash      = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testProofTxHash = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// --- Mock ReportRepository ---
type MockReportRepository struct {
	mock.Mock
}

var _ portsrepo.ReportRepositoryFacade = (*MockReportRepository)(nil)

func (m *MockReportRepository) FindReportByID(ctx context.Context, reportID string) (*domain.Report, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func (m *MockReportRepository) ListReports(ctx context.Context, filter portsrepo.ReportFilter) ([]domain.Report, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Report), args.Error(1)
}

func (m *MockReportRepository) SaveReport(ctx context.Context, report domain.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) AppendDocuments(ctx context.Context, reportID string, docs []domain.Document) error {
	args := m.Called(ctx, reportID, docs)
	return args.Error(0)
}

func (m *MockReportRepository) SetLedgerReportID(ctx context.Context, reportID string, ledgerReportID int64) error {
	args := m.Called(ctx, reportID, ledgerReportID)
	return args.Error(0)
}

// --- Mock CreditReader ---
type MockCreditReader struct {
	mock.Mock
}

var _ portsrepo.CreditReader = (*MockCreditReader)(nil)

func (m *MockCreditReader) FindCreditByID(ctx context.Context, creditID string) (*domain.Credit, error) {
	args := m.Called(ctx, creditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credit), args.Error(1)
}

func (m *MockCreditReader) ListCreditsByOwner(ctx context.Context, ownerID string, status *domain.CreditStatus, limit int) ([]domain.Credit, error) {
	args := m.Called(ctx, ownerID, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Credit), args.Error(1)
}

func (m *MockCreditReader) SumAmountByOwner(ctx context.Context, ownerID string, status domain.CreditStatus) (decimal.Decimal, error) {
	args := m.Called(ctx, ownerID, status)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock UserReader ---
type MockUserReader struct {
	mock.Mock
}

var _ portsrepo.UserReader = (*MockUserReader)(nil)

func (m *MockUserReader) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserReader) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserReader) FindUserByWalletAddress(ctx context.Context, address string) (*domain.User, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Mock ReconciliationRepository ---
type MockReconRepository struct {
	mock.Mock
}

var _ portsrepo.ReconciliationRepository = (*MockReconRepository)(nil)

func (m *MockReconRepository) NextSequence(ctx context.Context, namespace string, year int) (int64, error) {
	args := m.Called(ctx, namespace, year)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReconRepository) CommitIssue(ctx context.Context, approval domain.ReportApproval, credit domain.Credit, txn domain.Transaction, entry domain.AuditEntry) error {
	args := m.Called(ctx, approval, credit, txn, entry)
	return args.Error(0)
}

func (m *MockReconRepository) CommitReject(ctx context.Context, rejection domain.ReportRejection, entry domain.AuditEntry) error {
	args := m.Called(ctx, rejection, entry)
	return args.Error(0)
}

func (m *MockReconRepository) CommitTransfer(ctx context.Context, creditID string, newOwnerID string, updatedAt time.Time, txn domain.Transaction) error {
	args := m.Called(ctx, creditID, newOwnerID, updatedAt, txn)
	return args.Error(0)
}

func (m *MockReconRepository) CommitRetire(ctx context.Context, creditID string, retiredAt time.Time, reason string, txHash string, txn domain.Transaction) error {
	args := m.Called(ctx, creditID, retiredAt, reason, txHash, txn)
	return args.Error(0)
}

// --- Mock ledger.Client ---
type MockLedgerClient struct {
	mock.Mock
}

var _ ledger.Client = (*MockLedgerClient)(nil)

func (m *MockLedgerClient) Issue(ctx context.Context, to string, amount decimal.Decimal, metadata string) (*ledger.MintResult, error) {
	args := m.Called(ctx, to, amount, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.MintResult), args.Error(1)
}

func (m *MockLedgerClient) Transfer(ctx context.Context, tokenID int64, to string) (*ledger.TxResult, error) {
	args := m.Called(ctx, tokenID, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TxResult), args.Error(1)
}

func (m *MockLedgerClient) Retire(ctx context.Context, tokenID int64, reason string) (*ledger.TxResult, error) {
	args := m.Called(ctx, tokenID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TxResult), args.Error(1)
}

func (m *MockLedgerClient) RegisterReport(ctx context.Context, reportHandle int64, owner string) (int64, error) {
	args := m.Called(ctx, reportHandle, owner)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerClient) TransactionConfirmed(ctx context.Context, txHash string) (bool, error) {
	args := m.Called(ctx, txHash)
	return args.Bool(0), args.Error(1)
}

// --- Test Suite Setup ---
type ReconciliationServiceTestSuite struct {
	suite.Suite
	mockReportRepo *MockReportRepository
	mockCreditRepo *MockCreditReader
	mockUserRepo   *MockUserReader
	mockReconRepo  *MockReconRepository
	mockChain      *MockLedgerClient
	service        portssvc.ReconciliationSvcFacade

	company   domain.User
	recipient domain.User
	reviewer  domain.User
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.mockReportRepo = new(MockReportRepository)
	suite.mockCreditRepo = new(MockCreditReader)
	suite.mockUserRepo = new(MockUserReader)
	suite.mockReconRepo = new(MockReconRepository)
	suite.mockChain = new(MockLedgerClient)
	suite.service = suite.newService(false)

	wallet := testWallet
	suite.company = domain.User{
		UserID:        uuid.NewString(),
		Email:         "company@example.com",
		Role:          domain.RoleCompany,
		CompanyName:   "Acme Carbon",
		WalletAddress: &wallet,
	}
	recipientWallet := otherWallet
	suite.recipient = domain.User{
		UserID:        uuid.NewString(),
		Email:         "other@example.com",
		Role:          domain.RoleCompany,
		CompanyName:   "Beta Offsets",
		WalletAddress: &recipientWallet,
	}
	suite.reviewer = domain.User{
		UserID: uuid.NewString(),
		Email:  "regulator@example.com",
		Role:   domain.RoleRegulator,
	}
}

func (suite *ReconciliationServiceTestSuite) newService(verifyProof bool) portssvc.ReconciliationSvcFacade {
	return services.NewReconciliationService(
		suite.mockReportRepo,
		suite.mockCreditRepo,
		suite.mockUserRepo,
		suite.mockReconRepo,
		suite.mockChain,
		utils.InitializePosthogClient("", "", nil),
		"0x3333333333333333333333333333333333333333",
		verifyProof,
	)
}

func (suite *ReconciliationServiceTestSuite) pendingReport() *domain.Report {
	ledgerID := int64(42)
	return &domain.Report{
		ReportID:          "RPT-2026-001",
		CompanyID:         suite.company.UserID,
		Title:             "Q1 Emission Reduction",
		Category:          domain.CategoryQuarterly,
		Status:            domain.ReportPending,
		BaselineEmissions: decimal.NewFromInt(1000),
		ReportedEmissions: decimal.NewFromInt(850),
		EstimatedCredits:  decimal.NewFromInt(100),
		LedgerReportID:    &ledgerID,
		SubmittedAt:       time.Now().UTC(),
	}
}

func (suite *ReconciliationServiceTestSuite) activeCredit() *domain.Credit {
	tokenID := int64(7)
	return &domain.Credit{
		CreditID:        "CC-2026-001",
		ReportID:        "RPT-2026-001",
		CompanyID:       suite.company.UserID,
		Amount:          decimal.NewFromInt(100),
		Status:          domain.CreditActive,
		CurrentOwnerID:  suite.company.UserID,
		OriginalOwnerID: suite.company.UserID,
		TokenID:         &tokenID,
		IssuedAt:        time.Now().UTC(),
	}
}

// --- ApproveReport ---

func (suite *ReconciliationServiceTestSuite) TestApproveReport_Success() {
	ctx := context.Background()
	report := suite.pendingReport()
	issued := decimal.NewFromInt(150)
	req := dto.ApproveReportRequest{IssuedCredits: &issued, Notes: "verified against methodology"}

	tokenID := int64(7)
	blockNumber := int64(12)
	suite.mockReportRepo.On("FindReportByID", ctx, report.ReportID).Return(report, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, suite.company.UserID).Return(&suite.company, nil).Once()
	suite.mockChain.On("Issue", ctx, testWallet, issued, mock.AnythingOfType("string")).
		Return(&ledger.MintResult{TxHash: testTxHash, TokenID: &tokenID, BlockNumber: &blockNumber}, nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqCredits, mock.AnythingOfType("int")).Return(int64(3), nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqTransactions, mock.AnythingOfType("int")).Return(int64(5), nil).Once()
	suite.mockReconRepo.On("CommitIssue", ctx,
		mock.AnythingOfType("domain.ReportApproval"),
		mock.AnythingOfType("domain.Credit"),
		mock.AnythingOfType("domain.Transaction"),
		mock.AnythingOfType("domain.AuditEntry"),
	).Return(nil).Once()

	approved, credit, err := suite.service.ApproveReport(ctx, report.ReportID, &suite.reviewer, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(approved)
	suite.Require().NotNil(credit)

	year := time.Now().UTC().Year()
	suite.Equal(domain.FormatSequenceID(domain.PrefixCredit, year, 3), credit.CreditID)
	suite.Equal(domain.CreditActive, credit.Status)
	suite.True(credit.Amount.Equal(issued))
	suite.Require().NotNil(credit.TokenID)
	suite.Equal(tokenID, *credit.TokenID)
	suite.Require().NotNil(credit.LedgerTxHash)
	suite.Equal(testTxHash, *credit.LedgerTxHash)
	suite.Equal(suite.company.UserID, credit.CurrentOwnerID)
	suite.Equal(suite.company.UserID, credit.OriginalOwnerID)

	suite.Equal(domain.ReportApproved, approved.Status)
	suite.Require().NotNil(approved.IssuedCredits)
	suite.True(approved.IssuedCredits.Equal(issued))
	suite.Require().NotNil(approved.ReviewedBy)
	suite.Equal(suite.reviewer.UserID, *approved.ReviewedBy)

	// CommitIssue carries the transaction and audit entry in the same call.
	commitArgs := suite.mockReconRepo.Calls[len(suite.mockReconRepo.Calls)-1].Arguments
	txn := commitArgs.Get(3).(domain.Transaction)
	suite.Equal(domain.TxnIssued, txn.Type)
	suite.Equal(domain.TxnConfirmed, txn.Status)
	suite.Equal(domain.FormatSequenceID(domain.PrefixTransaction, year, 5), txn.TransactionID)
	entry := commitArgs.Get(4).(domain.AuditEntry)
	suite.Equal(domain.AuditApproved, entry.Action)
	suite.Equal(domain.ReportPending, entry.PreviousStatus)
	suite.Equal(domain.ReportApproved, entry.NewStatus)

	suite.mockReportRepo.AssertExpectations(suite.T())
	suite.mockChain.AssertExpectations(suite.T())
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestApproveReport_DefaultsToEstimate() {
	ctx := context.Background()
	report := suite.pendingReport()

	suite.mockReportRepo.On("FindReportByID", ctx, report.ReportID).Return(report, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, suite.company.UserID).Return(&suite.company, nil).Once()
	suite.mockChain.On("Issue", ctx, testWallet, report.EstimatedCredits, mock.AnythingOfType("string")).
		Return(&ledger.MintResult{TxHash: testTxHash}, nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqCredits, mock.AnythingOfType("int")).Return(int64(1), nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqTransactions, mock.AnythingOfType("int")).Return(int64(1), nil).Once()
	suite.mockReconRepo.On("CommitIssue", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	_, credit, err := suite.service.ApproveReport(ctx, report.ReportID, &suite.reviewer, dto.ApproveReportRequest{})

	suite.Require().NoError(err)
	suite.True(credit.Amount.Equal(report.EstimatedCredits))
	// The mint event was absent, so the token id stays unknown.
	suite.Nil(credit.TokenID)
	suite.mockChain.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestApproveReport_NotPending() {
	ctx := context.Background()
	report := suite.pendingReport()
	report.Status = domain.ReportApproved

	suite.mockReportRepo.On("FindReportByID", ctx, report.ReportID).Return(report, nil).Once()

	_, _, err := suite.service.ApproveReport(ctx, report.ReportID, &suite.reviewer, dto.ApproveReportRequest{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockChain.AssertNotCalled(suite.T(), "Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "CommitIssue", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestApproveReport_CompanyWithoutWallet() {
	ctx := context.Background()
	report := suite.pendingReport()
	companyNoWallet := suite.company
	companyNoWallet.WalletAddress = nil

	suite.mockReportRepo.On("FindReportByID", ctx, report.ReportID).Return(report, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, suite.company.UserID).Return(&companyNoWallet, nil).Once()

	_, _, err := suite.service.ApproveReport(ctx, report.ReportID, &suite.reviewer, dto.ApproveReportRequest{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockChain.AssertNotCalled(suite.T(), "Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestApproveReport_MintFailureLeavesReportPending() {
	ctx := context.Background()
	report := suite.pendingReport()
	mintErr := apperrors.ErrLedgerFailed

	suite.mockReportRepo.On("FindReportByID", ctx, report.ReportID).Return(report, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, suite.company.UserID).Return(&suite.company, nil).Once()
	suite.mockChain.On("Issue", ctx, testWallet, report.EstimatedCredits, mock.AnythingOfType("string")).
		Return(nil, mintErr).Once()

	_, _, err := suite.service.ApproveReport(ctx, report.ReportID, &suite.reviewer, dto.ApproveReportRequest{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrLedgerFailed)
	// No record store writes of any kind after a mint failure.
	suite.mockReconRepo.AssertNotCalled(suite.T(), "NextSequence", mock.Anything, mock.Anything, mock.Anything)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "CommitIssue", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestApproveReport_ConcurrentReviewConflict() {
	ctx := context.Background()
	report := suite.pendingReport()

	suite.mockReportRepo.On("FindReportByID", ctx, report.ReportID).Return(report, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, suite.company.UserID).Return(&suite.company, nil).Once()
	suite.mockChain.On("Issue", ctx, testWallet, report.EstimatedCredits, mock.AnythingOfType("string")).
		Return(&ledger.MintResult{TxHash: testTxHash}, nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqCredits, mock.AnythingOfType("int")).Return(int64(1), nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqTransactions, mock.AnythingOfType("int")).Return(int64(1), nil).Once()
	suite.mockReconRepo.On("CommitIssue", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(apperrors.ErrConflict).Once()

	_, _, err := suite.service.ApproveReport(ctx, report.ReportID, &suite.reviewer, dto.ApproveReportRequest{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *ReconciliationServiceTestSuite) TestApproveReport_CommitFailureSurfacesDrift() {
	ctx := context.Background()
	report := suite.pendingReport()

	suite.mockReportRepo.On("FindReportByID", ctx, report.ReportID).Return(report, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, suite.company.UserID).Return(&suite.company, nil).Once()
	suite.mockChain.On("Issue", ctx, testWallet, report.EstimatedCredits, mock.AnythingOfType("string")).
		Return(&ledger.MintResult{TxHash: testTxHash}, nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqCredits, mock.AnythingOfType("int")).Return(int64(1), nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqTransactions, mock.AnythingOfType("int")).Return(int64(1), nil).Once()
	suite.mockReconRepo.On("CommitIssue", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection reset")).Once()

	_, _, err := suite.service.ApproveReport(ctx, report.ReportID, &suite.reviewer, dto.ApproveReportRequest{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrReconciliation)
	// The operator needs the chain transaction to reconcile against.
	suite.Contains(err.Error(), testTxHash)
}

func (suite *ReconciliationServiceTestSuite) TestApproveReport_CompanionRegistrationFailureIgnored() {
	ctx := context.Background()
	report := suite.pendingReport()
	report.LedgerReportID = nil

	suite.mockReportRepo.On("FindReportByID", ctx, report.ReportID).Return(report, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, suite.company.UserID).Return(&suite.company, nil).Once()
	suite.mockChain.On("RegisterReport", ctx, mock.AnythingOfType("int64"), testWallet).
		Return(int64(0), apperrors.ErrLedgerFailed).Once()
	suite.mockChain.On("Issue", ctx, testWallet, report.EstimatedCredits, mock.AnythingOfType("string")).
		Return(&ledger.MintResult{TxHash: testTxHash}, nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqCredits, mock.AnythingOfType("int")).Return(int64(1), nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqTransactions, mock.AnythingOfType("int")).Return(int64(1), nil).Once()
	suite.mockReconRepo.On("CommitIssue", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	approved, _, err := suite.service.ApproveReport(ctx, report.ReportID, &suite.reviewer, dto.ApproveReportRequest{})

	suite.Require().NoError(err)
	suite.Equal(domain.ReportApproved, approved.Status)
	suite.mockChain.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestApproveReport_CompanionRegistrationRecorded() {
	ctx := context.Background()
	report := suite.pendingReport()
	report.LedgerReportID = nil

	suite.mockReportRepo.On("FindReportByID", ctx, report.ReportID).Return(report, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, suite.company.UserID).Return(&suite.company, nil).Once()
	suite.mockChain.On("RegisterReport", ctx, mock.AnythingOfType("int64"), testWallet).
		Return(int64(99), nil).Once()
	suite.mockReportRepo.On("SetLedgerReportID", ctx, report.ReportID, int64(99)).Return(nil).Once()
	suite.mockChain.On("Issue", ctx, testWallet, report.EstimatedCredits, mock.AnythingOfType("string")).
		Return(&ledger.MintResult{TxHash: testTxHash}, nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqCredits, mock.AnythingOfType("int")).Return(int64(1), nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqTransactions, mock.AnythingOfType("int")).Return(int64(1), nil).Once()
	suite.mockReconRepo.On("CommitIssue", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	approved, _, err := suite.service.ApproveReport(ctx, report.ReportID, &suite.reviewer, dto.ApproveReportRequest{})

	suite.Require().NoError(err)
	suite.Require().NotNil(approved.LedgerReportID)
	suite.Equal(int64(99), *approved.LedgerReportID)
	suite.mockReportRepo.AssertExpectations(suite.T())
}

// --- RejectReport ---

func (suite *ReconciliationServiceTestSuite) TestRejectReport_Success() {
	ctx := context.Background()
	report := suite.pendingReport()
	req := dto.RejectReportRequest{RejectionReason: "methodology not recognized"}

	suite.mockReportRepo.On("FindReportByID", ctx, report.ReportID).Return(report, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, suite.company.UserID).Return(&suite.company, nil).Once()
	suite.mockReconRepo.On("CommitReject", ctx,
		mock.AnythingOfType("domain.ReportRejection"),
		mock.AnythingOfType("domain.AuditEntry"),
	).Return(nil).Once()

	rejected, err := suite.service.RejectReport(ctx, report.ReportID, &suite.reviewer, req)

	suite.Require().NoError(err)
	suite.Equal(domain.ReportRejected, rejected.Status)
	suite.Require().NotNil(rejected.RejectionReason)
	suite.Equal(req.RejectionReason, *rejected.RejectionReason)
	suite.mockChain.AssertNotCalled(suite.T(), "Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestRejectReport_RequiresReason() {
	ctx := context.Background()

	_, err := suite.service.RejectReport(ctx, "RPT-2026-001", &suite.reviewer, dto.RejectReportRequest{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockReportRepo.AssertNotCalled(suite.T(), "FindReportByID", mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestRejectReport_NotPending() {
	ctx := context.Background()
	report := suite.pendingReport()
	report.Status = domain.ReportRejected

	suite.mockReportRepo.On("FindReportByID", ctx, report.ReportID).Return(report, nil).Once()

	_, err := suite.service.RejectReport(ctx, report.ReportID, &suite.reviewer, dto.RejectReportRequest{RejectionReason: "duplicate"})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "CommitReject", mock.Anything, mock.Anything, mock.Anything)
}

// --- TransferCredit ---

func (suite *ReconciliationServiceTestSuite) TestTransferCredit_Success() {
	ctx := context.Background()
	credit := suite.activeCredit()
	req := dto.TransferCreditRequest{ToAddress: otherWallet, LedgerTxHash: testProofTxHash}

	suite.mockCreditRepo.On("FindCreditByID", ctx, credit.CreditID).Return(credit, nil).Once()
	suite.mockUserRepo.On("FindUserByWalletAddress", ctx, otherWallet).Return(&suite.recipient, nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqTransactions, mock.AnythingOfType("int")).Return(int64(8), nil).Once()
	suite.mockReconRepo.On("CommitTransfer", ctx, credit.CreditID, suite.recipient.UserID,
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.Transaction")).Return(nil).Once()

	updated, txn, err := suite.service.TransferCredit(ctx, credit.CreditID, suite.company.UserID, req)

	suite.Require().NoError(err)
	suite.Equal(domain.CreditTransferred, updated.Status)
	suite.Equal(suite.recipient.UserID, updated.CurrentOwnerID)
	suite.Equal(suite.company.UserID, updated.OriginalOwnerID)
	suite.Equal(domain.TxnTransferred, txn.Type)
	suite.Require().NotNil(txn.FromUserID)
	suite.Equal(suite.company.UserID, *txn.FromUserID)
	suite.Require().NotNil(txn.ToUserID)
	suite.Equal(suite.recipient.UserID, *txn.ToUserID)
	// Proof checking is off by default; the caller's hash is trusted.
	suite.mockChain.AssertNotCalled(suite.T(), "TransactionConfirmed", mock.Anything, mock.Anything)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestTransferCredit_NotOwner() {
	ctx := context.Background()
	credit := suite.activeCredit()

	suite.mockCreditRepo.On("FindCreditByID", ctx, credit.CreditID).Return(credit, nil).Once()

	_, _, err := suite.service.TransferCredit(ctx, credit.CreditID, suite.recipient.UserID,
		dto.TransferCreditRequest{ToAddress: otherWallet, LedgerTxHash: testProofTxHash})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "CommitTransfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestTransferCredit_NotActive() {
	ctx := context.Background()
	credit := suite.activeCredit()
	credit.Status = domain.CreditRetired

	suite.mockCreditRepo.On("FindCreditByID", ctx, credit.CreditID).Return(credit, nil).Once()

	_, _, err := suite.service.TransferCredit(ctx, credit.CreditID, suite.company.UserID,
		dto.TransferCreditRequest{ToAddress: otherWallet, LedgerTxHash: testProofTxHash})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) TestTransferCredit_MalformedAddress() {
	ctx := context.Background()
	credit := suite.activeCredit()

	suite.mockCreditRepo.On("FindCreditByID", ctx, credit.CreditID).Return(credit, nil).Once()

	_, _, err := suite.service.TransferCredit(ctx, credit.CreditID, suite.company.UserID,
		dto.TransferCreditRequest{ToAddress: "not-an-address", LedgerTxHash: testProofTxHash})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "FindUserByWalletAddress", mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestTransferCredit_MalformedTxHash() {
	ctx := context.Background()
	credit := suite.activeCredit()

	suite.mockCreditRepo.On("FindCreditByID", ctx, credit.CreditID).Return(credit, nil).Once()

	_, _, err := suite.service.TransferCredit(ctx, credit.CreditID, suite.company.UserID,
		dto.TransferCreditRequest{ToAddress: otherWallet, LedgerTxHash: "0x1234"})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) TestTransferCredit_UnregisteredDestination() {
	ctx := context.Background()
	credit := suite.activeCredit()

	suite.mockCreditRepo.On("FindCreditByID", ctx, credit.CreditID).Return(credit, nil).Once()
	suite.mockUserRepo.On("FindUserByWalletAddress", ctx, otherWallet).Return(nil, apperrors.ErrNotFound).Once()

	_, _, err := suite.service.TransferCredit(ctx, credit.CreditID, suite.company.UserID,
		dto.TransferCreditRequest{ToAddress: otherWallet, LedgerTxHash: testProofTxHash})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Contains(err.Error(), "not registered")
	suite.mockReconRepo.AssertNotCalled(suite.T(), "CommitTransfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestTransferCredit_SelfTransfer() {
	ctx := context.Background()
	credit := suite.activeCredit()

	suite.mockCreditRepo.On("FindCreditByID", ctx, credit.CreditID).Return(credit, nil).Once()
	suite.mockUserRepo.On("FindUserByWalletAddress", ctx, testWallet).Return(&suite.company, nil).Once()

	_, _, err := suite.service.TransferCredit(ctx, credit.CreditID, suite.company.UserID,
		dto.TransferCreditRequest{ToAddress: testWallet, LedgerTxHash: testProofTxHash})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) TestTransferCredit_ProofVerificationRejectsUnconfirmed() {
	ctx := context.Background()
	service := suite.newService(true)
	credit := suite.activeCredit()

	suite.mockCreditRepo.On("FindCreditByID", ctx, credit.CreditID).Return(credit, nil).Once()
	suite.mockUserRepo.On("FindUserByWalletAddress", ctx, otherWallet).Return(&suite.recipient, nil).Once()
	suite.mockChain.On("TransactionConfirmed", ctx, testProofTxHash).Return(false, nil).Once()

	_, _, err := service.TransferCredit(ctx, credit.CreditID, suite.company.UserID,
		dto.TransferCreditRequest{ToAddress: otherWallet, LedgerTxHash: testProofTxHash})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "CommitTransfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- RetireCredit ---

func (suite *ReconciliationServiceTestSuite) TestRetireCredit_Success() {
	ctx := context.Background()
	credit := suite.activeCredit()
	req := dto.RetireCreditRequest{Reason: "2026 sustainability offset", LedgerTxHash: testProofTxHash}

	suite.mockCreditRepo.On("FindCreditByID", ctx, credit.CreditID).Return(credit, nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqTransactions, mock.AnythingOfType("int")).Return(int64(9), nil).Once()
	suite.mockReconRepo.On("CommitRetire", ctx, credit.CreditID,
		mock.AnythingOfType("time.Time"), req.Reason, req.LedgerTxHash,
		mock.AnythingOfType("domain.Transaction")).Return(nil).Once()

	retired, txn, err := suite.service.RetireCredit(ctx, credit.CreditID, suite.company.UserID, req)

	suite.Require().NoError(err)
	suite.Equal(domain.CreditRetired, retired.Status)
	suite.Require().NotNil(retired.RetiredAt)
	suite.Require().NotNil(retired.RetirementReason)
	suite.Equal(req.Reason, *retired.RetirementReason)
	suite.Equal(domain.TxnRetired, txn.Type)
	suite.Require().NotNil(txn.RetirementReason)
	suite.Equal(req.Reason, *txn.RetirementReason)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestRetireCredit_RequiresReason() {
	ctx := context.Background()

	_, _, err := suite.service.RetireCredit(ctx, "CC-2026-001", suite.company.UserID,
		dto.RetireCreditRequest{LedgerTxHash: testProofTxHash})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockCreditRepo.AssertNotCalled(suite.T(), "FindCreditByID", mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestRetireCredit_RetirementIsTerminal() {
	ctx := context.Background()
	credit := suite.activeCredit()
	credit.Status = domain.CreditRetired

	suite.mockCreditRepo.On("FindCreditByID", ctx, credit.CreditID).Return(credit, nil).Once()

	_, _, err := suite.service.RetireCredit(ctx, credit.CreditID, suite.company.UserID,
		dto.RetireCreditRequest{Reason: "offset", LedgerTxHash: testProofTxHash})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "CommitRetire", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestRetireCredit_NotOwner() {
	ctx := context.Background()
	credit := suite.activeCredit()

	suite.mockCreditRepo.On("FindCreditByID", ctx, credit.CreditID).Return(credit, nil).Once()

	_, _, err := suite.service.RetireCredit(ctx, credit.CreditID, suite.recipient.UserID,
		dto.RetireCreditRequest{Reason: "offset", LedgerTxHash: testProofTxHash})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}
