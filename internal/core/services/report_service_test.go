package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/verdantlabs/carbon_registry_app/internal/apperrors"
	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	portsrepo "github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
	portssvc "github.com/verdantlabs/carbon_registry_app/internal/core/ports/services"
	"github.com/verdantlabs/carbon_registry_app/internal/core/services"
	"github.com/verdantlabs/carbon_registry_app/internal/dto"
	"github.com/verdantlabs/carbon_registry_app/internal/utils"
)

type ReportServiceTestSuite struct {
	suite.Suite
	mockReportRepo *MockReportRepository
	mockUserRepo   *MockUserReader
	mockReconRepo  *MockReconRepository
	mockChain      *MockLedgerClient
	service        portssvc.ReportSvcFacade

	company   domain.User
	regulator domain.User
}

func (suite *ReportServiceTestSuite) SetupTest() {
	suite.mockReportRepo = new(MockReportRepository)
	suite.mockUserRepo = new(MockUserReader)
	suite.mockReconRepo = new(MockReconRepository)
	suite.mockChain = new(MockLedgerClient)
	suite.service = services.NewReportService(
		suite.mockReportRepo,
		suite.mockUserRepo,
		suite.mockReconRepo,
		suite.mockChain,
		utils.InitializePosthogClient("", "", nil),
	)

	suite.company = domain.User{
		UserID:      uuid.NewString(),
		Email:       "company@example.com",
		Role:        domain.RoleCompany,
		CompanyName: "Acme Carbon",
	}
	suite.regulator = domain.User{
		UserID: uuid.NewString(),
		Email:  "regulator@example.com",
		Role:   domain.RoleRegulator,
	}
}

func validSubmission() dto.SubmitReportRequest {
	return dto.SubmitReportRequest{
		Title:             "Q1 Emission Reduction",
		Category:          "quarterly",
		Description:       "Reduced fleet emissions through electrification",
		Methodology:       "GHG Protocol Scope 1",
		BaselineEmissions: "1000",
		ReportedEmissions: "850",
		EstimatedCredits:  "150",
	}
}

func (suite *ReportServiceTestSuite) TestSubmitReport_Success() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByID", ctx, suite.company.UserID).Return(&suite.company, nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqReports, mock.AnythingOfType("int")).Return(int64(7), nil).Once()
	suite.mockReportRepo.On("SaveReport", ctx, mock.AnythingOfType("domain.Report")).Return(nil).Once()

	report, err := suite.service.SubmitReport(ctx, suite.company.UserID, validSubmission(), nil)

	suite.Require().NoError(err)
	suite.Equal(domain.FormatSequenceID(domain.PrefixReport, time.Now().UTC().Year(), 7), report.ReportID)
	suite.Equal(domain.ReportPending, report.Status)
	suite.True(report.BaselineEmissions.Equal(decimal.NewFromInt(1000)))
	suite.True(report.EstimatedCredits.Equal(decimal.NewFromInt(150)))
	suite.Nil(report.IssuedCredits)

	// No wallet linked, so no companion registration fires.
	suite.mockChain.AssertNotCalled(suite.T(), "RegisterReport", mock.Anything, mock.Anything, mock.Anything)
	suite.mockReportRepo.AssertExpectations(suite.T())
}

func (suite *ReportServiceTestSuite) TestSubmitReport_IDFormatPadsSequence() {
	year := time.Now().UTC().Year()
	suite.Equal("RPT", domain.PrefixReport)
	suite.Regexp(`^RPT-\d{4}-007$`, domain.FormatSequenceID(domain.PrefixReport, year, 7))
	suite.Regexp(`^CC-\d{4}-042$`, domain.FormatSequenceID(domain.PrefixCredit, year, 42))
	suite.Regexp(`^TXN-\d{4}-1000$`, domain.FormatSequenceID(domain.PrefixTransaction, year, 1000))
}

func (suite *ReportServiceTestSuite) TestSubmitReport_MalformedFigures() {
	ctx := context.Background()
	req := validSubmission()
	req.BaselineEmissions = "not-a-number"

	_, err := suite.service.SubmitReport(ctx, suite.company.UserID, req, nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockReportRepo.AssertNotCalled(suite.T(), "SaveReport", mock.Anything, mock.Anything)
}

func (suite *ReportServiceTestSuite) TestSubmitReport_NegativeFigures() {
	ctx := context.Background()
	req := validSubmission()
	req.EstimatedCredits = "-5"

	_, err := suite.service.SubmitReport(ctx, suite.company.UserID, req, nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReportServiceTestSuite) TestSubmitReport_BackgroundRegistrationRecorded() {
	ctx := context.Background()
	wallet := testWallet
	companyWithWallet := suite.company
	companyWithWallet.WalletAddress = &wallet

	recorded := make(chan struct{})
	suite.mockUserRepo.On("FindUserByID", ctx, suite.company.UserID).Return(&companyWithWallet, nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqReports, mock.AnythingOfType("int")).Return(int64(1), nil).Once()
	suite.mockReportRepo.On("SaveReport", ctx, mock.AnythingOfType("domain.Report")).Return(nil).Once()
	suite.mockChain.On("RegisterReport", mock.Anything, mock.AnythingOfType("int64"), testWallet).
		Return(int64(55), nil).Once()
	suite.mockReportRepo.On("SetLedgerReportID", mock.Anything, mock.AnythingOfType("string"), int64(55)).
		Run(func(mock.Arguments) { close(recorded) }).Return(nil).Once()

	_, err := suite.service.SubmitReport(ctx, suite.company.UserID, validSubmission(), nil)
	suite.Require().NoError(err)

	select {
	case <-recorded:
	case <-time.After(2 * time.Second):
		suite.FailNow("background registration did not record the ledger report id")
	}
	suite.mockChain.AssertExpectations(suite.T())
}

func (suite *ReportServiceTestSuite) TestSubmitReport_BackgroundRegistrationFailureIsSwallowed() {
	ctx := context.Background()
	wallet := testWallet
	companyWithWallet := suite.company
	companyWithWallet.WalletAddress = &wallet

	attempted := make(chan struct{})
	suite.mockUserRepo.On("FindUserByID", ctx, suite.company.UserID).Return(&companyWithWallet, nil).Once()
	suite.mockReconRepo.On("NextSequence", ctx, domain.SeqReports, mock.AnythingOfType("int")).Return(int64(2), nil).Once()
	suite.mockReportRepo.On("SaveReport", ctx, mock.AnythingOfType("domain.Report")).Return(nil).Once()
	suite.mockChain.On("RegisterReport", mock.Anything, mock.AnythingOfType("int64"), testWallet).
		Run(func(mock.Arguments) { close(attempted) }).
		Return(int64(0), apperrors.ErrLedgerFailed).Once()

	report, err := suite.service.SubmitReport(ctx, suite.company.UserID, validSubmission(), nil)

	suite.Require().NoError(err)
	suite.Equal(domain.ReportPending, report.Status)

	select {
	case <-attempted:
	case <-time.After(2 * time.Second):
		suite.FailNow("background registration was never attempted")
	}
	suite.mockReportRepo.AssertNotCalled(suite.T(), "SetLedgerReportID", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReportServiceTestSuite) TestGetReport_CompanySeesOnlyOwn() {
	ctx := context.Background()
	report := &domain.Report{ReportID: "RPT-2026-001", CompanyID: uuid.NewString(), Status: domain.ReportPending}

	suite.mockReportRepo.On("FindReportByID", ctx, report.ReportID).Return(report, nil).Twice()

	_, err := suite.service.GetReport(ctx, report.ReportID, &suite.company)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	got, err := suite.service.GetReport(ctx, report.ReportID, &suite.regulator)
	suite.Require().NoError(err)
	suite.Equal(report.ReportID, got.ReportID)
}

func (suite *ReportServiceTestSuite) TestListReports_CompanyScopedFilter() {
	ctx := context.Background()

	suite.mockReportRepo.On("ListReports", ctx, mock.MatchedBy(func(f portsrepo.ReportFilter) bool {
		return f.CompanyID != nil && *f.CompanyID == suite.company.UserID
	})).Return([]domain.Report{}, nil).Once()

	_, err := suite.service.ListReports(ctx, &suite.company, nil)
	suite.Require().NoError(err)
	suite.mockReportRepo.AssertExpectations(suite.T())
}

func (suite *ReportServiceTestSuite) TestAttachDocuments_ReviewedReportRejected() {
	ctx := context.Background()
	report := &domain.Report{ReportID: "RPT-2026-001", CompanyID: suite.company.UserID, Status: domain.ReportApproved}
	docs := []domain.Document{{Filename: "evidence.pdf"}}

	suite.mockReportRepo.On("FindReportByID", ctx, report.ReportID).Return(report, nil).Once()

	_, err := suite.service.AttachDocuments(ctx, report.ReportID, &suite.company, docs)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockReportRepo.AssertNotCalled(suite.T(), "AppendDocuments", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReportServiceTestSuite) TestListPendingReviews_SubmissionOrder() {
	ctx := context.Background()
	newer := domain.Report{ReportID: "RPT-2026-002", SubmittedAt: time.Now().UTC()}
	older := domain.Report{ReportID: "RPT-2026-001", SubmittedAt: time.Now().UTC().Add(-time.Hour)}

	suite.mockReportRepo.On("ListReports", ctx, mock.AnythingOfType("repositories.ReportFilter")).
		Return([]domain.Report{newer, older}, nil).Once()

	reports, err := suite.service.ListPendingReviews(ctx)

	suite.Require().NoError(err)
	suite.Require().Len(reports, 2)
	suite.Equal(older.ReportID, reports[0].ReportID)
	suite.Equal(newer.ReportID, reports[1].ReportID)
}

func TestReportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportServiceTestSuite))
}
