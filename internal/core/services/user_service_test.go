package services_test

import (
	"context"
	"testing"

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

// --- Mock UserRepositoryFacade ---
type MockUserRepository struct {
	MockUserReader
}

var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateWalletAddress(ctx context.Context, userID string, address *string) error {
	args := m.Called(ctx, userID, address)
	return args.Error(0)
}

type UserServiceTestSuite struct {
	suite.Suite
	mockUserRepo *MockUserRepository
	service      portssvc.UserSvcFacade
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.mockUserRepo = new(MockUserRepository)
	suite.service = services.NewUserService(suite.mockUserRepo)
}

func (suite *UserServiceTestSuite) TestRegister_Company() {
	ctx := context.Background()
	req := dto.RegisterRequest{
		Email:       "acme@example.com",
		Password:    "correct horse battery",
		Role:        "company",
		CompanyName: "Acme Carbon",
	}

	suite.mockUserRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).Return(nil).Once()

	user, err := suite.service.Register(ctx, req)

	suite.Require().NoError(err)
	suite.NotEmpty(user.UserID)
	suite.Equal(domain.RoleCompany, user.Role)
	suite.NotEqual(req.Password, user.PasswordHash)
	suite.True(utils.CheckPasswordHash(req.Password, user.PasswordHash))
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestRegister_CompanyNameRequired() {
	ctx := context.Background()
	req := dto.RegisterRequest{
		Email:    "acme@example.com",
		Password: "correct horse battery",
		Role:     "company",
	}

	_, err := suite.service.Register(ctx, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestAuthenticate_WrongPassword() {
	ctx := context.Background()
	hash, err := utils.HashPassword("right password")
	suite.Require().NoError(err)
	user := &domain.User{UserID: "u1", Email: "acme@example.com", PasswordHash: hash}

	suite.mockUserRepo.On("FindUserByEmail", ctx, user.Email).Return(user, nil).Once()

	_, err = suite.service.Authenticate(ctx, user.Email, "wrong password")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *UserServiceTestSuite) TestAuthenticate_UnknownAccountSameError() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByEmail", ctx, "ghost@example.com").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.Authenticate(ctx, "ghost@example.com", "whatever")

	// The caller cannot distinguish a missing account from a bad password.
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.NotErrorIs(err, apperrors.ErrNotFound)
}

func (suite *UserServiceTestSuite) TestLinkAndUnlinkWallet() {
	ctx := context.Background()
	user := &domain.User{UserID: "u1", Email: "acme@example.com"}
	addr := testWallet

	suite.mockUserRepo.On("FindUserByID", ctx, user.UserID).Return(user, nil).Twice()
	suite.mockUserRepo.On("UpdateWalletAddress", ctx, user.UserID, &addr).Return(nil).Once()
	suite.mockUserRepo.On("UpdateWalletAddress", ctx, user.UserID, (*string)(nil)).Return(nil).Once()

	linked, err := suite.service.LinkWallet(ctx, user.UserID, addr)
	suite.Require().NoError(err)
	suite.Require().NotNil(linked.WalletAddress)
	suite.Equal(addr, *linked.WalletAddress)

	unlinked, err := suite.service.UnlinkWallet(ctx, user.UserID)
	suite.Require().NoError(err)
	suite.Nil(unlinked.WalletAddress)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
