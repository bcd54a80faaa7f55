package services

import (
	"context"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/dto"
)

// UserReaderSvc defines read operations for user data.
type UserReaderSvc interface {
	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// UserAuthSvc defines operations for account creation and authentication.
type UserAuthSvc interface {
	// Register creates a new user account.
	Register(ctx context.Context, req dto.RegisterRequest) (*domain.User, error)

	// Authenticate verifies email/password credentials.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

// UserWalletSvc manages the chain address linked to an account.
type UserWalletSvc interface {
	// LinkWallet attaches a chain address to the user.
	LinkWallet(ctx context.Context, userID string, address string) (*domain.User, error)

	// UnlinkWallet removes the user's chain address.
	UnlinkWallet(ctx context.Context, userID string) (*domain.User, error)
}

// UserSvcFacade combines all user-related service interfaces.
type UserSvcFacade interface {
	UserReaderSvc
	UserAuthSvc
	UserWalletSvc
}
