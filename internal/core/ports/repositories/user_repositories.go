package repositories

import (
	"context"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
)

// UserReader defines read operations for user data.
type UserReader interface {
	// FindUserByID retrieves a specific user by their ID.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByEmail retrieves a user by email.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindUserByWalletAddress resolves a chain address to a registered user.
	// Returns apperrors.ErrNotFound when no user has linked the address.
	FindUserByWalletAddress(ctx context.Context, address string) (*domain.User, error)
}

// UserWriter defines write operations for user data.
type UserWriter interface {
	// SaveUser persists a new user.
	SaveUser(ctx context.Context, user domain.User) error

	// UpdateWalletAddress links (or, with nil, unlinks) a wallet address.
	UpdateWalletAddress(ctx context.Context, userID string, address *string) error
}

// UserRepositoryFacade combines all user-related repository interfaces.
type UserRepositoryFacade interface {
	UserReader
	UserWriter
}
