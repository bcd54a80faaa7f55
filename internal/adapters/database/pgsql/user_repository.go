package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verdantlabs/carbon_registry_app/internal/apperrors"
	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
	"github.com/verdantlabs/carbon_registry_app/internal/models"
)

const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new repository for user data.
func NewUserRepository(pool *pgxpool.Pool) repositories.UserRepositoryFacade {
	return &userRepository{pool: pool}
}

var _ repositories.UserRepositoryFacade = (*userRepository)(nil)

func toUserModel(u domain.User) models.User {
	return models.User{
		UserID:        u.UserID,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Role:          string(u.Role),
		CompanyName:   u.CompanyName,
		WalletAddress: u.WalletAddress,
		AuditFields: models.AuditFields{
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		},
	}
}

func toUserDomain(m models.User) domain.User {
	return domain.User{
		UserID:        m.UserID,
		Email:         m.Email,
		PasswordHash:  m.PasswordHash,
		Role:          domain.UserRole(m.Role),
		CompanyName:   m.CompanyName,
		WalletAddress: m.WalletAddress,
		AuditFields: domain.AuditFields{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}
}

const userColumns = `user_id, email, password_hash, role, company_name, wallet_address, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var m models.User
	err := row.Scan(
		&m.UserID,
		&m.Email,
		&m.PasswordHash,
		&m.Role,
		&m.CompanyName,
		&m.WalletAddress,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveUser inserts a new user. A duplicate email maps to ErrDuplicate.
func (r *userRepository) SaveUser(ctx context.Context, user domain.User) error {
	m := toUserModel(user)
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.pool.Exec(ctx, query,
		m.UserID,
		m.Email,
		m.PasswordHash,
		m.Role,
		m.CompanyName,
		m.WalletAddress,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s is already registered", apperrors.ErrDuplicate, user.Email)
		}
		return fmt.Errorf("failed to save user %s: %w", user.UserID, err)
	}
	return nil
}

func (r *userRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1;`
	m, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID %s: %w", userID, err)
	}
	u := toUserDomain(*m)
	return &u, nil
}

func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1);`
	m, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	u := toUserDomain(*m)
	return &u, nil
}

// FindUserByWalletAddress resolves a chain address case-insensitively;
// EIP-55 checksummed and lowercased forms of the same address must match.
func (r *userRepository) FindUserByWalletAddress(ctx context.Context, address string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(wallet_address) = lower($1);`
	m, err := scanUser(r.pool.QueryRow(ctx, query, address))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by wallet address: %w", err)
	}
	u := toUserDomain(*m)
	return &u, nil
}

// UpdateWalletAddress links (address != nil) or unlinks (address == nil) a
// wallet. A duplicate address maps to ErrDuplicate.
func (r *userRepository) UpdateWalletAddress(ctx context.Context, userID string, address *string) error {
	query := `UPDATE users SET wallet_address = $1, updated_at = now() WHERE user_id = $2;`
	tag, err := r.pool.Exec(ctx, query, address, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: wallet address is already linked to another account", apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to update wallet address for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
