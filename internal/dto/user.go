package dto

import (
	"time"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
)

// RegisterRequest is the payload for creating a new account.
type RegisterRequest struct {
	Email         string  `json:"email" binding:"required,email"`
	Password      string  `json:"password" binding:"required,min=8"`
	Role          string  `json:"role" binding:"required,oneof=company regulator admin"`
	CompanyName   string  `json:"companyName"`
	WalletAddress *string `json:"walletAddress,omitempty" binding:"omitempty,chainaddr"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LinkWalletRequest links a chain address to the calling user.
type LinkWalletRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required,chainaddr"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	UserID        string    `json:"userID"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	CompanyName   string    `json:"companyName,omitempty"`
	WalletAddress *string   `json:"walletAddress,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// LoginResponse carries the bearer token and the authenticated user.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ToUserResponse converts a domain.User to its public view.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UserID:        u.UserID,
		Email:         u.Email,
		Role:          string(u.Role),
		CompanyName:   u.CompanyName,
		WalletAddress: u.WalletAddress,
		CreatedAt:     u.CreatedAt,
	}
}
