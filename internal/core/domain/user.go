package domain

// UserRole determines which lifecycle operations a user may trigger.
// Companies submit reports and move their own credits; regulators review
// reports; admins see everything.
type UserRole string

const (
	RoleCompany   UserRole = "company"
	RoleRegulator UserRole = "regulator"
	RoleAdmin     UserRole = "admin"
)

// User represents an authenticated identity. Companies may link a chain
// wallet address; credits can only be issued or transferred to identities
// with a linked wallet.
type User struct {
	UserID        string   `json:"userID"`
	Email         string   `json:"email"`
	PasswordHash  string   `json:"-"`
	Role          UserRole `json:"role"`
	CompanyName   string   `json:"companyName,omitempty"`
	WalletAddress *string  `json:"walletAddress,omitempty"`
	AuditFields
}

// DisplayName is the name snapshotted into audit entries.
func (u *User) DisplayName() string {
	if u.CompanyName != "" {
		return u.CompanyName
	}
	return u.Email
}

// HasWallet reports whether the user has a linked chain address.
func (u *User) HasWallet() bool {
	return u.WalletAddress != nil && *u.WalletAddress != ""
}
