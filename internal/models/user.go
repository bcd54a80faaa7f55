package models

// User represents a registered participant: a reporting company, a
// regulator, or an administrator.
type User struct {
	UserID        string  `db:"user_id"`
	Email         string  `db:"email"`
	PasswordHash  string  `db:"password_hash"`
	Role          string  `db:"role"`
	CompanyName   string  `db:"company_name"`
	WalletAddress *string `db:"wallet_address"` // Nullable until linked
	AuditFields
}
