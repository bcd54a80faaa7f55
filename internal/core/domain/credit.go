package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditStatus is the lifecycle state of a carbon credit.
// Transitions are one-way: active -> transferred or active -> retired.
// Retired is terminal; retirement preserves the row for the audit trail.
type CreditStatus string

const (
	CreditActive      CreditStatus = "active"
	CreditTransferred CreditStatus = "transferred"
	CreditRetired     CreditStatus = "retired"
)

// Credit is one issuance of tokenized carbon reduction, created atomically
// with the approval of its originating report.
//
// OriginalOwnerID never changes. TokenID is nil when the mint's CreditIssued
// event could not be parsed from the receipt; nil means "unknown", which is
// distinct from a chain that legitimately issues token id 0.
type Credit struct {
	CreditID         string          `json:"creditID"` // CC-<year>-<seq>
	ReportID         string          `json:"reportID"`
	CompanyID        string          `json:"companyID"`
	Amount           decimal.Decimal `json:"amount"`
	Status           CreditStatus    `json:"status"`
	CurrentOwnerID   string          `json:"currentOwner"`
	OriginalOwnerID  string          `json:"originalOwner"`
	RetiredAt        *time.Time      `json:"retiredAt,omitempty"`
	RetirementReason *string         `json:"retirementReason,omitempty"`
	LedgerTxHash     *string         `json:"ledgerTxHash,omitempty"`
	TokenID          *int64          `json:"tokenID,omitempty"`
	ContractAddress  *string         `json:"contractAddress,omitempty"`
	IssuedAt         time.Time       `json:"issuedAt"`
	AuditFields
}

// WalletBalance aggregates a user's credit holdings by status. Transferred
// covers credits received from another owner; they count toward Total.
type WalletBalance struct {
	Active      decimal.Decimal `json:"active"`
	Transferred decimal.Decimal `json:"transferred"`
	Retired     decimal.Decimal `json:"retired"`
	Total       decimal.Decimal `json:"total"`
}
