package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credit is the persisted form of an issued carbon credit.
type Credit struct {
	CreditID         string          `db:"credit_id"`
	ReportID         string          `db:"report_id"`
	CompanyID        string          `db:"company_id"`
	Amount           decimal.Decimal `db:"amount"`
	Status           string          `db:"status"`
	CurrentOwnerID   string          `db:"current_owner_id"`
	OriginalOwnerID  string          `db:"original_owner_id"`
	RetiredAt        *time.Time      `db:"retired_at"`
	RetirementReason *string         `db:"retirement_reason"`
	LedgerTxHash     *string         `db:"ledger_tx_hash"`
	TokenID          *int64          `db:"token_id"` // NULL when the mint event was unparseable
	ContractAddress  *string         `db:"contract_address"`
	IssuedAt         time.Time       `db:"issued_at"`
	AuditFields
}
