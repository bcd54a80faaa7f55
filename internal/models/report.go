package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report is the persisted form of an emission report. Documents live in a
// JSONB column; they are opaque references the registry never opens.
type Report struct {
	ReportID          string           `db:"report_id"`
	CompanyID         string           `db:"company_id"`
	Title             string           `db:"title"`
	Category          string           `db:"category"`
	Description       string           `db:"description"`
	Methodology       string           `db:"methodology"`
	BaselineEmissions decimal.Decimal  `db:"baseline_emissions"`
	ReportedEmissions decimal.Decimal  `db:"reported_emissions"`
	EstimatedCredits  decimal.Decimal  `db:"estimated_credits"`
	IssuedCredits     *decimal.Decimal `db:"issued_credits"`
	Status            string           `db:"status"`
	RejectionReason   *string          `db:"rejection_reason"`
	Documents         []byte           `db:"documents"` // JSONB
	SubmittedAt       time.Time        `db:"submitted_at"`
	ReviewedAt        *time.Time       `db:"reviewed_at"`
	ReviewedBy        *string          `db:"reviewed_by"`
	LedgerTxHash      *string          `db:"ledger_tx_hash"`
	LedgerReportID    *int64           `db:"ledger_report_id"`
	AuditFields
}
