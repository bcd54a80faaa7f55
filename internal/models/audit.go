package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditEntry is the persisted form of a regulatory decision record.
// Company and verifier names are denormalized snapshots.
type AuditEntry struct {
	AuditID        string           `db:"audit_id"`
	Action         string           `db:"action"`
	ReportID       string           `db:"report_id"`
	ReportTitle    string           `db:"report_title"`
	CompanyID      string           `db:"company_id"`
	CompanyName    string           `db:"company_name"`
	VerifierID     string           `db:"verifier_id"`
	VerifierName   string           `db:"verifier_name"`
	Notes          string           `db:"notes"`
	CreditsIssued  *decimal.Decimal `db:"credits_issued"`
	PreviousStatus string           `db:"previous_status"`
	NewStatus      string           `db:"new_status"`
	CreatedAt      time.Time        `db:"created_at"`
}
