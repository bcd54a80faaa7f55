package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditAction is the regulatory decision an audit entry records.
type AuditAction string

const (
	AuditApproved AuditAction = "approved"
	AuditRejected AuditAction = "rejected"
	AuditReviewed AuditAction = "reviewed"
)

// AuditEntry is an immutable record of a regulatory decision. Company and
// verifier names are snapshotted at write time so history survives later
// identity renames. Rows are append-only and owned by no one.
type AuditEntry struct {
	AuditID        string           `json:"auditID"`
	Action         AuditAction      `json:"action"`
	ReportID       string           `json:"reportID"`
	ReportTitle    string           `json:"reportTitle"`
	CompanyID      string           `json:"companyID"`
	CompanyName    string           `json:"companyName"`
	VerifierID     string           `json:"verifierID"`
	VerifierName   string           `json:"verifierName"`
	Notes          string           `json:"notes"`
	CreditsIssued  *decimal.Decimal `json:"creditsIssued,omitempty"`
	PreviousStatus ReportStatus     `json:"previousStatus"`
	NewStatus      ReportStatus     `json:"newStatus"`
	CreatedAt      time.Time        `json:"timestamp"`
}

// AuditStats aggregates the audit trail for the regulator dashboard.
type AuditStats struct {
	Total         int64           `json:"total"`
	Approved      int64           `json:"approved"`
	Rejected      int64           `json:"rejected"`
	Reviewed      int64           `json:"reviewed"`
	CreditsIssued decimal.Decimal `json:"creditsIssued"`
}
