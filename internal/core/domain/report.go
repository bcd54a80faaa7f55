package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportStatus is the lifecycle state of an emission report.
// Transitions are one-way: pending -> approved or pending -> rejected.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportApproved ReportStatus = "approved"
	ReportRejected ReportStatus = "rejected"
)

// ReportCategory classifies the reporting period or project type.
type ReportCategory string

const (
	CategoryQuarterly ReportCategory = "quarterly"
	CategoryProject   ReportCategory = "project"
	CategoryAnnual    ReportCategory = "annual"
)

// Document is a reference to an uploaded supporting file. The registry stores
// the reference only; file contents are never opened or validated here.
type Document struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mimetype"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Report is a company's claim of emission reduction, subject to regulator
// review before any credit is minted.
//
// Invariants: IssuedCredits is set iff Status is approved; RejectionReason is
// set iff Status is rejected. Once reviewed, a report is immutable.
type Report struct {
	ReportID          string           `json:"reportID"` // RPT-<year>-<seq>
	CompanyID         string           `json:"companyID"`
	Title             string           `json:"title"`
	Category          ReportCategory   `json:"category"`
	Description       string           `json:"description"`
	Methodology       string           `json:"methodology"`
	BaselineEmissions decimal.Decimal  `json:"baselineEmissions"`
	ReportedEmissions decimal.Decimal  `json:"reportedEmissions"`
	EstimatedCredits  decimal.Decimal  `json:"estimatedCredits"`
	IssuedCredits     *decimal.Decimal `json:"issuedCredits,omitempty"`
	Status            ReportStatus     `json:"status"`
	RejectionReason   *string          `json:"rejectionReason,omitempty"`
	Documents         []Document       `json:"documents"`
	SubmittedAt       time.Time        `json:"submittedAt"`
	ReviewedAt        *time.Time       `json:"reviewedAt,omitempty"`
	ReviewedBy        *string          `json:"reviewedBy,omitempty"`
	LedgerTxHash      *string          `json:"ledgerTxHash,omitempty"`
	LedgerReportID    *int64           `json:"ledgerReportID,omitempty"`
	AuditFields
}

// ReportApproval carries the fields written to a report when it is approved.
type ReportApproval struct {
	ReportID      string
	IssuedCredits decimal.Decimal
	ReviewedAt    time.Time
	ReviewerID    string
	LedgerTxHash  string
}

// ReportRejection carries the fields written to a report when it is rejected.
type ReportRejection struct {
	ReportID   string
	Reason     string
	ReviewedAt time.Time
	ReviewerID string
}
