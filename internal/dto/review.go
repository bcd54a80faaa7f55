package dto

import (
	"github.com/shopspring/decimal"
	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
)

// ApproveReportRequest is the regulator's approval payload. IssuedCredits
// defaults to the report's estimate when omitted.
type ApproveReportRequest struct {
	IssuedCredits *decimal.Decimal `json:"issuedCredits,omitempty"`
	Notes         string           `json:"notes"`
}

// RejectReportRequest is the regulator's rejection payload.
type RejectReportRequest struct {
	RejectionReason string `json:"rejectionReason" binding:"required"`
	Notes           string `json:"notes"`
}

// ApprovalResponse returns the reviewed report plus everything the approval
// created, per the Engine's success contract.
type ApprovalResponse struct {
	Message      string         `json:"message"`
	Report       *domain.Report `json:"report"`
	Credit       *domain.Credit `json:"credit,omitempty"`
	LedgerTxHash string         `json:"ledgerTxHash,omitempty"`
}
