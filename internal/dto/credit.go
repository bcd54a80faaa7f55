package dto

import (
	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
)

// TransferCreditRequest records a transfer the owner already executed with
// their own signing context. The chain transaction hash is the caller's proof
// of the on-chain action.
type TransferCreditRequest struct {
	ToAddress    string `json:"toAddress" binding:"required,chainaddr"`
	LedgerTxHash string `json:"ledgerTxHash" binding:"required,txhash"`
}

// RetireCreditRequest records a retirement executed by the owner.
type RetireCreditRequest struct {
	Reason       string `json:"reason" binding:"required"`
	LedgerTxHash string `json:"ledgerTxHash" binding:"required,txhash"`
}

// CreditMutationResponse returns the updated credit and the reconciliation
// record created alongside it.
type CreditMutationResponse struct {
	Message     string              `json:"message"`
	Credit      *domain.Credit      `json:"credit"`
	Transaction *domain.Transaction `json:"transaction"`
}
