package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies the lifecycle event a transaction records.
type TransactionType string

const (
	TxnIssued      TransactionType = "issued"
	TxnTransferred TransactionType = "transferred"
	TxnRetired     TransactionType = "retired"
)

// TransactionStatus tracks chain confirmation of the recorded event.
type TransactionStatus string

const (
	TxnPending   TransactionStatus = "pending"
	TxnConfirmed TransactionStatus = "confirmed"
	TxnFailed    TransactionStatus = "failed"
)

// Transaction is an immutable ledger-reconciliation record, written as the
// terminal side effect of a successful issue/transfer/retire operation.
// Rows are append-only; the only permitted update is marking confirmation.
type Transaction struct {
	TransactionID    string            `json:"transactionID"` // TXN-<year>-<seq>
	Type             TransactionType   `json:"type"`
	FromUserID       *string           `json:"fromUserID,omitempty"`
	ToUserID         *string           `json:"toUserID,omitempty"`
	CreditID         string            `json:"creditID"`
	Amount           decimal.Decimal   `json:"amount"`
	LedgerTxHash     *string           `json:"ledgerTxHash,omitempty"`
	BlockNumber      *int64            `json:"blockNumber,omitempty"`
	Status           TransactionStatus `json:"status"`
	RetirementReason *string           `json:"retirementReason,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	ConfirmedAt      *time.Time        `json:"confirmedAt,omitempty"`
}
