package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the persisted form of a reconciliation record.
type Transaction struct {
	TransactionID    string          `db:"transaction_id"`
	Type             string          `db:"type"`
	FromUserID       *string         `db:"from_user_id"`
	ToUserID         *string         `db:"to_user_id"`
	CreditID         string          `db:"credit_id"`
	Amount           decimal.Decimal `db:"amount"`
	LedgerTxHash     *string         `db:"ledger_tx_hash"`
	BlockNumber      *int64          `db:"block_number"`
	Status           string          `db:"status"`
	RetirementReason *string         `db:"retirement_reason"`
	CreatedAt        time.Time       `db:"created_at"`
	ConfirmedAt      *time.Time      `db:"confirmed_at"`
}
