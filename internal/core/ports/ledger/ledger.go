// Package ledger defines the driven port for the external chain. The
// Reconciliation Engine depends on this interface only; the EVM adapter
// lives under internal/adapters/ledger.
package ledger

import (
	"context"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// MintResult is the normalized outcome of a confirmed mint.
// TokenID is nil when the expected CreditIssued event was absent from the
// receipt; downstream reporting tolerates the unknown sentinel.
type MintResult struct {
	TxHash      string
	TokenID     *int64
	BlockNumber *int64
}

// TxResult is the normalized outcome of a confirmed transfer or retire.
type TxResult struct {
	TxHash      string
	BlockNumber *int64
}

// Client wraps the external chain. Every call is independent and blocks until
// the chain confirms, times out, or rejects; callers decide retry policy.
// All primary-operation failures are wrapped as apperrors.ErrLedgerFailed.
type Client interface {
	// Issue mints credits to a wallet address and parses the resulting
	// receipt for the token id.
	Issue(ctx context.Context, to string, amount decimal.Decimal, metadata string) (*MintResult, error)

	// Transfer moves a previously minted token to another wallet.
	Transfer(ctx context.Context, tokenID int64, to string) (*TxResult, error)

	// Retire permanently retires a token, recording the reason on chain.
	Retire(ctx context.Context, tokenID int64, reason string) (*TxResult, error)

	// RegisterReport records a report handle on the registry contract.
	// Best-effort companion operation: its failure must never fail the
	// caller's primary operation.
	RegisterReport(ctx context.Context, reportHandle int64, owner string) (int64, error)

	// TransactionConfirmed reports whether a caller-supplied transaction
	// hash corresponds to a successfully mined transaction.
	TransactionConfirmed(ctx context.Context, txHash string) (bool, error)
}

var txHashRe = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// IsValidAddress reports whether s is a well-formed chain address
// (0x-prefixed 20-byte hex string). common.IsHexAddress alone is not enough:
// it also accepts the unprefixed form, which is never valid here.
func IsValidAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

// IsValidTxHash reports whether s is a well-formed transaction hash
// (0x-prefixed 32-byte hex string).
func IsValidTxHash(s string) bool {
	return txHashRe.MatchString(s)
}
