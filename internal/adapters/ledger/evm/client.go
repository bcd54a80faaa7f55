// Package evm implements the ledger port against an EVM JSON-RPC endpoint
// using go-ethereum. All writes are signed with the regulator key; transfers
// and retirements initiated by credit owners happen in their own signing
// context and only reach this client for proof checks.
package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/verdantlabs/carbon_registry_app/internal/apperrors"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/ledger"
)

// Minimal ABI fragments for the two registry contracts: only the methods and
// events this client touches.
const tokenABIJSON = `[
	{"type":"function","name":"mintCredit","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"metadata","type":"string"}],"outputs":[]},
	{"type":"function","name":"transferCredit","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"},{"name":"to","type":"address"}],"outputs":[]},
	{"type":"function","name":"retireCredit","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"},{"name":"reason","type":"string"}],"outputs":[]},
	{"type":"event","name":"CreditIssued","inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}],"anonymous":false}
]`

const registryABIJSON = `[
	{"type":"function","name":"registerReport","stateMutability":"nonpayable","inputs":[{"name":"reportId","type":"uint256"},{"name":"company","type":"address"}],"outputs":[]},
	{"type":"event","name":"ReportRegistered","inputs":[{"name":"registryId","type":"uint256","indexed":true},{"name":"reportId","type":"uint256","indexed":false},{"name":"company","type":"address","indexed":false}],"anonymous":false}
]`

// Config carries everything needed to reach the chain.
type Config struct {
	RPCURL           string
	PrivateKeyHex    string
	ChainID          int64
	TokenContract    string
	RegistryContract string
	ConfirmTimeout   time.Duration
}

// Client talks to the chain over JSON-RPC. Stateless between calls; every
// operation is independent and awaits full confirmation.
type Client struct {
	eth            *ethclient.Client
	tokenABI       abi.ABI
	registryABI    abi.ABI
	token          *bind.BoundContract
	registry       *bind.BoundContract
	tokenAddr      common.Address
	registryAddr   common.Address
	key            *ecdsa.PrivateKey
	chainID        *big.Int
	confirmTimeout time.Duration
}

var _ ledger.Client = (*Client)(nil)

// NewClient dials the RPC endpoint and prepares contract bindings.
func NewClient(cfg Config) (*Client, error) {
	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain RPC %s: %w", cfg.RPCURL, err)
	}

	tokenABI, err := abi.JSON(strings.NewReader(tokenABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ABI: %w", err)
	}
	registryABI, err := abi.JSON(strings.NewReader(registryABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry ABI: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse regulator private key: %w", err)
	}

	if !common.IsHexAddress(cfg.TokenContract) {
		return nil, fmt.Errorf("token contract address %q is not a valid chain address", cfg.TokenContract)
	}
	if !common.IsHexAddress(cfg.RegistryContract) {
		return nil, fmt.Errorf("registry contract address %q is not a valid chain address", cfg.RegistryContract)
	}

	tokenAddr := common.HexToAddress(cfg.TokenContract)
	registryAddr := common.HexToAddress(cfg.RegistryContract)

	timeout := cfg.ConfirmTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Client{
		eth:            eth,
		tokenABI:       tokenABI,
		registryABI:    registryABI,
		token:          bind.NewBoundContract(tokenAddr, tokenABI, eth, eth, eth),
		registry:       bind.NewBoundContract(registryAddr, registryABI, eth, eth, eth),
		tokenAddr:      tokenAddr,
		registryAddr:   registryAddr,
		key:            key,
		chainID:        big.NewInt(cfg.ChainID),
		confirmTimeout: timeout,
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// transact sends a state-changing call and waits for it to be mined within
// the confirmation timeout.
func (c *Client) transact(ctx context.Context, contract *bind.BoundContract, method string, args ...interface{}) (*types.Receipt, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to prepare signer: %v", apperrors.ErrLedgerFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()
	opts.Context = ctx

	tx, err := contract.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s rejected: %v", apperrors.ErrLedgerFailed, method, err)
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: timed out waiting for %s confirmation: %v", apperrors.ErrLedgerFailed, method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s reverted in tx %s", apperrors.ErrLedgerFailed, method, receipt.TxHash.Hex())
	}
	return receipt, nil
}

// Issue mints credits to a wallet and parses the token id out of the
// CreditIssued event. An absent event yields a nil token id, not an error;
// some deployments emit from a proxy the filter below will not match.
func (c *Client) Issue(ctx context.Context, to string, amount decimal.Decimal, metadata string) (*ledger.MintResult, error) {
	if !common.IsHexAddress(to) {
		return nil, fmt.Errorf("%w: destination %q is not a valid chain address", apperrors.ErrLedgerFailed, to)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: mint amount must be positive", apperrors.ErrLedgerFailed)
	}

	receipt, err := c.transact(ctx, c.token, "mintCredit", common.HexToAddress(to), amount.BigInt(), metadata)
	if err != nil {
		return nil, err
	}

	blockNumber := receipt.BlockNumber.Int64()
	return &ledger.MintResult{
		TxHash:      receipt.TxHash.Hex(),
		TokenID:     ParseIssuedTokenID(c.tokenABI, c.tokenAddr, receipt.Logs),
		BlockNumber: &blockNumber,
	}, nil
}

// Transfer moves a minted token to another wallet using the regulator signer.
func (c *Client) Transfer(ctx context.Context, tokenID int64, to string) (*ledger.TxResult, error) {
	if !common.IsHexAddress(to) {
		return nil, fmt.Errorf("%w: destination %q is not a valid chain address", apperrors.ErrLedgerFailed, to)
	}
	receipt, err := c.transact(ctx, c.token, "transferCredit", big.NewInt(tokenID), common.HexToAddress(to))
	if err != nil {
		return nil, err
	}
	blockNumber := receipt.BlockNumber.Int64()
	return &ledger.TxResult{TxHash: receipt.TxHash.Hex(), BlockNumber: &blockNumber}, nil
}

// Retire permanently retires a token, recording the reason on chain.
func (c *Client) Retire(ctx context.Context, tokenID int64, reason string) (*ledger.TxResult, error) {
	receipt, err := c.transact(ctx, c.token, "retireCredit", big.NewInt(tokenID), reason)
	if err != nil {
		return nil, err
	}
	blockNumber := receipt.BlockNumber.Int64()
	return &ledger.TxResult{TxHash: receipt.TxHash.Hex(), BlockNumber: &blockNumber}, nil
}

// RegisterReport records a report handle on the registry contract and
// returns the registry id from the ReportRegistered event, falling back to
// the submitted handle when the event is absent.
func (c *Client) RegisterReport(ctx context.Context, reportHandle int64, owner string) (int64, error) {
	if !common.IsHexAddress(owner) {
		return 0, fmt.Errorf("%w: owner %q is not a valid chain address", apperrors.ErrLedgerFailed, owner)
	}
	receipt, err := c.transact(ctx, c.registry, "registerReport", big.NewInt(reportHandle), common.HexToAddress(owner))
	if err != nil {
		return 0, err
	}

	eventID := c.registryABI.Events["ReportRegistered"].ID
	for _, lg := range receipt.Logs {
		if lg.Address == c.registryAddr && len(lg.Topics) > 1 && lg.Topics[0] == eventID {
			return lg.Topics[1].Big().Int64(), nil
		}
	}
	return reportHandle, nil
}

// TransactionConfirmed reports whether a caller-supplied hash corresponds to
// a successfully mined transaction.
func (c *Client) TransactionConfirmed(ctx context.Context, txHash string) (bool, error) {
	if !ledger.IsValidTxHash(txHash) {
		return false, nil
	}
	receipt, err := c.eth.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if err == ethereum.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to fetch receipt for %s: %v", apperrors.ErrLedgerFailed, txHash, err)
	}
	return receipt.Status == types.ReceiptStatusSuccessful, nil
}

// ParseIssuedTokenID scans receipt logs for the CreditIssued event emitted
// by the token contract. Nil means the event was absent; that unknown is
// deliberately distinct from token id 0.
func ParseIssuedTokenID(tokenABI abi.ABI, tokenAddr common.Address, logs []*types.Log) *int64 {
	eventID := tokenABI.Events["CreditIssued"].ID
	for _, lg := range logs {
		if lg == nil || lg.Address != tokenAddr {
			continue
		}
		if len(lg.Topics) > 1 && lg.Topics[0] == eventID {
			id := lg.Topics[1].Big().Int64()
			return &id
		}
	}
	return nil
}
