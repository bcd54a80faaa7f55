package evm

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testTokenAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	otherAddr     = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func mustTokenABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(tokenABIJSON))
	require.NoError(t, err)
	return parsed
}

func issuedLog(addr common.Address, eventID common.Hash, tokenID int64) *types.Log {
	return &types.Log{
		Address: addr,
		Topics: []common.Hash{
			eventID,
			common.BigToHash(big.NewInt(tokenID)),
			common.BytesToHash(otherAddr.Bytes()),
		},
	}
}

func TestParseIssuedTokenID(t *testing.T) {
	tokenABI := mustTokenABI(t)
	eventID := tokenABI.Events["CreditIssued"].ID

	got := ParseIssuedTokenID(tokenABI, testTokenAddr, []*types.Log{
		issuedLog(testTokenAddr, eventID, 42),
	})
	require.NotNil(t, got)
	assert.Equal(t, int64(42), *got)
}

func TestParseIssuedTokenID_IgnoresForeignContract(t *testing.T) {
	tokenABI := mustTokenABI(t)
	eventID := tokenABI.Events["CreditIssued"].ID

	got := ParseIssuedTokenID(tokenABI, testTokenAddr, []*types.Log{
		issuedLog(otherAddr, eventID, 42),
	})
	assert.Nil(t, got)
}

func TestParseIssuedTokenID_AbsentEventIsNil(t *testing.T) {
	tokenABI := mustTokenABI(t)

	assert.Nil(t, ParseIssuedTokenID(tokenABI, testTokenAddr, nil))

	// A different event on the right contract does not count.
	got := ParseIssuedTokenID(tokenABI, testTokenAddr, []*types.Log{
		issuedLog(testTokenAddr, common.HexToHash("0xdeadbeef"), 42),
	})
	assert.Nil(t, got)
}

func TestParseIssuedTokenID_ZeroIsNotUnknown(t *testing.T) {
	tokenABI := mustTokenABI(t)
	eventID := tokenABI.Events["CreditIssued"].ID

	got := ParseIssuedTokenID(tokenABI, testTokenAddr, []*types.Log{
		issuedLog(testTokenAddr, eventID, 0),
	})
	require.NotNil(t, got)
	assert.Equal(t, int64(0), *got)
}
