package ledger_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/ledger"
)

func TestIsValidAddress(t *testing.T) {
	assert.True(t, ledger.IsValidAddress("0x1111111111111111111111111111111111111111"))
	assert.True(t, ledger.IsValidAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"))

	assert.False(t, ledger.IsValidAddress(""))
	assert.False(t, ledger.IsValidAddress("0x1234"))
	// go-ethereum treats the 0x prefix as optional; the registry does not.
	assert.False(t, ledger.IsValidAddress("1111111111111111111111111111111111111111"))
	assert.False(t, ledger.IsValidAddress("0X1111111111111111111111111111111111111111"))
	assert.False(t, ledger.IsValidAddress("0xZZ11111111111111111111111111111111111111"))
}

func TestIsValidTxHash(t *testing.T) {
	hash := "0x" + strings.Repeat("ab", 32)
	assert.True(t, ledger.IsValidTxHash(hash))
	assert.True(t, ledger.IsValidTxHash("0x"+strings.Repeat("AB", 32)))

	assert.False(t, ledger.IsValidTxHash(""))
	assert.False(t, ledger.IsValidTxHash(strings.Repeat("ab", 32)))
	assert.False(t, ledger.IsValidTxHash("0x"+strings.Repeat("ab", 31)))
	assert.False(t, ledger.IsValidTxHash("0x"+strings.Repeat("zz", 32)))
}
