package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestValidateGiveawayID(t *testing.T) {
	assert.NoError(t, ValidateGiveawayID("txn_1700000000_abc"))
	assert.NoError(t, ValidateGiveawayID("d3b07384-d9a0-4c9b-8f0e-1f2a3b4c5d6e"))
	assert.Error(t, ValidateGiveawayID(""))
	assert.Error(t, ValidateGiveawayID("has space"))
	assert.Error(t, ValidateGiveawayID("../etc"))
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("0.5")))
	assert.Error(t, ValidateAmount(decimal.Zero))
	assert.Error(t, ValidateAmount(decimal.RequireFromString("-1")))
	assert.Error(t, ValidateAmount(decimal.RequireFromString("0.0000000000000000001")))
}

func TestValidateFunding(t *testing.T) {
	four := decimal.NewFromInt(4)

	assert.NoError(t, ValidateFunding(decimal.NewFromInt(10), four, nil))
	assert.NoError(t, ValidateFunding(decimal.NewFromInt(12), four, intPtr(3)))
	assert.Error(t, ValidateFunding(decimal.NewFromInt(10), four, intPtr(3)))
}

func TestValidateDurationHours(t *testing.T) {
	assert.NoError(t, ValidateDurationHours(0))
	assert.NoError(t, ValidateDurationHours(24))
	assert.Error(t, ValidateDurationHours(-1))
	assert.Error(t, ValidateDurationHours(MaxDurationHours+1))
}

func TestValidateKeywords(t *testing.T) {
	assert.NoError(t, ValidateKeywords(nil))
	assert.NoError(t, ValidateKeywords([]string{"win", "airdrop"}))
	assert.Error(t, ValidateKeywords([]string{" "}))

	many := make([]string, MaxKeywords+1)
	for i := range many {
		many[i] = "kw"
	}
	assert.Error(t, ValidateKeywords(many))
}

func TestValidateTwitterHandle(t *testing.T) {
	assert.NoError(t, ValidateTwitterHandle("@jack"))
	assert.NoError(t, ValidateTwitterHandle("some_user_1"))
	assert.Error(t, ValidateTwitterHandle("@"))
	assert.Error(t, ValidateTwitterHandle("way_too_long_handle_name"))
}

func TestNormalizeWalletAddress(t *testing.T) {
	addr, err := NormalizeWalletAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", addr)

	_, err = NormalizeWalletAddress("0x123")
	assert.Error(t, err)
}
