package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/domain/position"
	"sentinel/pkg/errors"
)

const testWallet = "0xABCDEF0000000000000000000000000000000001"

func testPosition(id string) position.Position {
	return position.Position{
		ID:                   id,
		ProtocolID:           "aave",
		CollateralAsset:      "WETH",
		DebtAsset:            "USDC",
		CollateralAmount:     decimal.NewFromInt(10),
		DebtAmount:           decimal.NewFromInt(5000),
		CollateralValueUSD:   25000,
		DebtValueUSD:         5000,
		LiquidationThreshold: 0.8,
	}
}

func TestLedger_Initialize(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		l := New()

		err := l.Initialize(testWallet, []string{"aave", "curve"}, 20)
		require.NoError(t, err)

		cfg := l.Config()
		assert.Equal(t, "0xabcdef0000000000000000000000000000000001", cfg.Wallet)
		assert.Equal(t, []string{"aave", "curve"}, cfg.ProtocolIDs)
		assert.Equal(t, 20.0, cfg.AlertThresholdPct)
		assert.Zero(t, cfg.PositionCount)
		assert.True(t, cfg.LastChecked.IsZero())
		assert.False(t, cfg.AlertHit)
	})

	t.Run("invalid wallet leaves state unchanged", func(t *testing.T) {
		l := New()

		err := l.Initialize("not-an-address", []string{"aave"}, 15)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))

		cfg := l.Config()
		assert.Equal(t, WalletNotSet, cfg.Wallet)
	})

	t.Run("empty protocol list rejected", func(t *testing.T) {
		l := New()

		err := l.Initialize(testWallet, nil, 15)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("threshold outside range rejected", func(t *testing.T) {
		l := New()

		assert.Error(t, l.Initialize(testWallet, []string{"aave"}, -1))
		assert.Error(t, l.Initialize(testWallet, []string{"aave"}, 101))
	})

	t.Run("reinitialize clears positions", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Initialize(testWallet, []string{"aave"}, 15))
		require.NoError(t, l.UpsertPosition(testPosition("p1")))

		require.NoError(t, l.Initialize(testWallet, []string{"aave"}, 15))
		assert.Empty(t, l.Positions())
	})
}

func TestLedger_SetWallet(t *testing.T) {
	l := New()
	require.NoError(t, l.Initialize(testWallet, []string{"aave", "compound"}, 25))
	require.NoError(t, l.UpsertPosition(testPosition("p1")))

	err := l.SetWallet("0x0000000000000000000000000000000000000002")
	require.NoError(t, err)

	cfg := l.Config()
	assert.Equal(t, "0x0000000000000000000000000000000000000002", cfg.Wallet)
	assert.Equal(t, 25.0, cfg.AlertThresholdPct, "threshold survives wallet switch")
	assert.Equal(t, []string{"aave", "compound"}, cfg.ProtocolIDs)
	assert.Empty(t, l.Positions(), "positions reset on wallet switch")
}

func TestLedger_ReplacePositions(t *testing.T) {
	l := New()
	require.NoError(t, l.Initialize(testWallet, []string{"aave"}, 15))

	t.Run("wholesale replace", func(t *testing.T) {
		require.NoError(t, l.ReplacePositions([]position.Position{
			testPosition("p1"), testPosition("p2"),
		}))
		require.NoError(t, l.ReplacePositions([]position.Position{testPosition("p3")}))

		positions := l.Positions()
		require.Len(t, positions, 1)
		assert.Equal(t, "p3", positions[0].ID)
	})

	t.Run("later duplicates overwrite earlier entries", func(t *testing.T) {
		first := testPosition("dup")
		second := testPosition("dup")
		second.DebtValueUSD = 9999

		require.NoError(t, l.ReplacePositions([]position.Position{first, testPosition("other"), second}))

		positions := l.Positions()
		require.Len(t, positions, 2)
		assert.Equal(t, "dup", positions[0].ID)
		assert.Equal(t, 9999.0, positions[0].DebtValueUSD)
		assert.Equal(t, "other", positions[1].ID)
	})
}

func TestLedger_UpsertPosition(t *testing.T) {
	t.Run("requires a configured wallet", func(t *testing.T) {
		l := New()

		err := l.UpsertPosition(testPosition("p1"))
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("insert then replace by identity", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Initialize(testWallet, []string{"aave"}, 15))

		require.NoError(t, l.UpsertPosition(testPosition("p1")))

		updated := testPosition("p1")
		updated.DebtValueUSD = 7000
		require.NoError(t, l.UpsertPosition(updated))

		positions := l.Positions()
		require.Len(t, positions, 1)
		assert.Equal(t, 7000.0, positions[0].DebtValueUSD)
	})

	t.Run("rejects malformed positions", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Initialize(testWallet, []string{"aave"}, 15))

		bad := testPosition("p1")
		bad.LiquidationThreshold = 1.5
		assert.Error(t, l.UpsertPosition(bad))
	})
}

func TestLedger_ConfigDefaults(t *testing.T) {
	l := New()

	cfg := l.Config()

	assert.Equal(t, WalletNotSet, cfg.Wallet)
	assert.Empty(t, cfg.ProtocolIDs)
	assert.Equal(t, 15.0, cfg.AlertThresholdPct)
	assert.Zero(t, cfg.PositionCount)
	assert.False(t, cfg.AlertHit)
	assert.Nil(t, l.MonitoringState())
}
