package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/domain/position"
	"sentinel/internal/domain/wallet"
	"sentinel/pkg/errors"
)

func newMockRepo(t *testing.T) (*WalletRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewWalletRepository(sqlx.NewDb(db, "postgres")), mock
}

func testAddr(t *testing.T) wallet.Address {
	t.Helper()
	addr, err := wallet.ParseAddress("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	return addr
}

func TestWalletRepository_SaveConfig(t *testing.T) {
	repo, mock := newMockRepo(t)
	addr := testAddr(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO wallet_configs").
		WithArgs(addr.String(), pq.Array([]string{"aave", "curve"}), 20.0, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveConfig(context.Background(), &wallet.Config{
		Address:           addr,
		ProtocolIDs:       []string{"aave", "curve"},
		AlertThresholdPct: 20,
		UpdatedAt:         now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepository_GetConfig(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		addr := testAddr(t)
		now := time.Now().UTC()

		rows := sqlmock.NewRows([]string{"address", "protocol_ids", "alert_threshold_pct", "updated_at"}).
			AddRow(addr.String(), pq.StringArray{"aave"}, 15.0, now)
		mock.ExpectQuery("SELECT address, protocol_ids").
			WithArgs(addr.String()).
			WillReturnRows(rows)

		cfg, err := repo.GetConfig(context.Background(), addr)
		require.NoError(t, err)
		assert.Equal(t, addr, cfg.Address)
		assert.Equal(t, []string{"aave"}, cfg.ProtocolIDs)
		assert.Equal(t, 15.0, cfg.AlertThresholdPct)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing wallet maps to not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		addr := testAddr(t)

		mock.ExpectQuery("SELECT address, protocol_ids").
			WithArgs(addr.String()).
			WillReturnRows(sqlmock.NewRows([]string{"address", "protocol_ids", "alert_threshold_pct", "updated_at"}))

		_, err := repo.GetConfig(context.Background(), addr)
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})
}

func TestWalletRepository_LatestConfig(t *testing.T) {
	t.Run("returns the most recently updated config", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		addr := testAddr(t)
		now := time.Now().UTC()

		rows := sqlmock.NewRows([]string{"address", "protocol_ids", "alert_threshold_pct", "updated_at"}).
			AddRow(addr.String(), pq.StringArray{"aave", "curve"}, 30.0, now)
		mock.ExpectQuery("ORDER BY updated_at DESC").
			WillReturnRows(rows)

		cfg, err := repo.LatestConfig(context.Background())
		require.NoError(t, err)
		assert.Equal(t, addr, cfg.Address)
		assert.Equal(t, []string{"aave", "curve"}, cfg.ProtocolIDs)
		assert.Equal(t, 30.0, cfg.AlertThresholdPct)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty table maps to not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("ORDER BY updated_at DESC").
			WillReturnRows(sqlmock.NewRows([]string{"address", "protocol_ids", "alert_threshold_pct", "updated_at"}))

		_, err := repo.LatestConfig(context.Background())
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})
}

func TestWalletRepository_ReplacePositions(t *testing.T) {
	repo, mock := newMockRepo(t)
	addr := testAddr(t)

	p := position.Position{
		ID:                   "aave:p1",
		ProtocolID:           "aave",
		CollateralAsset:      "WETH",
		DebtAsset:            "USDC",
		CollateralAmount:     decimal.NewFromInt(10),
		DebtAmount:           decimal.NewFromInt(5000),
		CollateralValueUSD:   25000,
		DebtValueUSD:         5000,
		LiquidationThreshold: 0.8,
	}

	mock.ExpectExec("DELETE FROM wallet_positions").
		WithArgs(addr.String()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO wallet_positions").
		WithArgs(addr.String(), 0, p.ID, p.ProtocolID,
			p.CollateralAsset, p.DebtAsset,
			p.CollateralAmount, p.DebtAmount,
			p.CollateralValueUSD, p.DebtValueUSD,
			p.LiquidationThreshold).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ReplacePositions(context.Background(), addr, []position.Position{p})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepository_GetPositions(t *testing.T) {
	repo, mock := newMockRepo(t)
	addr := testAddr(t)

	columns := []string{
		"id", "protocol_id", "collateral_asset", "debt_asset",
		"collateral_amount", "debt_amount",
		"collateral_value_usd", "debt_value_usd",
		"liquidation_threshold",
	}
	rows := sqlmock.NewRows(columns).
		AddRow("aave:p1", "aave", "WETH", "USDC", "10", "5000", 25000.0, 5000.0, 0.8).
		AddRow("curve:p1", "curve", "WBTC", "crvUSD", "1", "20000", 60000.0, 20000.0, 0.75)

	mock.ExpectQuery("SELECT id, protocol_id").
		WithArgs(addr.String()).
		WillReturnRows(rows)

	positions, err := repo.GetPositions(context.Background(), addr)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "aave:p1", positions[0].ID)
	assert.Equal(t, "curve:p1", positions[1].ID)
	assert.True(t, positions[0].CollateralAmount.Equal(decimal.NewFromInt(10)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
