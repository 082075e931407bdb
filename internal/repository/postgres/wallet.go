package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"sentinel/internal/domain/position"
	"sentinel/internal/domain/wallet"
	"sentinel/pkg/errors"
)

// Compile-time check
var _ wallet.Repository = (*WalletRepository)(nil)

// WalletRepository persists the latest monitoring configuration and
// position set per wallet. Upsert-only: no history is kept.
type WalletRepository struct {
	db DBTX
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db DBTX) *WalletRepository {
	return &WalletRepository{db: db}
}

// SaveConfig upserts the wallet's monitoring configuration
func (r *WalletRepository) SaveConfig(ctx context.Context, cfg *wallet.Config) error {
	query := `
		INSERT INTO wallet_configs (address, protocol_ids, alert_threshold_pct, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE SET
			protocol_ids = EXCLUDED.protocol_ids,
			alert_threshold_pct = EXCLUDED.alert_threshold_pct,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		cfg.Address.String(),
		pq.Array(cfg.ProtocolIDs),
		cfg.AlertThresholdPct,
		cfg.UpdatedAt,
	)
	return err
}

// GetConfig loads the wallet's monitoring configuration
func (r *WalletRepository) GetConfig(ctx context.Context, addr wallet.Address) (*wallet.Config, error) {
	query := `
		SELECT address, protocol_ids, alert_threshold_pct, updated_at
		FROM wallet_configs
		WHERE address = $1`

	cfg, err := r.scanConfig(r.db.QueryRowContext(ctx, query, addr.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(errors.ErrNotFound, "wallet config %s", addr.String())
		}
		return nil, err
	}
	return cfg, nil
}

// LatestConfig loads the most recently updated wallet configuration
func (r *WalletRepository) LatestConfig(ctx context.Context) (*wallet.Config, error) {
	query := `
		SELECT address, protocol_ids, alert_threshold_pct, updated_at
		FROM wallet_configs
		ORDER BY updated_at DESC
		LIMIT 1`

	cfg, err := r.scanConfig(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(errors.ErrNotFound, "no wallet config stored")
		}
		return nil, err
	}
	return cfg, nil
}

// scanConfig scans one wallet_configs row
func (r *WalletRepository) scanConfig(row *sql.Row) (*wallet.Config, error) {
	var (
		address     string
		protocolIDs pq.StringArray
		threshold   float64
		updatedAt   time.Time
	)
	if err := row.Scan(&address, &protocolIDs, &threshold, &updatedAt); err != nil {
		return nil, err
	}

	return &wallet.Config{
		Address:           wallet.Address(address),
		ProtocolIDs:       []string(protocolIDs),
		AlertThresholdPct: threshold,
		UpdatedAt:         updatedAt,
	}, nil
}

// ReplacePositions swaps the wallet's stored position set wholesale,
// preserving ledger ordering through the ordinal column
func (r *WalletRepository) ReplacePositions(ctx context.Context, addr wallet.Address, positions []position.Position) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM wallet_positions WHERE wallet_address = $1`, addr.String(),
	); err != nil {
		return err
	}

	query := `
		INSERT INTO wallet_positions (
			wallet_address, ordinal, id, protocol_id,
			collateral_asset, debt_asset,
			collateral_amount, debt_amount,
			collateral_value_usd, debt_value_usd,
			liquidation_threshold
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	for i, p := range positions {
		if _, err := r.db.ExecContext(ctx, query,
			addr.String(), i, p.ID, p.ProtocolID,
			p.CollateralAsset, p.DebtAsset,
			p.CollateralAmount, p.DebtAmount,
			p.CollateralValueUSD, p.DebtValueUSD,
			p.LiquidationThreshold,
		); err != nil {
			return err
		}
	}
	return nil
}

// GetPositions loads the wallet's stored position set in ledger order
func (r *WalletRepository) GetPositions(ctx context.Context, addr wallet.Address) ([]position.Position, error) {
	var positions []position.Position

	query := `
		SELECT id, protocol_id, collateral_asset, debt_asset,
			collateral_amount, debt_amount,
			collateral_value_usd, debt_value_usd,
			liquidation_threshold
		FROM wallet_positions
		WHERE wallet_address = $1
		ORDER BY ordinal`

	if err := r.db.SelectContext(ctx, &positions, query, addr.String()); err != nil {
		return nil, err
	}
	return positions, nil
}
