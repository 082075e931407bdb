package position

import (
	"github.com/shopspring/decimal"

	"sentinel/pkg/errors"
)

// Position represents a single collateral/debt pairing on one lending protocol.
// Identity is protocol-qualified and unique within a wallet's ledger.
type Position struct {
	ID         string `db:"id" json:"positionId"`
	ProtocolID string `db:"protocol_id" json:"protocolId"`

	CollateralAsset string `db:"collateral_asset" json:"collateralAsset"`
	DebtAsset       string `db:"debt_asset" json:"debtAsset"`

	// Token amounts, arbitrary precision
	CollateralAmount decimal.Decimal `db:"collateral_amount" json:"collateralAmount"`
	DebtAmount       decimal.Decimal `db:"debt_amount" json:"debtAmount"`

	// USD legs resolved through the price oracle.
	// A zero value can mean a degraded price lookup, callers may detect it.
	CollateralValueUSD float64 `db:"collateral_value_usd" json:"collateralValueUsd"`
	DebtValueUSD       float64 `db:"debt_value_usd" json:"debtValueUsd"`

	// Fraction of collateral value the protocol counts toward debt coverage
	LiquidationThreshold float64 `db:"liquidation_threshold" json:"liquidationThreshold"`
}

// Validate enforces the structural invariants of a position
func (p *Position) Validate() error {
	if p.ID == "" {
		return errors.NewValidationError("id", "must not be empty", p.ID)
	}
	if p.ProtocolID == "" {
		return errors.NewValidationError("protocolId", "must not be empty", p.ProtocolID)
	}
	if p.LiquidationThreshold < 0 || p.LiquidationThreshold > 1 {
		return errors.NewValidationError("liquidationThreshold", "must be within [0, 1]", p.LiquidationThreshold)
	}
	if p.CollateralValueUSD < 0 {
		return errors.NewValidationError("collateralValueUsd", "must not be negative", p.CollateralValueUSD)
	}
	if p.DebtValueUSD < 0 {
		return errors.NewValidationError("debtValueUsd", "must not be negative", p.DebtValueUSD)
	}
	if p.CollateralAmount.IsNegative() {
		return errors.NewValidationError("collateralAmount", "must not be negative", p.CollateralAmount.String())
	}
	if p.DebtAmount.IsNegative() {
		return errors.NewValidationError("debtAmount", "must not be negative", p.DebtAmount.String())
	}
	return nil
}
