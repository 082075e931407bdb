package risk

import (
	"sentinel/internal/domain/position"
)

// Pure position risk math. No state, no I/O; each function is independent
// and deterministic given a position snapshot.

// ComputeHealthFactor returns (collateralValue * liquidationThreshold) / debtValue.
// A position with zero debt cannot be liquidated and yields an unbounded factor.
func ComputeHealthFactor(p *position.Position) HealthFactor {
	if p.DebtValueUSD <= 0 {
		return UnboundedHealthFactor()
	}
	return FiniteHealthFactor(p.CollateralValueUSD * p.LiquidationThreshold / p.DebtValueUSD)
}

// ComputeLiquidationPrice returns the collateral unit price at which the
// position's health factor reaches 1.0, plus the current implied unit price.
// Zero collateral or a zero threshold is degenerate, not an error: both
// prices are 0.
func ComputeLiquidationPrice(p *position.Position) (liqPrice, currentPrice float64) {
	amount := p.CollateralAmount.InexactFloat64()
	if amount <= 0 {
		return 0, 0
	}

	currentPrice = p.CollateralValueUSD / amount
	if p.LiquidationThreshold > 0 {
		liqPrice = p.DebtValueUSD / (amount * p.LiquidationThreshold)
	}
	return liqPrice, currentPrice
}

// BufferPercent converts a health factor into its safety margin:
// (healthFactor - 1) * 100, clamped at zero on export. The signed value
// survives inside the Buffer for callers that want the severity distinction
// between "close to liquidation" and "already liquidatable".
func BufferPercent(hf HealthFactor) Buffer {
	if hf.IsUnbounded() {
		return UnboundedBuffer()
	}
	return FiniteBuffer((hf.Value() - 1.0) * 100)
}
