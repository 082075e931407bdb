package protocols

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"sentinel/internal/domain/position"
	"sentinel/internal/domain/wallet"
	"sentinel/internal/oracle"
	"sentinel/pkg/logger"
)

const aaveProtocolID = "aave"

// aaveUserReserve is one reserve row from the Aave data service.
// Amounts are decimal strings; the liquidation threshold arrives in basis
// points, Aave convention.
type aaveUserReserve struct {
	Symbol                  string `json:"symbol"`
	CollateralBalance       string `json:"aTokenBalance"`
	VariableDebt            string `json:"variableDebt"`
	StableDebt              string `json:"stableDebt"`
	UsageAsCollateral       bool   `json:"usageAsCollateralEnabled"`
	LiquidationThresholdBps int64  `json:"liquidationThresholdBps"`
}

type aaveUserResponse struct {
	Reserves []aaveUserReserve `json:"userReserves"`
}

// Aave resolves a wallet's Aave lending positions.
// Each borrowed reserve is paired with the wallet's dominant collateral
// reserve into one canonical position.
type Aave struct {
	endpoint string
	client   *http.Client
	oracle   oracle.Oracle
	log      *logger.Logger
}

// NewAave creates the Aave protocol adapter
func NewAave(endpoint string, client *http.Client, priceOracle oracle.Oracle) *Aave {
	return &Aave{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
		oracle:   priceOracle,
		log:      logger.Get().With("protocol", aaveProtocolID),
	}
}

// ID returns the protocol identifier
func (a *Aave) ID() string {
	return aaveProtocolID
}

// FetchPositions resolves the wallet's Aave reserves into positions
func (a *Aave) FetchPositions(ctx context.Context, addr wallet.Address) ([]position.Position, error) {
	url := fmt.Sprintf("%s/users/%s/reserves", a.endpoint, addr.String())

	var resp aaveUserResponse
	if err := getJSON(ctx, a.client, url, &resp); err != nil {
		return nil, err
	}

	collateral, collateralOK := dominantCollateral(resp.Reserves)

	var positions []position.Position
	for _, reserve := range resp.Reserves {
		debtAmount := parseAmount(reserve.VariableDebt).Add(parseAmount(reserve.StableDebt))
		if debtAmount.IsZero() || !collateralOK {
			continue
		}

		collateralAmount := parseAmount(collateral.CollateralBalance)
		threshold := float64(collateral.LiquidationThresholdBps) / 10000

		p := position.Position{
			ID:                   fmt.Sprintf("%s:%s:%s-%s", aaveProtocolID, addr.String(), collateral.Symbol, reserve.Symbol),
			ProtocolID:           aaveProtocolID,
			CollateralAsset:      collateral.Symbol,
			DebtAsset:            reserve.Symbol,
			CollateralAmount:     collateralAmount,
			DebtAmount:           debtAmount,
			CollateralValueUSD:   usdValue(ctx, a.oracle, collateral.Symbol, collateralAmount.InexactFloat64(), a.log),
			DebtValueUSD:         usdValue(ctx, a.oracle, reserve.Symbol, debtAmount.InexactFloat64(), a.log),
			LiquidationThreshold: threshold,
		}

		if err := p.Validate(); err != nil {
			a.log.Warnw("Skipping malformed reserve", "symbol", reserve.Symbol, "error", err)
			continue
		}
		positions = append(positions, p)
	}

	return positions, nil
}

// dominantCollateral picks the collateral-enabled reserve with the largest
// balance; Aave accounts usually concentrate collateral in one reserve
func dominantCollateral(reserves []aaveUserReserve) (aaveUserReserve, bool) {
	var best aaveUserReserve
	bestAmount := decimal.Zero
	found := false

	for _, r := range reserves {
		if !r.UsageAsCollateral {
			continue
		}
		amount := parseAmount(r.CollateralBalance)
		if amount.GreaterThan(bestAmount) {
			best = r
			bestAmount = amount
			found = true
		}
	}
	return best, found
}

// parseAmount parses a decimal amount string; malformed input counts as zero
func parseAmount(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

var _ Source = (*Aave)(nil)
