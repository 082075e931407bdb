package protocols

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"sentinel/internal/domain/position"
	"sentinel/internal/domain/wallet"
	"sentinel/internal/oracle"
	"sentinel/pkg/logger"
)

const compoundProtocolID = "compound"

// compoundAccount is the Comet-style account view: a single borrowed base
// asset backed by one or more collateral assets.
type compoundAccount struct {
	BaseAsset     string `json:"baseAsset"`
	BorrowBalance string `json:"borrowBalance"`
	Collateral    []struct {
		Asset                  string  `json:"asset"`
		Balance                string  `json:"balance"`
		LiquidateCollateralPct float64 `json:"liquidateCollateralFactor"`
	} `json:"collateral"`
}

// Compound resolves a wallet's Compound (Comet) borrowing position.
// One position per collateral asset against the borrowed base asset.
type Compound struct {
	endpoint string
	client   *http.Client
	oracle   oracle.Oracle
	log      *logger.Logger
}

// NewCompound creates the Compound protocol adapter
func NewCompound(endpoint string, client *http.Client, priceOracle oracle.Oracle) *Compound {
	return &Compound{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
		oracle:   priceOracle,
		log:      logger.Get().With("protocol", compoundProtocolID),
	}
}

// ID returns the protocol identifier
func (c *Compound) ID() string {
	return compoundProtocolID
}

// FetchPositions resolves the wallet's Comet account into positions
func (c *Compound) FetchPositions(ctx context.Context, addr wallet.Address) ([]position.Position, error) {
	url := fmt.Sprintf("%s/accounts/%s", c.endpoint, addr.String())

	var account compoundAccount
	if err := getJSON(ctx, c.client, url, &account); err != nil {
		return nil, err
	}

	debtAmount := parseAmount(account.BorrowBalance)
	if debtAmount.IsZero() || len(account.Collateral) == 0 {
		return nil, nil
	}

	debtValue := usdValue(ctx, c.oracle, account.BaseAsset, debtAmount.InexactFloat64(), c.log)

	var positions []position.Position
	for _, col := range account.Collateral {
		amount := parseAmount(col.Balance)
		if amount.IsZero() {
			continue
		}

		p := position.Position{
			ID:                   fmt.Sprintf("%s:%s:%s-%s", compoundProtocolID, addr.String(), col.Asset, account.BaseAsset),
			ProtocolID:           compoundProtocolID,
			CollateralAsset:      col.Asset,
			DebtAsset:            account.BaseAsset,
			CollateralAmount:     amount,
			DebtAmount:           debtAmount,
			CollateralValueUSD:   usdValue(ctx, c.oracle, col.Asset, amount.InexactFloat64(), c.log),
			DebtValueUSD:         debtValue,
			LiquidationThreshold: col.LiquidateCollateralPct,
		}

		if err := p.Validate(); err != nil {
			c.log.Warnw("Skipping malformed collateral entry", "asset", col.Asset, "error", err)
			continue
		}
		positions = append(positions, p)
	}

	return positions, nil
}

var _ Source = (*Compound)(nil)
