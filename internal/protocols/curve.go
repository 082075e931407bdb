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

const curveProtocolID = "curve"

// curveLoan is one LlamaLend market loan for a wallet
type curveLoan struct {
	MarketID             string  `json:"marketId"`
	CollateralToken      string  `json:"collateralToken"`
	BorrowedToken        string  `json:"borrowedToken"`
	CollateralAmount     string  `json:"collateralAmount"`
	DebtAmount           string  `json:"debtAmount"`
	LiquidationThreshold float64 `json:"liquidationThreshold"`
}

type curveLoansResponse struct {
	Loans []curveLoan `json:"loans"`
}

// Curve resolves a wallet's Curve LlamaLend loans, one position per market
type Curve struct {
	endpoint string
	client   *http.Client
	oracle   oracle.Oracle
	log      *logger.Logger
}

// NewCurve creates the Curve protocol adapter
func NewCurve(endpoint string, client *http.Client, priceOracle oracle.Oracle) *Curve {
	return &Curve{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
		oracle:   priceOracle,
		log:      logger.Get().With("protocol", curveProtocolID),
	}
}

// ID returns the protocol identifier
func (c *Curve) ID() string {
	return curveProtocolID
}

// FetchPositions resolves the wallet's loans across LlamaLend markets
func (c *Curve) FetchPositions(ctx context.Context, addr wallet.Address) ([]position.Position, error) {
	url := fmt.Sprintf("%s/loans?user=%s", c.endpoint, addr.String())

	var resp curveLoansResponse
	if err := getJSON(ctx, c.client, url, &resp); err != nil {
		return nil, err
	}

	var positions []position.Position
	for _, loan := range resp.Loans {
		collateralAmount := parseAmount(loan.CollateralAmount)
		debtAmount := parseAmount(loan.DebtAmount)
		if debtAmount.IsZero() && collateralAmount.IsZero() {
			continue
		}

		p := position.Position{
			ID:                   fmt.Sprintf("%s:%s:%s", curveProtocolID, addr.String(), loan.MarketID),
			ProtocolID:           curveProtocolID,
			CollateralAsset:      loan.CollateralToken,
			DebtAsset:            loan.BorrowedToken,
			CollateralAmount:     collateralAmount,
			DebtAmount:           debtAmount,
			CollateralValueUSD:   usdValue(ctx, c.oracle, loan.CollateralToken, collateralAmount.InexactFloat64(), c.log),
			DebtValueUSD:         usdValue(ctx, c.oracle, loan.BorrowedToken, debtAmount.InexactFloat64(), c.log),
			LiquidationThreshold: loan.LiquidationThreshold,
		}

		if err := p.Validate(); err != nil {
			c.log.Warnw("Skipping malformed loan", "market", loan.MarketID, "error", err)
			continue
		}
		positions = append(positions, p)
	}

	return positions, nil
}

var _ Source = (*Curve)(nil)
