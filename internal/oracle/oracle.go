package oracle

import (
	"context"
	"strings"

	"sentinel/internal/adapters/config"
)

// Oracle resolves the current USD price for an asset identifier.
// A lookup failure is never fatal: callers downgrade it to a zero USD
// value for the affected leg.
type Oracle interface {
	Price(ctx context.Context, asset string) (float64, error)
}

// NewFromConfig builds the configured oracle implementation.
// Unknown providers fall back to the static oracle so the pipeline keeps
// producing (degraded) snapshots.
func NewFromConfig(cfg config.OracleConfig) Oracle {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "coingecko":
		return NewCoinGecko(cfg)
	case "static":
		return NewStatic(nil)
	default:
		return NewStatic(nil)
	}
}
