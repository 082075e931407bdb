package oracle

import (
	"context"
	"strings"
	"sync"

	"sentinel/pkg/errors"
)

// Static serves prices from a fixed in-memory table.
// Used in tests and as the fallback when no real provider is configured.
type Static struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewStatic creates a static oracle from an asset -> USD price table
func NewStatic(prices map[string]float64) *Static {
	normalized := make(map[string]float64, len(prices))
	for asset, price := range prices {
		normalized[strings.ToUpper(asset)] = price
	}
	return &Static{prices: normalized}
}

// SetPrice sets or replaces one asset's price
func (o *Static) SetPrice(asset string, price float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[strings.ToUpper(asset)] = price
}

// Price returns the configured price, or ErrPriceUnavailable for unknown assets
func (o *Static) Price(ctx context.Context, asset string) (float64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	price, ok := o.prices[strings.ToUpper(asset)]
	if !ok {
		return 0, errors.Wrapf(errors.ErrPriceUnavailable, "no static price for %s", asset)
	}
	return price, nil
}
