package protocols

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"sentinel/internal/domain/position"
	"sentinel/internal/domain/wallet"
	"sentinel/internal/metrics"
	"sentinel/internal/oracle"
	"sentinel/pkg/errors"
	"sentinel/pkg/logger"
)

// Source is the capability every protocol adapter implements: resolve the
// raw lending positions a wallet holds on that protocol into the canonical
// Position shape, USD legs included.
type Source interface {
	ID() string
	FetchPositions(ctx context.Context, addr wallet.Address) ([]position.Position, error)
}

// getJSON performs a GET request and decodes the JSON response body
func getJSON(ctx context.Context, client *http.Client, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(errors.ErrProtocolUnavailable, err.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrProtocolUnavailable, "request %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return errors.Wrapf(errors.ErrProtocolUnavailable, "status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Wrapf(errors.ErrProtocolUnavailable, "decode response: %v", err)
	}
	return nil
}

// usdValue resolves amount * price for one leg through the oracle.
// A failed lookup yields 0: degraded but present, callers can detect the
// zero value. Zero amounts skip the lookup entirely.
func usdValue(ctx context.Context, o oracle.Oracle, asset string, amount float64, log *logger.Logger) float64 {
	if amount == 0 {
		return 0
	}

	price, err := o.Price(ctx, asset)
	if err != nil {
		metrics.PriceLookupFailures.WithLabelValues(asset).Inc()
		log.Warnw("Price lookup failed, using zero value", "asset", asset, "error", err)
		return 0
	}
	return amount * price
}
