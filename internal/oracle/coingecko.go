package oracle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sentinel/internal/adapters/config"
	"sentinel/pkg/errors"
	"sentinel/pkg/logger"
)

const coinGeckoDefaultBaseURL = "https://api.coingecko.com/api/v3"

// symbolToID maps common asset symbols onto CoinGecko coin IDs.
// Unknown symbols are passed through lowercased; protocols that already
// resolve coin IDs need no mapping at all.
var symbolToID = map[string]string{
	"ETH":    "ethereum",
	"WETH":   "weth",
	"BTC":    "bitcoin",
	"WBTC":   "wrapped-bitcoin",
	"USDC":   "usd-coin",
	"USDT":   "tether",
	"DAI":    "dai",
	"STETH":  "staked-ether",
	"WSTETH": "wrapped-steth",
	"AAVE":   "aave",
	"CRV":    "curve-dao-token",
	"LINK":   "chainlink",
}

// CoinGecko is a rate-limited HTTP price oracle
type CoinGecko struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewCoinGecko creates a CoinGecko oracle from config
func NewCoinGecko(cfg config.OracleConfig) *CoinGecko {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = coinGeckoDefaultBaseURL
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &CoinGecko{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 5),
		log:     logger.Get().With("component", "coingecko_oracle"),
	}
}

// Price fetches the current USD price for one asset
func (o *CoinGecko) Price(ctx context.Context, asset string) (float64, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return 0, errors.Wrap(errors.ErrRateLimitExceeded, err.Error())
	}

	id := coinID(asset)
	endpoint, err := url.Parse(o.baseURL + "/simple/price")
	if err != nil {
		return 0, errors.Wrap(errors.ErrPriceUnavailable, err.Error())
	}

	query := endpoint.Query()
	query.Set("ids", id)
	query.Set("vs_currencies", "usd")
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return 0, errors.Wrap(errors.ErrPriceUnavailable, err.Error())
	}
	req.Header.Set("Accept", "application/json")
	if o.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrPriceUnavailable, "coingecko request for %s: %v", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return 0, errors.Wrapf(errors.ErrPriceUnavailable, "coingecko status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, errors.Wrap(errors.ErrPriceUnavailable, err.Error())
	}

	price, ok := payload[id]["usd"]
	if !ok {
		return 0, errors.Wrapf(errors.ErrPriceUnavailable, "no usd quote for %s", id)
	}

	o.log.Debugw("Price resolved", "asset", asset, "coin_id", id, "price", price)
	return price, nil
}

// coinID resolves an asset identifier to a CoinGecko coin ID
func coinID(asset string) string {
	if id, ok := symbolToID[strings.ToUpper(asset)]; ok {
		return id
	}
	return strings.ToLower(asset)
}
