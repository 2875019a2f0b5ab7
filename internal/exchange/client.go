// Package exchange fetches OHLCV and aggregate-trade data from the Binance
// REST API and keeps the local store up to date.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"crypto-signal-scanner/internal/market"
)

// DefaultBaseURL is the public Binance spot API.
const DefaultBaseURL = "https://api.binance.com"

// Client is a Binance REST client with bounded retries. Retries use a
// linearly increasing delay and are skipped on 4xx responses.
type Client struct {
	apiKey     string
	secretKey  string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

// AggTrade is one aggregated trade.
type AggTrade struct {
	ID           int64   `json:"a"`
	Price        float64 `json:"p,string"`
	Quantity     float64 `json:"q,string"`
	Timestamp    int64   `json:"T"`
	IsBuyerMaker bool    `json:"m"`
}

// statusError marks a non-2xx API response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.code, e.body)
}

// NewClient creates a client. Empty baseURL uses the public endpoint.
func NewClient(apiKey, secretKey, baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		secretKey:  secretKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		retryDelay: time.Second,
		logger:     logger.With().Str("component", "exchange").Logger(),
	}
}

// GetKlines fetches candles for a symbol and interval, oldest first.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/api/v3/klines", params)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err)
	}

	var rawKlines [][]interface{}
	if err := json.Unmarshal(body, &rawKlines); err != nil {
		return nil, fmt.Errorf("parse klines: %w", err)
	}

	candles := make([]market.Candle, 0, len(rawKlines))
	for _, raw := range rawKlines {
		if len(raw) < 6 {
			continue
		}
		openTime, ok := raw[0].(float64)
		if !ok {
			continue
		}
		candles = append(candles, market.Candle{
			Timestamp: int64(openTime) / 1000,
			Open:      parseFloat(raw[1]),
			High:      parseFloat(raw[2]),
			Low:       parseFloat(raw[3]),
			Close:     parseFloat(raw[4]),
			Volume:    parseFloat(raw[5]),
		})
	}
	return candles, nil
}

// GetAggTrades fetches aggregated trades in [startMs, endMs).
func (c *Client) GetAggTrades(ctx context.Context, symbol string, startMs, endMs int64) ([]AggTrade, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("startTime", strconv.FormatInt(startMs, 10))
	params.Set("endTime", strconv.FormatInt(endMs, 10))
	params.Set("limit", "1000")

	body, err := c.get(ctx, "/api/v3/aggTrades", params)
	if err != nil {
		return nil, fmt.Errorf("fetch aggTrades %s: %w", symbol, err)
	}

	var trades []AggTrade
	if err := json.Unmarshal(body, &trades); err != nil {
		return nil, fmt.Errorf("parse aggTrades: %w", err)
	}
	return trades, nil
}

// get issues a GET with retries. Client errors (4xx) fail immediately.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			delay := c.retryDelay * time.Duration(attempt-1)
			c.logger.Debug().Str("path", path).Int("attempt", attempt).Dur("delay", delay).Msg("retrying request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.doGet(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if se, ok := err.(*statusError); ok && se.code >= 400 && se.code < 500 {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) doGet(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}
	return body, nil
}

func parseFloat(v interface{}) float64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
