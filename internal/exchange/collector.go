package exchange

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"crypto-signal-scanner/internal/market"
)

// Store persists collected market data.
type Store interface {
	SaveCandles(ctx context.Context, symbol, timeframe string, candles []market.Candle) error
	SaveCVD(ctx context.Context, symbol, timeframe string, points []market.CVDPoint) error
}

// Collector pulls candles and CVD for the configured symbols and timeframes
// and writes them to the store. One symbol failing never stops the rest.
type Collector struct {
	client     *Client
	store      Store
	symbols    []string
	timeframes []string
	limit      int
	withCVD    bool
	cvdDepth   int
	logger     zerolog.Logger
}

// NewCollector wires a collector. cvdDepth limits how many trailing candles
// get CVD backfilled per refresh; zero disables CVD collection.
func NewCollector(client *Client, store Store, symbols, timeframes []string, limit, cvdDepth int, logger zerolog.Logger) *Collector {
	return &Collector{
		client:     client,
		store:      store,
		symbols:    symbols,
		timeframes: timeframes,
		limit:      limit,
		withCVD:    cvdDepth > 0,
		cvdDepth:   cvdDepth,
		logger:     logger.With().Str("component", "collector").Logger(),
	}
}

// RefreshAll refreshes every symbol/timeframe pair once.
func (c *Collector) RefreshAll(ctx context.Context) {
	for _, symbol := range c.symbols {
		for _, timeframe := range c.timeframes {
			if err := c.Refresh(ctx, symbol, timeframe); err != nil {
				c.logger.Warn().Err(err).Str("symbol", symbol).Str("timeframe", timeframe).Msg("refresh failed")
			}
		}
	}
}

// Refresh fetches, validates, and stores one symbol/timeframe pair.
func (c *Collector) Refresh(ctx context.Context, symbol, timeframe string) error {
	candles, err := c.client.GetKlines(ctx, symbol, timeframe, c.limit)
	if err != nil {
		return err
	}
	if err := market.ValidateCandles(candles); err != nil {
		return fmt.Errorf("collected %s %s candles: %w", symbol, timeframe, err)
	}
	if gaps := countGaps(candles, timeframe); gaps > 0 {
		c.logger.Warn().Str("symbol", symbol).Str("timeframe", timeframe).Int("gaps", gaps).Msg("candle series has gaps")
	}

	if err := c.store.SaveCandles(ctx, symbol, timeframe, candles); err != nil {
		return err
	}
	c.logger.Debug().Str("symbol", symbol).Str("timeframe", timeframe).Int("candles", len(candles)).Msg("candles stored")

	if !c.withCVD {
		return nil
	}
	tail := candles
	if len(tail) > c.cvdDepth {
		tail = tail[len(tail)-c.cvdDepth:]
	}
	points, err := c.client.CVDPoints(ctx, symbol, timeframe, tail)
	if err != nil {
		return err
	}
	return c.store.SaveCVD(ctx, symbol, timeframe, points)
}

// countGaps counts consecutive candle pairs whose spacing is not exactly one
// timeframe interval.
func countGaps(candles []market.Candle, timeframe string) int {
	step, err := market.TimeframeSeconds(timeframe)
	if err != nil {
		return 0
	}
	gaps := 0
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp-candles[i-1].Timestamp != step {
			gaps++
		}
	}
	return gaps
}
