package exchange

import (
	"context"
	"fmt"

	"crypto-signal-scanner/internal/market"
)

// TradeDelta sums signed trade volume: buyer-maker trades are sells, the
// rest are buys.
func TradeDelta(trades []AggTrade) float64 {
	delta := 0.0
	for _, t := range trades {
		if t.IsBuyerMaker {
			delta -= t.Quantity
		} else {
			delta += t.Quantity
		}
	}
	return delta
}

// CVDPoints derives one CVD point per candle from aggregated trades, with a
// running cumulative total across the slice.
func (c *Client) CVDPoints(ctx context.Context, symbol, timeframe string, candles []market.Candle) ([]market.CVDPoint, error) {
	tfSeconds, err := market.TimeframeSeconds(timeframe)
	if err != nil {
		return nil, err
	}

	points := make([]market.CVDPoint, 0, len(candles))
	cumulative := 0.0
	for _, candle := range candles {
		startMs := candle.Timestamp * 1000
		endMs := (candle.Timestamp + tfSeconds) * 1000

		trades, err := c.GetAggTrades(ctx, symbol, startMs, endMs)
		if err != nil {
			return nil, fmt.Errorf("cvd for candle %d: %w", candle.Timestamp, err)
		}

		delta := TradeDelta(trades)
		cumulative += delta
		points = append(points, market.CVDPoint{
			Timestamp:     candle.Timestamp,
			CVDPeriod:     delta,
			CVDCumulative: cumulative,
		})
	}
	return points, nil
}
