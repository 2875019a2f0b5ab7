package market

import (
	"fmt"
	"math"
	"time"
)

// Candle represents a single OHLCV candle. Timestamp is epoch seconds of the
// candle open, UTC.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Time returns the candle open time in UTC.
func (c Candle) Time() time.Time {
	return time.Unix(c.Timestamp, 0).UTC()
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool {
	return c.Close > c.Open
}

// Bearish reports whether the candle closed below its open.
func (c Candle) Bearish() bool {
	return c.Close < c.Open
}

// Body returns the absolute body size.
func (c Candle) Body() float64 {
	return math.Abs(c.Close - c.Open)
}

// UpperWick returns the distance from the body top to the high.
func (c Candle) UpperWick() float64 {
	return c.High - math.Max(c.Open, c.Close)
}

// LowerWick returns the distance from the body bottom to the low.
func (c Candle) LowerWick() float64 {
	return math.Min(c.Open, c.Close) - c.Low
}

// TypicalPrice returns (high + low + close) / 3.
func (c Candle) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3
}

// CVDPoint is one cumulative-volume-delta row aligned to a candle timestamp.
type CVDPoint struct {
	Timestamp     int64   `json:"timestamp"`
	CVDPeriod     float64 `json:"cvd_period"`
	CVDCumulative float64 `json:"cvd_cumulative"`
}

// AlignCVD maps CVD points onto the candle timeline. Candles without a
// matching CVD timestamp get NaN.
func AlignCVD(candles []Candle, points []CVDPoint) []float64 {
	byTime := make(map[int64]float64, len(points))
	for _, p := range points {
		byTime[p.Timestamp] = p.CVDCumulative
	}

	aligned := make([]float64, len(candles))
	for i, c := range candles {
		if v, ok := byTime[c.Timestamp]; ok {
			aligned[i] = v
		} else {
			aligned[i] = math.NaN()
		}
	}
	return aligned
}

// Closes extracts the close series.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// TimeframeSeconds converts a timeframe string ("1m", "15m", "1h", "4h",
// "1d", "1w") into its step in seconds.
func TimeframeSeconds(timeframe string) (int64, error) {
	if len(timeframe) < 2 {
		return 0, fmt.Errorf("unsupported timeframe: %q", timeframe)
	}

	unit := timeframe[len(timeframe)-1]
	var value int64
	for _, r := range timeframe[:len(timeframe)-1] {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("unsupported timeframe: %q", timeframe)
		}
		value = value*10 + int64(r-'0')
	}
	if value <= 0 {
		return 0, fmt.Errorf("unsupported timeframe: %q", timeframe)
	}

	switch unit {
	case 'm':
		return value * 60, nil
	case 'h':
		return value * 3600, nil
	case 'd':
		return value * 86400, nil
	case 'w':
		return value * 7 * 86400, nil
	default:
		return 0, fmt.Errorf("unsupported timeframe: %q", timeframe)
	}
}
