// Package indicators computes technical indicator series from candle data.
// All smoothed indicators use unadjusted exponential recurrences so results
// are reproducible bar by bar.
package indicators

import (
	"math"

	"crypto-signal-scanner/internal/market"
)

// EMA calculates the exponential moving average with smoothing factor
// 2/(period+1), seeded at the first value.
func EMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, &market.ConfigError{Param: "period", Reason: "must be positive"}
	}
	if len(values) == 0 {
		return nil, market.ErrInsufficientData
	}

	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// ATR calculates the Average True Range with Wilder smoothing (alpha =
// 1/period). The first true range is high-low since there is no previous
// close.
func ATR(candles []market.Candle, period int) ([]float64, error) {
	if period <= 0 {
		return nil, &market.ConfigError{Param: "period", Reason: "must be positive"}
	}
	if err := market.ValidateCandles(candles); err != nil {
		return nil, err
	}

	tr := trueRange(candles)
	return wilder(tr, period), nil
}

// ADX calculates the Average Directional Index along with +DI and -DI.
// Outputs are clamped to [0,100]; divisions by zero yield 0.
func ADX(candles []market.Candle, period int) (adx, plusDI, minusDI []float64, err error) {
	if period <= 0 {
		return nil, nil, nil, &market.ConfigError{Param: "period", Reason: "must be positive"}
	}
	if err := market.ValidateCandles(candles); err != nil {
		return nil, nil, nil, err
	}

	n := len(candles)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	atr := wilder(trueRange(candles), period)
	smoothedPlus := wilder(plusDM, period)
	smoothedMinus := wilder(minusDM, period)

	plusDI = make([]float64, n)
	minusDI = make([]float64, n)
	dx := make([]float64, n)
	for i := 0; i < n; i++ {
		if atr[i] > 0 {
			plusDI[i] = clamp100(100 * smoothedPlus[i] / atr[i])
			minusDI[i] = clamp100(100 * smoothedMinus[i] / atr[i])
		}
		if sum := plusDI[i] + minusDI[i]; sum > 0 {
			dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
		}
	}

	adx = wilder(dx, period)
	for i := range adx {
		adx[i] = clamp100(adx[i])
	}
	return adx, plusDI, minusDI, nil
}

// RSI calculates the Relative Strength Index using Wilder-smoothed average
// gains and losses. The first element has no delta and is NaN. RSI is 100
// when the average loss is zero and 50 when both averages are zero.
func RSI(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, &market.ConfigError{Param: "period", Reason: "must be positive"}
	}
	if len(values) == 0 {
		return nil, market.ErrInsufficientData
	}

	out := make([]float64, len(values))
	out[0] = math.NaN()
	if len(values) == 1 {
		return out, nil
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		if i == 1 {
			avgGain = gain
			avgLoss = loss
		} else {
			avgGain += alpha * (gain - avgGain)
			avgLoss += alpha * (loss - avgLoss)
		}

		switch {
		case avgGain == 0 && avgLoss == 0:
			out[i] = 50
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = clamp100(100 - 100/(1+rs))
		}
	}
	return out, nil
}

// VWAP calculates the cumulative volume-weighted average price using the
// typical price (H+L+C)/3. Indices before any volume has traded are NaN.
func VWAP(candles []market.Candle) ([]float64, error) {
	if err := market.ValidateCandles(candles); err != nil {
		return nil, err
	}

	out := make([]float64, len(candles))
	var cumVP, cumVol float64
	for i, c := range candles {
		cumVP += c.TypicalPrice() * c.Volume
		cumVol += c.Volume
		if cumVol > 0 {
			out[i] = cumVP / cumVol
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// SessionVWAP calculates a VWAP that resets at each UTC day boundary shifted
// by sessionStartHour. Candles before the day's session start belong to the
// previous day's session.
func SessionVWAP(candles []market.Candle, sessionStartHour int) ([]float64, error) {
	if sessionStartHour < 0 || sessionStartHour > 23 {
		return nil, &market.ConfigError{Param: "session_start_hour", Reason: "must be between 0 and 23"}
	}
	if err := market.ValidateCandles(candles); err != nil {
		return nil, err
	}

	out := make([]float64, len(candles))
	var cumVP, cumVol float64
	var currentSession int64 = math.MinInt64
	for i, c := range candles {
		session := sessionKey(c.Timestamp, sessionStartHour)
		if session != currentSession {
			currentSession = session
			cumVP, cumVol = 0, 0
		}
		cumVP += c.TypicalPrice() * c.Volume
		cumVol += c.Volume
		if cumVol > 0 {
			out[i] = cumVP / cumVol
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

func sessionKey(ts int64, startHour int) int64 {
	dayStart := ts - mod(ts, 86400)
	sessionStart := dayStart + int64(startHour)*3600
	if ts < sessionStart {
		sessionStart -= 86400
	}
	return sessionStart
}

func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func trueRange(candles []market.Candle) []float64 {
	tr := make([]float64, len(candles))
	tr[0] = candles[0].High - candles[0].Low
	for i := 1; i < len(candles); i++ {
		prevClose := candles[i-1].Close
		tr[i] = math.Max(candles[i].High-candles[i].Low,
			math.Max(math.Abs(candles[i].High-prevClose), math.Abs(candles[i].Low-prevClose)))
	}
	return tr
}

// wilder applies Wilder's smoothing (alpha = 1/period) seeded at the first
// value.
func wilder(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 1.0 / float64(period)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out
}

func clamp100(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
