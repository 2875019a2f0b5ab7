package indicators

import (
	"math"

	"crypto-signal-scanner/internal/market"
)

// Frame is a candle sequence enriched with derived indicator columns.
// Enrichment is append-only: the candle slice is shared, never mutated.
type Frame struct {
	Candles []market.Candle

	EMA         map[int][]float64
	ATRSeries   []float64
	ADXSeries   []float64
	PlusDI      []float64
	MinusDI     []float64
	RSISeries   []float64
	VWAPSeries  []float64
	SessionVWAP []float64

	// Swing columns are NaN except at confirmed swing points. They are
	// filled by the structure analyzer.
	SwingHigh []float64
	SwingLow  []float64
}

// Options configures which indicator columns Enrich computes.
type Options struct {
	EMAPeriods       []int
	ATRPeriod        int
	ADXPeriod        int
	RSIPeriod        int
	SessionStartHour int
}

// DefaultOptions mirrors the standard indicator set: EMA 20/50 and 14-period
// ATR/ADX/RSI.
func DefaultOptions() Options {
	return Options{
		EMAPeriods: []int{20, 50},
		ATRPeriod:  14,
		ADXPeriod:  14,
		RSIPeriod:  14,
	}
}

// Enrich computes the configured indicator columns over the candle sequence.
func Enrich(candles []market.Candle, opts Options) (*Frame, error) {
	if err := market.ValidateCandles(candles); err != nil {
		return nil, err
	}

	closes := market.Closes(candles)
	frame := &Frame{
		Candles: candles,
		EMA:     make(map[int][]float64, len(opts.EMAPeriods)),
	}

	for _, period := range opts.EMAPeriods {
		ema, err := EMA(closes, period)
		if err != nil {
			return nil, err
		}
		frame.EMA[period] = ema
	}

	atr, err := ATR(candles, opts.ATRPeriod)
	if err != nil {
		return nil, err
	}
	frame.ATRSeries = atr

	adx, plusDI, minusDI, err := ADX(candles, opts.ADXPeriod)
	if err != nil {
		return nil, err
	}
	frame.ADXSeries = adx
	frame.PlusDI = plusDI
	frame.MinusDI = minusDI

	rsi, err := RSI(closes, opts.RSIPeriod)
	if err != nil {
		return nil, err
	}
	frame.RSISeries = rsi

	vwap, err := VWAP(candles)
	if err != nil {
		return nil, err
	}
	frame.VWAPSeries = vwap

	sessionVWAP, err := SessionVWAP(candles, opts.SessionStartHour)
	if err != nil {
		return nil, err
	}
	frame.SessionVWAP = sessionVWAP

	return frame, nil
}

// Len returns the number of candles in the frame.
func (f *Frame) Len() int {
	return len(f.Candles)
}

// LastClose returns the most recent close price.
func (f *Frame) LastClose() float64 {
	if len(f.Candles) == 0 {
		return math.NaN()
	}
	return f.Candles[len(f.Candles)-1].Close
}

// LastValid returns the most recent non-NaN value of a series, or NaN when
// the series has none.
func LastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) {
			return series[i]
		}
	}
	return math.NaN()
}
