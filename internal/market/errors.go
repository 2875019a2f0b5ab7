package market

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientData marks series that are empty or too short for the
// requested computation. Callers skip the affected symbol and continue.
var ErrInsufficientData = errors.New("insufficient data")

// SchemaError reports candle input with missing or non-finite critical
// values. The offending symbol must not be processed further.
type SchemaError struct {
	Field string
	Index int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid candle data: field %s at index %d", e.Field, e.Index)
}

// ConfigError reports an invalid parameter (period, tolerance, window).
// Raised at call time, never silently corrected.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// ValidateCandles checks a candle sequence for non-finite OHLCV values.
func ValidateCandles(candles []Candle) error {
	if len(candles) == 0 {
		return ErrInsufficientData
	}
	for i, c := range candles {
		switch {
		case !isFinite(c.Open):
			return &SchemaError{Field: "open", Index: i}
		case !isFinite(c.High):
			return &SchemaError{Field: "high", Index: i}
		case !isFinite(c.Low):
			return &SchemaError{Field: "low", Index: i}
		case !isFinite(c.Close):
			return &SchemaError{Field: "close", Index: i}
		case !isFinite(c.Volume):
			return &SchemaError{Field: "volume", Index: i}
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
