package market

import (
	"errors"
	"math"
	"testing"
)

func TestCandleGeometry(t *testing.T) {
	c := Candle{Open: 100, High: 110, Low: 95, Close: 105, Volume: 10}

	if !c.Bullish() || c.Bearish() {
		t.Error("close above open must be bullish")
	}
	if c.Body() != 5 {
		t.Errorf("body = %v, want 5", c.Body())
	}
	if c.UpperWick() != 5 {
		t.Errorf("upper wick = %v, want 5", c.UpperWick())
	}
	if c.LowerWick() != 5 {
		t.Errorf("lower wick = %v, want 5", c.LowerWick())
	}
	if got := c.TypicalPrice(); math.Abs(got-310.0/3) > 1e-12 {
		t.Errorf("typical price = %v, want %v", got, 310.0/3)
	}
}

func TestAlignCVD(t *testing.T) {
	candles := []Candle{
		{Timestamp: 100}, {Timestamp: 200}, {Timestamp: 300},
	}
	points := []CVDPoint{
		{Timestamp: 100, CVDCumulative: 1.5},
		{Timestamp: 300, CVDCumulative: -2.5},
	}

	aligned := AlignCVD(candles, points)
	if len(aligned) != 3 {
		t.Fatalf("got %d values, want 3", len(aligned))
	}
	if aligned[0] != 1.5 {
		t.Errorf("aligned[0] = %v, want 1.5", aligned[0])
	}
	if !math.IsNaN(aligned[1]) {
		t.Errorf("aligned[1] = %v, want NaN for missing timestamp", aligned[1])
	}
	if aligned[2] != -2.5 {
		t.Errorf("aligned[2] = %v, want -2.5", aligned[2])
	}
}

func TestTimeframeSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1m", 60, false},
		{"15m", 900, false},
		{"1h", 3600, false},
		{"4h", 14400, false},
		{"1d", 86400, false},
		{"1w", 604800, false},
		{"", 0, true},
		{"h", 0, true},
		{"0h", 0, true},
		{"4x", 0, true},
		{"x4h", 0, true},
	}
	for _, tt := range tests {
		got, err := TimeframeSeconds(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("TimeframeSeconds(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("TimeframeSeconds(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("TimeframeSeconds(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValidateCandles(t *testing.T) {
	if err := ValidateCandles(nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("empty input: got %v, want ErrInsufficientData", err)
	}

	bad := []Candle{
		{Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
		{Open: 1, High: math.NaN(), Low: 1, Close: 1, Volume: 1},
	}
	err := ValidateCandles(bad)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("got %v, want SchemaError", err)
	}
	if schemaErr.Field != "high" || schemaErr.Index != 1 {
		t.Errorf("got field %s index %d, want high/1", schemaErr.Field, schemaErr.Index)
	}

	good := []Candle{{Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 3}}
	if err := ValidateCandles(good); err != nil {
		t.Errorf("valid candles rejected: %v", err)
	}
}
