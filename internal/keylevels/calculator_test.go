package keylevels

import (
	"math"
	"reflect"
	"testing"
	"time"

	"crypto-signal-scanner/internal/market"
)

// baseTime is a Wednesday midnight UTC.
var baseTime = time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

func hourlyCandle(hoursFromBase int, price, volume float64) market.Candle {
	ts := baseTime.Add(time.Duration(hoursFromBase) * time.Hour).Unix()
	return market.Candle{
		Timestamp: ts,
		Open:      price, High: price + 1, Low: price - 1, Close: price,
		Volume: volume,
	}
}

func TestPOCPicksHighestVolumeBucket(t *testing.T) {
	candles := []market.Candle{
		hourlyCandle(0, 100, 10),
		hourlyCandle(1, 120, 50),
		hourlyCandle(2, 140, 10),
	}
	c := NewCalculator(20)
	poc, ok := c.POC(candles, 7*24*time.Hour)
	if !ok {
		t.Fatal("POC returned no value")
	}
	if math.Abs(poc-120) > 3 {
		t.Errorf("poc = %v, want near 120", poc)
	}
}

func TestPOCEmptyWindow(t *testing.T) {
	c := NewCalculator(20)
	if _, ok := c.POC(nil, time.Hour); ok {
		t.Error("expected no POC for empty candles")
	}
}

func TestValueAreaContainsPOC(t *testing.T) {
	var candles []market.Candle
	for i := 0; i < 48; i++ {
		price := 100 + 10*math.Sin(float64(i)/4)
		candles = append(candles, hourlyCandle(i, price, 10+float64(i%5)))
	}
	c := NewCalculator(20)

	poc, ok := c.POC(candles, 7*24*time.Hour)
	if !ok {
		t.Fatal("POC returned no value")
	}
	vah, val, ok, err := c.ValueArea(candles, 7*24*time.Hour, 0.70)
	if err != nil {
		t.Fatalf("ValueArea returned error: %v", err)
	}
	if !ok {
		t.Fatal("ValueArea returned no value")
	}
	if !(val <= poc && poc <= vah) {
		t.Errorf("invariant violated: val %v <= poc %v <= vah %v", val, poc, vah)
	}
}

func TestValueAreaCoverageValidation(t *testing.T) {
	c := NewCalculator(20)
	candles := []market.Candle{hourlyCandle(0, 100, 10)}
	for _, coverage := range []float64{0, -0.5, 1.5} {
		if _, _, _, err := c.ValueArea(candles, time.Hour, coverage); err == nil {
			t.Errorf("expected config error for coverage %v", coverage)
		}
	}
}

func TestPreviousPeriodExtremes(t *testing.T) {
	var candles []market.Candle
	// Previous day (Tuesday): range 90-110. Current day: range 95-105.
	for i := -24; i < 0; i++ {
		candles = append(candles, hourlyCandle(i, 100, 10))
	}
	candles[0].High = 110
	candles[5].Low = 90
	for i := 0; i < 12; i++ {
		candles = append(candles, hourlyCandle(i, 100, 10))
	}

	ext := PreviousPeriodExtremes(candles)
	if ext.PDH != 110 {
		t.Errorf("PDH = %v, want 110", ext.PDH)
	}
	if ext.PDL != 90 {
		t.Errorf("PDL = %v, want 90", ext.PDL)
	}
	// Base week starts Monday 2024-03-04; no candles in the prior week.
	if !math.IsNaN(ext.PWH) || !math.IsNaN(ext.PWL) {
		t.Errorf("expected NaN weekly extremes, got %v/%v", ext.PWH, ext.PWL)
	}
}

func TestSessionExtremesNewYork(t *testing.T) {
	var candles []market.Candle
	for i := 0; i < 24; i++ {
		candles = append(candles, hourlyCandle(i, 100, 10))
	}
	// Spike inside the 13-21 UTC window.
	candles[15].High = 130
	candles[18].Low = 80

	sessions := SessionExtremes(candles)
	ny, ok := sessions["new_york"]
	if !ok {
		t.Fatal("new_york session missing")
	}
	if ny.High != 130 {
		t.Errorf("ny high = %v, want 130", ny.High)
	}
	if ny.Low != 80 {
		t.Errorf("ny low = %v, want 80", ny.Low)
	}
}

func TestCalculateDeterministic(t *testing.T) {
	var candles []market.Candle
	for i := 0; i < 72; i++ {
		price := 100 + 5*math.Sin(float64(i)/6)
		candles = append(candles, hourlyCandle(i-48, price, 10+float64(i%7)))
	}
	c := NewCalculator(20)

	first, err := c.Calculate(candles, "1h")
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	second, err := c.Calculate(candles, "1h")
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calculation differs: %v vs %v", first, second)
	}

	for key, value := range first {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			t.Errorf("level %s is non-finite: %v", key, value)
		}
	}
}

func TestCalculateSessionLevelsIntradayOnly(t *testing.T) {
	var candles []market.Candle
	for i := 0; i < 48; i++ {
		candles = append(candles, hourlyCandle(i, 100+float64(i%3), 10))
	}
	c := NewCalculator(20)

	daily, err := c.Calculate(candles, "1d")
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if _, ok := daily[KeyNYHigh]; ok {
		t.Error("1d levels should not include NY session extremes")
	}

	hourly, err := c.Calculate(candles, "1h")
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if _, ok := hourly[KeyNYHigh]; !ok {
		t.Error("1h levels should include NY session extremes")
	}
}

func TestCalculateRejectsEmptyInput(t *testing.T) {
	c := NewCalculator(20)
	if _, err := c.Calculate(nil, "1h"); err == nil {
		t.Error("expected error for empty candles")
	}
}

func TestVolumeProfileCollapsedRange(t *testing.T) {
	var candles []market.Candle
	for i := 0; i < 5; i++ {
		candles = append(candles, market.Candle{
			Timestamp: baseTime.Add(time.Duration(i) * time.Hour).Unix(),
			Open:      100, High: 100, Low: 100, Close: 100, Volume: 10,
		})
	}
	c := NewCalculator(20)
	poc, ok := c.POC(candles, 7*24*time.Hour)
	if !ok {
		t.Fatal("POC returned no value")
	}
	if poc != 100 {
		t.Errorf("collapsed-range poc = %v, want 100", poc)
	}
}
