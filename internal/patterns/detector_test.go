package patterns

import (
	"testing"

	"crypto-signal-scanner/internal/market"
)

func candle(open, high, low, close, volume float64) market.Candle {
	return market.Candle{Open: open, High: high, Low: low, Close: close, Volume: volume}
}

func TestDetectBullishEngulfing(t *testing.T) {
	candles := []market.Candle{
		candle(102, 103, 99, 100, 10), // bearish, body 2
		candle(99, 104, 98, 103, 15),  // bullish, body 4, engulfs prior
	}
	d := NewDetector()
	if !d.DetectBullishEngulfing(candles) {
		t.Error("expected bullish engulfing")
	}
}

func TestDetectBullishEngulfingRejectsSmallBody(t *testing.T) {
	candles := []market.Candle{
		candle(102, 103, 99, 100, 10),   // body 2
		candle(100, 103, 99, 102, 15),   // body 2, not 5% larger
	}
	d := NewDetector()
	if d.DetectBullishEngulfing(candles) {
		t.Error("body must exceed prior by 5%")
	}
}

func TestDetectBearishEngulfing(t *testing.T) {
	candles := []market.Candle{
		candle(100, 103, 99, 102, 10),
		candle(103, 104, 97, 98, 15),
	}
	d := NewDetector()
	if !d.DetectBearishEngulfing(candles) {
		t.Error("expected bearish engulfing")
	}
}

func TestDetectHammer(t *testing.T) {
	// Long lower wick, small body at the top of the range.
	h := candle(99.5, 100.1, 96, 100, 10)
	d := NewDetector()

	if !d.DetectHammer([]market.Candle{h}, 0) {
		t.Error("expected hammer without zone check")
	}
	if !d.DetectHammer([]market.Candle{h}, 100.2) {
		t.Error("expected hammer near support zone")
	}
	if d.DetectHammer([]market.Candle{h}, 110) {
		t.Error("hammer far from zone must be rejected")
	}
}

func TestDetectHammerRejectsDoji(t *testing.T) {
	doji := candle(100, 101, 99, 100, 10)
	d := NewDetector()
	if d.DetectHammer([]market.Candle{doji}, 0) {
		t.Error("zero-body candle must not be a hammer")
	}
}

func TestDetectShootingStar(t *testing.T) {
	s := candle(100, 104, 99.94, 99.95, 10)
	d := NewDetector()
	if !d.DetectShootingStar([]market.Candle{s}, 0) {
		t.Error("expected shooting star")
	}
}

func TestDetectThreeConsecutive(t *testing.T) {
	d := NewDetector()

	bullRun := []market.Candle{
		candle(100, 102, 99, 101, 10),
		candle(101, 103, 100, 102, 11),
		candle(102, 104, 101, 103, 12),
	}
	if !d.DetectThreeConsecutive(bullRun, true) {
		t.Error("expected three consecutive bullish candles")
	}
	if d.DetectThreeConsecutive(bullRun, false) {
		t.Error("bullish run must not match bearish")
	}

	fadingVolume := []market.Candle{
		candle(100, 102, 99, 101, 20),
		candle(101, 103, 100, 102, 10),
		candle(102, 104, 101, 103, 5),
	}
	if d.DetectThreeConsecutive(fadingVolume, true) {
		t.Error("collapsing volume must reject the pattern")
	}
}

func TestDetectAllScoring(t *testing.T) {
	d := NewDetector()

	engulfing := []market.Candle{
		candle(102, 103, 99, 100, 10),
		candle(99, 104, 98, 103, 15),
	}
	set := d.DetectAll(engulfing, 0, 0)
	if len(set.Bullish) == 0 {
		t.Fatal("expected a bullish pattern")
	}
	if set.Score != 10 {
		t.Errorf("score = %d, want flat 10", set.Score)
	}

	quiet := []market.Candle{
		candle(100, 101, 99, 100.5, 10),
		candle(100.5, 101, 100, 100.4, 10),
	}
	set = d.DetectAll(quiet, 0, 0)
	if set.Score != 0 || len(set.Bullish) != 0 || len(set.Bearish) != 0 {
		t.Errorf("expected no patterns, got %+v", set)
	}
}
