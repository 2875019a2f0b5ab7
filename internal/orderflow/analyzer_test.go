package orderflow

import (
	"math"
	"testing"

	"crypto-signal-scanner/internal/market"
)

func volumeCandles(volumes []float64) []market.Candle {
	candles := make([]market.Candle, len(volumes))
	for i, v := range volumes {
		candles[i] = market.Candle{
			Timestamp: int64(i) * 3600,
			Open:      100, High: 101, Low: 99, Close: 100,
			Volume: v,
		}
	}
	return candles
}

func TestAnalyzeVolumePressureBuying(t *testing.T) {
	candles := volumeCandles([]float64{10, 10, 10, 10})
	// CVD rises by 40 over 4 candles with avg volume 10: normalized +400.
	cvd := []float64{0, 10, 25, 40}

	a := NewAnalyzer()
	result := a.AnalyzeVolumePressure(candles, cvd, 4)

	if result.Pressure != PressureBuying {
		t.Errorf("pressure = %s, want %s", result.Pressure, PressureBuying)
	}
	if result.Score < 15 {
		t.Errorf("score = %d, want >= 15", result.Score)
	}
	if result.CVDChange != 40 {
		t.Errorf("cvd change = %v, want 40", result.CVDChange)
	}
}

func TestAnalyzeVolumePressureSelling(t *testing.T) {
	candles := volumeCandles([]float64{10, 10, 10, 10})
	cvd := []float64{0, -10, -25, -40}

	a := NewAnalyzer()
	result := a.AnalyzeVolumePressure(candles, cvd, 4)
	if result.Pressure != PressureSelling {
		t.Errorf("pressure = %s, want %s", result.Pressure, PressureSelling)
	}
}

func TestAnalyzeVolumePressureNeutralOnWeakFlow(t *testing.T) {
	candles := volumeCandles([]float64{10, 10, 10, 10})
	cvd := []float64{0, 0.5, 1, 1.5}

	a := NewAnalyzer()
	result := a.AnalyzeVolumePressure(candles, cvd, 4)
	if result.Pressure != PressureNeutral {
		t.Errorf("pressure = %s, want %s", result.Pressure, PressureNeutral)
	}
	if result.Score > 5 {
		t.Errorf("score = %d, want small", result.Score)
	}
}

func TestAnalyzeVolumePressureInsufficientData(t *testing.T) {
	a := NewAnalyzer()
	result := a.AnalyzeVolumePressure(volumeCandles([]float64{10}), []float64{1}, 4)
	if result.Pressure != PressureNeutral || result.Score != 0 {
		t.Errorf("expected empty neutral result, got %+v", result)
	}
}

func TestAnalyzeVolumePressureSkipsNaN(t *testing.T) {
	candles := volumeCandles([]float64{10, 10, 10, 10})
	cvd := []float64{math.NaN(), 10, math.NaN(), 40}

	a := NewAnalyzer()
	result := a.AnalyzeVolumePressure(candles, cvd, 4)
	if result.CVDChange != 30 {
		t.Errorf("cvd change = %v, want 30 (NaN rows dropped)", result.CVDChange)
	}
}

func TestAnalyzeVolumePressureScoreCap(t *testing.T) {
	// Volume spike on the last candle adds 5, but the total caps at 20.
	candles := volumeCandles([]float64{10, 10, 10, 50})
	cvd := []float64{0, 20, 40, 80}

	a := NewAnalyzer()
	result := a.AnalyzeVolumePressure(candles, cvd, 4)
	if result.Score != 20 {
		t.Errorf("score = %d, want capped 20", result.Score)
	}
}

func divergenceSeries(prices []float64) ([]float64, []float64) {
	cvd := make([]float64, len(prices))
	return prices, cvd
}

func TestDetectCVDDivergenceBullish(t *testing.T) {
	// Price prints a lower low while CVD prints a higher low.
	prices := []float64{112, 108, 104, 100, 104, 108, 110, 109, 106, 102, 99, 97, 100, 104, 108, 110}
	cvd := []float64{60, 55, 50, 45, 50, 55, 58, 57, 54, 50, 48, 47, 49, 52, 56, 58}

	a := NewAnalyzer()
	div := a.DetectCVDDivergence(prices, cvd, 20)
	if div == nil {
		t.Fatal("expected a divergence")
	}
	if div.Type != DivergenceBullish {
		t.Errorf("type = %s, want %s", div.Type, DivergenceBullish)
	}
	if div.BonusScore != 15 && div.BonusScore != 10 {
		t.Errorf("bonus = %d, want 10 or 15", div.BonusScore)
	}
}

func TestDetectCVDDivergenceBearish(t *testing.T) {
	prices := []float64{88, 92, 96, 100, 96, 92, 90, 91, 94, 98, 101, 103, 100, 96, 92, 90}
	cvd := []float64{40, 45, 50, 55, 50, 45, 43, 44, 46, 48, 50, 51, 49, 46, 44, 43}

	a := NewAnalyzer()
	div := a.DetectCVDDivergence(prices, cvd, 20)
	if div == nil {
		t.Fatal("expected a divergence")
	}
	if div.Type != DivergenceBearish {
		t.Errorf("type = %s, want %s", div.Type, DivergenceBearish)
	}
}

func TestDetectCVDDivergenceNoneOnAlignedFlow(t *testing.T) {
	// Price and CVD fall together.
	prices := []float64{110, 105, 100, 105, 110, 108, 104, 98, 103, 108, 110, 109}
	cvd := []float64{50, 40, 30, 40, 50, 48, 44, 25, 35, 45, 50, 49}

	a := NewAnalyzer()
	if div := a.DetectCVDDivergence(prices, cvd, 20); div != nil {
		t.Errorf("expected no divergence, got %+v", div)
	}
}

func TestDetectCVDDivergenceShortSeries(t *testing.T) {
	prices, cvd := divergenceSeries([]float64{1, 2, 3})
	a := NewAnalyzer()
	if div := a.DetectCVDDivergence(prices, cvd, 20); div != nil {
		t.Errorf("expected nil for short series, got %+v", div)
	}
}

func TestDivergenceStrength(t *testing.T) {
	weak := buildDivergence(DivergenceBullish, 100, 105, "test")
	if weak.Strength != StrengthWeak || weak.BonusScore != 10 {
		t.Errorf("got %+v, want weak bonus 10", weak)
	}
	strong := buildDivergence(DivergenceBullish, 100, 120, "test")
	if strong.Strength != StrengthStrong || strong.BonusScore != 15 {
		t.Errorf("got %+v, want strong bonus 15", strong)
	}
}
