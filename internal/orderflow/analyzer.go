// Package orderflow analyzes cumulative volume delta (CVD) series for
// directional pressure and price/CVD divergence.
package orderflow

import (
	"math"

	"crypto-signal-scanner/internal/market"
)

// Pressure labels.
const (
	PressureBuying  = "BUYING"
	PressureSelling = "SELLING"
	PressureNeutral = "NEUTRAL"
)

// Divergence types and strengths.
const (
	DivergenceBullish = "BULLISH"
	DivergenceBearish = "BEARISH"
	StrengthStrong    = "STRONG"
	StrengthWeak      = "WEAK"
)

// PressureResult summarizes recent order-flow pressure.
type PressureResult struct {
	Pressure            string  `json:"pressure"`
	Strength            float64 `json:"strength"`
	CVDChange           float64 `json:"cvd_change"`
	CVDChangeNormalized float64 `json:"cvd_change_normalized"`
	VolumeRatio         float64 `json:"volume_ratio"`
	Score               int     `json:"score"`
}

// Divergence is a detected price/CVD divergence.
type Divergence struct {
	Type        string `json:"type"`
	Strength    string `json:"strength"`
	BonusScore  int    `json:"bonus_score"`
	Description string `json:"description"`
}

// Analyzer evaluates CVD-based order flow.
type Analyzer struct{}

// NewAnalyzer creates an order-flow analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// AnalyzeVolumePressure scores buying/selling pressure from the CVD change
// over the last lookback candles, normalized by average volume. A change
// beyond +/-30 (normalized) is directional and scores 20; otherwise the
// score scales with strength. A last-candle volume spike above 1.3x the
// window average adds 5, capped at 20.
func (a *Analyzer) AnalyzeVolumePressure(candles []market.Candle, cvd []float64, lookback int) PressureResult {
	result := PressureResult{Pressure: PressureNeutral}

	minLen := len(candles)
	if len(cvd) < minLen {
		minLen = len(cvd)
	}
	if lookback < 2 {
		lookback = 2
	}
	if minLen < lookback {
		return result
	}

	candles = candles[len(candles)-minLen:]
	cvd = cvd[len(cvd)-minLen:]

	recentCandles := candles[minLen-lookback:]
	recentCVD := cvd[minLen-lookback:]

	var validCandles []market.Candle
	var validCVD []float64
	for i, v := range recentCVD {
		if !math.IsNaN(v) {
			validCandles = append(validCandles, recentCandles[i])
			validCVD = append(validCVD, v)
		}
	}
	if len(validCVD) < 2 {
		return result
	}

	cvdChange := validCVD[len(validCVD)-1] - validCVD[0]

	avgVolume := 0.0
	for _, c := range validCandles {
		avgVolume += c.Volume
	}
	avgVolume /= float64(len(validCandles))

	normalized := 0.0
	if avgVolume > 0 {
		normalized = cvdChange / avgVolume * 100
	}

	strength := math.Min(100, math.Abs(normalized))
	score := 0
	pressure := PressureNeutral
	switch {
	case normalized > 30:
		pressure = PressureBuying
		score = 20
	case normalized < -30:
		pressure = PressureSelling
		score = 20
	default:
		score = int(strength / 5)
	}

	volumeRatio := 1.0
	if avgVolume > 0 {
		volumeRatio = validCandles[len(validCandles)-1].Volume / avgVolume
	}
	if volumeRatio > 1.3 {
		score += 5
	}
	if score > 20 {
		score = 20
	}

	return PressureResult{
		Pressure:            pressure,
		Strength:            strength,
		CVDChange:           cvdChange,
		CVDChangeNormalized: normalized,
		VolumeRatio:         volumeRatio,
		Score:               score,
	}
}

// DetectCVDDivergence looks for divergence between price extremes and CVD
// extremes over the trailing window. Bullish: price prints a lower low while
// CVD prints a higher low; bearish is the mirror on highs. The divergence is
// STRONG when the relative CVD delta exceeds 0.10.
func (a *Analyzer) DetectCVDDivergence(closes, cvd []float64, lookback int) *Divergence {
	minLen := len(closes)
	if len(cvd) < minLen {
		minLen = len(cvd)
	}
	if minLen < 6 {
		return nil
	}

	window := lookback
	if window > minLen {
		window = minLen
	}
	recentPrices := closes[len(closes)-window:]
	recentCVD := cvd[len(cvd)-window:]

	var prices, values []float64
	for i, v := range recentCVD {
		if !math.IsNaN(v) {
			prices = append(prices, recentPrices[i])
			values = append(values, v)
		}
	}
	if len(values) < 5 {
		return nil
	}

	lows := localMinima(prices, 3)
	if len(lows) >= 2 {
		i1, i2 := lows[len(lows)-2], lows[len(lows)-1]
		if prices[i2] < prices[i1] && values[i2] > values[i1] {
			return buildDivergence(DivergenceBullish, values[i1], values[i2],
				"price set a lower low while CVD set a higher low")
		}
	}

	highs := localMaxima(prices, 3)
	if len(highs) >= 2 {
		i1, i2 := highs[len(highs)-2], highs[len(highs)-1]
		if prices[i2] > prices[i1] && values[i2] < values[i1] {
			return buildDivergence(DivergenceBearish, values[i1], values[i2],
				"price set a higher high while CVD set a lower high")
		}
	}

	return nil
}

func buildDivergence(kind string, cvd1, cvd2 float64, description string) *Divergence {
	delta := math.Abs(cvd2-cvd1) / math.Max(math.Abs(cvd1), 1e-8)
	strength := StrengthWeak
	bonus := 10
	if delta > 0.1 {
		strength = StrengthStrong
		bonus = 15
	}
	return &Divergence{Type: kind, Strength: strength, BonusScore: bonus, Description: description}
}

func localMinima(data []float64, window int) []int {
	var out []int
	for i := window; i < len(data)-window; i++ {
		isMin := true
		for j := i - window; j <= i+window; j++ {
			if j != i && data[i] > data[j] {
				isMin = false
				break
			}
		}
		if isMin {
			out = append(out, i)
		}
	}
	return out
}

func localMaxima(data []float64, window int) []int {
	var out []int
	for i := window; i < len(data)-window; i++ {
		isMax := true
		for j := i - window; j <= i+window; j++ {
			if j != i && data[i] < data[j] {
				isMax = false
				break
			}
		}
		if isMax {
			out = append(out, i)
		}
	}
	return out
}
