// Package structure analyzes market structure: swing points, support and
// resistance zones, and trend classification.
package structure

import (
	"math"
	"sort"

	"crypto-signal-scanner/internal/indicators"
	"crypto-signal-scanner/internal/market"
)

// Zone strength labels derived from touch count.
const (
	StrengthStrong = "strong"
	StrengthMedium = "medium"
	StrengthWeak   = "weak"
)

// Trend labels.
const (
	TrendStrongBull = "ALCISTA_FUERTE"
	TrendStrongBear = "BAJISTA_FUERTE"
	TrendSideways   = "LATERAL"
	TrendUnstable   = "INESTABLE"
)

// Structure labels.
const (
	StructureBull  = "HH/HL"
	StructureBear  = "LH/LL"
	StructureMixed = "MIXED"
)

// Zone is a clustered support or resistance level. Price is the running
// weighted mean of the swing prices merged into it.
type Zone struct {
	Price    float64 `json:"price"`
	Touches  int     `json:"touches"`
	Strength string  `json:"strength"`
}

// TrendInfo is the trend classification of a candle frame.
type TrendInfo struct {
	Trend         string  `json:"trend"`
	TrendStrength float64 `json:"trend_strength"`
	Structure     string  `json:"structure"`
	EMAAlignment  bool    `json:"ema_alignment"`
	ADXValue      float64 `json:"adx_value"`
}

// Analyzer detects swing points and derives structure from them.
type Analyzer struct {
	swingWindow int
}

// NewAnalyzer creates an analyzer using a centered swing window of the given
// half-width.
func NewAnalyzer(swingWindow int) *Analyzer {
	if swingWindow <= 0 {
		swingWindow = 5
	}
	return &Analyzer{swingWindow: swingWindow}
}

// DetectSwingPoints fills the frame's swing columns. A candle's high is a
// swing high iff it equals the maximum high in the centered window of
// 2*window+1 candles; lows are symmetric. Edge candles without a full window
// are never marked.
func (a *Analyzer) DetectSwingPoints(frame *indicators.Frame) error {
	if frame == nil || len(frame.Candles) == 0 {
		return market.ErrInsufficientData
	}

	n := len(frame.Candles)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i := range highs {
		highs[i] = math.NaN()
		lows[i] = math.NaN()
	}

	w := a.swingWindow
	for i := w; i < n-w; i++ {
		isHigh, isLow := true, true
		for j := i - w; j <= i+w; j++ {
			if frame.Candles[j].High > frame.Candles[i].High {
				isHigh = false
			}
			if frame.Candles[j].Low < frame.Candles[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			highs[i] = frame.Candles[i].High
		}
		if isLow {
			lows[i] = frame.Candles[i].Low
		}
	}

	frame.SwingHigh = highs
	frame.SwingLow = lows
	return nil
}

// IdentifySupportResistance clusters swing highs and lows into resistance
// and support zones over the last lookback candles. Zones with fewer than
// minTouches touches are dropped; the rest are sorted by strength, then by
// distance to the current close.
func (a *Analyzer) IdentifySupportResistance(frame *indicators.Frame, tolerance float64, minTouches, lookback int) (supports, resistances []Zone, err error) {
	if tolerance <= 0 {
		return nil, nil, &market.ConfigError{Param: "tolerance", Reason: "must be positive"}
	}
	if minTouches < 1 {
		return nil, nil, &market.ConfigError{Param: "min_touches", Reason: "must be at least 1"}
	}
	if lookback <= 0 {
		return nil, nil, &market.ConfigError{Param: "lookback", Reason: "must be positive"}
	}
	if frame == nil || len(frame.Candles) == 0 {
		return nil, nil, market.ErrInsufficientData
	}
	if frame.SwingHigh == nil || frame.SwingLow == nil {
		return nil, nil, &market.SchemaError{Field: "swing_high", Index: -1}
	}

	start := 0
	if len(frame.Candles) > lookback {
		start = len(frame.Candles) - lookback
	}
	currentPrice := frame.LastClose()

	resistances = clusterLevels(frame.SwingHigh[start:], tolerance)
	supports = clusterLevels(frame.SwingLow[start:], tolerance)

	resistances = filterAndSort(resistances, minTouches, currentPrice)
	supports = filterAndSort(supports, minTouches, currentPrice)
	return supports, resistances, nil
}

// clusterLevels greedily merges sorted swing prices into zones: a price
// joins the first zone within the relative tolerance of its weighted mean,
// otherwise it starts a new zone. Sorting first makes the result independent
// of candle presentation order.
func clusterLevels(prices []float64, tolerance float64) []Zone {
	valid := make([]float64, 0, len(prices))
	for _, p := range prices {
		if !math.IsNaN(p) {
			valid = append(valid, p)
		}
	}
	sort.Float64s(valid)

	var zones []Zone
	for _, price := range valid {
		matched := false
		for i := range zones {
			ref := math.Max(zones[i].Price, 1e-8)
			if math.Abs(price-zones[i].Price)/ref <= tolerance {
				total := float64(zones[i].Touches) + 1
				zones[i].Price = (zones[i].Price*float64(zones[i].Touches) + price) / total
				zones[i].Touches++
				matched = true
				break
			}
		}
		if !matched {
			zones = append(zones, Zone{Price: price, Touches: 1})
		}
	}
	return zones
}

func filterAndSort(zones []Zone, minTouches int, currentPrice float64) []Zone {
	kept := zones[:0]
	for _, z := range zones {
		if z.Touches >= minTouches {
			z.Strength = strengthLabel(z.Touches)
			kept = append(kept, z)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		ri, rj := strengthRank(kept[i].Touches), strengthRank(kept[j].Touches)
		if ri != rj {
			return ri < rj
		}
		return math.Abs(kept[i].Price-currentPrice) < math.Abs(kept[j].Price-currentPrice)
	})
	return kept
}

func strengthLabel(touches int) string {
	switch {
	case touches >= 3:
		return StrengthStrong
	case touches == 2:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}

func strengthRank(touches int) int {
	switch {
	case touches >= 3:
		return 0
	case touches == 2:
		return 1
	default:
		return 2
	}
}

// DetermineTrend classifies the trend over the last lookback candles using
// swing structure, EMA alignment, and ADX.
func (a *Analyzer) DetermineTrend(frame *indicators.Frame, lookback int) (TrendInfo, error) {
	if lookback <= 0 {
		return TrendInfo{}, &market.ConfigError{Param: "lookback", Reason: "must be positive"}
	}
	if frame == nil || len(frame.Candles) == 0 {
		return TrendInfo{}, market.ErrInsufficientData
	}
	if frame.SwingHigh == nil || frame.SwingLow == nil {
		return TrendInfo{}, &market.SchemaError{Field: "swing_high", Index: -1}
	}
	ema20, ok20 := frame.EMA[20]
	ema50, ok50 := frame.EMA[50]
	if !ok20 || !ok50 || frame.ADXSeries == nil {
		return TrendInfo{}, &market.SchemaError{Field: "ema_20", Index: -1}
	}

	start := 0
	if len(frame.Candles) > lookback {
		start = len(frame.Candles) - lookback
	}
	last := len(frame.Candles) - 1
	lastClose := frame.Candles[last].Close
	lastEMA20 := ema20[last]
	lastEMA50 := ema50[last]
	adxValue := frame.ADXSeries[last]

	structureLabel := StructureMixed
	recentHighs := lastTwoValid(frame.SwingHigh[start:])
	recentLows := lastTwoValid(frame.SwingLow[start:])
	if len(recentHighs) == 2 && len(recentLows) == 2 {
		if recentHighs[0] < recentHighs[1] && recentLows[0] < recentLows[1] {
			structureLabel = StructureBull
		} else if recentHighs[0] > recentHighs[1] && recentLows[0] > recentLows[1] {
			structureLabel = StructureBear
		}
	}

	bullAlignment := lastClose > lastEMA20 && lastEMA20 > lastEMA50
	bearAlignment := lastClose < lastEMA20 && lastEMA20 < lastEMA50

	trend := TrendUnstable
	switch {
	case adxValue < 20:
		trend = TrendSideways
	case structureLabel == StructureBull && bullAlignment && adxValue >= 25:
		trend = TrendStrongBull
	case structureLabel == StructureBear && bearAlignment && adxValue >= 25:
		trend = TrendStrongBear
	}

	return TrendInfo{
		Trend:         trend,
		TrendStrength: clampStrength(adxValue),
		Structure:     structureLabel,
		EMAAlignment:  bullAlignment || bearAlignment,
		ADXValue:      adxValue,
	}, nil
}

func lastTwoValid(series []float64) []float64 {
	var out []float64
	for _, v := range series {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	if len(out) > 2 {
		out = out[len(out)-2:]
	}
	return out
}

func clampStrength(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
