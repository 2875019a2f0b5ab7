package signal

import (
	"math"

	"github.com/rs/zerolog"

	"crypto-signal-scanner/internal/keylevels"
	"crypto-signal-scanner/internal/market"
)

// Scoring thresholds.
const (
	alertThreshold      = 60.0
	confidenceHighBar   = 110.0
	confidenceMediumBar = 85.0

	confluenceTolerance = 0.005
	vwapTolerance       = 0.002
)

// ScoreInput carries everything the scorer needs for one setup.
type ScoreInput struct {
	Symbol      string
	Setup       *Setup
	BTC         *BTCContext
	Price       float64
	KeyLevels   keylevels.Levels
	VWAP        float64
	SessionVWAP float64
	EMA50       float64
	Candles     []market.Candle // 1h, for prior-extreme sweeps
}

// Scorer computes the final signal score from weighted components,
// confluence, the reference-asset multiplier, and contextual bonuses.
type Scorer struct {
	logger zerolog.Logger
}

// NewScorer creates a scorer.
func NewScorer(logger zerolog.Logger) *Scorer {
	return &Scorer{logger: logger.With().Str("component", "scorer").Logger()}
}

// Score builds the full breakdown. Components: structure (max 20), order
// flow (max 20), patterns (max 10), liquidity (max 15), key levels (max 15);
// their sum is capped at 80 before multipliers.
func (s *Scorer) Score(in ScoreInput) ScoreBreakdown {
	bd := ScoreBreakdown{ConfluenceMultiplier: 1.0, BTCMultiplier: 1.0}
	if in.Setup == nil || in.Price <= 0 {
		bd.Confidence = QualityLow
		return bd
	}
	setup := in.Setup

	// Structure: proximity to the setup level plus proximity to weekly POC.
	if setup.StructureValid && setup.HasLevel {
		bd.Structure = 15
	}
	if poc, ok := in.KeyLevels[keylevels.KeyPOCWeekly]; ok && withinTolerance(in.Price, poc, confluenceTolerance) {
		bd.Structure += 5
	}
	bd.Structure = math.Min(20, bd.Structure)

	bd.OrderFlow = math.Min(20, float64(setup.OrderFlowScore))

	if setup.PatternValid {
		bd.Patterns = 10
	}

	if setup.LiquiditySweep {
		bd.Liquidity = 10
	}
	if sweptPriorExtreme(in.Candles, setup.Direction, in.KeyLevels) {
		bd.Liquidity += 5
	}
	bd.Liquidity = math.Min(15, bd.Liquidity)

	if nearValueAreaEdge(in.Price, in.KeyLevels) {
		bd.KeyLevels = 10
	}
	if !math.IsNaN(in.VWAP) && withinTolerance(in.Price, in.VWAP, vwapTolerance) {
		bd.KeyLevels += 5
	}
	bd.KeyLevels = math.Min(15, bd.KeyLevels)

	bd.BaseScore = math.Min(80, bd.Structure+bd.OrderFlow+bd.Patterns+bd.Liquidity+bd.KeyLevels)

	conf := DetectConfluences(in.Price, s.candidateLevels(in), confluenceTolerance)
	bd.ConfluenceCount = conf.Count
	bd.ConfluenceLevels = conf.Levels
	bd.ConfluenceMultiplier = conf.Multiplier
	bd.ConfluenceBonus = ConfluenceBonus(conf.Count)

	if in.BTC != nil {
		if setup.Direction == DirectionLong {
			bd.BTCMultiplier = in.BTC.MultiplierLong
		} else {
			bd.BTCMultiplier = in.BTC.MultiplierShort
		}
		bd.SessionBonus = sessionBonus(in.BTC.SessionQuality)
		bd.CorrelationBonus = correlationBonus(in.Symbol, setup.Direction, in.BTC.Trend)
	}

	if setup.Divergence != nil {
		bd.DivergenceBonus = float64(setup.Divergence.BonusScore)
	}

	final := (bd.BaseScore*bd.ConfluenceMultiplier+bd.ConfluenceBonus)*bd.BTCMultiplier +
		bd.SessionBonus + bd.CorrelationBonus + bd.DivergenceBonus
	bd.FinalScore = math.Max(0, round2(final))

	switch {
	case bd.FinalScore >= confidenceHighBar:
		bd.Confidence = QualityHigh
	case bd.FinalScore >= confidenceMediumBar:
		bd.Confidence = QualityMedium
	default:
		bd.Confidence = QualityLow
	}
	bd.ShouldAlert = bd.FinalScore >= alertThreshold

	return bd
}

// candidateLevels assembles the direction-specific levels considered for
// confluence.
func (s *Scorer) candidateLevels(in ScoreInput) map[string]float64 {
	levels := make(map[string]float64, len(in.KeyLevels)+5)
	for _, key := range []string{
		keylevels.KeyPOCWeekly, keylevels.KeyPOCDaily,
		keylevels.KeyVAH, keylevels.KeyVAL,
	} {
		if v, ok := in.KeyLevels[key]; ok {
			levels[key] = v
		}
	}
	if !math.IsNaN(in.VWAP) {
		levels["vwap"] = in.VWAP
	}
	if !math.IsNaN(in.SessionVWAP) {
		levels["session_vwap"] = in.SessionVWAP
	}
	if !math.IsNaN(in.EMA50) {
		levels["ema_50"] = in.EMA50
	}
	if in.Setup.HasLevel {
		if in.Setup.Direction == DirectionLong {
			levels["support"] = in.Setup.Level
		} else {
			levels["resistance"] = in.Setup.Level
		}
	}
	if in.Setup.Direction == DirectionLong {
		copyLevel(levels, in.KeyLevels, keylevels.KeyPDL)
		copyLevel(levels, in.KeyLevels, keylevels.KeyPWL)
	} else {
		copyLevel(levels, in.KeyLevels, keylevels.KeyPDH)
		copyLevel(levels, in.KeyLevels, keylevels.KeyPWH)
	}
	return levels
}

func copyLevel(dst map[string]float64, src keylevels.Levels, key string) {
	if v, ok := src[key]; ok {
		dst[key] = v
	}
}

// sweptPriorExtreme checks whether recent candles swept a previous-period
// extreme in the setup direction: the prior day/week low for longs, the prior
// day/week high for shorts.
func sweptPriorExtreme(candles []market.Candle, direction string, levels keylevels.Levels) bool {
	if direction == DirectionLong {
		for _, key := range []string{keylevels.KeyPDL, keylevels.KeyPWL} {
			if v, ok := levels[key]; ok && sweptBelow(candles, v) {
				return true
			}
		}
		return false
	}
	for _, key := range []string{keylevels.KeyPDH, keylevels.KeyPWH} {
		if v, ok := levels[key]; ok && sweptAbove(candles, v) {
			return true
		}
	}
	return false
}

func nearValueAreaEdge(price float64, levels keylevels.Levels) bool {
	for _, key := range []string{keylevels.KeyVAH, keylevels.KeyVAL} {
		if v, ok := levels[key]; ok && withinTolerance(price, v, confluenceTolerance) {
			return true
		}
	}
	return false
}

func sessionBonus(quality string) float64 {
	switch quality {
	case QualityHigh:
		return 10
	case QualityMedium:
		return 5
	default:
		return 0
	}
}

// correlationBonus rewards non-reference symbols aligned with the reference
// trend and penalizes fighting it.
func correlationBonus(symbol, direction, btcTrend string) float64 {
	if isReferenceSymbol(symbol) {
		return 0
	}
	if TrendFavors(btcTrend, direction) {
		return 10
	}
	opposite := DirectionShort
	if direction == DirectionShort {
		opposite = DirectionLong
	}
	if TrendFavors(btcTrend, opposite) {
		return -15
	}
	return 0
}

func withinTolerance(price, level, tolerance float64) bool {
	if price <= 0 || math.IsNaN(level) || math.IsInf(level, 0) {
		return false
	}
	return math.Abs(price-level)/price <= tolerance
}
