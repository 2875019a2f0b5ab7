package signal

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"crypto-signal-scanner/internal/indicators"
	"crypto-signal-scanner/internal/market"
	"crypto-signal-scanner/internal/orderflow"
	"crypto-signal-scanner/internal/patterns"
	"crypto-signal-scanner/internal/structure"
)

// Detector finds long and short setups using a two-gate rule: both the 4h
// structure gate and the 1h order-flow gate must pass before a setup exists.
// Patterns, divergence, and liquidity sweeps only add to the base score.
type Detector struct {
	patterns  *patterns.Detector
	orderflow *orderflow.Analyzer
	logger    zerolog.Logger
}

// NewDetector creates a setup detector.
func NewDetector(logger zerolog.Logger) *Detector {
	return &Detector{
		patterns:  patterns.NewDetector(),
		orderflow: orderflow.NewAnalyzer(),
		logger:    logger.With().Str("component", "detector").Logger(),
	}
}

// DetectLongSetup evaluates a long candidate. It returns nil when either
// gate fails.
func (d *Detector) DetectLongSetup(frame4h, frame1h *indicators.Frame, cvd1h []float64, mc MarketContext) *Setup {
	if frame4h == nil || frame1h == nil || frame4h.Len() == 0 || frame1h.Len() == 0 {
		return nil
	}
	price := frame1h.LastClose()

	setup := &Setup{Direction: DirectionLong}

	level, dist, hasLevel := closestZone(mc.Supports, price)
	nearLevel := hasLevel && dist <= 0.01
	trendOK := TrendFavors(mc.Trend.Trend, DirectionLong) && mc.Trend.Structure == structure.StructureBull

	vwap := indicators.LastValid(frame1h.VWAPSeries)
	vwapOK := !math.IsNaN(vwap) && price >= vwap*0.995

	if !nearLevel || !trendOK || !vwapOK {
		return nil
	}
	setup.StructureValid = true
	setup.HasLevel = true
	setup.Level = level
	setup.BaseScore += 20
	setup.Reasons = append(setup.Reasons,
		fmt.Sprintf("4H bullish structure holding support at %.4f", level),
		"price above 1H VWAP")

	pressure := d.orderflow.AnalyzeVolumePressure(frame1h.Candles, cvd1h, 4)
	if pressure.Pressure != orderflow.PressureBuying || pressure.Score < 15 {
		return nil
	}
	setup.OrderFlowValid = true
	setup.OrderFlowScore = pressure.Score
	setup.BaseScore += pressure.Score
	setup.Reasons = append(setup.Reasons,
		fmt.Sprintf("real buying pressure (CVD %+.1f, score %d)", pressure.CVDChangeNormalized, pressure.Score))

	if div := d.orderflow.DetectCVDDivergence(market.Closes(frame1h.Candles), cvd1h, 20); div != nil && div.Type == orderflow.DivergenceBullish {
		setup.Divergence = div
		setup.Reasons = append(setup.Reasons, fmt.Sprintf("bullish CVD divergence (%s)", div.Strength))
	}

	set := d.patterns.DetectAll(frame1h.Candles, level, 0)
	if len(set.Bullish) > 0 {
		setup.PatternValid = true
		setup.BaseScore += set.Score
		for _, name := range set.Bullish {
			setup.Reasons = append(setup.Reasons, "bullish pattern: "+name)
		}
	}

	if sweptBelow(frame1h.Candles, level) {
		setup.LiquiditySweep = true
		setup.BaseScore += 10
		setup.Reasons = append(setup.Reasons, "liquidity sweep below support completed")
	}

	setup.EntryLow = level * 0.998
	setup.EntryHigh = level * 1.004
	return setup
}

// DetectShortSetup is the mirror of DetectLongSetup against resistance zones.
func (d *Detector) DetectShortSetup(frame4h, frame1h *indicators.Frame, cvd1h []float64, mc MarketContext) *Setup {
	if frame4h == nil || frame1h == nil || frame4h.Len() == 0 || frame1h.Len() == 0 {
		return nil
	}
	price := frame1h.LastClose()

	setup := &Setup{Direction: DirectionShort}

	level, dist, hasLevel := closestZone(mc.Resistances, price)
	nearLevel := hasLevel && dist <= 0.01
	trendOK := TrendFavors(mc.Trend.Trend, DirectionShort) && mc.Trend.Structure == structure.StructureBear

	vwap := indicators.LastValid(frame1h.VWAPSeries)
	vwapOK := !math.IsNaN(vwap) && price <= vwap*1.005

	if !nearLevel || !trendOK || !vwapOK {
		return nil
	}
	setup.StructureValid = true
	setup.HasLevel = true
	setup.Level = level
	setup.BaseScore += 20
	setup.Reasons = append(setup.Reasons,
		fmt.Sprintf("4H bearish structure rejecting resistance at %.4f", level),
		"price below 1H VWAP")

	pressure := d.orderflow.AnalyzeVolumePressure(frame1h.Candles, cvd1h, 4)
	if pressure.Pressure != orderflow.PressureSelling || pressure.Score < 15 {
		return nil
	}
	setup.OrderFlowValid = true
	setup.OrderFlowScore = pressure.Score
	setup.BaseScore += pressure.Score
	setup.Reasons = append(setup.Reasons,
		fmt.Sprintf("real selling pressure (CVD %+.1f, score %d)", pressure.CVDChangeNormalized, pressure.Score))

	if div := d.orderflow.DetectCVDDivergence(market.Closes(frame1h.Candles), cvd1h, 20); div != nil && div.Type == orderflow.DivergenceBearish {
		setup.Divergence = div
		setup.Reasons = append(setup.Reasons, fmt.Sprintf("bearish CVD divergence (%s)", div.Strength))
	}

	set := d.patterns.DetectAll(frame1h.Candles, 0, level)
	if len(set.Bearish) > 0 {
		setup.PatternValid = true
		setup.BaseScore += set.Score
		for _, name := range set.Bearish {
			setup.Reasons = append(setup.Reasons, "bearish pattern: "+name)
		}
	}

	if sweptAbove(frame1h.Candles, level) {
		setup.LiquiditySweep = true
		setup.BaseScore += 10
		setup.Reasons = append(setup.Reasons, "liquidity sweep above resistance completed")
	}

	setup.EntryLow = level * 0.996
	setup.EntryHigh = level * 1.002
	return setup
}

// closestZone returns the zone price nearest to the current price and the
// distance relative to the zone price.
func closestZone(zones []structure.Zone, price float64) (level, dist float64, ok bool) {
	if price <= 0 {
		return 0, 0, false
	}
	best := math.Inf(1)
	for _, z := range zones {
		d := math.Abs(price-z.Price) / math.Max(z.Price, 1e-8)
		if d < best {
			best = d
			level = z.Price
			ok = true
		}
	}
	return level, best, ok
}

// sweptBelow reports a liquidity sweep: one of the last two candles wicked
// below the level by at least 0.2% while the latest close recovered above it.
func sweptBelow(candles []market.Candle, level float64) bool {
	if len(candles) < 2 || level <= 0 {
		return false
	}
	last := candles[len(candles)-2:]
	lowest := math.Min(last[0].Low, last[1].Low)
	return lowest < level*0.998 && last[1].Close > level
}

func sweptAbove(candles []market.Candle, level float64) bool {
	if len(candles) < 2 || level <= 0 {
		return false
	}
	last := candles[len(candles)-2:]
	highest := math.Max(last[0].High, last[1].High)
	return highest > level*1.002 && last[1].Close < level
}
