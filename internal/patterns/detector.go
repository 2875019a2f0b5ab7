// Package patterns detects candlestick patterns over the last one to three
// candles of a sequence.
package patterns

import (
	"math"

	"crypto-signal-scanner/internal/market"
)

// PatternType identifies a detected candlestick pattern.
type PatternType string

const (
	Engulfing        PatternType = "engulfing"
	Hammer           PatternType = "hammer"
	ShootingStar     PatternType = "shooting_star"
	ThreeConsecutive PatternType = "3_consecutive"
)

// PatternSet lists the matched pattern names per direction. Score is a flat
// 10 when any pattern matched, 0 otherwise.
type PatternSet struct {
	Bullish []string `json:"bullish"`
	Bearish []string `json:"bearish"`
	Score   int      `json:"score"`
}

// Detector recognizes candlestick patterns.
type Detector struct{}

// NewDetector creates a pattern detector.
func NewDetector() *Detector {
	return &Detector{}
}

// DetectBullishEngulfing checks the last two candles: a bearish candle
// followed by a bullish candle whose body is at least 1.05x larger and
// fully contains the prior body.
func (d *Detector) DetectBullishEngulfing(candles []market.Candle) bool {
	if len(candles) < 2 {
		return false
	}
	prev := candles[len(candles)-2]
	curr := candles[len(candles)-1]

	if !prev.Bearish() || !curr.Bullish() {
		return false
	}
	if curr.Body() <= prev.Body()*1.05 {
		return false
	}
	return curr.Open <= prev.Close && curr.Close >= prev.Open
}

// DetectBearishEngulfing is the mirror of DetectBullishEngulfing.
func (d *Detector) DetectBearishEngulfing(candles []market.Candle) bool {
	if len(candles) < 2 {
		return false
	}
	prev := candles[len(candles)-2]
	curr := candles[len(candles)-1]

	if !prev.Bullish() || !curr.Bearish() {
		return false
	}
	if curr.Body() <= prev.Body()*1.05 {
		return false
	}
	return curr.Open >= prev.Close && curr.Close <= prev.Open
}

// DetectHammer checks the last candle for a long lower wick (>= 2x body), a
// small upper wick (<= 0.5x body), and a body in the upper half of the
// range. When a support zone is given the close must sit within 1% of it.
func (d *Detector) DetectHammer(candles []market.Candle, supportZone float64) bool {
	if len(candles) == 0 {
		return false
	}
	c := candles[len(candles)-1]

	body := c.Body()
	if body == 0 {
		return false
	}
	if c.LowerWick() < body*2 || c.UpperWick() > body*0.5 {
		return false
	}
	bodyTop := math.Max(c.Open, c.Close)
	if bodyTop < c.High-body*0.5 {
		return false
	}
	if supportZone > 0 {
		distance := math.Abs(c.Close-supportZone) / math.Max(supportZone, 1e-8)
		if distance > 0.01 {
			return false
		}
	}
	return true
}

// DetectShootingStar is the bearish mirror of DetectHammer, with an
// optional resistance-zone proximity check.
func (d *Detector) DetectShootingStar(candles []market.Candle, resistanceZone float64) bool {
	if len(candles) == 0 {
		return false
	}
	c := candles[len(candles)-1]

	body := c.Body()
	if body == 0 {
		return false
	}
	if c.UpperWick() < body*2 || c.LowerWick() > body*0.5 {
		return false
	}
	bodyBottom := math.Min(c.Open, c.Close)
	if bodyBottom > c.Low+body*0.5 {
		return false
	}
	if resistanceZone > 0 {
		distance := math.Abs(c.Close-resistanceZone) / math.Max(resistanceZone, 1e-8)
		if distance > 0.01 {
			return false
		}
	}
	return true
}

// DetectThreeConsecutive checks for three same-direction candles with
// non-decreasing volume (a 5% dip is tolerated).
func (d *Detector) DetectThreeConsecutive(candles []market.Candle, bullish bool) bool {
	if len(candles) < 3 {
		return false
	}
	last := candles[len(candles)-3:]

	for _, c := range last {
		if bullish && !c.Bullish() {
			return false
		}
		if !bullish && !c.Bearish() {
			return false
		}
	}
	for i := 1; i < len(last); i++ {
		if last[i].Volume < last[i-1].Volume*0.95 {
			return false
		}
	}
	return true
}

// DetectAll runs every detector. Zone arguments of zero disable the
// proximity checks.
func (d *Detector) DetectAll(candles []market.Candle, supportZone, resistanceZone float64) PatternSet {
	set := PatternSet{}

	if d.DetectBullishEngulfing(candles) {
		set.Bullish = append(set.Bullish, string(Engulfing))
	}
	if d.DetectHammer(candles, supportZone) {
		set.Bullish = append(set.Bullish, string(Hammer))
	}
	if d.DetectThreeConsecutive(candles, true) {
		set.Bullish = append(set.Bullish, string(ThreeConsecutive))
	}

	if d.DetectBearishEngulfing(candles) {
		set.Bearish = append(set.Bearish, string(Engulfing))
	}
	if d.DetectShootingStar(candles, resistanceZone) {
		set.Bearish = append(set.Bearish, string(ShootingStar))
	}
	if d.DetectThreeConsecutive(candles, false) {
		set.Bearish = append(set.Bearish, string(ThreeConsecutive))
	}

	if len(set.Bullish) > 0 || len(set.Bearish) > 0 {
		set.Score = 10
	}
	return set
}
