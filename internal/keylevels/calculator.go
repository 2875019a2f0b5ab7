// Package keylevels derives key price levels from candle history: volume
// profile (POC, value area), previous day/week extremes, and session
// extremes.
package keylevels

import (
	"math"
	"sort"
	"time"

	"crypto-signal-scanner/internal/market"
)

// Level map keys.
const (
	KeyPOCWeekly = "poc_weekly"
	KeyPOCDaily  = "poc_daily"
	KeyVAH       = "vah"
	KeyVAL       = "val"
	KeyPWH       = "pwh"
	KeyPWL       = "pwl"
	KeyPDH       = "pdh"
	KeyPDL       = "pdl"
	KeyNYHigh    = "ny_high"
	KeyNYLow     = "ny_low"
)

// Levels maps level names to prices. Non-finite values are never stored.
type Levels map[string]float64

// SessionRange holds the high/low of one trading session.
type SessionRange struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// UTC session windows (start hour inclusive, end hour exclusive).
var sessionWindows = []struct {
	name  string
	start int
	end   int
}{
	{"asia", 0, 9},
	{"london", 7, 16},
	{"new_york", 13, 21},
}

type bucket struct {
	lower  float64
	upper  float64
	center float64
	volume float64
}

// Calculator builds volume profiles and assembles the key-level map.
type Calculator struct {
	bins int
}

// NewCalculator creates a calculator with the given number of volume-profile
// buckets.
func NewCalculator(bins int) *Calculator {
	if bins < 1 {
		bins = 20
	}
	return &Calculator{bins: bins}
}

// POC returns the point of control: the midpoint of the bucket with the most
// accumulated volume inside the trailing window. ok is false when the window
// holds no candles.
func (c *Calculator) POC(candles []market.Candle, window time.Duration) (float64, bool) {
	profile := c.buildVolumeProfile(candles, window)
	if len(profile) == 0 {
		return 0, false
	}
	best := 0
	for i, b := range profile {
		if b.volume > profile[best].volume {
			best = i
		}
	}
	return profile[best].center, true
}

// ValueArea returns the value area high and low: the price bounds spanned by
// the highest-volume buckets that together hold at least the coverage
// fraction of total volume.
func (c *Calculator) ValueArea(candles []market.Candle, window time.Duration, coverage float64) (vah, val float64, ok bool, err error) {
	if coverage <= 0 || coverage > 1 {
		return 0, 0, false, &market.ConfigError{Param: "coverage", Reason: "must be in (0, 1]"}
	}

	profile := c.buildVolumeProfile(candles, window)
	if len(profile) == 0 {
		return 0, 0, false, nil
	}

	total := 0.0
	for _, b := range profile {
		total += b.volume
	}
	if total <= 0 {
		return 0, 0, false, nil
	}

	byVolume := make([]bucket, len(profile))
	copy(byVolume, profile)
	sort.SliceStable(byVolume, func(i, j int) bool {
		return byVolume[i].volume > byVolume[j].volume
	})

	threshold := total * coverage
	accumulated := 0.0
	vah = math.Inf(-1)
	val = math.Inf(1)
	for _, b := range byVolume {
		accumulated += b.volume
		vah = math.Max(vah, b.upper)
		val = math.Min(val, b.lower)
		if accumulated >= threshold {
			break
		}
	}
	return vah, val, true, nil
}

// Extremes holds previous-period highs and lows; absent values are NaN.
type Extremes struct {
	PDH float64
	PDL float64
	PWH float64
	PWL float64
}

// PreviousPeriodExtremes computes the previous UTC day and previous UTC week
// (Monday-floored) highs and lows relative to the latest candle time.
func PreviousPeriodExtremes(candles []market.Candle) Extremes {
	ext := Extremes{PDH: math.NaN(), PDL: math.NaN(), PWH: math.NaN(), PWL: math.NaN()}
	if len(candles) == 0 {
		return ext
	}

	latestDay := candles[len(candles)-1].Time().Truncate(24 * time.Hour)

	prevDayStart := latestDay.AddDate(0, 0, -1)
	if high, low, ok := rangeExtremes(candles, prevDayStart, latestDay); ok {
		ext.PDH, ext.PDL = high, low
	}

	// Monday-floored week start.
	offset := (int(latestDay.Weekday()) + 6) % 7
	weekStart := latestDay.AddDate(0, 0, -offset)
	prevWeekStart := weekStart.AddDate(0, 0, -7)
	if high, low, ok := rangeExtremes(candles, prevWeekStart, weekStart); ok {
		ext.PWH, ext.PWL = high, low
	}

	return ext
}

// SessionExtremes returns the high/low of the most recent occurrence of each
// fixed UTC session window, scanning up to three calendar days back.
func SessionExtremes(candles []market.Candle) map[string]SessionRange {
	sessions := make(map[string]SessionRange, len(sessionWindows))
	if len(candles) == 0 {
		return sessions
	}

	latestDay := candles[len(candles)-1].Time().Truncate(24 * time.Hour)

	for _, win := range sessionWindows {
		for offset := 0; offset < 3; offset++ {
			day := latestDay.AddDate(0, 0, -offset)
			start := day.Add(time.Duration(win.start) * time.Hour)
			end := day.Add(time.Duration(win.end) * time.Hour)
			if high, low, ok := rangeExtremes(candles, start, end); ok {
				sessions[win.name] = SessionRange{High: high, Low: low}
				break
			}
		}
	}
	return sessions
}

// Calculate assembles the labeled key-level map for a symbol frame. The
// reference time is the latest candle's timestamp, so the result depends
// only on the input. Session levels are included for intraday timeframes
// (1h, 15m) only, and non-finite values are omitted.
func (c *Calculator) Calculate(candles []market.Candle, timeframe string) (Levels, error) {
	if err := market.ValidateCandles(candles); err != nil {
		return nil, err
	}

	const week = 7 * 24 * time.Hour
	const day = 24 * time.Hour

	levels := make(Levels)
	put := func(key string, value float64) {
		if !math.IsNaN(value) && !math.IsInf(value, 0) {
			levels[key] = value
		}
	}

	if poc, ok := c.POC(candles, week); ok {
		put(KeyPOCWeekly, poc)
	}
	if poc, ok := c.POC(candles, day); ok {
		put(KeyPOCDaily, poc)
	}
	if vah, val, ok, err := c.ValueArea(candles, week, 0.70); err != nil {
		return nil, err
	} else if ok {
		put(KeyVAH, vah)
		put(KeyVAL, val)
	}

	ext := PreviousPeriodExtremes(candles)
	put(KeyPDH, ext.PDH)
	put(KeyPDL, ext.PDL)
	put(KeyPWH, ext.PWH)
	put(KeyPWL, ext.PWL)

	if timeframe == "1h" || timeframe == "15m" {
		if ny, ok := SessionExtremes(candles)["new_york"]; ok {
			put(KeyNYHigh, ny.High)
			put(KeyNYLow, ny.Low)
		}
	}

	return levels, nil
}

// buildVolumeProfile bins candle volume by typical price into equal-width
// buckets over the trailing window, ordered by price ascending. When the
// price range collapses it returns a single bucket holding total volume.
func (c *Calculator) buildVolumeProfile(candles []market.Candle, window time.Duration) []bucket {
	if len(candles) == 0 {
		return nil
	}

	filtered := filterByWindow(candles, window)
	if len(filtered) == 0 {
		return nil
	}

	minPrice := math.Inf(1)
	maxPrice := math.Inf(-1)
	for _, cd := range filtered {
		minPrice = math.Min(minPrice, cd.Low)
		maxPrice = math.Max(maxPrice, cd.High)
	}
	if !finite(minPrice) || !finite(maxPrice) {
		return nil
	}

	if closeEnough(minPrice, maxPrice) {
		total := 0.0
		for _, cd := range filtered {
			total += cd.Volume
		}
		center := (minPrice + maxPrice) / 2
		return []bucket{{lower: minPrice, upper: maxPrice, center: center, volume: total}}
	}

	width := (maxPrice - minPrice) / float64(c.bins)
	volumes := make([]float64, c.bins)
	for _, cd := range filtered {
		idx := int((cd.TypicalPrice() - minPrice) / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= c.bins {
			idx = c.bins - 1
		}
		volumes[idx] += cd.Volume
	}

	profile := make([]bucket, 0, c.bins)
	for i, vol := range volumes {
		if vol == 0 {
			continue
		}
		lower := minPrice + float64(i)*width
		upper := minPrice + float64(i+1)*width
		profile = append(profile, bucket{lower: lower, upper: upper, center: (lower + upper) / 2, volume: vol})
	}
	return profile
}

func filterByWindow(candles []market.Candle, window time.Duration) []market.Candle {
	if window <= 0 {
		return candles
	}
	end := candles[len(candles)-1].Timestamp
	start := end - int64(window/time.Second)
	for i, cd := range candles {
		if cd.Timestamp >= start {
			return candles[i:]
		}
	}
	return nil
}

func rangeExtremes(candles []market.Candle, start, end time.Time) (high, low float64, ok bool) {
	high = math.Inf(-1)
	low = math.Inf(1)
	startTS, endTS := start.Unix(), end.Unix()
	for _, cd := range candles {
		if cd.Timestamp >= startTS && cd.Timestamp < endTS {
			high = math.Max(high, cd.High)
			low = math.Min(low, cd.Low)
			ok = true
		}
	}
	return high, low, ok
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= 1e-8+1e-5*math.Abs(b)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
