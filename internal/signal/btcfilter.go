package signal

import (
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"crypto-signal-scanner/internal/indicators"
	"crypto-signal-scanner/internal/market"
	"crypto-signal-scanner/internal/structure"
)

// BTCFilter builds the master-gate context from the reference asset's 4h and
// 1h frames. Every other symbol is evaluated against this context.
type BTCFilter struct {
	analyzer *structure.Analyzer
	now      func() time.Time
	logger   zerolog.Logger
}

// NewBTCFilter creates a filter. A nil clock defaults to time.Now.
func NewBTCFilter(analyzer *structure.Analyzer, now func() time.Time, logger zerolog.Logger) *BTCFilter {
	if now == nil {
		now = time.Now
	}
	return &BTCFilter{
		analyzer: analyzer,
		now:      now,
		logger:   logger.With().Str("component", "btc_filter").Logger(),
	}
}

// AnalyzeContext classifies the reference trend, volatility regime, and
// session quality, then derives direction multipliers and the trade gate.
func (f *BTCFilter) AnalyzeContext(frame4h, frame1h *indicators.Frame) (*BTCContext, error) {
	if frame1h == nil || frame1h.Len() == 0 {
		return nil, market.ErrInsufficientData
	}
	if err := f.analyzer.DetectSwingPoints(frame4h); err != nil {
		return nil, err
	}
	trend, err := f.analyzer.DetermineTrend(frame4h, 20)
	if err != nil {
		return nil, err
	}

	volatility := classifyVolatility(frame4h.ATRSeries)
	session := sessionQuality(f.now().UTC().Hour())

	ctx := &BTCContext{
		Trend:          trend.Trend,
		TrendStrength:  trend.TrendStrength,
		Volatility:     volatility,
		SessionQuality: session,
		CurrentPrice:   frame1h.LastClose(),
		ATR:            indicators.LastValid(frame4h.ATRSeries),
		ADX:            trend.ADXValue,
	}

	ctx.MultiplierLong, ctx.MultiplierShort = multipliers(trend.Trend, volatility)
	ctx.ShouldTrade = shouldTrade(trend.Trend, volatility, trend.TrendStrength)

	f.logger.Info().
		Str("trend", ctx.Trend).
		Float64("trend_strength", ctx.TrendStrength).
		Str("volatility", ctx.Volatility).
		Str("session", ctx.SessionQuality).
		Bool("should_trade", ctx.ShouldTrade).
		Float64("mult_long", ctx.MultiplierLong).
		Float64("mult_short", ctx.MultiplierShort).
		Msg("BTC context updated")

	return ctx, nil
}

// multipliers maps the reference trend to long/short score multipliers, then
// applies the volatility adjustment: high volatility halves both with a 0.2
// floor, low volatility adds 10% with a 1.2 cap. Results are rounded to two
// decimals.
func multipliers(trend, volatility string) (long, short float64) {
	switch trend {
	case structure.TrendStrongBull:
		long, short = 1.2, 0.3
	case structure.TrendStrongBear:
		long, short = 0.4, 1.2
	case structure.TrendSideways:
		long, short = 0.7, 0.7
	default:
		long, short = 0.2, 0.2
	}

	switch volatility {
	case VolatilityHigh:
		long = math.Max(0.2, long*0.5)
		short = math.Max(0.2, short*0.5)
	case VolatilityLow:
		long = math.Min(1.2, long*1.1)
		short = math.Min(1.2, short*1.1)
	}

	return round2(long), round2(short)
}

func shouldTrade(trend, volatility string, strength float64) bool {
	if trend == structure.TrendUnstable {
		return false
	}
	if volatility == VolatilityHigh && strength < 35 {
		return false
	}
	if trend == structure.TrendSideways && strength < 20 {
		return false
	}
	return true
}

// classifyVolatility compares the latest ATR with its mean over the last 20
// values. Above 1.5x the mean is ALTA, below 0.7x is BAJA.
func classifyVolatility(atr []float64) string {
	var valid []float64
	for _, v := range atr {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return VolatilityNormal
	}
	window := valid
	if len(window) > 20 {
		window = window[len(window)-20:]
	}
	mean := 0.0
	for _, v := range window {
		mean += v
	}
	mean /= float64(len(window))
	if mean <= 0 {
		return VolatilityNormal
	}

	ratio := valid[len(valid)-1] / mean
	switch {
	case ratio > 1.5:
		return VolatilityHigh
	case ratio < 0.7:
		return VolatilityLow
	default:
		return VolatilityNormal
	}
}

// sessionQuality rates the current UTC hour: the London/New York overlap
// (13-17) is ALTA, the London morning (7-13) is MEDIA, everything else BAJA.
func sessionQuality(hour int) string {
	switch {
	case hour >= 13 && hour < 17:
		return QualityHigh
	case hour >= 7 && hour < 13:
		return QualityMedium
	default:
		return QualityLow
	}
}

// TrendFavors reports whether the reference trend supports the direction.
func TrendFavors(trend, direction string) bool {
	if strings.Contains(trend, "ALCISTA") {
		return direction == DirectionLong
	}
	if strings.Contains(trend, "BAJISTA") {
		return direction == DirectionShort
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
