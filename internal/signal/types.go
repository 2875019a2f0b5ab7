// Package signal turns analyzed market data into ranked, risk-managed
// trading signals: per-asset setup detection, BTC master gating, confluence
// scoring, and orchestration of a full scan.
package signal

import (
	"time"

	"crypto-signal-scanner/internal/keylevels"
	"crypto-signal-scanner/internal/orderflow"
	"crypto-signal-scanner/internal/structure"
)

// Directions.
const (
	DirectionLong  = "LONG"
	DirectionShort = "SHORT"
)

// Confidence tiers and session/volatility qualities.
const (
	QualityHigh   = "ALTA"
	QualityMedium = "MEDIA"
	QualityLow    = "BAJA"

	VolatilityHigh   = "ALTA"
	VolatilityNormal = "NORMAL"
	VolatilityLow    = "BAJA"
)

// Setup is a direction-specific candidate trade idea pending scoring. It
// lives for a single scan cycle.
type Setup struct {
	Direction      string                `json:"direction"`
	BaseScore      int                   `json:"base_score"`
	StructureValid bool                  `json:"structure_valid"`
	OrderFlowValid bool                  `json:"orderflow_valid"`
	PatternValid   bool                  `json:"pattern_valid"`
	LiquiditySweep bool                  `json:"liquidity_sweep"`
	Reasons        []string              `json:"reasons"`
	Level          float64               `json:"level"` // reference support/resistance
	HasLevel       bool                  `json:"has_level"`
	EntryLow       float64               `json:"entry_low"`
	EntryHigh      float64               `json:"entry_high"`
	OrderFlowScore int                   `json:"orderflow_score"`
	Divergence     *orderflow.Divergence `json:"divergence,omitempty"`
}

// MarketContext bundles the 4h structure results consumed by the detector.
type MarketContext struct {
	Supports    []structure.Zone
	Resistances []structure.Zone
	Trend       structure.TrendInfo
}

// BTCContext is the master-gate context computed once per scan from the
// reference asset. It is read-only input to every per-symbol evaluation.
type BTCContext struct {
	Trend           string  `json:"trend"`
	TrendStrength   float64 `json:"trend_strength"`
	Volatility      string  `json:"volatility"`
	SessionQuality  string  `json:"session_quality"`
	ShouldTrade     bool    `json:"should_trade"`
	MultiplierLong  float64 `json:"multiplier_long"`
	MultiplierShort float64 `json:"multiplier_short"`
	CurrentPrice    float64 `json:"current_price"`
	ATR             float64 `json:"atr"`
	ADX             float64 `json:"adx"`
}

// ScoreBreakdown records every term of the final score.
type ScoreBreakdown struct {
	Structure float64 `json:"structure"`
	OrderFlow float64 `json:"order_flow"`
	Patterns  float64 `json:"patterns"`
	Liquidity float64 `json:"liquidity"`
	KeyLevels float64 `json:"key_levels"`
	BaseScore float64 `json:"base_score"`

	ConfluenceCount      int      `json:"confluence_count"`
	ConfluenceLevels     []string `json:"confluence_levels"`
	ConfluenceMultiplier float64  `json:"confluence_multiplier"`
	ConfluenceBonus      float64  `json:"confluence_bonus"`

	BTCMultiplier    float64 `json:"btc_multiplier"`
	SessionBonus     float64 `json:"session_bonus"`
	CorrelationBonus float64 `json:"correlation_bonus"`
	DivergenceBonus  float64 `json:"divergence_bonus"`

	FinalScore  float64 `json:"final_score"`
	Confidence  string  `json:"confidence"`
	ShouldAlert bool    `json:"should_alert"`
}

// Signal is the final immutable output of a scan.
type Signal struct {
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	Score      float64 `json:"score"`
	Confidence string  `json:"confidence"`

	EntryPrice  float64 `json:"entry_price"`
	StopLoss    float64 `json:"stop_loss"`
	TakeProfit1 float64 `json:"take_profit_1"`
	TakeProfit2 float64 `json:"take_profit_2"`
	TakeProfit3 float64 `json:"take_profit_3"`

	RiskPercent           float64 `json:"risk_percent"`
	SuggestedPositionSize float64 `json:"suggested_position_size"`

	BTCTrend       string    `json:"btc_trend"`
	SessionQuality string    `json:"session_quality"`
	Timestamp      time.Time `json:"timestamp"`
	ValidUntil     time.Time `json:"valid_until"`

	Reasons []string `json:"reasons"`

	ATRValue float64 `json:"atr_value"`
	ADXValue float64 `json:"adx_value"`
	RSIValue float64 `json:"rsi_value"`

	Breakdown ScoreBreakdown   `json:"breakdown"`
	KeyLevels keylevels.Levels `json:"key_levels"`
}
