package signal

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"crypto-signal-scanner/internal/market"
	"crypto-signal-scanner/internal/structure"
)

func TestMultipliersByTrend(t *testing.T) {
	tests := []struct {
		trend      string
		volatility string
		long       float64
		short      float64
	}{
		{structure.TrendStrongBull, VolatilityNormal, 1.2, 0.3},
		{structure.TrendStrongBear, VolatilityNormal, 0.4, 1.2},
		{structure.TrendSideways, VolatilityNormal, 0.7, 0.7},
		{structure.TrendUnstable, VolatilityNormal, 0.2, 0.2},
		// High volatility halves with a 0.2 floor.
		{structure.TrendStrongBull, VolatilityHigh, 0.6, 0.2},
		{structure.TrendUnstable, VolatilityHigh, 0.2, 0.2},
		// Low volatility adds 10% with a 1.2 cap.
		{structure.TrendStrongBull, VolatilityLow, 1.2, 0.33},
		{structure.TrendSideways, VolatilityLow, 0.77, 0.77},
	}
	for _, tt := range tests {
		long, short := multipliers(tt.trend, tt.volatility)
		if long != tt.long || short != tt.short {
			t.Errorf("multipliers(%s, %s) = %v/%v, want %v/%v",
				tt.trend, tt.volatility, long, short, tt.long, tt.short)
		}
	}
}

func TestShouldTrade(t *testing.T) {
	tests := []struct {
		trend      string
		volatility string
		strength   float64
		want       bool
	}{
		{structure.TrendUnstable, VolatilityNormal, 50, false},
		{structure.TrendStrongBull, VolatilityHigh, 30, false},
		{structure.TrendStrongBull, VolatilityHigh, 40, true},
		{structure.TrendSideways, VolatilityNormal, 15, false},
		{structure.TrendSideways, VolatilityNormal, 25, true},
		{structure.TrendStrongBear, VolatilityNormal, 30, true},
	}
	for _, tt := range tests {
		if got := shouldTrade(tt.trend, tt.volatility, tt.strength); got != tt.want {
			t.Errorf("shouldTrade(%s, %s, %v) = %v, want %v",
				tt.trend, tt.volatility, tt.strength, got, tt.want)
		}
	}
}

func TestClassifyVolatility(t *testing.T) {
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 2.0
	}
	if got := classifyVolatility(flat); got != VolatilityNormal {
		t.Errorf("flat ATR = %s, want %s", got, VolatilityNormal)
	}

	spiking := make([]float64, 30)
	for i := range spiking {
		spiking[i] = 2.0
	}
	spiking[29] = 10.0
	if got := classifyVolatility(spiking); got != VolatilityHigh {
		t.Errorf("spiking ATR = %s, want %s", got, VolatilityHigh)
	}

	fading := make([]float64, 30)
	for i := range fading {
		fading[i] = 2.0
	}
	fading[29] = 0.5
	if got := classifyVolatility(fading); got != VolatilityLow {
		t.Errorf("fading ATR = %s, want %s", got, VolatilityLow)
	}

	if got := classifyVolatility([]float64{math.NaN()}); got != VolatilityNormal {
		t.Errorf("all-NaN ATR = %s, want %s", got, VolatilityNormal)
	}
}

func TestSessionQuality(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{13, QualityHigh}, // London/NY overlap
		{14, QualityHigh},
		{16, QualityHigh},
		{7, QualityMedium}, // London morning
		{9, QualityMedium},
		{12, QualityMedium},
		{17, QualityLow},
		{20, QualityLow},
		{3, QualityLow}, // Asia
		{22, QualityLow},
	}
	for _, tt := range tests {
		if got := sessionQuality(tt.hour); got != tt.want {
			t.Errorf("sessionQuality(%d) = %s, want %s", tt.hour, got, tt.want)
		}
	}
}

func TestAnalyzeContextUsesIntradayPrice(t *testing.T) {
	frame4h := rangeBoundFrame(t, 100)
	frame1h := rangeBoundFrame(t, 100.5)
	f := NewBTCFilter(structure.NewAnalyzer(3), testClock(), zerolog.Nop())

	ctx, err := f.AnalyzeContext(frame4h, frame1h)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if ctx.CurrentPrice != 100.5 {
		t.Errorf("current price = %v, want the 1h close 100.5", ctx.CurrentPrice)
	}
}

func TestAnalyzeContextRequiresIntradayFrame(t *testing.T) {
	frame4h := rangeBoundFrame(t, 100)
	f := NewBTCFilter(structure.NewAnalyzer(3), testClock(), zerolog.Nop())

	if _, err := f.AnalyzeContext(frame4h, nil); !errors.Is(err, market.ErrInsufficientData) {
		t.Errorf("got %v, want ErrInsufficientData for a missing 1h frame", err)
	}
}

func TestTrendFavors(t *testing.T) {
	if !TrendFavors(structure.TrendStrongBull, DirectionLong) {
		t.Error("bull trend must favor longs")
	}
	if TrendFavors(structure.TrendStrongBull, DirectionShort) {
		t.Error("bull trend must not favor shorts")
	}
	if !TrendFavors(structure.TrendStrongBear, DirectionShort) {
		t.Error("bear trend must favor shorts")
	}
	if TrendFavors(structure.TrendSideways, DirectionLong) {
		t.Error("sideways trend favors neither direction")
	}
}
