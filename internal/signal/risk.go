package signal

import (
	"math"
	"strings"
)

// riskLevels holds the computed trade levels for one signal.
type riskLevels struct {
	entry       float64
	stop        float64
	tp1         float64
	tp2         float64
	tp3         float64
	riskPercent float64
}

// atrMultiplier widens stops for less liquid symbols.
func atrMultiplier(symbol string) float64 {
	switch {
	case strings.HasPrefix(symbol, "BTC"):
		return 1.5
	case strings.HasPrefix(symbol, "ETH"):
		return 2.0
	default:
		return 2.5
	}
}

func isReferenceSymbol(symbol string) bool {
	return strings.HasPrefix(symbol, "BTC")
}

// computeRiskLevels places the stop beyond the reference level by an
// ATR-scaled distance and targets at 2x/3x/4x the risk. The stop is never
// closer than 0.5% of price.
func computeRiskLevels(symbol, direction string, price float64, setup *Setup, atr float64) riskLevels {
	mult := atrMultiplier(symbol)
	minRisk := price * 0.005

	if direction == DirectionLong {
		reference := price * 0.98
		if setup.HasLevel {
			reference = setup.Level
		}
		stop := reference * 0.98
		if !math.IsNaN(atr) && atr > 0 {
			stop = reference - atr*mult
		}
		if stop >= price {
			stop = price - math.Max(price-reference, minRisk)
		}
		risk := price - stop
		if risk < minRisk {
			risk = minRisk
			stop = price - risk
		}
		return riskLevels{
			entry:       price,
			stop:        stop,
			tp1:         price + risk*2,
			tp2:         price + risk*3,
			tp3:         price + risk*4,
			riskPercent: round2(risk / price * 100),
		}
	}

	reference := price * 1.02
	if setup.HasLevel {
		reference = setup.Level
	}
	stop := reference * 1.02
	if !math.IsNaN(atr) && atr > 0 {
		stop = reference + atr*mult
	}
	if stop <= price {
		stop = price + math.Max(reference-price, minRisk)
	}
	risk := stop - price
	if risk < minRisk {
		risk = minRisk
		stop = price + risk
	}
	return riskLevels{
		entry:       price,
		stop:        stop,
		tp1:         price - risk*2,
		tp2:         price - risk*3,
		tp3:         price - risk*4,
		riskPercent: round2(risk / price * 100),
	}
}

// positionSize suggests the account risk fraction (percent) per confidence
// tier.
func positionSize(confidence string) float64 {
	switch confidence {
	case QualityHigh:
		return 1.5
	case QualityMedium:
		return 1.0
	default:
		return 0.5
	}
}
