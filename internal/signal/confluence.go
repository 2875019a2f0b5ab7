package signal

import (
	"math"
	"sort"
)

// Confluence is the result of counting key levels near the current price.
type Confluence struct {
	Count      int      `json:"count"`
	Levels     []string `json:"levels"`
	Multiplier float64  `json:"multiplier"`
}

// DetectConfluences counts the candidate levels within the relative tolerance
// of price. Level names are visited in sorted order so the result is
// deterministic. Non-finite levels are ignored.
func DetectConfluences(price float64, levels map[string]float64, tolerance float64) Confluence {
	names := make([]string, 0, len(levels))
	for name := range levels {
		names = append(names, name)
	}
	sort.Strings(names)

	conf := Confluence{Multiplier: 1.0}
	if price <= 0 {
		return conf
	}
	for _, name := range names {
		value := levels[name]
		if math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		if math.Abs(price-value)/price <= tolerance {
			conf.Count++
			conf.Levels = append(conf.Levels, name)
		}
	}
	conf.Multiplier = ConfluenceMultiplier(conf.Count)
	return conf
}

// ConfluenceMultiplier maps the confluence count to a score multiplier.
func ConfluenceMultiplier(count int) float64 {
	switch {
	case count >= 4:
		return 1.5
	case count == 3:
		return 1.2
	default:
		return 1.0
	}
}

// ConfluenceBonus is the additive confluence term: zero at one level or
// fewer, then 10 per extra level with a flat +20 once four line up.
func ConfluenceBonus(count int) float64 {
	if count <= 1 {
		return 0
	}
	bonus := float64(count-1) * 10
	if count >= 4 {
		bonus += 20
	}
	return bonus
}
