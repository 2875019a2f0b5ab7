package signal

import (
	"fmt"
	"strings"
)

// AlertString renders the signal as a human-readable alert message.
func (s *Signal) AlertString() string {
	var b strings.Builder

	arrow := "🟢 LONG"
	if s.Direction == DirectionShort {
		arrow = "🔴 SHORT"
	}

	fmt.Fprintf(&b, "🚨 %s %s\n", s.Symbol, arrow)
	fmt.Fprintf(&b, "Score: %.1f (%s)\n", s.Score, s.Confidence)
	fmt.Fprintf(&b, "Entry: %.4f\n", s.EntryPrice)
	fmt.Fprintf(&b, "Stop: %.4f (risk %.2f%%)\n", s.StopLoss, s.RiskPercent)
	fmt.Fprintf(&b, "TP1: %.4f | TP2: %.4f | TP3: %.4f\n", s.TakeProfit1, s.TakeProfit2, s.TakeProfit3)
	fmt.Fprintf(&b, "Position size: %.1f%% | BTC: %s | Session: %s\n",
		s.SuggestedPositionSize, s.BTCTrend, s.SessionQuality)

	if len(s.Breakdown.ConfluenceLevels) > 0 {
		fmt.Fprintf(&b, "Confluences (%d): %s\n",
			s.Breakdown.ConfluenceCount, strings.Join(s.Breakdown.ConfluenceLevels, ", "))
	}
	for _, reason := range s.Reasons {
		fmt.Fprintf(&b, "• %s\n", reason)
	}
	fmt.Fprintf(&b, "Valid until %s UTC", s.ValidUntil.UTC().Format("15:04"))

	return b.String()
}
