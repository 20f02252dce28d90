package trace

import "strings"

// TierSummary aggregates the decisions of one tier.
type TierSummary struct {
	Decisions int
	MeanOrder float64
	MaxOrder  int
	Fallbacks int
}

// TraceSummary aggregates statistics from a DecisionTrace.
type TraceSummary struct {
	TotalDecisions int
	ReasonCounts   map[string]int // decision reason → count
	EventCounts    map[string]int // event kind → count
	Tiers          map[string]TierSummary
}

// Summarize computes aggregate statistics from a DecisionTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(dt *DecisionTrace) *TraceSummary {
	summary := &TraceSummary{
		ReasonCounts: make(map[string]int),
		EventCounts:  make(map[string]int),
		Tiers:        make(map[string]TierSummary),
	}
	if dt == nil {
		return summary
	}

	summary.TotalDecisions = len(dt.Decisions)
	totals := make(map[string]int)
	for _, d := range dt.Decisions {
		summary.ReasonCounts[d.Reason]++
		ts := summary.Tiers[d.Tier]
		ts.Decisions++
		if d.Amount > ts.MaxOrder {
			ts.MaxOrder = d.Amount
		}
		if strings.HasPrefix(d.Reason, "fallback") {
			ts.Fallbacks++
		}
		totals[d.Tier] += d.Amount
		summary.Tiers[d.Tier] = ts
	}
	for tier, ts := range summary.Tiers {
		ts.MeanOrder = float64(totals[tier]) / float64(ts.Decisions)
		summary.Tiers[tier] = ts
	}

	for _, e := range dt.Events {
		summary.EventCounts[e.Kind]++
	}
	return summary
}
