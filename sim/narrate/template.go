// Package narrate turns simulation events into short natural-language text.
//
// Template narrates offline and deterministically. LLM asks an
// OpenAI-compatible chat-completions endpoint (Groq by default) and degrades
// to no text when the endpoint is slow, failing or unconfigured.
package narrate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/chainreact/chainreact-sim/sim"
)

// UnknownEventText is returned for events of kind UNKNOWN.
const UnknownEventText = "An unknown event occurred."

// Summarizer writes the closing summary of a run.
type Summarizer interface {
	Summarize(ctx context.Context, s sim.RunSummary) (string, bool)
}

// Template produces fixed sentences from the event data.
type Template struct{}

// Describe implements sim.Narrator.
func (Template) Describe(_ context.Context, kind sim.EventKind, data map[string]any) (string, bool) {
	week := intField(data, "week")
	switch kind {
	case sim.KindBullwhip:
		return fmt.Sprintf("Bullwhip at week %d: the Distributor ordered %d units while the Retailer asked for %d.",
			week, intField(data, "distributor_order"), intField(data, "retailer_order")), true
	case sim.KindDemandShift:
		return fmt.Sprintf("At week %d base demand rose from %d to %d; upstream tiers will overshoot while the pipeline refills.",
			week, intField(data, "from"), intField(data, "to")), true
	case sim.KindDisruption:
		return fmt.Sprintf("Disruption at week %d: demand forced to %d for %d weeks, expect Retailer stockouts and a wave of upstream orders.",
			week, intField(data, "value"), intField(data, "duration")), true
	default:
		return UnknownEventText, true
	}
}

// Summarize implements Summarizer.
func (Template) Summarize(_ context.Context, s sim.RunSummary) (string, bool) {
	if len(s.TotalCosts) == 0 {
		return "", false
	}
	tiers := make([]string, 0, len(s.TotalCosts))
	for name := range s.TotalCosts {
		tiers = append(tiers, name)
	}
	sort.Slice(tiers, func(i, j int) bool {
		if s.TotalCosts[tiers[i]] != s.TotalCosts[tiers[j]] {
			return s.TotalCosts[tiers[i]] > s.TotalCosts[tiers[j]]
		}
		return tiers[i] < tiers[j]
	})
	worst := tiers[0]

	var b strings.Builder
	fmt.Fprintf(&b, "Over %d weeks the chain spent %d in total. ", s.Weeks, s.TotalCost())
	fmt.Fprintf(&b, "The %s (%s) carried the highest cost at %d", worst, s.Policies[worst], s.TotalCosts[worst])
	if r, ok := s.BullwhipRatio[worst]; ok && r > 0 {
		fmt.Fprintf(&b, " with order variance %.1fx that of customer demand", r)
	}
	b.WriteString(".")
	return b.String(), true
}

// Summary returns the text s produces for rs, falling back to Template.
func Summary(ctx context.Context, s Summarizer, rs sim.RunSummary) string {
	if s != nil {
		if text, ok := s.Summarize(ctx, rs); ok {
			return text
		}
	}
	text, _ := Template{}.Summarize(ctx, rs)
	return text
}

// intField reads a numeric field that may have passed through JSON.
func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
