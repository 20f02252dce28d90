// Package trace provides decision-trace recording for ordering-policy analysis.
// It has no dependencies on sim/ and stores plain data types.
package trace

// DecisionRecord captures a single order-phase decision of one tier.
type DecisionRecord struct {
	Week        int     `json:"week"`
	Tier        string  `json:"tier"`
	Policy      string  `json:"policy"`
	Inventory   int     `json:"inventory"`
	Backlog     int     `json:"backlog"`
	DemandTrend float64 `json:"demand_trend"`
	Amount      int     `json:"amount"`
	Reason      string  `json:"reason"` // e.g. "order-up-to", "predicted", "fallback-no-predictor"
}

// EventRecord captures an event raised during a week.
type EventRecord struct {
	Week     int    `json:"week"`
	Severity string `json:"severity"`
	Kind     string `json:"kind"`
}
