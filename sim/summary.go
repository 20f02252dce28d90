package sim

import (
	"fmt"
	"io"
)

// RunSummary aggregates a completed (or cancelled) run for final reporting.
type RunSummary struct {
	Weeks      int               `json:"weeks"`
	Policies   map[string]string `json:"policies"`
	TotalCosts map[string]int    `json:"total_costs"`

	// Retailer breakdown: holding covers recorded weeks only, stockout is the rest.
	RetailerHoldingCost  int   `json:"retailer_holding_cost"`
	RetailerStockoutCost int   `json:"retailer_stockout_cost"`
	RetailerInventory    []int `json:"retailer_inventory"` // index 0 is the initial state

	// BullwhipRatio is var(tier orders) / var(customer demand) per tier,
	// 0 when customer demand never varied.
	BullwhipRatio map[string]float64 `json:"bullwhip_ratio"`

	Text string `json:"summary_text,omitempty"`
}

// Summary computes the RunSummary of every week stepped so far.
func (e *Engine) Summary() RunSummary {
	s := RunSummary{
		Weeks:         len(e.demandHistory),
		Policies:      make(map[string]string, len(e.Agents)),
		TotalCosts:    make(map[string]int, len(e.Agents)),
		BullwhipRatio: make(map[string]float64, len(e.Agents)),
	}
	demandVar := variance(e.demandHistory)
	for _, a := range e.Agents {
		name := string(a.Tier)
		s.Policies[name] = string(a.Policy)
		s.TotalCosts[name] = sum(a.History.Cost)
		if demandVar > 0 {
			s.BullwhipRatio[name] = variance(a.History.PlacedOrderAmount[1:]) / demandVar
		} else {
			s.BullwhipRatio[name] = 0
		}
	}

	r := e.byTier[Retailer]
	s.RetailerInventory = append([]int(nil), r.History.Inventory...)
	s.RetailerHoldingCost = sum(r.History.Inventory[1:]) * r.Costs.Holding
	s.RetailerStockoutCost = s.TotalCosts[string(Retailer)] - s.RetailerHoldingCost
	return s
}

// Print writes a human-readable report.
func (s RunSummary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Summary ===")
	fmt.Fprintf(w, "Weeks                : %d\n", s.Weeks)
	for _, tier := range Tiers {
		name := string(tier)
		fmt.Fprintf(w, "%-11s %-10s : cost=%-8d bullwhip=%.2f\n",
			name, s.Policies[name], s.TotalCosts[name], s.BullwhipRatio[name])
	}
	fmt.Fprintf(w, "Retailer holding     : %d\n", s.RetailerHoldingCost)
	fmt.Fprintf(w, "Retailer stockout    : %d\n", s.RetailerStockoutCost)
	if s.Text != "" {
		fmt.Fprintf(w, "\n%s\n", s.Text)
	}
}

// TotalCost sums the cost of every tier.
func (s RunSummary) TotalCost() int {
	total := 0
	for _, c := range s.TotalCosts {
		total += c
	}
	return total
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

// variance is the population variance, 0 for fewer than two values.
func variance(values []int) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	acc := 0.0
	for _, v := range values {
		d := float64(v) - m
		acc += d * d
	}
	return acc / float64(len(values))
}
