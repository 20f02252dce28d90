package sim

import (
	"math"
	"strings"
)

// PolicyKind selects the ordering strategy an agent uses in the order phase.
type PolicyKind string

const (
	// PolicyStandard is the fixed order-up-to rule.
	PolicyStandard PolicyKind = "STANDARD"
	// PolicyPredictive consults a trained Predictor, falling back to
	// order-up-to when none is configured.
	PolicyPredictive PolicyKind = "PREDICTIVE"
)

// policyAliases maps accepted spellings to a PolicyKind. RULE and AI are the
// names older dashboard clients send.
var policyAliases = map[string]PolicyKind{
	"":           PolicyStandard,
	"STANDARD":   PolicyStandard,
	"RULE":       PolicyStandard,
	"PREDICTIVE": PolicyPredictive,
	"AI":         PolicyPredictive,
}

// ParsePolicyKind resolves a policy name case-insensitively.
// The second return value is false for unrecognized names, in which case
// PolicyStandard is returned so callers can fall back without a branch.
func ParsePolicyKind(name string) (PolicyKind, bool) {
	kind, ok := policyAliases[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return PolicyStandard, false
	}
	return kind, true
}

// Predictor turns a tier's current state into a recommended order quantity.
// The result is a real number; callers floor it and clamp it at zero.
type Predictor interface {
	Predict(inventory, backlog int, demandTrend float64) float64
}

// DecisionInput is the state an ordering policy sees in the order phase.
type DecisionInput struct {
	Inventory       int
	Backlog         int
	TargetInventory int
	ShippedThisWeek int
}

// Decision reason strings recorded on agents and in decision traces.
const (
	ReasonOrderUpTo           = "order-up-to"
	ReasonPredicted           = "predicted"
	ReasonFallbackNoPredictor = "fallback-no-predictor"
	ReasonFallbackNonFinite   = "fallback-non-finite"
	ReasonProduction          = "production"
)

// OrderingPolicy decides how much a non-Factory tier orders from upstream.
// Observe is called once per week with the demand the tier faced in the
// fulfillment phase; Decide is called once per week in the order phase.
type OrderingPolicy interface {
	Observe(demand int)
	Decide(in DecisionInput) (amount int, reason string)
}

// OrderUpTo restores inventory to its target, adjusted for what was just shipped.
type OrderUpTo struct{}

func (OrderUpTo) Observe(int) {}

// Decide returns max(0, shipped + target - inventory).
func (OrderUpTo) Decide(in DecisionInput) (int, string) {
	return orderUpTo(in), ReasonOrderUpTo
}

func orderUpTo(in DecisionInput) int {
	return max(0, in.ShippedThisWeek+(in.TargetInventory-in.Inventory))
}

// DemandWindowSize is the number of trailing weeks in a demand trend.
const DemandWindowSize = 4

// Predictive orders what its Predictor recommends given inventory, backlog
// and the mean of the last DemandWindowSize weeks of demand faced.
//
// A nil Predictor means the model is unavailable: every decision then uses the
// order-up-to rule, which keeps orders identical to OrderUpTo for the same inputs.
type Predictive struct {
	predictor Predictor
	window    []int
}

// NewPredictive creates a predictive policy. predictor may be nil.
func NewPredictive(predictor Predictor) *Predictive {
	return &Predictive{
		predictor: predictor,
		window:    make([]int, 0, DemandWindowSize),
	}
}

// Observe appends the week's demand to the trailing window.
func (p *Predictive) Observe(demand int) {
	if len(p.window) == DemandWindowSize {
		copy(p.window, p.window[1:])
		p.window = p.window[:DemandWindowSize-1]
	}
	p.window = append(p.window, demand)
}

// DemandTrend is the mean of the trailing window, 0 when empty.
func (p *Predictive) DemandTrend() float64 {
	return mean(p.window)
}

// Decide implements OrderingPolicy.
func (p *Predictive) Decide(in DecisionInput) (int, string) {
	if p.predictor == nil {
		return orderUpTo(in), ReasonFallbackNoPredictor
	}
	raw := p.predictor.Predict(in.Inventory, in.Backlog, p.DemandTrend())
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return orderUpTo(in), ReasonFallbackNonFinite
	}
	return max(0, int(math.Floor(raw))), ReasonPredicted
}

// NewOrderingPolicy creates the strategy for a policy kind.
// predictor is only consulted by PolicyPredictive and may be nil.
func NewOrderingPolicy(kind PolicyKind, predictor Predictor) OrderingPolicy {
	switch kind {
	case PolicyPredictive:
		return NewPredictive(predictor)
	default:
		return OrderUpTo{}
	}
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
