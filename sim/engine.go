package sim

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/chainreact/chainreact-sim/sim/trace"
)

// Fixed rules of the game.
const (
	// BaselineDemand is the customer demand the one-time shift rule keys on.
	BaselineDemand = 20
	// ShiftedDemand replaces BaselineDemand in DemandShiftWeek.
	ShiftedDemand = 25
	// DemandShiftWeek is the only week the shift rule can fire.
	DemandShiftWeek = 10

	// BullwhipAfterWeek is the last week in which no bullwhip warning is raised.
	BullwhipAfterWeek = 15
	// BullwhipMultiplier bounds the Distributor order relative to input demand.
	BullwhipMultiplier = 3
	// BullwhipFloor is the absolute Distributor order a warning requires.
	BullwhipFloor = 50
)

// EngineConfig configures one simulation run.
type EngineConfig struct {
	// Policies maps tiers to ordering policies; unlisted tiers use PolicyStandard.
	Policies        map[Tier]PolicyKind
	TargetInventory int        // 0 means DefaultTargetInventory
	Costs           *CostRates // nil means DefaultCostRates

	// Optional collaborators. Nil disables them.
	Predictor Predictor
	Narrator  Narrator
	Trace     *trace.DecisionTrace
}

// AgentState is the per-agent slice of a WeekState.
type AgentState struct {
	Inventory         int    `json:"inventory"`
	PlacedOrderAmount int    `json:"placed_order_amount"`
	Backlog           int    `json:"backlog"`
	Cost              int    `json:"cost"`
	Policy            string `json:"policy"`
}

// WeekState is what one Step publishes.
type WeekState struct {
	Week           int                   `json:"week"`
	CustomerDemand int                   `json:"customer_demand"`
	DemandTrend    float64               `json:"demand_trend"`
	Agents         map[string]AgentState `json:"agents"`
	Events         []Event               `json:"events,omitempty"`
}

// Engine runs one simulation trial. It is not safe for concurrent use; callers
// sharing an Engine across goroutines must serialize Step and InjectDisruption.
type Engine struct {
	Agents []*Agent // in Tiers order

	topology *Topology
	byTier   map[Tier]*Agent

	narrator Narrator
	trace    *trace.DecisionTrace

	demandWindow  []int
	demandHistory []int
	disruption    DisruptionState
	events        []Event
	lastWeek      int
}

// NewEngine builds the four agents, links them along the topology and returns
// an engine ready for week 1.
func NewEngine(cfg EngineConfig) *Engine {
	target := cfg.TargetInventory
	if target <= 0 {
		target = DefaultTargetInventory
	}
	costs := DefaultCostRates()
	if cfg.Costs != nil {
		costs = *cfg.Costs
	}

	e := &Engine{
		topology:     NewTopology(),
		byTier:       make(map[Tier]*Agent, len(Tiers)),
		narrator:     cfg.Narrator,
		trace:        cfg.Trace,
		demandWindow: make([]int, 0, DemandWindowSize),
	}
	for _, tier := range Tiers {
		kind := cfg.Policies[tier]
		if kind == "" {
			kind = PolicyStandard
		}
		if tier == Factory && kind == PolicyPredictive {
			logrus.Debugf("Factory configured as %s; production ignores ordering policies", kind)
		}
		a := NewAgent(tier, target, costs, kind, NewOrderingPolicy(kind, cfg.Predictor))
		if kind == PolicyPredictive && cfg.Predictor == nil && tier != Factory {
			logrus.Warnf("%s is predictive but no predictor is configured; using order-up-to", tier)
		}
		e.Agents = append(e.Agents, a)
		e.byTier[tier] = a
	}
	for _, a := range e.Agents {
		if up, ok := e.topology.Upstream(a.Tier); ok {
			a.upstream = e.byTier[up]
		}
		if down, ok := e.topology.Downstream(a.Tier); ok {
			a.downstream = e.byTier[down]
		}
	}
	return e
}

// Agent returns the agent for a tier.
func (e *Engine) Agent(tier Tier) *Agent {
	return e.byTier[tier]
}

// Topology returns the engine's fixed chain.
func (e *Engine) Topology() *Topology {
	return e.topology
}

// Events returns the events raised by the most recent Step.
func (e *Engine) Events() []Event {
	return e.events
}

// Disruption returns the current disruption state.
func (e *Engine) Disruption() DisruptionState {
	return e.disruption
}

// LastWeek returns the week number of the most recent Step, 0 before the first.
func (e *Engine) LastWeek() int {
	return e.lastWeek
}

// DemandTrend is the mean of the last DemandWindowSize effective customer demands.
func (e *Engine) DemandTrend() float64 {
	return mean(e.demandWindow)
}

// DemandHistory returns every effective customer demand, one per Step.
func (e *Engine) DemandHistory() []int {
	return e.demandHistory
}

// Step advances the simulation by one week without a deadline for narration.
func (e *Engine) Step(week, customerDemand int) WeekState {
	return e.StepContext(context.Background(), week, customerDemand)
}

// StepContext advances the simulation by one week. The numeric phases always
// complete; ctx only bounds the narrator calls made afterwards.
func (e *Engine) StepContext(ctx context.Context, week, customerDemand int) WeekState {
	e.events = nil
	e.lastWeek = week
	original := customerDemand

	if week == DemandShiftWeek && customerDemand == BaselineDemand {
		customerDemand = ShiftedDemand
		e.emit(Event{
			Week:     week,
			Severity: SeverityInfo,
			Kind:     KindDemandShift,
			Data:     map[string]any{"week": week, "from": BaselineDemand, "to": ShiftedDemand},
		})
	}

	customerDemand = max(0, e.disruption.apply(customerDemand))
	e.observeDemand(customerDemand)

	for i := len(e.Agents) - 1; i >= 0; i-- {
		e.Agents[i].ReceiveShipment()
	}

	retailer := e.byTier[Retailer]
	retailer.FulfillDownstreamOrders(customerDemand)
	for _, a := range e.Agents {
		if a != retailer {
			a.FulfillDownstreamOrders(0)
		}
	}

	for _, a := range e.Agents {
		a.PlaceUpstreamOrder()
		e.recordDecision(week, a)
	}

	for _, a := range e.Agents {
		a.RecordState()
	}

	e.detectBullwhip(week, original)
	e.narrate(ctx)

	logrus.Debugf("week %d: demand=%d retailer_order=%d distributor_order=%d events=%d",
		week, customerDemand, retailer.PlacedOrderAmount, e.byTier[Distributor].PlacedOrderAmount, len(e.events))

	return e.State()
}

// InjectDisruption activates a disruption consumed by the following Steps.
// It replaces any disruption still in progress. The returned CRITICAL event
// carries PendingWeek; the caller binds it to the week that consumes it.
func (e *Engine) InjectDisruption(d Disruption) Event {
	return e.InjectDisruptionContext(context.Background(), d)
}

// InjectDisruptionContext is InjectDisruption with a deadline for narration.
func (e *Engine) InjectDisruptionContext(ctx context.Context, d Disruption) Event {
	d = d.Normalize()
	e.disruption = DisruptionState{
		Active:    true,
		Type:      d.Type,
		Value:     d.Value,
		Remaining: d.Duration,
	}
	logrus.Infof("disruption injected: type=%s value=%d duration=%d", d.Type, d.Value, d.Duration)

	ev := Event{
		Week:     PendingWeek,
		Severity: SeverityCritical,
		Kind:     KindDisruption,
		Data: map[string]any{
			"week":     PendingWeek,
			"type":     string(d.Type),
			"value":    d.Value,
			"duration": d.Duration,
		},
	}
	ev.Text = e.describe(ctx, ev)
	return ev
}

// State returns the observable state after the most recent Step.
func (e *Engine) State() WeekState {
	ws := WeekState{
		Week:        e.lastWeek,
		DemandTrend: e.DemandTrend(),
		Agents:      make(map[string]AgentState, len(e.Agents)),
		Events:      e.events,
	}
	if n := len(e.demandHistory); n > 0 {
		ws.CustomerDemand = e.demandHistory[n-1]
	}
	for _, a := range e.Agents {
		inv, order, cost := a.History.Last()
		ws.Agents[string(a.Tier)] = AgentState{
			Inventory:         inv,
			PlacedOrderAmount: order,
			Backlog:           a.Backlog,
			Cost:              cost,
			Policy:            string(a.Policy),
		}
	}
	return ws
}

func (e *Engine) observeDemand(demand int) {
	e.demandHistory = append(e.demandHistory, demand)
	if len(e.demandWindow) == DemandWindowSize {
		copy(e.demandWindow, e.demandWindow[1:])
		e.demandWindow = e.demandWindow[:DemandWindowSize-1]
	}
	e.demandWindow = append(e.demandWindow, demand)
}

// detectBullwhip raises at most one WARNING per week once the Distributor's
// order dwarfs the demand that was passed in, before any override.
func (e *Engine) detectBullwhip(week, originalDemand int) {
	if week <= BullwhipAfterWeek {
		return
	}
	retailerOrder := e.byTier[Retailer].PlacedOrderAmount
	distributorOrder := e.byTier[Distributor].PlacedOrderAmount
	if distributorOrder <= originalDemand*BullwhipMultiplier || distributorOrder <= BullwhipFloor {
		return
	}
	for _, ev := range e.events {
		if ev.Severity == SeverityWarning {
			return
		}
	}
	e.emit(Event{
		Week:     week,
		Severity: SeverityWarning,
		Kind:     KindBullwhip,
		Data: map[string]any{
			"week":              week,
			"retailer_order":    retailerOrder,
			"distributor_order": distributorOrder,
		},
	})
}

func (e *Engine) recordDecision(week int, a *Agent) {
	if e.trace == nil {
		return
	}
	d := a.LastDecision
	e.trace.RecordDecision(trace.DecisionRecord{
		Week:        week,
		Tier:        string(a.Tier),
		Policy:      string(a.Policy),
		Inventory:   d.Inventory,
		Backlog:     d.Backlog,
		DemandTrend: d.DemandTrend,
		Amount:      d.Amount,
		Reason:      d.Reason,
	})
}

func (e *Engine) emit(ev Event) {
	e.events = append(e.events, ev)
	if e.trace != nil {
		e.trace.RecordEvent(trace.EventRecord{Week: ev.Week, Severity: string(ev.Severity), Kind: string(ev.Kind)})
	}
}

// narrate attaches text to this week's events once the numbers are final.
func (e *Engine) narrate(ctx context.Context) {
	for i := range e.events {
		if e.events[i].Text == "" {
			e.events[i].Text = e.describe(ctx, e.events[i])
		}
	}
}

// describe asks the narrator for text. A missing, failing or panicking
// narrator yields "".
func (e *Engine) describe(ctx context.Context, ev Event) (text string) {
	if e.narrator == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			logrus.Warnf("narrator panicked describing %s: %v", ev.Kind, r)
			text = ""
		}
	}()
	text, ok := e.narrator.Describe(ctx, ev.Kind, ev.Data)
	if !ok {
		return ""
	}
	return text
}
