package sim

// Default economic parameters for every tier.
const (
	DefaultTargetInventory = 100
	DefaultHoldingCost     = 1 // per unit on hand per week
	DefaultStockoutCost    = 5 // per unit of backlog per week
)

// CostRates prices one week of inventory and backlog.
type CostRates struct {
	Holding  int `yaml:"holding" json:"holding"`
	Stockout int `yaml:"stockout" json:"stockout"`
}

// DefaultCostRates returns holding=1, stockout=5.
func DefaultCostRates() CostRates {
	return CostRates{Holding: DefaultHoldingCost, Stockout: DefaultStockoutCost}
}

// History is the append-only weekly record of one agent. Index 0 holds the
// initial state (inventory = target, order = 0, cost = 0); each completed week
// appends exactly one entry to all three sequences.
type History struct {
	Inventory         []int `json:"inventory"`
	PlacedOrderAmount []int `json:"placed_order_amount"`
	Cost              []int `json:"cost"`
}

// Len returns the number of recorded entries, including the initial one.
func (h History) Len() int {
	return len(h.Inventory)
}

// Last returns the most recent entry of each sequence.
func (h History) Last() (inventory, order, cost int) {
	n := h.Len() - 1
	return h.Inventory[n], h.PlacedOrderAmount[n], h.Cost[n]
}

// LastDecision describes the most recent order-phase decision of an agent.
type LastDecision struct {
	Inventory   int
	Backlog     int
	DemandTrend float64
	Amount      int
	Reason      string
}

// Agent holds one tier's economic state. Its fields are mutated only by the
// four phase methods, which the Engine calls in a fixed order each week:
// ReceiveShipment, FulfillDownstreamOrders, PlaceUpstreamOrder, RecordState.
type Agent struct {
	Tier              Tier
	Inventory         int
	TargetInventory   int
	Backlog           int
	IncomingShipment  int
	ShippedThisWeek   int
	PlacedOrderAmount int
	History           History
	LastDecision      LastDecision

	Costs    CostRates
	Policy   PolicyKind
	behavior TierBehavior
	strategy OrderingPolicy

	upstream   *Agent
	downstream *Agent
}

// NewAgent creates an agent at its target inventory with the tier's behavior
// and the given ordering strategy. A nil strategy means OrderUpTo.
func NewAgent(tier Tier, targetInventory int, costs CostRates, kind PolicyKind, strategy OrderingPolicy) *Agent {
	if strategy == nil {
		strategy = OrderUpTo{}
	}
	return &Agent{
		Tier:            tier,
		Inventory:       targetInventory,
		TargetInventory: targetInventory,
		Costs:           costs,
		Policy:          kind,
		behavior:        behaviorFor(tier),
		strategy:        strategy,
		History: History{
			Inventory:         []int{targetInventory},
			PlacedOrderAmount: []int{0},
			Cost:              []int{0},
		},
	}
}

// Upstream returns the agent this one orders from, or nil for the Factory.
func (a *Agent) Upstream() *Agent { return a.upstream }

// Downstream returns the agent this one ships to, or nil for the Retailer.
func (a *Agent) Downstream() *Agent { return a.downstream }

// ReceiveShipment moves the units in transit into on-hand inventory.
func (a *Agent) ReceiveShipment() {
	a.Inventory += a.IncomingShipment
	a.IncomingShipment = 0
}

// FulfillDownstreamOrders ships min(inventory, demand) downstream and carries
// the remainder as backlog. customerDemand only counts for the Retailer.
func (a *Agent) FulfillDownstreamOrders(customerDemand int) {
	demand := a.behavior.Fulfill(a, max(0, customerDemand))
	a.strategy.Observe(demand)
}

// PlaceUpstreamOrder runs the tier's order step and resets ShippedThisWeek.
func (a *Agent) PlaceUpstreamOrder() {
	a.behavior.Order(a)
	a.ShippedThisWeek = 0
}

// RecordState appends the current inventory, order and weekly cost to History.
func (a *Agent) RecordState() {
	a.History.Inventory = append(a.History.Inventory, a.Inventory)
	a.History.PlacedOrderAmount = append(a.History.PlacedOrderAmount, a.PlacedOrderAmount)
	a.History.Cost = append(a.History.Cost, a.WeeklyCost())
}

// WeeklyCost prices the current inventory and backlog.
func (a *Agent) WeeklyCost() int {
	return max(0, a.Inventory*a.Costs.Holding+a.Backlog*a.Costs.Stockout)
}

// ship sends min(inventory, demand) downstream and returns the amount shipped.
func (a *Agent) ship(demand int) int {
	shipped := min(a.Inventory, demand)
	a.ShippedThisWeek = shipped
	if a.downstream != nil {
		a.downstream.IncomingShipment = shipped
	}
	a.Inventory -= shipped
	a.Backlog = demand - shipped
	return shipped
}

// demandTrend reports the strategy's trailing demand mean when it keeps one.
func (a *Agent) demandTrend() float64 {
	if tr, ok := a.strategy.(interface{ DemandTrend() float64 }); ok {
		return tr.DemandTrend()
	}
	return 0
}
