package sim

// TierBehavior is the tier-specific part of the fulfillment and order phases.
// The set of implementations is closed: the Retailer faces exogenous customer
// demand, the Factory produces instead of ordering, and the two intermediate
// tiers do neither.
type TierBehavior interface {
	// Fulfill ships against this week's demand and returns the demand faced.
	Fulfill(a *Agent, customerDemand int) int
	// Order sets PlacedOrderAmount and propagates it upstream.
	Order(a *Agent)
}

func behaviorFor(tier Tier) TierBehavior {
	switch tier {
	case Factory:
		return factoryBehavior{}
	case Retailer:
		return retailerBehavior{}
	default:
		return intermediateBehavior{}
	}
}

type retailerBehavior struct{}

func (retailerBehavior) Fulfill(a *Agent, customerDemand int) int {
	demand := a.Backlog + customerDemand
	a.ship(demand)
	return demand
}

func (retailerBehavior) Order(a *Agent) { placeOrder(a) }

type intermediateBehavior struct{}

func (intermediateBehavior) Fulfill(a *Agent, _ int) int {
	demand := a.Backlog
	a.ship(demand)
	return demand
}

func (intermediateBehavior) Order(a *Agent) { placeOrder(a) }

// factoryBehavior has unlimited capacity and zero lead time: whatever it
// shipped this week is produced straight back into inventory.
type factoryBehavior struct{}

func (factoryBehavior) Fulfill(a *Agent, _ int) int {
	demand := a.Backlog
	a.ship(demand)
	return demand
}

func (factoryBehavior) Order(a *Agent) {
	produced := a.ShippedThisWeek
	a.Inventory += produced
	a.PlacedOrderAmount = produced
	a.LastDecision = LastDecision{
		Inventory: a.Inventory,
		Backlog:   a.Backlog,
		Amount:    produced,
		Reason:    ReasonProduction,
	}
}

// placeOrder asks the agent's strategy for an order and adds it to the
// upstream agent's backlog. Orders create backlog upstream, never stock.
func placeOrder(a *Agent) {
	in := DecisionInput{
		Inventory:       a.Inventory,
		Backlog:         a.Backlog,
		TargetInventory: a.TargetInventory,
		ShippedThisWeek: a.ShippedThisWeek,
	}
	amount, reason := a.strategy.Decide(in)
	amount = max(0, amount)
	a.PlacedOrderAmount = amount
	a.LastDecision = LastDecision{
		Inventory:   in.Inventory,
		Backlog:     in.Backlog,
		DemandTrend: a.demandTrend(),
		Amount:      amount,
		Reason:      reason,
	}
	if a.upstream != nil {
		a.upstream.Backlog += amount
	}
}
