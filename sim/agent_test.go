package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linkedPair returns an upstream/downstream pair wired like the engine does.
func linkedPair(up, down Tier) (*Agent, *Agent) {
	u := NewAgent(up, DefaultTargetInventory, DefaultCostRates(), PolicyStandard, nil)
	d := NewAgent(down, DefaultTargetInventory, DefaultCostRates(), PolicyStandard, nil)
	u.downstream = d
	d.upstream = u
	return u, d
}

func TestNewAgent_SeedsHistory(t *testing.T) {
	a := NewAgent(Retailer, 120, DefaultCostRates(), PolicyStandard, nil)

	assert.Equal(t, 120, a.Inventory)
	assert.Equal(t, 1, a.History.Len())
	inv, order, cost := a.History.Last()
	assert.Equal(t, 120, inv)
	assert.Equal(t, 0, order)
	assert.Equal(t, 0, cost)
}

func TestAgent_ReceiveShipment(t *testing.T) {
	a := NewAgent(Wholesaler, DefaultTargetInventory, DefaultCostRates(), PolicyStandard, nil)
	a.IncomingShipment = 35

	a.ReceiveShipment()

	assert.Equal(t, 135, a.Inventory)
	assert.Equal(t, 0, a.IncomingShipment)
}

func TestAgent_FulfillDownstreamOrders(t *testing.T) {
	tests := []struct {
		name          string
		tier          Tier
		inventory     int
		backlog       int
		customer      int
		wantInventory int
		wantBacklog   int
		wantShipped   int
	}{
		{"retailer meets demand", Retailer, 100, 0, 20, 80, 0, 20},
		{"retailer short", Retailer, 10, 5, 20, 0, 15, 10},
		{"intermediate ignores customer demand", Wholesaler, 100, 40, 20, 60, 0, 40},
		{"intermediate short", Distributor, 20, 160, 0, 0, 140, 20},
		{"negative customer demand clamps to zero", Retailer, 100, 0, -30, 100, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAgent(tt.tier, DefaultTargetInventory, DefaultCostRates(), PolicyStandard, nil)
			a.Inventory = tt.inventory
			a.Backlog = tt.backlog

			a.FulfillDownstreamOrders(tt.customer)

			assert.Equal(t, tt.wantInventory, a.Inventory)
			assert.Equal(t, tt.wantBacklog, a.Backlog)
			assert.Equal(t, tt.wantShipped, a.ShippedThisWeek)
			assert.GreaterOrEqual(t, a.Inventory, 0)
			assert.GreaterOrEqual(t, a.Backlog, 0)
		})
	}
}

func TestAgent_ShipmentConservation(t *testing.T) {
	// GIVEN a wholesaler holding 100 with 70 units of backlog from the retailer
	w, r := linkedPair(Wholesaler, Retailer)
	w.Backlog = 70
	before := r.IncomingShipment

	// WHEN the wholesaler fulfills
	w.FulfillDownstreamOrders(0)

	// THEN the retailer's incoming shipment grows by exactly what was shipped
	assert.Equal(t, w.ShippedThisWeek, r.IncomingShipment-before)
	assert.Equal(t, 70, r.IncomingShipment)
}

func TestAgent_PlaceUpstreamOrder_OrderUpTo(t *testing.T) {
	// GIVEN a retailer that shipped 20 and sits at 80
	w, r := linkedPair(Wholesaler, Retailer)
	r.FulfillDownstreamOrders(20)

	// WHEN it places its order
	r.PlaceUpstreamOrder()

	// THEN it orders shipped + (target - inventory) into the wholesaler's backlog
	assert.Equal(t, 40, r.PlacedOrderAmount)
	assert.Equal(t, 40, w.Backlog)
	assert.Equal(t, 0, w.IncomingShipment, "orders create backlog, not stock")
	assert.Equal(t, 0, r.ShippedThisWeek)
	assert.Equal(t, ReasonOrderUpTo, r.LastDecision.Reason)
}

func TestAgent_PlaceUpstreamOrder_NeverNegative(t *testing.T) {
	_, r := linkedPair(Wholesaler, Retailer)
	r.Inventory = 400

	r.PlaceUpstreamOrder()

	assert.Equal(t, 0, r.PlacedOrderAmount)
}

func TestAgent_FactoryProduces(t *testing.T) {
	// GIVEN a factory with 160 units of backlog and 100 on hand
	f := NewAgent(Factory, DefaultTargetInventory, DefaultCostRates(), PolicyPredictive, NewPredictive(nil))
	f.Backlog = 160

	// WHEN it fulfills and then runs its order phase
	f.FulfillDownstreamOrders(0)
	f.PlaceUpstreamOrder()

	// THEN what it shipped is produced straight back into inventory
	assert.Equal(t, 100, f.Inventory)
	assert.Equal(t, 60, f.Backlog)
	assert.Equal(t, 100, f.PlacedOrderAmount)
	assert.Equal(t, ReasonProduction, f.LastDecision.Reason)
	assert.Nil(t, f.Upstream())
}

func TestAgent_RecordState(t *testing.T) {
	a := NewAgent(Retailer, DefaultTargetInventory, CostRates{Holding: 2, Stockout: 7}, PolicyStandard, nil)
	a.Inventory = 30
	a.Backlog = 4
	a.PlacedOrderAmount = 11

	a.RecordState()

	require.Equal(t, 2, a.History.Len())
	assert.Len(t, a.History.PlacedOrderAmount, 2)
	assert.Len(t, a.History.Cost, 2)
	inv, order, cost := a.History.Last()
	assert.Equal(t, 30, inv)
	assert.Equal(t, 11, order)
	assert.Equal(t, 30*2+4*7, cost)
}
