package sim

// Topology is the fixed linear chain Factory ← Distributor ← Wholesaler ← Retailer,
// where ← reads "ships to / receives orders from". It is immutable once built.
type Topology struct {
	upstream   map[Tier]Tier
	downstream map[Tier]Tier
}

// NewTopology builds the chain from Tiers: each tier's upstream is the tier
// before it and its downstream is the tier after it.
func NewTopology() *Topology {
	t := &Topology{
		upstream:   make(map[Tier]Tier, len(Tiers)),
		downstream: make(map[Tier]Tier, len(Tiers)),
	}
	for i := 1; i < len(Tiers); i++ {
		t.upstream[Tiers[i]] = Tiers[i-1]
		t.downstream[Tiers[i-1]] = Tiers[i]
	}
	return t
}

// Upstream returns the tier that ships to the given tier.
// The Factory has no upstream.
func (t *Topology) Upstream(tier Tier) (Tier, bool) {
	up, ok := t.upstream[tier]
	return up, ok
}

// Downstream returns the tier the given tier ships to.
// The Retailer has no downstream.
func (t *Topology) Downstream(tier Tier) (Tier, bool) {
	down, ok := t.downstream[tier]
	return down, ok
}
