package sim

import "strings"

// Tier identifies one stage of the supply chain.
type Tier string

const (
	Factory     Tier = "Factory"
	Distributor Tier = "Distributor"
	Wholesaler  Tier = "Wholesaler"
	Retailer    Tier = "Retailer"
)

// Tiers lists every tier from the most upstream (Factory) to the most
// downstream (Retailer). Phase loops iterate in this order.
var Tiers = []Tier{Factory, Distributor, Wholesaler, Retailer}

// ParseTier resolves a tier name case-insensitively.
// Returns false for names that are not one of the four tiers.
func ParseTier(name string) (Tier, bool) {
	for _, t := range Tiers {
		if strings.EqualFold(strings.TrimSpace(name), string(t)) {
			return t, true
		}
	}
	return "", false
}

// String implements fmt.Stringer.
func (t Tier) String() string {
	return string(t)
}
