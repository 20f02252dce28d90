package sim

import "strings"

// DisruptionType names an injected disruption. Only DisruptionDemandSpike has
// a numeric effect; any other type is accepted and only narrated.
type DisruptionType string

const DisruptionDemandSpike DisruptionType = "DEMAND_SPIKE"

// Disruption is a time-bounded override requested from outside the run.
type Disruption struct {
	Type     DisruptionType `yaml:"type" json:"type"`
	Value    int            `yaml:"value" json:"value"`
	Duration int            `yaml:"duration" json:"duration"`
}

// Normalize upper-cases the type so "demand_spike" and "DEMAND_SPIKE" match.
func (d Disruption) Normalize() Disruption {
	d.Type = DisruptionType(strings.ToUpper(strings.TrimSpace(string(d.Type))))
	return d
}

// DisruptionState is the engine's view of the current disruption.
type DisruptionState struct {
	Active    bool           `json:"active"`
	Type      DisruptionType `json:"type,omitempty"`
	Value     int            `json:"value"`
	Remaining int            `json:"remaining_duration"`
}

// apply returns the effective demand for this week and consumes one week of
// the disruption. A disruption with no remaining duration deactivates.
func (s *DisruptionState) apply(demand int) int {
	if !s.Active || s.Remaining <= 0 {
		s.Active = false
		return demand
	}
	if s.Type == DisruptionDemandSpike {
		demand = s.Value
	}
	s.Remaining--
	if s.Remaining == 0 {
		s.Active = false
	}
	return demand
}
