// Package demand provides customer-demand schedules for simulation runs.
package demand

import (
	"fmt"
	"math/rand"

	"github.com/chainreact/chainreact-sim/sim"
)

// Schedule returns the customer demand passed to Engine.Step for a week.
type Schedule interface {
	Demand(week int) int
	Name() string
}

// Constant returns the same demand every week.
type Constant int

func (c Constant) Demand(int) int { return int(c) }
func (c Constant) Name() string   { return fmt.Sprintf("constant(%d)", int(c)) }

// Step returns Base before Week and Shifted from Week onwards. The default
// Step(20, 25, 10) matches the engine's own demand-shift week, so the shift
// rule never fires on top of it.
type Step struct {
	Base    int
	Shifted int
	Week    int
}

// DefaultStep is the scenario the interactive dashboard runs.
func DefaultStep() Step {
	return Step{Base: sim.BaselineDemand, Shifted: sim.ShiftedDemand, Week: sim.DemandShiftWeek}
}

func (s Step) Demand(week int) int {
	if week >= s.Week {
		return s.Shifted
	}
	return s.Base
}

func (s Step) Name() string {
	return fmt.Sprintf("step(%d->%d@%d)", s.Base, s.Shifted, s.Week)
}

// Random parameters.
const (
	SpikeProbability = 0.05
	SpikeMin         = 50
	SpikeMax         = 80
	NormalMin        = 15
	NormalMax        = 35
)

// Random draws uniform demand in [NormalMin, NormalMax], replaced in roughly
// SpikeProbability of weeks by a uniform spike in [SpikeMin, SpikeMax].
// The values for each week are drawn once and cached, so Demand is
// repeatable for a week and independent of call order.
type Random struct {
	seed   int64
	base   *rand.Rand
	spike  *rand.Rand
	values []int
}

// NewRandom creates a Random schedule from a seed.
func NewRandom(seed int64) *Random {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed))
	return &Random{
		seed:  seed,
		base:  rng.ForSubsystem(sim.SubsystemDemand),
		spike: rng.ForSubsystem(sim.SubsystemSpike),
	}
}

func (r *Random) Demand(week int) int {
	if week < 1 {
		return 0
	}
	for len(r.values) < week {
		r.values = append(r.values, r.draw())
	}
	return r.values[week-1]
}

func (r *Random) draw() int {
	normal := NormalMin + r.base.Intn(NormalMax-NormalMin+1)
	if r.spike.Float64() < SpikeProbability {
		return SpikeMin + r.spike.Intn(SpikeMax-SpikeMin+1)
	}
	return normal
}

func (r *Random) Name() string { return fmt.Sprintf("random(seed=%d)", r.seed) }

// FromConfig builds the schedule a run configuration names. An empty kind
// selects DefaultStep.
func FromConfig(cfg sim.DemandConfig) (Schedule, error) {
	switch cfg.Kind {
	case "", "step":
		s := DefaultStep()
		if cfg.Base != nil {
			s.Base = *cfg.Base
		}
		if cfg.Shifted != nil {
			s.Shifted = *cfg.Shifted
		}
		if cfg.ShiftWeek != nil {
			s.Week = *cfg.ShiftWeek
		}
		return s, nil
	case "constant":
		v := sim.BaselineDemand
		if cfg.Base != nil {
			v = *cfg.Base
		}
		return Constant(v), nil
	case "random":
		var seed int64
		if cfg.Seed != nil {
			seed = *cfg.Seed
		}
		return NewRandom(seed), nil
	default:
		return nil, fmt.Errorf("unknown demand kind %q", cfg.Kind)
	}
}
