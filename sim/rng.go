package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey identifies a reproducible run. Two runs with the same key and
// identical configuration produce identical demand sequences.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

const (
	// SubsystemDemand draws baseline customer demand. It uses the master seed
	// directly so a --seed value reproduces the same baseline series.
	SubsystemDemand = "demand"

	// SubsystemSpike decides which weeks spike and by how much.
	SubsystemSpike = "spike"
)

// PartitionedRNG hands out one deterministic *rand.Rand per subsystem so that
// drawing from one stream never shifts another.
//
// Derivation:
//   - SubsystemDemand: masterSeed
//   - every other subsystem: masterSeed XOR fnv1a64(name)
//
// Not safe for concurrent use.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the cached RNG for name, creating it on first use.
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derived := int64(p.key)
	if name != SubsystemDemand {
		derived ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(derived))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey this PartitionedRNG was created from.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
