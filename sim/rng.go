package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey uniquely identifies a reproducible run. Two runs with the
// same key and identical configuration MUST produce bit-for-bit identical
// event logs and metrics.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// RNG subsystem names. Each subsystem draws from its own stream so adding
// draws in one (say, item generation) never perturbs another (say, offer
// acceptance).
const (
	// SubsystemArrivals drives order inter-arrival times and holes.
	SubsystemArrivals = "arrivals"
	// SubsystemItems drives generated item composition.
	SubsystemItems = "items"
	// SubsystemOracle drives prep/travel perturbation sampling.
	SubsystemOracle = "oracle"
	// SubsystemOffers drives acceptance Bernoulli draws and response delays.
	SubsystemOffers = "offers"
	// SubsystemFleet drives initial asset placement.
	SubsystemFleet = "fleet"
	// SubsystemStrategy seeds strategies that randomize (RANDOM baseline).
	SubsystemStrategy = "strategy"
)

// PartitionedRNG hands out deterministic, isolated RNG instances per
// subsystem. Derivation: masterSeed XOR fnv1a64(subsystemName).
// Not thread-safe; the engine is single-threaded by design.
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

// ForSubsystem returns the deterministically-seeded RNG for the named
// subsystem. The same name always returns the same cached instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
