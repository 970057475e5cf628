package sim

import (
	"fmt"
	"math/rand"
	"sort"
)

// Built-in strategy names, selectable by configuration.
const (
	StrategyFastestETA     = "FASTEST_ETA"
	StrategyCartPreference = "CART_PREFERENCE"
	StrategyZoneOptimal    = "ZONE_OPTIMAL"
	StrategyBatchOrders    = "BATCH_ORDERS"
	StrategyNearest        = "NEAREST"
	StrategyRandom         = "RANDOM"
	StrategyLoadBalanced   = "LOAD_BALANCED"
)

// validStrategies maps strategy names to validity.
var validStrategies = map[string]bool{
	StrategyFastestETA:     true,
	StrategyCartPreference: true,
	StrategyZoneOptimal:    true,
	StrategyBatchOrders:    true,
	StrategyNearest:        true,
	StrategyRandom:         true,
	StrategyLoadBalanced:   true,
}

// IsValidStrategy reports whether name is a recognized strategy.
func IsValidStrategy(name string) bool { return validStrategies[name] }

// StrategyNames returns the valid strategy names, sorted.
func StrategyNames() []string {
	names := make([]string, 0, len(validStrategies))
	for n := range validStrategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DecisionKind discriminates dispatch outcomes.
type DecisionKind int

const (
	// DecisionAssign carries a ranked candidate list for the offer protocol.
	DecisionAssign DecisionKind = iota
	// DecisionDelay asks the engine to revisit the order later.
	DecisionDelay
	// DecisionNoCandidate reports zero feasible assets.
	DecisionNoCandidate
)

// Candidate is one ranked asset/option pairing: the asset, the batch it
// would serve (always containing the order under dispatch), and the score
// that ranked it.
type Candidate struct {
	AssetID string
	Batch   []string // order ids; len 1 for a plain single
	Score   ScoreBreakdown
}

// Decision is a dispatch strategy's answer for one order.
type Decision struct {
	Kind       DecisionKind
	Candidates []Candidate // ranked best-first, for Kind == DecisionAssign
	RetryAt    float64     // for Kind == DecisionDelay
}

// DispatchStrategy is the pluggable dispatch policy. Implementations
// receive an immutable fleet snapshot and must not mutate it; Score must
// be pure so replays are deterministic.
type DispatchStrategy interface {
	Name() string
	// Choose ranks candidates for the order, or reports NoCandidate.
	Choose(o *Order, snap *FleetSnapshot) Decision
	// Score evaluates one asset against an order or batch.
	Score(a AssetSnapshot, orders []*Order, snap *FleetSnapshot) ScoreBreakdown
}

// NewStrategy creates a strategy by name. Strategies are value types with
// explicit RNG fields where they randomize, keeping runs reproducible.
func NewStrategy(name string, course *Course, oracle Oracle, cfg *ScenarioConfig, rng *rand.Rand) (DispatchStrategy, error) {
	if !IsValidStrategy(name) {
		return nil, fmt.Errorf("%w: unknown strategy %q (valid: %v)", ErrInvalidInput, name, StrategyNames())
	}
	sc := newScorer(course, oracle, cfg)
	pl := newPlanner(course, oracle, cfg, sc)
	switch name {
	case StrategyFastestETA:
		return &fastestETAStrategy{scorer: sc}, nil
	case StrategyCartPreference:
		return &cartPreferenceStrategy{scorer: sc, planner: pl}, nil
	case StrategyZoneOptimal:
		return &zoneOptimalStrategy{scorer: sc}, nil
	case StrategyBatchOrders:
		return &batchOrdersStrategy{scorer: sc, planner: pl}, nil
	case StrategyNearest:
		return &nearestStrategy{scorer: sc}, nil
	case StrategyRandom:
		return &randomStrategy{scorer: sc, rng: rng}, nil
	case StrategyLoadBalanced:
		return &loadBalancedStrategy{scorer: sc}, nil
	default:
		panic(fmt.Sprintf("unhandled strategy %q", name))
	}
}

// rankCandidates sorts candidates best-first by the given key, breaking
// ties by lower rejection risk (higher acceptance) and then lower asset
// id for determinism.
func rankCandidates(cands []Candidate, key func(Candidate) float64) {
	sort.SliceStable(cands, func(i, j int) bool {
		ki, kj := key(cands[i]), key(cands[j])
		if ki != kj {
			return ki < kj
		}
		if cands[i].Score.Acceptance != cands[j].Score.Acceptance {
			return cands[i].Score.Acceptance > cands[j].Score.Acceptance
		}
		return cands[i].AssetID < cands[j].AssetID
	})
}

// assignOrNone wraps a candidate list in a Decision.
func assignOrNone(cands []Candidate) Decision {
	if len(cands) == 0 {
		return Decision{Kind: DecisionNoCandidate}
	}
	return Decision{Kind: DecisionAssign, Candidates: cands}
}
