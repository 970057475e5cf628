package sim

import (
	"math"
	"math/rand"
)

// fastestETAStrategy ranks purely by predicted delivery time.
type fastestETAStrategy struct {
	scorer *scorer
}

func (s *fastestETAStrategy) Name() string { return StrategyFastestETA }

func (s *fastestETAStrategy) Score(a AssetSnapshot, orders []*Order, snap *FleetSnapshot) ScoreBreakdown {
	return s.scorer.score(a, orders[0], snap)
}

func (s *fastestETAStrategy) Choose(o *Order, snap *FleetSnapshot) Decision {
	cands := singleCandidates(s.scorer, o, snap)
	rankCandidates(cands, func(c Candidate) float64 { return c.Score.ETA })
	return assignOrNone(cands)
}

// cartPreferenceStrategy is the default: carts whose delivery lands
// inside the preference window rank ahead of everything else, each tier
// ordered by the full multi-factor score, with batching through the
// planner when it beats the single baseline.
type cartPreferenceStrategy struct {
	scorer  *scorer
	planner *planner
}

func (s *cartPreferenceStrategy) Name() string { return StrategyCartPreference }

func (s *cartPreferenceStrategy) Score(a AssetSnapshot, orders []*Order, snap *FleetSnapshot) ScoreBreakdown {
	if len(orders) > 1 {
		return s.planner.scoreBatch(a, orders[0], orders, snap)
	}
	return s.scorer.score(a, orders[0], snap)
}

func (s *cartPreferenceStrategy) Choose(o *Order, snap *FleetSnapshot) Decision {
	cands := plannedCandidates(s.scorer, s.planner, o, snap)
	window := s.scorer.cfg.CartPreferenceWindowMin
	rankCandidates(cands, func(c Candidate) float64 {
		tier := 1000.0
		if a := snap.Get(c.AssetID); a != nil && a.Kind == KindBeverageCart && c.Score.ETA <= window {
			tier = 0
		}
		return tier + c.Score.Final
	})
	return assignOrNone(cands)
}

// zoneOptimalStrategy prefers assets already in the order's zone, ranking
// in-zone candidates ahead of the rest, each tier by ETA.
type zoneOptimalStrategy struct {
	scorer *scorer
}

func (s *zoneOptimalStrategy) Name() string { return StrategyZoneOptimal }

func (s *zoneOptimalStrategy) Score(a AssetSnapshot, orders []*Order, snap *FleetSnapshot) ScoreBreakdown {
	return s.scorer.score(a, orders[0], snap)
}

func (s *zoneOptimalStrategy) Choose(o *Order, snap *FleetSnapshot) Decision {
	cands := singleCandidates(s.scorer, o, snap)
	orderLoop := LoopOf(o.Hole)
	rankCandidates(cands, func(c Candidate) float64 {
		a := snap.Get(c.AssetID)
		tier := 1000.0
		if a != nil && a.Location.Loop() == orderLoop {
			tier = 0
		}
		return tier + c.Score.ETA
	})
	return assignOrNone(cands)
}

// batchOrdersStrategy batches aggressively: every feasible batch competes
// with the single baseline on every candidate.
type batchOrdersStrategy struct {
	scorer  *scorer
	planner *planner
}

func (s *batchOrdersStrategy) Name() string { return StrategyBatchOrders }

func (s *batchOrdersStrategy) Score(a AssetSnapshot, orders []*Order, snap *FleetSnapshot) ScoreBreakdown {
	if len(orders) > 1 {
		return s.planner.scoreBatch(a, orders[0], orders, snap)
	}
	return s.scorer.score(a, orders[0], snap)
}

func (s *batchOrdersStrategy) Choose(o *Order, snap *FleetSnapshot) Decision {
	cands := plannedCandidates(s.scorer, s.planner, o, snap)
	rankCandidates(cands, func(c Candidate) float64 { return c.Score.Final })
	return assignOrNone(cands)
}

// nearestStrategy is the naive baseline: closest asset by hole distance.
type nearestStrategy struct {
	scorer *scorer
}

func (s *nearestStrategy) Name() string { return StrategyNearest }

func (s *nearestStrategy) Score(a AssetSnapshot, orders []*Order, snap *FleetSnapshot) ScoreBreakdown {
	return s.scorer.score(a, orders[0], snap)
}

func (s *nearestStrategy) Choose(o *Order, snap *FleetSnapshot) Decision {
	cands := singleCandidates(s.scorer, o, snap)
	rankCandidates(cands, func(c Candidate) float64 {
		a := snap.Get(c.AssetID)
		if a == nil {
			return math.Inf(1)
		}
		return math.Abs(float64(a.Location.HoleNumber() - int(o.Hole)))
	})
	return assignOrNone(cands)
}

// randomStrategy shuffles the eligible pool. Baseline only; carries its
// own seeded RNG so runs stay reproducible.
type randomStrategy struct {
	scorer *scorer
	rng    *rand.Rand
}

func (s *randomStrategy) Name() string { return StrategyRandom }

func (s *randomStrategy) Score(a AssetSnapshot, orders []*Order, snap *FleetSnapshot) ScoreBreakdown {
	return s.scorer.score(a, orders[0], snap)
}

func (s *randomStrategy) Choose(o *Order, snap *FleetSnapshot) Decision {
	cands := singleCandidates(s.scorer, o, snap)
	s.rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
	return assignOrNone(cands)
}

// loadBalancedStrategy spreads work: fewest queued orders first, ETA as
// the tiebreaker.
type loadBalancedStrategy struct {
	scorer *scorer
}

func (s *loadBalancedStrategy) Name() string { return StrategyLoadBalanced }

func (s *loadBalancedStrategy) Score(a AssetSnapshot, orders []*Order, snap *FleetSnapshot) ScoreBreakdown {
	return s.scorer.score(a, orders[0], snap)
}

func (s *loadBalancedStrategy) Choose(o *Order, snap *FleetSnapshot) Decision {
	cands := singleCandidates(s.scorer, o, snap)
	rankCandidates(cands, func(c Candidate) float64 {
		a := snap.Get(c.AssetID)
		load := 0.0
		if a != nil {
			load = float64(len(a.Queue))
		}
		return load*1000 + c.Score.ETA
	})
	return assignOrNone(cands)
}

// singleCandidates scores every pool asset against the lone order.
func singleCandidates(sc *scorer, o *Order, snap *FleetSnapshot) []Candidate {
	var cands []Candidate
	for _, a := range sc.pool(o, snap) {
		cands = append(cands, Candidate{
			AssetID: a.ID,
			Batch:   []string{o.ID},
			Score:   sc.score(a, o, snap),
		})
	}
	return cands
}

// plannedCandidates scores every pool asset against its best option:
// the single order or the planner's best feasible batch including it.
func plannedCandidates(sc *scorer, pl *planner, o *Order, snap *FleetSnapshot) []Candidate {
	var cands []Candidate
	for _, a := range sc.pool(o, snap) {
		opt := pl.bestOption(a, o, snap)
		cands = append(cands, Candidate{
			AssetID: a.ID,
			Batch:   orderIDs(opt.Orders),
			Score:   opt.Score,
		})
	}
	return cands
}

func orderIDs(orders []*Order) []string {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}
