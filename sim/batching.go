package sim

import (
	"math"
	"sort"
)

// scoreEpsilon is the tie window below which smaller batches win: fewer
// commitments when the scores are indistinguishable.
const scoreEpsilon = 0.01

// planOption is one dispatch option for an asset: a single order or a
// feasible batch, with its route cost and score.
type planOption struct {
	Orders    []*Order // in drop order
	RouteTime float64
	Score     ScoreBreakdown
}

// planner enumerates zone- and capacity-feasible batches for a candidate
// asset and prices their routes.
type planner struct {
	course *Course
	oracle Oracle
	cfg    *ScenarioConfig
	scorer *scorer
}

func newPlanner(course *Course, oracle Oracle, cfg *ScenarioConfig, sc *scorer) *planner {
	return &planner{course: course, oracle: oracle, cfg: cfg, scorer: sc}
}

// bestOption returns the argmin over {single, all feasible batches
// containing the order} for one asset.
func (p *planner) bestOption(a AssetSnapshot, o *Order, snap *FleetSnapshot) planOption {
	single := planOption{Orders: []*Order{o}, Score: p.scorer.score(a, o, snap)}
	single.RouteTime = single.Score.ETA
	best := single

	for _, batch := range p.enumerateBatches(o, snap.Pending) {
		if !p.Feasible(a, batch) {
			continue
		}
		sb := p.scoreBatch(a, o, batch, snap)
		if betterOption(sb.Final, len(batch), best.Score.Final, len(best.Orders)) {
			best = planOption{
				Orders:    p.dropSequence(a, batch),
				RouteTime: sb.ETA,
				Score:     sb,
			}
		}
	}
	return best
}

// betterOption prefers lower scores; within the epsilon tie window the
// smaller batch wins.
func betterOption(score float64, size int, bestScore float64, bestSize int) bool {
	if size > bestSize {
		return score < bestScore-scoreEpsilon
	}
	return score < bestScore
}

// enumerateBatches yields all order sets of size 2..MaxBatchSize that
// contain the dispatch order, drawn from the pending pool. The pool is
// iterated in id order for determinism; with MaxBatchSize 3 this is at
// most ~C(n,2) combinations.
func (p *planner) enumerateBatches(o *Order, pending []*Order) [][]*Order {
	others := make([]*Order, 0, len(pending))
	for _, cand := range pending {
		if cand.ID != o.ID && cand.State == OrderPending {
			others = append(others, cand)
		}
	}
	sort.Slice(others, func(i, j int) bool { return others[i].ID < others[j].ID })

	var out [][]*Order
	// pairs
	for i := range others {
		out = append(out, []*Order{o, others[i]})
	}
	// triples and up, bounded by MaxBatchSize
	if p.cfg.MaxBatchSize >= 3 {
		for i := range others {
			for j := i + 1; j < len(others); j++ {
				out = append(out, []*Order{o, others[i], others[j]})
			}
		}
	}
	return out
}

// Feasible checks the batch constraints for an asset: capacity, zone,
// and pairwise hole adjacency along the asset's forward path.
func (p *planner) Feasible(a AssetSnapshot, orders []*Order) bool {
	if len(orders) == 0 || len(orders) > p.cfg.MaxBatchSize {
		return false
	}
	for _, o := range orders {
		if !a.Serviceable(o.Hole) {
			return false
		}
	}
	for i := range orders {
		for j := i + 1; j < len(orders); j++ {
			if p.pairwiseHops(orders[i].Hole, orders[j].Hole) > p.cfg.AdjacentHoleThreshold {
				return false
			}
		}
	}
	return true
}

// pairwiseHops measures hole separation for the adjacency constraint:
// the shorter directed gap on a shared loop, plain hole-number distance
// across loops (staff only; carts never see cross-loop batches).
func (p *planner) pairwiseHops(h1, h2 Hole) int {
	if LoopOf(h1) == LoopOf(h2) {
		f, b := p.course.ForwardHops(h1, h2), p.course.ForwardHops(h2, h1)
		if f < b {
			return f
		}
		return b
	}
	d := int(h1) - int(h2)
	if d < 0 {
		d = -d
	}
	return d
}

// dropSequence orders the batch the way the asset will encounter it:
// carts sweep forward from the loop head, staff take a nearest-next walk
// from the clubhouse.
func (p *planner) dropSequence(a AssetSnapshot, orders []*Order) []*Order {
	drops := append([]*Order(nil), orders...)
	if a.Kind == KindBeverageCart {
		head := a.Loop.Head()
		sort.SliceStable(drops, func(i, j int) bool {
			return p.course.ForwardHops(head, drops[i].Hole) < p.course.ForwardHops(head, drops[j].Hole)
		})
		return drops
	}
	// nearest-next sweep for staff
	out := make([]*Order, 0, len(drops))
	at := Clubhouse()
	for len(drops) > 0 {
		bestIdx, bestT := 0, math.Inf(1)
		for i, o := range drops {
			t := p.course.StaffETA(at, o.Hole)
			if t < bestT || (t == bestT && o.ID < drops[bestIdx].ID) {
				bestIdx, bestT = i, t
			}
		}
		next := drops[bestIdx]
		out = append(out, next)
		at = LocAtHole(next.Hole)
		drops = append(drops[:bestIdx], drops[bestIdx+1:]...)
	}
	return out
}

// RouteTime prices a drop sequence: asset to pickup (with prep), then
// each leg in encounter order, a per-extra-stop handling penalty, all
// scaled by the compounding efficiency bonus.
func (p *planner) RouteTime(a AssetSnapshot, drops []*Order, now float64) float64 {
	if len(drops) == 0 {
		return 0
	}
	tod := drops[0].TimeOfDay
	prep := 0.0
	for _, o := range drops {
		prep = math.Max(prep, prepTimeOrDefault(p.oracle, o))
	}
	t := leadTime(a, now) + prep + p.scorer.toPickup(a, tod)
	at := Clubhouse()
	for _, o := range drops {
		t += travelTimeOrDefault(p.oracle, at, o.Hole, a.Kind, a.Loop, tod)
		at = LocAtHole(o.Hole)
	}
	k := len(drops)
	t += p.cfg.BatchDeliveryTimePenaltyMin * float64(k-1)
	t *= math.Pow(p.cfg.BatchEfficiencyBonus, float64(k-1))
	return t
}

// scoreBatch prices a batch for one asset and folds it into the
// multi-factor score. The batch adjustment records the delta against the
// single-order baseline for the dispatch order.
func (p *planner) scoreBatch(a AssetSnapshot, dispatch *Order, orders []*Order, snap *FleetSnapshot) ScoreBreakdown {
	drops := p.dropSequence(a, orders)
	route := p.RouteTime(a, drops, snap.At)
	_, singleETA := p.scorer.singleRoute(a, dispatch, snap.At)

	// The dispatch order's drop target still chases the golfer.
	predicted, _ := PredictDeliveryHole(dispatch.Hole, p.cfg.PlayerPaceMin, func(Hole) float64 { return route })

	return p.scorer.scoreRoute(a, dispatch, drops, predicted, route, route-singleETA, snap)
}
