package sim

import (
	"math"
)

// Default multi-factor weights. Lower final scores are better.
const (
	weightETA            = 1.0
	weightDistance       = 0.5
	weightAssetType      = 0.3
	weightPredictability = 0.2

	// cartBias is the asset-type component when a cart lands inside the
	// preference window; weighted by weightAssetType it contributes -0.3.
	cartBias = -1.0

	// predictabilityK scales the drop-hole prediction variance.
	predictabilityK = 2.0
)

// ScoreBreakdown is the full scoring result for an asset/order(-batch)
// pairing. Component fields are pre-weighting.
type ScoreBreakdown struct {
	Final         float64
	ETA           float64 // predicted delivery minutes, route completion
	PredictedHole Hole    // drop target for the order under dispatch
	Acceptance    float64

	ETAScore            float64
	DistanceScore       float64
	AssetTypeScore      float64
	PredictabilityScore float64
	BatchAdjustment     float64 // batch route cost minus single baseline; 0 for singles
}

// scorer computes the default multi-factor score. It is pure: no RNG, no
// snapshot mutation, so replaying the same snapshot yields identical
// scores.
type scorer struct {
	course *Course
	oracle Oracle
	cfg    *ScenarioConfig
}

func newScorer(course *Course, oracle Oracle, cfg *ScenarioConfig) *scorer {
	return &scorer{course: course, oracle: oracle, cfg: cfg}
}

// leadTime is how long until a soon-available asset frees up.
func leadTime(a AssetSnapshot, now float64) float64 {
	return math.Max(0, a.AvailableAt-now)
}

// toPickup is the asset's travel time to the clubhouse pickup point,
// with the time-of-day factor applied.
func (s *scorer) toPickup(a AssetSnapshot, tod TimeOfDay) float64 {
	t := s.course.ToClubhouse(a.Location, a.Kind, a.Loop)
	if m, ok := todMultiplier[tod]; ok {
		t *= m
	}
	return t
}

// fromPickup is clubhouse → hole for the asset kind.
func (s *scorer) fromPickup(to Hole, kind AssetKind, loop Loop, tod TimeOfDay) float64 {
	return travelTimeOrDefault(s.oracle, Clubhouse(), to, kind, loop, tod)
}

// singleRoute is the full delivery ETA for one order: wait for the asset,
// prep, ride to pickup, ride to the predicted drop hole. The drop target
// chases the moving golfer via fixed-point refinement.
func (s *scorer) singleRoute(a AssetSnapshot, o *Order, now float64) (Hole, float64) {
	base := leadTime(a, now) + prepTimeOrDefault(s.oracle, o) + s.toPickup(a, o.TimeOfDay)
	return PredictDeliveryHole(o.Hole, s.cfg.PlayerPaceMin, func(h Hole) float64 {
		return base + s.fromPickup(h, a.Kind, a.Loop, o.TimeOfDay)
	})
}

// predictionVariance is the variance of the predicted drop hole when the
// player pace is off by ±20%. Feeds the predictability component.
func (s *scorer) predictionVariance(a AssetSnapshot, o *Order, now float64) float64 {
	base := leadTime(a, now) + prepTimeOrDefault(s.oracle, o) + s.toPickup(a, o.TimeOfDay)
	etaTo := func(h Hole) float64 {
		return base + s.fromPickup(h, a.Kind, a.Loop, o.TimeOfDay)
	}
	holes := make([]float64, 0, 3)
	for _, pace := range []float64{s.cfg.PlayerPaceMin * 0.8, s.cfg.PlayerPaceMin, s.cfg.PlayerPaceMin * 1.2} {
		h, _ := PredictDeliveryHole(o.Hole, pace, etaTo)
		holes = append(holes, float64(h))
	}
	mean := (holes[0] + holes[1] + holes[2]) / 3
	v := 0.0
	for _, h := range holes {
		v += (h - mean) * (h - mean)
	}
	return v / 3
}

// score ranks an asset against a single order with the default weights.
func (s *scorer) score(a AssetSnapshot, o *Order, snap *FleetSnapshot) ScoreBreakdown {
	predicted, eta := s.singleRoute(a, o, snap.At)
	return s.assemble(a, o, []*Order{o}, predicted, eta, 0, snap)
}

// scoreRoute ranks an asset against a committed route (single or batch).
// routeTime is the planner's adjusted cost; batchAdjust records the delta
// against the single-order baseline.
func (s *scorer) scoreRoute(a AssetSnapshot, dispatch *Order, orders []*Order, predicted Hole, routeTime, batchAdjust float64, snap *FleetSnapshot) ScoreBreakdown {
	return s.assemble(a, dispatch, orders, predicted, routeTime, batchAdjust, snap)
}

func (s *scorer) assemble(a AssetSnapshot, dispatch *Order, orders []*Order, predicted Hole, eta, batchAdjust float64, snap *FleetSnapshot) ScoreBreakdown {
	dist := s.course.ToClubhouse(LocAtHole(predicted), a.Kind, a.Loop)
	typeScore := 0.0
	if a.Kind == KindBeverageCart && eta <= s.cfg.CartPreferenceWindowMin {
		typeScore = cartBias
	}
	predScore := s.predictionVariance(a, dispatch, snap.At) * predictabilityK

	b := ScoreBreakdown{
		ETA:                 eta,
		PredictedHole:       predicted,
		Acceptance:          acceptanceOrDefault(s.oracle, a, orders),
		ETAScore:            eta,
		DistanceScore:       dist,
		AssetTypeScore:      typeScore,
		PredictabilityScore: predScore,
		BatchAdjustment:     batchAdjust,
	}
	b.Final = weightETA*b.ETAScore +
		weightDistance*b.DistanceScore +
		weightAssetType*b.AssetTypeScore +
		weightPredictability*b.PredictabilityScore
	return b
}

// pool selects the candidate assets for an order: everything Available
// plus anything freeing up within the soon-available window, filtered to
// serviceable holes. OfferPending and Offline assets never qualify.
func (s *scorer) pool(o *Order, snap *FleetSnapshot) []AssetSnapshot {
	var out []AssetSnapshot
	for _, a := range snap.Assets {
		if !a.Serviceable(o.Hole) {
			continue
		}
		switch a.Status {
		case StatusAvailable:
			out = append(out, a)
		case StatusOfferPending, StatusOffline:
		case StatusEnRouteToPickup, StatusAtStore:
			// Not yet departed the store: a new order can join the
			// same pickup if there is batch capacity left.
			if len(a.Queue) < s.cfg.MaxBatchSize {
				out = append(out, a)
			}
		default:
			if a.AvailableAt-snap.At <= s.cfg.SoonAvailableMin && len(a.Queue) < s.cfg.MaxBatchSize {
				out = append(out, a)
			}
		}
	}
	return out
}
