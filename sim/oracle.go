package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Oracle is the prediction model consumed as a pure function surface:
// deterministic estimates for scoring, with separate sampling helpers that
// take an explicit RNG for the engine's realized times. Implementations
// must be side-effect free.
type Oracle interface {
	// PrepTime estimates order preparation minutes from item composition.
	PrepTime(o *Order) (float64, error)
	// TravelTime estimates minutes between a location and a hole for an
	// asset kind, including the time-of-day traffic factor. Unreachable
	// targets yield +Inf, nil error.
	TravelTime(from Location, to Hole, kind AssetKind, loop Loop, tod TimeOfDay) (float64, error)
	// AcceptanceProb estimates the chance the asset accepts an offer for
	// the batch, in [0.10, 1.00].
	AcceptanceProb(a AssetSnapshot, orders []*Order) (float64, error)
}

// Prep model constants.
const (
	basePrepPerItem = 2.0  // minutes per unit quantity
	defaultPrepMin  = 10.0 // fallback when an order has no items
	minPrepMin      = 1.0
	minTravelMin    = 0.5
)

// Acceptance model constants.
const (
	baseAcceptance        = 0.80
	distancePenaltyPerHop = 0.05
	workloadPenalty       = 0.10
	zoneMatchBonus        = 0.10
	zoneMismatchPenalty   = 0.30
	highValueBonus        = 0.05
	highValueThreshold    = 50.0
	minAcceptance         = 0.10
	maxAcceptance         = 1.00
)

// PredictionOracle is the default oracle, backed by the course graph.
type PredictionOracle struct {
	course *Course
}

// NewPredictionOracle builds the default oracle for a course.
func NewPredictionOracle(course *Course) *PredictionOracle {
	return &PredictionOracle{course: course}
}

// PrepTime implements Oracle. base = 2·Σqty, scaled by the dominant
// complexity factor and a √qty bulk-efficiency term.
func (p *PredictionOracle) PrepTime(o *Order) (float64, error) {
	qty := o.TotalQuantity()
	if qty == 0 {
		return defaultPrepMin, nil
	}
	base := basePrepPerItem * float64(qty)
	base *= o.MaxComplexityFactor()
	base *= math.Sqrt(float64(qty)) / float64(qty)
	return math.Max(base, minPrepMin), nil
}

// TravelTime implements Oracle. Terrain uplift is baked into the course
// traversal; the time-of-day factor multiplies on top, before any caller
// perturbation.
func (p *PredictionOracle) TravelTime(from Location, to Hole, kind AssetKind, loop Loop, tod TimeOfDay) (float64, error) {
	if !ValidHole(to) {
		return 0, fmt.Errorf("%w: unknown hole %d", ErrInvalidInput, to)
	}
	eta := p.course.ETA(from, to, kind, loop)
	if math.IsInf(eta, 1) {
		return eta, nil // ineligible, not a failure
	}
	if m, ok := todMultiplier[tod]; ok {
		eta *= m
	}
	return math.Max(eta, minTravelMin), nil
}

// AcceptanceProb implements Oracle: base 0.80, minus 5% per hole of
// distance to the pickup, minus 10% per active order, cart zone bonus or
// (effectively disqualifying) mismatch penalty, high-value bonus.
func (p *PredictionOracle) AcceptanceProb(a AssetSnapshot, orders []*Order) (float64, error) {
	prob := baseAcceptance
	prob -= float64(a.Location.HoleNumber()) * distancePenaltyPerHop
	prob -= float64(a.ActiveOrders()) * workloadPenalty
	if a.Kind == KindBeverageCart {
		inLoop := true
		for _, o := range orders {
			if !a.Loop.Contains(o.Hole) {
				inLoop = false
				break
			}
		}
		if inLoop {
			prob += zoneMatchBonus
		} else {
			prob -= zoneMismatchPenalty
		}
	}
	value := 0.0
	for _, o := range orders {
		value += o.Value()
	}
	if value > highValueThreshold {
		prob += highValueBonus
	}
	return clamp(prob, minAcceptance, maxAcceptance), nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// --- sampling helpers (explicit RNG, engine side) ---

// SamplePrepTime perturbs the prep estimate ±20%, floored at 1 minute.
func SamplePrepTime(o Oracle, ord *Order, rng *rand.Rand) float64 {
	est := prepTimeOrDefault(o, ord)
	est *= 0.8 + 0.4*rng.Float64()
	return math.Max(est, minPrepMin)
}

// SampleTravelTime perturbs the travel estimate ±10%, floored at 0.5.
// +Inf passes through untouched.
func SampleTravelTime(o Oracle, from Location, to Hole, kind AssetKind, loop Loop, tod TimeOfDay, rng *rand.Rand) float64 {
	est := travelTimeOrDefault(o, from, to, kind, loop, tod)
	if math.IsInf(est, 1) {
		return est
	}
	est *= 0.9 + 0.2*rng.Float64()
	return math.Max(est, minTravelMin)
}

// --- fallbacks on ErrOracleUnavailable ---
// Recover locally: deterministic defaults keep dispatch correct when the
// prediction call fails.

func prepTimeOrDefault(o Oracle, ord *Order) float64 {
	est, err := o.PrepTime(ord)
	if err != nil {
		logrus.Warnf("oracle prep fallback for %s: %v", ord.ID, err)
		return defaultPrepMin
	}
	return est
}

func travelTimeOrDefault(o Oracle, from Location, to Hole, kind AssetKind, loop Loop, tod TimeOfDay) float64 {
	est, err := o.TravelTime(from, to, kind, loop, tod)
	if err != nil {
		hops := math.Abs(float64(int(to) - from.HoleNumber()))
		logrus.Warnf("oracle travel fallback to hole %d: %v", to, err)
		return 1.5 * hops
	}
	return est
}

func acceptanceOrDefault(o Oracle, a AssetSnapshot, orders []*Order) float64 {
	prob, err := o.AcceptanceProb(a, orders)
	if err != nil {
		logrus.Warnf("oracle acceptance fallback for %s: %v", a.ID, err)
		return baseAcceptance
	}
	return prob
}
