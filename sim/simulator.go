package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/grow-assistant/swoop-delivery/sim/trace"
)

// menuCatalog is the generator's item pool.
var menuCatalog = []MenuItem{
	{Name: "Bottled Water", Complexity: ComplexitySimple, UnitPrice: 3.50},
	{Name: "Domestic Beer", Complexity: ComplexitySimple, UnitPrice: 6.00},
	{Name: "Hot Dog", Complexity: ComplexityMedium, UnitPrice: 8.50},
	{Name: "Turkey Club", Complexity: ComplexityMedium, UnitPrice: 12.00},
	{Name: "Cheeseburger", Complexity: ComplexityComplex, UnitPrice: 14.00},
	{Name: "Chicken Tenders", Complexity: ComplexityComplex, UnitPrice: 13.00},
}

// minArrivalGapMin floors the sampled inter-arrival gap.
const minArrivalGapMin = 0.5

// Simulator is the discrete-event engine: a clock, an event queue, and
// the dispatch state it advances. Single-threaded; all mutation happens
// inside event handlers.
type Simulator struct {
	cfg      ScenarioConfig
	course   *Course
	oracle   Oracle
	rng      *PartitionedRNG
	strategy DispatchStrategy
	planner  *planner

	fleet *AssetRegistry
	book  *OrderBook

	queue EventQueue
	log   *trace.Log

	now      float64
	ended    bool
	orderSeq int

	// activeMin and idleMin accrue busy and idle time per asset for the
	// utilization KPIs; together they cover every tick of the run.
	activeMin map[string]float64
	idleMin   map[string]float64
}

// NewSimulator builds a simulator for the scenario: course, oracle,
// strategy, and a fleet placed by the fleet RNG stream.
func NewSimulator(cfg ScenarioConfig) (*Simulator, error) {
	return newSimulatorWithOracle(cfg, nil)
}

// newSimulatorWithOracle lets tests swap the prediction oracle while
// keeping the rest of the wiring.
func newSimulatorWithOracle(cfg ScenarioConfig, oracle Oracle) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	course, err := cfg.BuildCourse()
	if err != nil {
		return nil, err
	}
	if oracle == nil {
		oracle = NewPredictionOracle(course)
	}
	rng := NewPartitionedRNG(NewSimulationKey(cfg.RNGSeed))
	strategy, err := NewStrategy(cfg.Strategy, course, oracle, &cfg, rng.ForSubsystem(SubsystemStrategy))
	if err != nil {
		return nil, err
	}
	sim := &Simulator{
		cfg:       cfg,
		course:    course,
		oracle:    oracle,
		rng:       rng,
		strategy:  strategy,
		fleet:     NewAssetRegistry(),
		book:      NewOrderBook(),
		log:       trace.NewLog(),
		activeMin: make(map[string]float64),
		idleMin:   make(map[string]float64),
	}
	sim.planner = newPlanner(course, oracle, &sim.cfg, newScorer(course, oracle, &sim.cfg))
	if err := sim.buildFleet(); err != nil {
		return nil, err
	}
	return sim, nil
}

// buildFleet registers carts (one per loop, front first) and staff.
// Carts start at a random hole on their loop; staff start at the
// clubhouse.
func (sim *Simulator) buildFleet() error {
	loops := []Loop{LoopFront, LoopBack}
	rng := sim.rng.ForSubsystem(SubsystemFleet)
	for i := 0; i < sim.cfg.NumBeverageCarts; i++ {
		loop := loops[i]
		start := LocAtHole(advanceHole(loop.Head(), rng.Intn(9)))
		cart, err := NewBeverageCart(fmt.Sprintf("cart-%d", i+1), fmt.Sprintf("Cart %d", i+1), loop, start)
		if err != nil {
			return err
		}
		if err := sim.fleet.Register(cart); err != nil {
			return err
		}
	}
	for i := 0; i < sim.cfg.NumDeliveryStaff; i++ {
		staff := NewDeliveryStaff(fmt.Sprintf("staff-%d", i+1), fmt.Sprintf("Runner %d", i+1), Clubhouse())
		if err := sim.fleet.Register(staff); err != nil {
			return err
		}
	}
	return nil
}

// Schedule pushes an event into the simulator's queue.
func (sim *Simulator) Schedule(ev Event) {
	sim.queue.PushEvent(ev)
}

// Fleet exposes the asset registry, mainly for the production adapter
// and tests.
func (sim *Simulator) Fleet() *AssetRegistry { return sim.fleet }

// Book exposes the order book.
func (sim *Simulator) Book() *OrderBook { return sim.book }

// Trace exposes the event log.
func (sim *Simulator) Trace() *trace.Log { return sim.log }

// Now is the current simulated clock in minutes.
func (sim *Simulator) Now() float64 { return sim.now }

// snapshot captures the immutable dispatch view at handler entry.
func (sim *Simulator) snapshot(now float64) *FleetSnapshot {
	return &FleetSnapshot{
		At:      now,
		Assets:  sim.fleet.Snapshot(now),
		Pending: sim.book.PendingClones(),
	}
}

func (sim *Simulator) record(t float64, kind, orderID, assetID, detail string) {
	sim.log.Append(trace.Record{T: t, Kind: kind, OrderID: orderID, AssetID: assetID, Detail: detail})
}

// Run generates the arrival stream, then drains the event queue to
// completion. After the end marker only committed work drains: no new
// orders, no new dispatch.
func (sim *Simulator) Run() error {
	sim.generateArrivals()
	sim.Schedule(&SimulationEndEvent{time: sim.cfg.SimulationDurationMin})
	sim.Schedule(&LocationTickEvent{time: sim.cfg.LocationTickMin})

	for sim.queue.Len() > 0 {
		ev := sim.queue.PopEvent()
		sim.now = ev.Timestamp()
		ev.Execute(sim)
	}
	return nil
}

// generateArrivals samples the whole arrival stream up front from the
// arrivals and items RNG streams, gaussian gaps around the configured
// interval divided by the volume multiplier.
func (sim *Simulator) generateArrivals() {
	arrivals := sim.rng.ForSubsystem(SubsystemArrivals)
	items := sim.rng.ForSubsystem(SubsystemItems)
	mean := sim.cfg.OrderIntervalMin / sim.cfg.VolumeMultiplier

	t := 0.0
	for {
		gap := mean + arrivals.NormFloat64()*sim.cfg.OrderIntervalVarianceMin
		if gap < minArrivalGapMin {
			gap = minArrivalGapMin
		}
		t += gap
		if t >= sim.cfg.SimulationDurationMin {
			return
		}
		hole := Hole(1 + arrivals.Intn(18))
		sim.orderSeq++
		o, err := NewOrder(fmt.Sprintf("order-%03d", sim.orderSeq), hole,
			sim.generateItems(items), sim.cfg.TimeOfDayAt(t), t)
		if err != nil {
			logrus.Errorf("generate order: %v", err)
			continue
		}
		sim.Schedule(&OrderArrivalEvent{time: t, Order: o})
	}
}

// generateItems draws 1-3 catalog lines with quantity 1-2.
func (sim *Simulator) generateItems(rng interface{ Intn(int) int }) []MenuItem {
	n := 1 + rng.Intn(3)
	out := make([]MenuItem, 0, n)
	for i := 0; i < n; i++ {
		it := menuCatalog[rng.Intn(len(menuCatalog))]
		it.Quantity = 1 + rng.Intn(2)
		out = append(out, it)
	}
	return out
}

// handleArrival places the order and dispatches it immediately.
func (sim *Simulator) handleArrival(o *Order, now float64) {
	if err := sim.book.PlaceOrder(o); err != nil {
		logrus.Errorf("place order: %v", err)
		return
	}
	sim.record(now, trace.KindArrival, o.ID, "", fmt.Sprintf("hole=%d value=%.2f", o.Hole, o.Value()))
	sim.dispatchOrFinalize(o, now)
}

// handleRetry re-dispatches an order that is still pending.
func (sim *Simulator) handleRetry(orderID string, now float64) {
	o, err := sim.book.Get(orderID)
	if err != nil {
		logrus.Errorf("retry: %v", err)
		return
	}
	sim.dispatchOrFinalize(o, now)
}

// dispatchOrFinalize dispatches while the store is open; once the run
// has ended, still-pending orders are closed out as unassignable.
func (sim *Simulator) dispatchOrFinalize(o *Order, now float64) {
	if o.State != OrderPending {
		return
	}
	if sim.ended {
		sim.closeOut(o, now)
		return
	}
	sim.dispatch(o, now)
}

func (sim *Simulator) closeOut(o *Order, now float64) {
	if err := sim.book.SetState(o.ID, OrderUnassignable, now); err != nil {
		logrus.Errorf("close out %s: %v", o.ID, err)
		return
	}
	sim.record(now, trace.KindUnassignable, o.ID, "", "store closed")
}

// scheduleRoute commits the full sampled route timeline for an accepted
// batch: ride to the clubhouse, prep overlap, drop legs in encounter
// order, then the return (staff) or idle-in-place (carts).
//
// chained means the asset is mid-delivery and this route starts where
// the current one ends; otherwise the asset has not departed the store
// and any previously scheduled route events are orphaned by bumping the
// route generation.
func (sim *Simulator) scheduleRoute(asset Asset, orders []*Order, now float64, chained bool) {
	st := asset.state()
	rng := sim.rng.ForSubsystem(SubsystemOracle)
	tod := orders[0].TimeOfDay

	origin := st.loc
	start := now
	if chained {
		start = math.Max(now, st.busyUntil)
		if len(st.route) > 0 {
			origin = st.route[len(st.route)-1].Loc
		}
	} else {
		st.routeGen++
	}
	gen := st.routeGen

	snap := AssetSnapshot{
		ID: asset.ID(), Name: asset.Name(), Kind: asset.Kind(), Loop: asset.Loop(),
		Location: origin, Status: st.status, Queue: append([]string(nil), st.queue...),
		AvailableAt: start,
	}
	drops := sim.planner.dropSequence(snap, orders)

	prep := 0.0
	for _, o := range drops {
		prep = math.Max(prep, SamplePrepTime(sim.oracle, o, rng))
	}
	toPickup := sampleScaled(sim.course.ToClubhouse(origin, asset.Kind(), asset.Loop()), tod, rng)

	if chained {
		sim.Schedule(&AssetArrivedEvent{time: start, AssetID: asset.ID(), Loc: origin, Status: StatusEnRouteToPickup, gen: gen})
	} else if err := sim.fleet.SetStatus(asset.ID(), StatusEnRouteToPickup); err != nil {
		logrus.Errorf("route %s: %v", asset.ID(), err)
	}
	arriveStore := start + toPickup
	depart := start + math.Max(toPickup, prep)
	sim.Schedule(&AssetArrivedEvent{time: arriveStore, AssetID: asset.ID(), Loc: Clubhouse(), Status: StatusAtStore, gen: gen})
	sim.Schedule(&AssetArrivedEvent{time: depart, AssetID: asset.ID(), Loc: Clubhouse(), Status: StatusEnRouteToCustomer, gen: gen})

	route := []waypoint{{At: start, Loc: origin}, {At: arriveStore, Loc: Clubhouse()}, {At: depart, Loc: Clubhouse()}}
	t := depart
	at := Clubhouse()
	for i, o := range drops {
		if i > 0 {
			t += sim.cfg.BatchDeliveryTimePenaltyMin
		}
		t += SampleTravelTime(sim.oracle, at, o.Hole, asset.Kind(), asset.Loop(), tod, rng)
		at = LocAtHole(o.Hole)
		route = append(route, waypoint{At: t, Loc: at})
		sim.Schedule(&DeliveryCompleteEvent{time: t, AssetID: asset.ID(), OrderID: o.ID, gen: gen})
		st.distanceHoles += legHops(sim.course, route[len(route)-2].Loc, o.Hole, asset.Kind(), asset.Loop())
	}

	if asset.Kind() == KindDeliveryStaff {
		back := sampleScaled(sim.course.ToClubhouse(at, asset.Kind(), asset.Loop()), tod, rng)
		home := t + back
		route = append(route, waypoint{At: home, Loc: Clubhouse()})
		sim.Schedule(&AssetArrivedEvent{time: home, AssetID: asset.ID(), Loc: Clubhouse(), Status: StatusAvailable, gen: gen})
		st.busyUntil = home
	} else {
		st.busyUntil = t
	}
	st.route = route
}

// sampleScaled applies the time-of-day factor and a ±10% perturbation to
// a raw course traversal time.
func sampleScaled(minutes float64, tod TimeOfDay, rng interface{ Float64() float64 }) float64 {
	if m, ok := todMultiplier[tod]; ok {
		minutes *= m
	}
	minutes *= 0.9 + 0.2*rng.Float64()
	return math.Max(minutes, minTravelMin)
}

// legHops approximates the hole distance of one route leg for the
// odometer stat.
func legHops(c *Course, from Location, to Hole, kind AssetKind, loop Loop) float64 {
	if from.Kind == AtClubhouse {
		return float64(c.ForwardHops(LoopOf(to).Head(), to) + 1)
	}
	h := Hole(from.HoleNumber())
	if LoopOf(h) == LoopOf(to) {
		fwd, back := c.ForwardHops(h, to), c.ForwardHops(to, h)
		if kind == KindBeverageCart || fwd <= back {
			return float64(fwd)
		}
		return float64(back)
	}
	d := from.HoleNumber() - int(to)
	return math.Abs(float64(d))
}

// handleAssetArrived applies a waypoint transition. Arrivals from an
// orphaned route are dropped, and idle transitions are skipped if the
// asset picked up more work in the meantime.
func (sim *Simulator) handleAssetArrived(assetID string, loc Location, status AssetStatus, gen int, now float64) {
	a, err := sim.fleet.Get(assetID)
	if err != nil {
		logrus.Errorf("asset arrived: %v", err)
		return
	}
	if gen != a.state().routeGen {
		return
	}
	if status == StatusAvailable && len(a.Queue()) > 0 {
		return
	}
	if err := sim.fleet.UpdateLocation(assetID, loc); err != nil {
		logrus.Errorf("asset arrived %s: %v", assetID, err)
		return
	}
	if err := sim.fleet.SetStatus(assetID, status); err != nil {
		logrus.Errorf("asset arrived %s: %v", assetID, err)
		return
	}
	if status == StatusEnRouteToCustomer {
		for _, oid := range a.Queue() {
			o, err := sim.book.Get(oid)
			if err != nil || o.State != OrderAssigned {
				continue
			}
			if err := sim.book.SetState(oid, OrderInDelivery, now); err != nil {
				logrus.Errorf("pickup %s: %v", oid, err)
				continue
			}
			sim.record(now, trace.KindPickedUp, oid, assetID, "")
		}
	}
}

// handleDeliveryComplete closes one order and frees the asset when its
// queue drains. Completions from an orphaned route are dropped; the
// rerouted timeline carries its own.
func (sim *Simulator) handleDeliveryComplete(assetID, orderID string, gen int, now float64) {
	o, err := sim.book.Get(orderID)
	if err != nil {
		logrus.Errorf("delivery complete: %v", err)
		return
	}
	if a, err := sim.fleet.Get(assetID); err == nil && gen != a.state().routeGen {
		return
	}
	if err := sim.book.SetState(orderID, OrderDelivered, now); err != nil {
		logrus.Errorf("delivery complete %s: %v", orderID, err)
		return
	}
	if err := sim.fleet.DequeueOrder(assetID, orderID); err != nil {
		logrus.Errorf("delivery complete %s: %v", orderID, err)
	}
	a, err := sim.fleet.Get(assetID)
	if err != nil {
		return
	}
	st := a.state()
	if err := sim.fleet.UpdateLocation(assetID, LocAtHole(o.Hole)); err != nil {
		logrus.Errorf("delivery complete %s: %v", assetID, err)
	}
	st.deliveries++
	sim.record(now, trace.KindDelivered, orderID, assetID,
		fmt.Sprintf("hole=%d total=%.2f", o.Hole, o.TotalMinutes()))

	if len(st.queue) == 0 {
		if a.Kind() == KindDeliveryStaff {
			_ = sim.fleet.SetStatus(assetID, StatusReturning)
		} else {
			_ = sim.fleet.SetStatus(assetID, StatusAvailable)
			st.busyUntil = now
		}
	}
}

// handleLocationTick interpolates positions along committed routes,
// accrues utilization, and reschedules itself until the end marker.
func (sim *Simulator) handleLocationTick(now float64) {
	for _, a := range sim.fleet.Assets() {
		st := a.state()
		if busyStatus(st.status) {
			sim.activeMin[a.ID()] += sim.cfg.LocationTickMin
		} else {
			sim.idleMin[a.ID()] += sim.cfg.LocationTickMin
		}
		if loc, ok := interpolateRoute(sim.course, st.route, now); ok {
			if err := sim.fleet.UpdateLocation(a.ID(), loc); err != nil {
				logrus.Debugf("tick %s: %v", a.ID(), err)
			}
		}
	}
	if !sim.ended {
		sim.Schedule(&LocationTickEvent{time: now + sim.cfg.LocationTickMin})
	}
}

// interpolateRoute places the asset along its waypoint timeline at time
// t. Hole-to-hole legs interpolate through intermediate holes; legs
// touching the clubhouse snap to the departed waypoint.
func interpolateRoute(c *Course, route []waypoint, t float64) (Location, bool) {
	if len(route) == 0 || t < route[0].At {
		return Location{}, false
	}
	for i := 0; i+1 < len(route); i++ {
		prev, next := route[i], route[i+1]
		if t < prev.At || t >= next.At {
			continue
		}
		if prev.Loc.Kind != AtHole || next.Loc.Kind != AtHole {
			return prev.Loc, true
		}
		from, to := prev.Loc.Hole, next.Loc.Hole
		if LoopOf(from) != LoopOf(to) || from == to {
			return prev.Loc, true
		}
		hops := c.ForwardHops(from, to)
		if hops <= 0 {
			return prev.Loc, true
		}
		frac := (t - prev.At) / (next.At - prev.At) * float64(hops)
		step := int(frac)
		if step >= hops {
			step = hops - 1
		}
		h := advanceHole(from, step)
		return LocOnSegment(h, frac-float64(step)), true
	}
	// past the last waypoint
	return route[len(route)-1].Loc, true
}

// handleEnd stops arrivals and new dispatch, closes out still-pending
// orders, and lets committed deliveries drain.
func (sim *Simulator) handleEnd(now float64) {
	sim.ended = true
	for _, o := range sim.book.Orders() {
		if o.State == OrderPending {
			sim.closeOut(o, now)
		}
	}
	sim.record(now, trace.KindSimulationEnd, "", "", sim.log.Summary())
}
