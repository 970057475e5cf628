package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grow-assistant/swoop-delivery/sim/trace"
)

// SimulationContext runs the dispatch core against wall-clock time for
// production use: same registry, book, and strategy as the simulator,
// but driven by API calls instead of the event queue. All methods are
// safe for concurrent use.
type SimulationContext struct {
	mu sync.Mutex

	cfg      ScenarioConfig
	course   *Course
	oracle   Oracle
	strategy DispatchStrategy
	fleet    *AssetRegistry
	book     *OrderBook
	log      *trace.Log

	start func() time.Time
	epoch time.Time
}

// NewSimulationContext builds a live dispatch context. The fleet starts
// empty; register assets before dispatching.
func NewSimulationContext(cfg ScenarioConfig) (*SimulationContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	course, err := cfg.BuildCourse()
	if err != nil {
		return nil, err
	}
	oracle := NewPredictionOracle(course)
	rng := NewPartitionedRNG(NewSimulationKey(cfg.RNGSeed))
	strategy, err := NewStrategy(cfg.Strategy, course, oracle, &cfg, rng.ForSubsystem(SubsystemStrategy))
	if err != nil {
		return nil, err
	}
	ctx := &SimulationContext{
		cfg:      cfg,
		course:   course,
		oracle:   oracle,
		strategy: strategy,
		fleet:    NewAssetRegistry(),
		book:     NewOrderBook(),
		log:      trace.NewLog(),
		start:    time.Now,
	}
	ctx.epoch = ctx.start()
	return ctx, nil
}

// now is minutes elapsed since the context was created.
func (c *SimulationContext) now() float64 {
	return c.start().Sub(c.epoch).Minutes()
}

// timeOfDay buckets the wall clock into the traffic regimes.
func (c *SimulationContext) timeOfDay() TimeOfDay {
	switch h := c.start().Hour(); {
	case h < 11:
		return Morning
	case h < 14:
		return Noon
	default:
		return Afternoon
	}
}

// RegisterAsset adds a cart or staff member to the live fleet.
func (c *SimulationContext) RegisterAsset(a Asset) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fleet.Register(a)
}

// CreateOrder places a new order for a hole and returns a copy.
func (c *SimulationContext) CreateOrder(hole Hole, items []MenuItem) (*Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	o, err := NewOrder(uuid.NewString(), hole, items, c.timeOfDay(), now)
	if err != nil {
		return nil, err
	}
	if err := c.book.PlaceOrder(o); err != nil {
		return nil, err
	}
	c.log.Append(trace.Record{T: now, Kind: trace.KindArrival, OrderID: o.ID,
		Detail: fmt.Sprintf("hole=%d value=%.2f", o.Hole, o.Value())})
	return o.clone(), nil
}

// DispatchOrder runs the strategy on a pending order. On an assign
// decision the top candidate is committed immediately: the live offer
// round-trip happens in the client app, outside this core. The full
// ranked decision is returned so the caller can fall back on a refusal.
func (c *SimulationContext) DispatchOrder(orderID string) (Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	o, err := c.book.Get(orderID)
	if err != nil {
		return Decision{}, err
	}
	if o.State != OrderPending {
		return Decision{}, fmt.Errorf("%w: order %s is %s", ErrInvalidInput, orderID, o.State)
	}
	snap := &FleetSnapshot{At: now, Assets: c.fleet.Snapshot(now), Pending: c.book.PendingClones()}
	decision := c.strategy.Choose(o, snap)
	if decision.Kind != DecisionAssign {
		return decision, nil
	}

	cand := decision.Candidates[0]
	for _, oid := range cand.Batch {
		b, err := c.book.Get(oid)
		if err != nil || b.State != OrderPending {
			continue
		}
		if err := c.book.SetState(oid, OrderAssigned, now); err != nil {
			return decision, err
		}
		_ = c.book.AttachAssignment(oid, cand.AssetID, cand.Batch)
		if err := c.fleet.EnqueueOrder(cand.AssetID, oid, c.cfg.MaxBatchSize); err != nil {
			return decision, err
		}
		c.log.Append(trace.Record{T: now, Kind: trace.KindAssigned, OrderID: oid, AssetID: cand.AssetID,
			Detail: fmt.Sprintf("batch=%d", len(cand.Batch))})
	}
	if err := c.fleet.SetStatus(cand.AssetID, StatusEnRouteToPickup); err != nil {
		return decision, err
	}
	return decision, nil
}

// CompleteOrder marks a delivery done and frees the asset when its queue
// drains.
func (c *SimulationContext) CompleteOrder(orderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	o, err := c.book.Get(orderID)
	if err != nil {
		return err
	}
	assetID := o.AssignedTo
	if o.State == OrderAssigned {
		if err := c.book.SetState(orderID, OrderInDelivery, now); err != nil {
			return err
		}
	}
	if err := c.book.SetState(orderID, OrderDelivered, now); err != nil {
		return err
	}
	if assetID != "" {
		if err := c.fleet.DequeueOrder(assetID, orderID); err != nil {
			return err
		}
		a, err := c.fleet.Get(assetID)
		if err != nil {
			return err
		}
		st := a.state()
		st.deliveries++
		if err := c.fleet.UpdateLocation(assetID, LocAtHole(o.Hole)); err != nil {
			return err
		}
		if len(a.Queue()) == 0 {
			if err := c.fleet.SetStatus(assetID, StatusAvailable); err != nil {
				return err
			}
		}
	}
	c.log.Append(trace.Record{T: now, Kind: trace.KindDelivered, OrderID: orderID, AssetID: assetID})
	return nil
}

// UpdateAssetLocation moves an asset, enforcing zone rules.
func (c *SimulationContext) UpdateAssetLocation(assetID string, loc Location) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fleet.UpdateLocation(assetID, loc)
}

// UpdateAssetStatus transitions an asset's status.
func (c *SimulationContext) UpdateAssetStatus(assetID string, status AssetStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fleet.SetStatus(assetID, status)
}

// ListAssets snapshots the fleet.
func (c *SimulationContext) ListAssets() []AssetSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fleet.Snapshot(c.now())
}

// ListOrders returns copies of every order, in placement order.
func (c *SimulationContext) ListOrders() []*Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	orders := c.book.Orders()
	out := make([]*Order, len(orders))
	for i, o := range orders {
		out[i] = o.clone()
	}
	return out
}

// Trace returns the context's event log.
func (c *SimulationContext) Trace() *trace.Log {
	return c.log
}
