package sim

import (
	"fmt"
	"sort"
)

// AssetRegistry is the in-memory store of delivery assets. It is
// single-writer: all mutation happens inside the scheduler's event
// handlers (or behind the SimulationContext lock in production mode).
// Readers take snapshots.
type AssetRegistry struct {
	assets map[string]Asset
	ids    []string // registration order, for deterministic iteration
}

// NewAssetRegistry builds an empty registry.
func NewAssetRegistry() *AssetRegistry {
	return &AssetRegistry{assets: make(map[string]Asset)}
}

// Register adds an asset. Ids must be unique.
func (r *AssetRegistry) Register(a Asset) error {
	if a.ID() == "" {
		return fmt.Errorf("%w: empty asset id", ErrInvalidInput)
	}
	if _, dup := r.assets[a.ID()]; dup {
		return fmt.Errorf("%w: duplicate asset id %q", ErrInvalidInput, a.ID())
	}
	r.assets[a.ID()] = a
	r.ids = append(r.ids, a.ID())
	return nil
}

// Get returns the live asset. Callers outside event handlers must not
// mutate it.
func (r *AssetRegistry) Get(id string) (Asset, error) {
	a, ok := r.assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAsset, id)
	}
	return a, nil
}

// UpdateLocation moves an asset, enforcing the variant's zone constraint.
func (r *AssetRegistry) UpdateLocation(id string, loc Location) error {
	a, err := r.Get(id)
	if err != nil {
		return err
	}
	if err := a.validLocation(loc); err != nil {
		return err
	}
	a.state().loc = loc
	return nil
}

// SetStatus transitions an asset's status. Arming a new OfferPending is
// refused while one is already outstanding: at most one offer per asset
// across the whole system.
func (r *AssetRegistry) SetStatus(id string, status AssetStatus) error {
	a, err := r.Get(id)
	if err != nil {
		return err
	}
	st := a.state()
	if status == StatusOfferPending && st.status == StatusOfferPending {
		return fmt.Errorf("%w: %s", ErrOfferPending, id)
	}
	st.status = status
	return nil
}

// EnqueueOrder appends an order id to the asset's queue. Only the offer
// protocol's commit step calls this. Queue length is capped while the
// asset is in an active delivery.
func (r *AssetRegistry) EnqueueOrder(id, orderID string, maxBatch int) error {
	a, err := r.Get(id)
	if err != nil {
		return err
	}
	st := a.state()
	if busyStatus(st.status) && len(st.queue) >= maxBatch {
		return fmt.Errorf("%w: asset %s queue full (%d)", ErrInvalidInput, id, maxBatch)
	}
	st.queue = append(st.queue, orderID)
	return nil
}

// DequeueOrder removes an order id from the asset's queue.
func (r *AssetRegistry) DequeueOrder(id, orderID string) error {
	a, err := r.Get(id)
	if err != nil {
		return err
	}
	st := a.state()
	for i, oid := range st.queue {
		if oid == orderID {
			st.queue = append(st.queue[:i], st.queue[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: order %q not queued on asset %q", ErrUnknownOrder, orderID, id)
}

// Assets returns the live assets in registration order.
func (r *AssetRegistry) Assets() []Asset {
	out := make([]Asset, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.assets[id])
	}
	return out
}

// Snapshot captures a read-only fleet view at the given time. Strategies
// and the planner receive this and must not observe later mutations.
func (r *AssetRegistry) Snapshot(now float64) []AssetSnapshot {
	out := make([]AssetSnapshot, 0, len(r.ids))
	for _, id := range r.ids {
		a := r.assets[id]
		st := a.state()
		availableAt := now
		// Pre-departure assets can still absorb orders on the same
		// pickup, so only the outbound legs push availability out.
		switch st.status {
		case StatusEnRouteToCustomer, StatusReturning:
			if st.busyUntil > now {
				availableAt = st.busyUntil
			}
		}
		out = append(out, AssetSnapshot{
			ID:          a.ID(),
			Name:        a.Name(),
			Kind:        a.Kind(),
			Loop:        a.Loop(),
			Location:    st.loc,
			Status:      st.status,
			Queue:       append([]string(nil), st.queue...),
			AvailableAt: availableAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FleetSnapshot is the immutable view handed to dispatch strategies: the
// registry state plus the pending order pool, captured at handler entry.
type FleetSnapshot struct {
	At      float64
	Assets  []AssetSnapshot
	Pending []*Order // copies; mutation never reaches the book
}

// Get looks up an asset snapshot by id, or nil.
func (s *FleetSnapshot) Get(id string) *AssetSnapshot {
	for i := range s.Assets {
		if s.Assets[i].ID == id {
			return &s.Assets[i]
		}
	}
	return nil
}
