package sim

import "fmt"

// OrderBook is the in-memory order store with lifecycle enforcement.
// Single-writer under the scheduler, like the asset registry.
type OrderBook struct {
	orders map[string]*Order
	ids    []string // placement order
}

// NewOrderBook builds an empty book.
func NewOrderBook() *OrderBook {
	return &OrderBook{orders: make(map[string]*Order)}
}

// PlaceOrder records a new Pending order.
func (b *OrderBook) PlaceOrder(o *Order) error {
	if o.ID == "" {
		return fmt.Errorf("%w: empty order id", ErrInvalidInput)
	}
	if _, dup := b.orders[o.ID]; dup {
		return fmt.Errorf("%w: duplicate order id %q", ErrInvalidInput, o.ID)
	}
	b.orders[o.ID] = o
	b.ids = append(b.ids, o.ID)
	return nil
}

// Get returns the live order.
func (b *OrderBook) Get(id string) (*Order, error) {
	o, ok := b.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrder, id)
	}
	return o, nil
}

// SetState transitions an order and stamps the matching timestamp.
// Transitions must be monotone along the lifecycle; the one sanctioned
// regression is Offered→Pending when a decline cascade exhausts its list.
func (b *OrderBook) SetState(id string, state OrderState, now float64) error {
	o, err := b.Get(id)
	if err != nil {
		return err
	}
	from, to := orderStateRank[o.State], orderStateRank[state]
	if to < from && !(o.State == OrderOffered && state == OrderPending) {
		return fmt.Errorf("%w: order %s cannot go %s -> %s", ErrInvalidInput, id, o.State, state)
	}
	o.State = state
	switch state {
	case OrderOffered:
		o.OfferedAt = append(o.OfferedAt, now)
	case OrderAssigned:
		o.AssignedAt = now
	case OrderInDelivery:
		o.PickedUpAt = now
	case OrderDelivered:
		o.DeliveredAt = now
	}
	return nil
}

// AttachAssignment records the winning asset and batch siblings on an
// order. Called by the offer protocol's commit step only.
func (b *OrderBook) AttachAssignment(id, assetID string, batch []string) error {
	o, err := b.Get(id)
	if err != nil {
		return err
	}
	o.AssignedTo = assetID
	o.BatchWith = nil
	for _, sibling := range batch {
		if sibling != id {
			o.BatchWith = append(o.BatchWith, sibling)
		}
	}
	return nil
}

// Orders returns the live orders in placement order.
func (b *OrderBook) Orders() []*Order {
	out := make([]*Order, 0, len(b.ids))
	for _, id := range b.ids {
		out = append(out, b.orders[id])
	}
	return out
}

// PendingClones returns copies of all Pending orders, for snapshots.
func (b *OrderBook) PendingClones() []*Order {
	var out []*Order
	for _, id := range b.ids {
		if o := b.orders[id]; o.State == OrderPending {
			out = append(out, o.clone())
		}
	}
	return out
}
