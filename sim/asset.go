package sim

import "fmt"

// AssetKind discriminates the two delivery asset variants.
type AssetKind string

const (
	KindBeverageCart  AssetKind = "beverage_cart"
	KindDeliveryStaff AssetKind = "delivery_staff"
)

// AssetStatus is the asset state machine.
type AssetStatus string

const (
	StatusAvailable        AssetStatus = "available"
	StatusOfferPending     AssetStatus = "offer_pending"
	StatusEnRouteToPickup  AssetStatus = "en_route_to_pickup"
	StatusAtStore          AssetStatus = "at_store"
	StatusEnRouteToCustomer AssetStatus = "en_route_to_customer"
	StatusReturning        AssetStatus = "returning"
	StatusOffline          AssetStatus = "offline"
)

// busyStatus reports whether the status counts toward active time.
func busyStatus(s AssetStatus) bool {
	switch s {
	case StatusEnRouteToPickup, StatusAtStore, StatusEnRouteToCustomer, StatusReturning:
		return true
	}
	return false
}

// waypoint is a timed position along a committed route, used by location
// ticks to interpolate the asset's position.
type waypoint struct {
	At  float64
	Loc Location
}

// assetState is the shared mutable core of both asset variants.
type assetState struct {
	id     string
	name   string
	loc    Location
	status AssetStatus
	queue  []string // active/queued order ids, append-only via the offer commit

	// route is the committed waypoint timeline while delivering.
	// routeGen invalidates a pre-departure route's scheduled events when
	// a joining order forces a reroute.
	route    []waypoint
	routeGen int
	// busyUntil estimates when the asset frees up; feeds the
	// soon-available candidate window.
	busyUntil float64

	// cumulative stats
	deliveries    int
	distanceHoles float64
}

func (a *assetState) ID() string          { return a.id }
func (a *assetState) Name() string        { return a.name }
func (a *assetState) Location() Location  { return a.loc }
func (a *assetState) Status() AssetStatus { return a.status }
func (a *assetState) Queue() []string     { return a.queue }

// Asset is the common surface of beverage carts and delivery staff. The
// two variants differ only in zone constraint and movement rules, so this
// is a small interface over a sum type, not a hierarchy.
type Asset interface {
	ID() string
	Name() string
	Kind() AssetKind
	// Loop returns the zone restriction; LoopNone for staff.
	Loop() Loop
	Location() Location
	Status() AssetStatus
	Queue() []string

	// Serviceable reports whether the asset may deliver to the hole.
	Serviceable(h Hole) bool
	// validLocation checks the variant's movement constraint.
	validLocation(l Location) error

	state() *assetState
}

// BeverageCart is zone-restricted to one loop and only travels forward.
type BeverageCart struct {
	assetState
	loop Loop
}

// NewBeverageCart builds a cart parked at a hole on its loop.
func NewBeverageCart(id, name string, loop Loop, start Location) (*BeverageCart, error) {
	if loop != LoopFront && loop != LoopBack {
		return nil, fmt.Errorf("%w: cart %s loop %q", ErrInvalidInput, id, loop)
	}
	c := &BeverageCart{
		assetState: assetState{id: id, name: name, loc: start, status: StatusAvailable},
		loop:       loop,
	}
	if err := c.validLocation(start); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *BeverageCart) Kind() AssetKind { return KindBeverageCart }
func (c *BeverageCart) Loop() Loop      { return c.loop }

func (c *BeverageCart) Serviceable(h Hole) bool { return c.loop.Contains(h) }

// validLocation keeps the cart on its loop; the clubhouse is reachable
// through the loop-head adjacency and is allowed for pickups.
func (c *BeverageCart) validLocation(l Location) error {
	if l.Kind == AtClubhouse {
		return nil
	}
	if l.Loop() != c.loop {
		return fmt.Errorf("%w: cart %s (loop %s) placed at %s", ErrZoneViolation, c.id, c.loop, l)
	}
	return nil
}

func (c *BeverageCart) state() *assetState { return &c.assetState }

// DeliveryStaff roams the whole course and may idle at the clubhouse.
type DeliveryStaff struct {
	assetState
}

// NewDeliveryStaff builds a staff member, typically starting at the clubhouse.
func NewDeliveryStaff(id, name string, start Location) *DeliveryStaff {
	return &DeliveryStaff{
		assetState: assetState{id: id, name: name, loc: start, status: StatusAvailable},
	}
}

func (s *DeliveryStaff) Kind() AssetKind { return KindDeliveryStaff }
func (s *DeliveryStaff) Loop() Loop      { return LoopNone }

func (s *DeliveryStaff) Serviceable(h Hole) bool { return ValidHole(h) }

func (s *DeliveryStaff) validLocation(Location) error { return nil }

func (s *DeliveryStaff) state() *assetState { return &s.assetState }

// AssetSnapshot is the read-only view of one asset inside a fleet snapshot.
type AssetSnapshot struct {
	ID       string
	Name     string
	Kind     AssetKind
	Loop     Loop // LoopNone for staff
	Location Location
	Status   AssetStatus
	Queue    []string
	// AvailableAt estimates when a busy asset frees up; equals the
	// snapshot time for available assets.
	AvailableAt float64
}

// Serviceable mirrors Asset.Serviceable on the snapshot.
func (s AssetSnapshot) Serviceable(h Hole) bool {
	if s.Kind == KindBeverageCart {
		return s.Loop.Contains(h)
	}
	return ValidHole(h)
}

// ActiveOrders is the number of orders currently on the asset's queue.
func (s AssetSnapshot) ActiveOrders() int { return len(s.Queue) }
