package sim

import (
	"fmt"
	"math"
)

// Complexity grades how involved an item is to prepare.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"  // bottled drinks
	ComplexityMedium  Complexity = "medium"  // sandwiches
	ComplexityComplex Complexity = "complex" // hot food
)

// complexityFactor scales prep time per complexity grade.
var complexityFactor = map[Complexity]float64{
	ComplexitySimple:  0.8,
	ComplexityMedium:  1.0,
	ComplexityComplex: 1.5,
}

// TimeOfDay buckets the simulated clock into traffic regimes.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Noon      TimeOfDay = "noon"
	Afternoon TimeOfDay = "afternoon"
)

// todMultiplier is the traffic factor applied to travel estimates.
var todMultiplier = map[TimeOfDay]float64{
	Morning:   0.8,
	Noon:      1.2,
	Afternoon: 1.0,
}

// MenuItem is one line of an order.
type MenuItem struct {
	Name       string     `yaml:"name"`
	Quantity   int        `yaml:"quantity"`
	Complexity Complexity `yaml:"complexity"`
	UnitPrice  float64    `yaml:"unit_price"`
}

// OrderState is the order lifecycle. Transitions are monotone down this
// list, except Offered→Pending on a full decline cascade (bounded by the
// retry cap).
type OrderState string

const (
	OrderPending      OrderState = "pending"
	OrderOffered      OrderState = "offered"
	OrderAssigned     OrderState = "assigned"
	OrderInDelivery   OrderState = "in_delivery"
	OrderDelivered    OrderState = "delivered"
	OrderUnassignable OrderState = "unassignable"
)

// orderStateRank orders states for the monotonicity check.
var orderStateRank = map[OrderState]int{
	OrderPending:      0,
	OrderOffered:      1,
	OrderAssigned:     2,
	OrderInDelivery:   3,
	OrderDelivered:    4,
	OrderUnassignable: 5,
}

// unsetTime marks a timestamp that has not happened yet.
const unsetTime = -1.0

// Order is a customer order for a hole. The book owns orders; everyone
// else reads copies.
type Order struct {
	ID        string
	Hole      Hole
	Items     []MenuItem
	TimeOfDay TimeOfDay

	State      OrderState
	AssignedTo string   // asset id, set at Assigned
	BatchWith  []string // sibling order ids when batched
	RetryCount int

	PlacedAt    float64
	OfferedAt   []float64 // one entry per offer attempt
	AssignedAt  float64
	PickedUpAt  float64
	DeliveredAt float64
}

// NewOrder builds a Pending order placed at the given simulated time.
func NewOrder(id string, hole Hole, items []MenuItem, tod TimeOfDay, placedAt float64) (*Order, error) {
	if !ValidHole(hole) {
		return nil, fmt.Errorf("%w: hole %d", ErrInvalidInput, hole)
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %q quantity %d", ErrInvalidInput, it.Name, it.Quantity)
		}
	}
	return &Order{
		ID:          id,
		Hole:        hole,
		Items:       items,
		TimeOfDay:   tod,
		State:       OrderPending,
		PlacedAt:    placedAt,
		AssignedAt:  unsetTime,
		PickedUpAt:  unsetTime,
		DeliveredAt: unsetTime,
	}, nil
}

// Value is the order total in dollars.
func (o *Order) Value() float64 {
	total := 0.0
	for _, it := range o.Items {
		total += float64(it.Quantity) * it.UnitPrice
	}
	return total
}

// TotalQuantity sums item quantities.
func (o *Order) TotalQuantity() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// MaxComplexityFactor is the dominant prep factor across items.
func (o *Order) MaxComplexityFactor() float64 {
	f := 0.0
	for _, it := range o.Items {
		cf, ok := complexityFactor[it.Complexity]
		if !ok {
			cf = complexityFactor[ComplexityMedium]
		}
		f = math.Max(f, cf)
	}
	if f == 0 {
		f = 1.0
	}
	return f
}

// WaitMinutes is placed→assigned, or unsetTime before assignment.
func (o *Order) WaitMinutes() float64 {
	if o.AssignedAt < 0 {
		return unsetTime
	}
	return o.AssignedAt - o.PlacedAt
}

// TotalMinutes is placed→delivered, or unsetTime before delivery.
func (o *Order) TotalMinutes() float64 {
	if o.DeliveredAt < 0 {
		return unsetTime
	}
	return o.DeliveredAt - o.PlacedAt
}

// clone copies the order for snapshots so strategies cannot reach the
// book's live state.
func (o *Order) clone() *Order {
	cp := *o
	cp.Items = append([]MenuItem(nil), o.Items...)
	cp.OfferedAt = append([]float64(nil), o.OfferedAt...)
	cp.BatchWith = append([]string(nil), o.BatchWith...)
	return &cp
}
