package sim

import (
	"fmt"
	"math"
)

// Hole is a hole number on the course, 1 through 18.
type Hole int

// NumHoles is the number of holes on a regulation course.
const NumHoles = 18

// Loop identifies one of the two directed 9-hole cycles.
type Loop string

const (
	// LoopFront covers holes 1-9 (cycle 1→2→…→9→1).
	LoopFront Loop = "front_9"
	// LoopBack covers holes 10-18 (cycle 10→11→…→18→10).
	LoopBack Loop = "back_9"
	// LoopNone marks assets without a zone restriction.
	LoopNone Loop = ""
)

// LoopOf returns the loop a hole belongs to.
func LoopOf(h Hole) Loop {
	if h <= 9 {
		return LoopFront
	}
	return LoopBack
}

// Contains reports whether h lies on the loop.
func (l Loop) Contains(h Hole) bool {
	if !ValidHole(h) {
		return false
	}
	return LoopOf(h) == l
}

// Head returns the first hole of the loop (1 or 10). The clubhouse sits
// adjacent to each loop head, so assets re-enter a loop through it.
func (l Loop) Head() Hole {
	if l == LoopBack {
		return 10
	}
	return 1
}

// ValidHole reports whether h is a real hole number.
func ValidHole(h Hole) bool {
	return h >= 1 && h <= NumHoles
}

// advanceHole steps a hole forward n positions, wrapping within its loop.
func advanceHole(h Hole, n int) Hole {
	loop := LoopOf(h)
	base := int(loop.Head())
	return Hole(base + (int(h)-base+n)%9)
}

// LocationKind discriminates the Location variants.
type LocationKind int

const (
	// AtClubhouse places an asset at the clubhouse pickup point.
	AtClubhouse LocationKind = iota
	// AtHole places an asset at a hole's head vertex.
	AtHole
	// OnSegment places an asset mid-segment at a fractional position.
	OnSegment
)

// Location is a position on the course: the clubhouse, a hole, or a point
// part-way along a directed segment.
type Location struct {
	Kind     LocationKind
	Hole     Hole    // valid for AtHole
	SegFrom  Hole    // valid for OnSegment: the segment leaving this hole
	Fraction float64 // valid for OnSegment, in [0,1]
}

// Clubhouse is the distinguished pickup location.
func Clubhouse() Location { return Location{Kind: AtClubhouse} }

// LocAtHole builds a Location at a hole.
func LocAtHole(h Hole) Location { return Location{Kind: AtHole, Hole: h} }

// LocOnSegment builds a mid-segment Location.
func LocOnSegment(from Hole, frac float64) Location {
	return Location{Kind: OnSegment, SegFrom: from, Fraction: frac}
}

// HoleNumber maps a location to a hole number for coarse distance math.
// The clubhouse maps to 0; a mid-segment position maps to its tail hole.
func (l Location) HoleNumber() int {
	switch l.Kind {
	case AtClubhouse:
		return 0
	case OnSegment:
		return int(l.SegFrom)
	default:
		return int(l.Hole)
	}
}

// Loop returns the loop the location lies on, or LoopNone for the clubhouse.
func (l Location) Loop() Loop {
	switch l.Kind {
	case AtClubhouse:
		return LoopNone
	case OnSegment:
		return LoopOf(l.SegFrom)
	default:
		return LoopOf(l.Hole)
	}
}

func (l Location) String() string {
	switch l.Kind {
	case AtClubhouse:
		return "clubhouse"
	case OnSegment:
		return fmt.Sprintf("seg(%d->%d)@%.2f", l.SegFrom, advanceHole(l.SegFrom, 1), l.Fraction)
	default:
		return fmt.Sprintf("hole(%d)", l.Hole)
	}
}

// Segment is a directed edge between consecutive holes with an average
// traversal time in minutes.
type Segment struct {
	From    Hole    `yaml:"from"`
	To      Hole    `yaml:"to"`
	Minutes float64 `yaml:"avg_minutes"`
}

// Course is the static directed loop graph: two simple cycles covering
// holes 1-9 and 10-18, indexed by the hole each segment leaves from.
// Traversal is by index lookup with a step counter bounded by 9, so the
// cyclic structure never needs pointer chasing.
type Course struct {
	next        map[Hole]Segment
	clubhouseIn float64 // clubhouse <-> loop head adjacency cost
}

// defaultSegmentMinutes is the Pinetree per-segment average.
const defaultSegmentMinutes = 1.5

// NewCourse validates a segment table and builds a Course. The segments
// must form exactly two simple directed cycles covering {1..9} and {10..18}.
func NewCourse(segments []Segment) (*Course, error) {
	next := make(map[Hole]Segment, NumHoles)
	for _, s := range segments {
		if !ValidHole(s.From) || !ValidHole(s.To) {
			return nil, fmt.Errorf("%w: segment %d->%d references unknown hole", ErrInvalidInput, s.From, s.To)
		}
		if s.Minutes <= 0 {
			return nil, fmt.Errorf("%w: segment %d->%d has non-positive duration %v", ErrInvalidInput, s.From, s.To, s.Minutes)
		}
		if LoopOf(s.From) != LoopOf(s.To) {
			return nil, fmt.Errorf("%w: segment %d->%d crosses loops", ErrInvalidInput, s.From, s.To)
		}
		if _, dup := next[s.From]; dup {
			return nil, fmt.Errorf("%w: duplicate segment leaving hole %d", ErrInvalidInput, s.From)
		}
		if s.To != advanceHole(s.From, 1) {
			return nil, fmt.Errorf("%w: segment %d->%d is not the forward edge", ErrInvalidInput, s.From, s.To)
		}
		next[s.From] = s
	}
	if len(next) != NumHoles {
		return nil, fmt.Errorf("%w: course must cover all %d holes, got %d segments", ErrInvalidInput, NumHoles, len(next))
	}
	// Walk both cycles to confirm they close.
	for _, head := range []Hole{1, 10} {
		h := head
		for i := 0; i < 9; i++ {
			h = next[h].To
		}
		if h != head {
			return nil, fmt.Errorf("%w: loop starting at hole %d does not close", ErrInvalidInput, head)
		}
	}
	return &Course{next: next, clubhouseIn: next[advanceHole(1, -1+9)].Minutes}, nil
}

// DefaultCourse builds the Pinetree Country Club layout: 1.5 minutes per
// segment on both loops.
func DefaultCourse() *Course {
	segments := make([]Segment, 0, NumHoles)
	for h := Hole(1); h <= NumHoles; h++ {
		segments = append(segments, Segment{From: h, To: advanceHole(h, 1), Minutes: defaultSegmentMinutes})
	}
	c, err := NewCourse(segments)
	if err != nil {
		panic(err) // static layout, cannot fail
	}
	return c
}

// segmentFrom returns the forward segment leaving a hole.
func (c *Course) segmentFrom(h Hole) Segment {
	return c.next[h]
}

// segMinutes applies the uphill terrain uplift to a segment's base time.
// Holes 10-15 climb; everything else is flat.
func segMinutes(s Segment) float64 {
	if s.To >= 10 && s.To <= 15 {
		return s.Minutes * terrainUpliftFactor
	}
	return s.Minutes
}

// terrainUpliftFactor is the uphill penalty on segments into holes 10-15.
const terrainUpliftFactor = 1.15

// forwardMinutes sums segment times going forward from one hole to another
// on the same loop. Returns 0 when from == to.
func (c *Course) forwardMinutes(from, to Hole) float64 {
	total := 0.0
	h := from
	for i := 0; i < 9 && h != to; i++ {
		s := c.next[h]
		total += segMinutes(s)
		h = s.To
	}
	return total
}

// backwardMinutes sums segment times traversing the loop against segment
// direction. Only delivery staff may do this; carts never travel backwards.
func (c *Course) backwardMinutes(from, to Hole) float64 {
	total := 0.0
	h := from
	for i := 0; i < 9 && h != to; i++ {
		prev := advanceHole(h, 8) // one step back
		total += segMinutes(c.next[prev])
		h = prev
	}
	return total
}

// ForwardHops counts holes between two same-loop holes along the forward
// direction. Used as the pairwise batch adjacency measure.
func (c *Course) ForwardHops(from, to Hole) int {
	n := 0
	h := from
	for i := 0; i < 9 && h != to; i++ {
		h = advanceHole(h, 1)
		n++
	}
	return n
}

// CartETA is the forward-only traversal time from a cart's position to a
// hole on the same loop. A target off the cart's loop is unreachable and
// yields +Inf; callers treat that as ineligible, not as a failure. A cart
// past its target must ride out the remainder of the loop.
func (c *Course) CartETA(loc Location, to Hole, cartLoop Loop) float64 {
	if !cartLoop.Contains(to) {
		return math.Inf(1)
	}
	switch loc.Kind {
	case AtClubhouse:
		// Pickup staging: enter at the loop head and ride forward.
		return c.clubhouseIn + c.forwardMinutes(cartLoop.Head(), to)
	case OnSegment:
		seg := c.segmentFrom(loc.SegFrom)
		residual := (1 - loc.Fraction) * segMinutes(seg)
		return residual + c.forwardMinutes(seg.To, to)
	default:
		return c.forwardMinutes(loc.Hole, to)
	}
}

// StaffETA is the traversal time for free-roaming staff: the cheaper of the
// two directed loop traversals, via the clubhouse when crossing loops.
func (c *Course) StaffETA(loc Location, to Hole) float64 {
	switch loc.Kind {
	case AtClubhouse:
		return c.clubhouseToHole(to)
	case OnSegment:
		seg := c.segmentFrom(loc.SegFrom)
		if LoopOf(to) == LoopOf(loc.SegFrom) {
			fwd := (1-loc.Fraction)*segMinutes(seg) + c.forwardMinutes(seg.To, to)
			back := loc.Fraction*segMinutes(seg) + c.backwardMinutes(loc.SegFrom, to)
			return math.Min(fwd, back)
		}
		return c.staffToClubhouse(loc) + c.clubhouseToHole(to)
	default:
		if LoopOf(to) == LoopOf(loc.Hole) {
			return math.Min(c.forwardMinutes(loc.Hole, to), c.backwardMinutes(loc.Hole, to))
		}
		return c.staffToClubhouse(loc) + c.clubhouseToHole(to)
	}
}

// clubhouseToHole is the fixed clubhouse→hole table for staff: adjacency to
// the target's loop head plus the cheaper directed traversal from there.
func (c *Course) clubhouseToHole(to Hole) float64 {
	head := LoopOf(to).Head()
	return c.clubhouseIn + math.Min(c.forwardMinutes(head, to), c.backwardMinutes(head, to))
}

// staffToClubhouse is the reverse leg of the clubhouse table.
func (c *Course) staffToClubhouse(loc Location) float64 {
	if loc.Kind == AtClubhouse {
		return 0
	}
	head := loc.Loop().Head()
	switch loc.Kind {
	case OnSegment:
		seg := c.segmentFrom(loc.SegFrom)
		fwd := (1-loc.Fraction)*segMinutes(seg) + c.forwardMinutes(seg.To, head)
		back := loc.Fraction*segMinutes(seg) + c.backwardMinutes(loc.SegFrom, head)
		return math.Min(fwd, back) + c.clubhouseIn
	default:
		return math.Min(c.forwardMinutes(loc.Hole, head), c.backwardMinutes(loc.Hole, head)) + c.clubhouseIn
	}
}

// CartToClubhouse is the forward ride from a cart's position to the pickup
// point: forward to the loop head, then across the clubhouse adjacency.
func (c *Course) CartToClubhouse(loc Location, cartLoop Loop) float64 {
	switch loc.Kind {
	case AtClubhouse:
		return 0
	case OnSegment:
		seg := c.segmentFrom(loc.SegFrom)
		return (1-loc.Fraction)*segMinutes(seg) + c.forwardMinutes(seg.To, cartLoop.Head()) + c.clubhouseIn
	default:
		return c.forwardMinutes(loc.Hole, cartLoop.Head()) + c.clubhouseIn
	}
}

// ETA dispatches on asset kind. The result is total and never negative;
// unreachable targets (cart asked about the other loop) yield +Inf.
func (c *Course) ETA(loc Location, to Hole, kind AssetKind, loop Loop) float64 {
	if kind == KindBeverageCart {
		return c.CartETA(loc, to, loop)
	}
	return c.StaffETA(loc, to)
}

// ToClubhouse is the return-cost counterpart of ETA.
func (c *Course) ToClubhouse(loc Location, kind AssetKind, loop Loop) float64 {
	if kind == KindBeverageCart {
		return c.CartToClubhouse(loc, loop)
	}
	return c.staffToClubhouse(loc)
}

// PredictDeliveryHole runs the fixed-point player-advance prediction: the
// golfer moves one hole per paceMin minutes while the delivery is underway,
// so the drop target chases the group forward around its loop. etaTo maps a
// candidate target hole to the full delivery ETA. At most three refinement
// rounds, matching the dispatcher this models.
func PredictDeliveryHole(orderHole Hole, paceMin float64, etaTo func(Hole) float64) (Hole, float64) {
	predicted := orderHole
	eta := etaTo(orderHole)
	for i := 0; i < 3; i++ {
		holesAdvanced := 0
		if paceMin > 0 && !math.IsInf(eta, 1) {
			holesAdvanced = int(math.Floor(eta / paceMin))
		}
		next := advanceHole(orderHole, holesAdvanced)
		if next == predicted {
			break
		}
		predicted = next
		eta = etaTo(predicted)
	}
	return predicted, eta
}
