package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events.
// Each event must have a Timestamp (in simulated minutes) and an Execute
// method that advances simulation state when invoked.
type Event interface {
	Timestamp() float64
	Execute(*Simulator)
}

// OrderArrivalEvent represents a new customer order entering the system.
type OrderArrivalEvent struct {
	time  float64
	Order *Order
}

// Timestamp returns the scheduled time of the OrderArrivalEvent.
func (e *OrderArrivalEvent) Timestamp() float64 { return e.time }

// Execute places the order and runs dispatch on it immediately.
func (e *OrderArrivalEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< Arrival: %s for hole %d at %.2f min", e.Order.ID, e.Order.Hole, e.time)
	sim.handleArrival(e.Order, e.time)
}

// OfferResponseEvent is the asset's answer to an outstanding offer. The
// outcome (accept vs decline) was drawn when the offer was armed so that
// the timeline stays deterministic regardless of handler ordering.
type OfferResponseEvent struct {
	time     float64
	run      *offerRun
	accepted bool
}

func (e *OfferResponseEvent) Timestamp() float64 { return e.time }

func (e *OfferResponseEvent) Execute(sim *Simulator) {
	if e.run.superseded {
		return
	}
	logrus.Debugf("<< OfferResponse: order %s asset %s accepted=%v at %.2f min",
		e.run.orderID, e.run.current().AssetID, e.accepted, e.time)
	sim.handleOfferResponse(e.run, e.accepted, e.time)
}

// OfferTimeoutEvent fires when the offer window elapses with no response.
// A response that already arrived marks the run superseded, making the
// timeout a no-op.
type OfferTimeoutEvent struct {
	time float64
	run  *offerRun
}

func (e *OfferTimeoutEvent) Timestamp() float64 { return e.time }

func (e *OfferTimeoutEvent) Execute(sim *Simulator) {
	if e.run.superseded {
		return
	}
	logrus.Debugf("<< OfferTimeout: order %s asset %s at %.2f min",
		e.run.orderID, e.run.current().AssetID, e.time)
	sim.handleOfferTimeout(e.run, e.time)
}

// AssetArrivedEvent marks an asset reaching a route waypoint: the
// clubhouse pickup (status flips to at_store, then onward) or its
// post-delivery idle point. gen ties the event to the route that
// scheduled it; a reroute orphans the old events.
type AssetArrivedEvent struct {
	time    float64
	AssetID string
	Loc     Location
	Status  AssetStatus
	gen     int
}

func (e *AssetArrivedEvent) Timestamp() float64 { return e.time }

func (e *AssetArrivedEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< AssetArrived: %s -> %s (%s) at %.2f min", e.AssetID, e.Loc, e.Status, e.time)
	sim.handleAssetArrived(e.AssetID, e.Loc, e.Status, e.gen, e.time)
}

// DeliveryCompleteEvent marks one order handed to its customer. These are
// scheduled at offer commit time so in-flight deliveries drain after the
// simulation end marker.
type DeliveryCompleteEvent struct {
	time    float64
	AssetID string
	OrderID string
	gen     int
}

func (e *DeliveryCompleteEvent) Timestamp() float64 { return e.time }

func (e *DeliveryCompleteEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< DeliveryComplete: order %s by %s at %.2f min", e.OrderID, e.AssetID, e.time)
	sim.handleDeliveryComplete(e.AssetID, e.OrderID, e.gen, e.time)
}

// LocationTickEvent advances interpolated asset positions and accrues
// active/idle time. It reschedules itself until the end of the run.
type LocationTickEvent struct {
	time float64
}

func (e *LocationTickEvent) Timestamp() float64 { return e.time }

func (e *LocationTickEvent) Execute(sim *Simulator) {
	sim.handleLocationTick(e.time)
}

// RetryDispatchEvent re-runs dispatch for an order whose earlier attempt
// found no candidate or was declined by every ranked asset.
type RetryDispatchEvent struct {
	time    float64
	OrderID string
}

func (e *RetryDispatchEvent) Timestamp() float64 { return e.time }

func (e *RetryDispatchEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< RetryDispatch: order %s at %.2f min", e.OrderID, e.time)
	sim.handleRetry(e.OrderID, e.time)
}

// SimulationEndEvent marks the end of the configured horizon. Arrivals
// stop here; committed deliveries still drain.
type SimulationEndEvent struct {
	time float64
}

func (e *SimulationEndEvent) Timestamp() float64 { return e.time }

func (e *SimulationEndEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< SimulationEnd at %.2f min", e.time)
	sim.handleEnd(e.time)
}
