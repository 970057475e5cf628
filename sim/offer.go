package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/grow-assistant/swoop-delivery/sim/trace"
)

// offerRun is one attempt in an order's offer cascade: a ranked candidate
// list and a cursor. Response and timeout events both hold the run;
// whichever fires first sets superseded so the other becomes a no-op.
// A decline advances the cascade with a fresh run, so stale events never
// cancel the successor attempt.
type offerRun struct {
	orderID    string
	cands      []Candidate
	idx        int
	superseded bool
	// prev is the asset status to restore if this attempt fails.
	prev AssetStatus
}

func (r *offerRun) current() Candidate { return r.cands[r.idx] }

// dispatch runs the configured strategy on a pending order and acts on
// its decision. Called from arrival and retry handlers.
func (sim *Simulator) dispatch(o *Order, now float64) {
	if o.State != OrderPending {
		return
	}
	snap := sim.snapshot(now)
	decision := sim.strategy.Choose(o, snap)
	switch decision.Kind {
	case DecisionAssign:
		sim.startOffer(&offerRun{orderID: o.ID, cands: decision.Candidates}, now)
	case DecisionDelay:
		at := decision.RetryAt
		if at <= now {
			at = now + sim.cfg.RetryBackoffMin
		}
		sim.Schedule(&RetryDispatchEvent{time: at, OrderID: o.ID})
	case DecisionNoCandidate:
		sim.retryOrGiveUp(o, now)
	}
}

// startOffer arms the offer for the run's current candidate: the asset
// goes offer_pending, the order goes offered, and both outcome and
// response delay are drawn now so the timeline is fixed at arm time.
func (sim *Simulator) startOffer(run *offerRun, now float64) {
	if sim.ended {
		if o, err := sim.book.Get(run.orderID); err == nil && o.State != OrderUnassignable {
			sim.closeOut(o, now)
		}
		return
	}
	cand := run.current()
	asset, err := sim.fleet.Get(cand.AssetID)
	if err != nil {
		logrus.Errorf("offer for %s: %v", run.orderID, err)
		sim.advanceOffer(run, now, false)
		return
	}
	run.prev = asset.Status()
	if err := sim.fleet.SetStatus(cand.AssetID, StatusOfferPending); err != nil {
		// Raced with another cascade; treat as an instant decline.
		sim.advanceOffer(run, now, false)
		return
	}
	if err := sim.book.SetState(run.orderID, OrderOffered, now); err != nil {
		logrus.Errorf("offer %s: %v", run.orderID, err)
		return
	}
	sim.record(now, trace.KindOfferSent, run.orderID, cand.AssetID,
		fmt.Sprintf("score=%.2f p=%.2f batch=%d", cand.Score.Final, cand.Score.Acceptance, len(cand.Batch)))

	rng := sim.rng.ForSubsystem(SubsystemOffers)
	accepted := rng.Float64() < cand.Score.Acceptance
	delay := rng.Float64() * sim.cfg.OfferWindowMin
	silent := rng.Float64() < silentDeclineProb

	sim.Schedule(&OfferTimeoutEvent{time: now + sim.cfg.OfferWindowMin, run: run})
	if accepted || !silent {
		sim.Schedule(&OfferResponseEvent{time: now + delay, run: run, accepted: accepted})
	}
	// A silent decline answers nothing; only the timeout fires.
}

// silentDeclineProb is the share of declines that arrive as no response
// at all rather than an explicit refusal.
const silentDeclineProb = 0.5

// handleOfferResponse resolves an explicit accept or decline.
func (sim *Simulator) handleOfferResponse(run *offerRun, accepted bool, now float64) {
	run.superseded = true
	if accepted {
		sim.record(now, trace.KindOfferAccepted, run.orderID, run.current().AssetID, "")
		sim.commit(run, now)
		return
	}
	sim.record(now, trace.KindOfferDeclined, run.orderID, run.current().AssetID, "")
	sim.advanceOffer(run, now, true)
}

// handleOfferTimeout treats an expired window as a decline.
func (sim *Simulator) handleOfferTimeout(run *offerRun, now float64) {
	run.superseded = true
	sim.record(now, trace.KindOfferTimeout, run.orderID, run.current().AssetID, "")
	sim.advanceOffer(run, now, true)
}

// advanceOffer moves the cascade to the next ranked candidate. Later
// candidates keep their original scores: a decline carries no rank
// penalty. When the list is exhausted the order returns to pending and
// the retry/backoff path takes over.
func (sim *Simulator) advanceOffer(run *offerRun, now float64, restore bool) {
	if restore {
		if err := sim.fleet.SetStatus(run.current().AssetID, run.prev); err != nil {
			logrus.Errorf("restore %s: %v", run.current().AssetID, err)
		}
	}
	if run.idx+1 < len(run.cands) {
		next := &offerRun{orderID: run.orderID, cands: run.cands, idx: run.idx + 1}
		sim.startOffer(next, now)
		return
	}
	o, err := sim.book.Get(run.orderID)
	if err != nil {
		logrus.Errorf("offer cascade: %v", err)
		return
	}
	if err := sim.book.SetState(run.orderID, OrderPending, now); err != nil {
		logrus.Errorf("offer cascade %s: %v", run.orderID, err)
		return
	}
	sim.retryOrGiveUp(o, now)
}

// retryOrGiveUp schedules a backed-off retry, or marks the order
// unassignable once retries are exhausted.
func (sim *Simulator) retryOrGiveUp(o *Order, now float64) {
	o.RetryCount++
	if o.RetryCount > sim.cfg.MaxRetries {
		if err := sim.book.SetState(o.ID, OrderUnassignable, now); err != nil {
			logrus.Errorf("give up %s: %v", o.ID, err)
			return
		}
		sim.record(now, trace.KindUnassignable, o.ID, "", fmt.Sprintf("retries=%d", o.RetryCount-1))
		logrus.Warnf("order %s unassignable after %d retries", o.ID, o.RetryCount-1)
		return
	}
	at := now + sim.cfg.RetryBackoffMin
	sim.record(now, trace.KindRetryScheduled, o.ID, "", fmt.Sprintf("attempt=%d at=%.2f", o.RetryCount, at))
	sim.Schedule(&RetryDispatchEvent{time: at, OrderID: o.ID})
}

// commit finalizes an accepted offer: every order in the batch is
// assigned to the asset and the full route timeline, sampled with the
// oracle subsystem RNG, is scheduled up front.
func (sim *Simulator) commit(run *offerRun, now float64) {
	cand := run.current()
	if sim.ended {
		// The store closed while the offer was out; the acceptance no
		// longer buys a route.
		if err := sim.fleet.SetStatus(cand.AssetID, run.prev); err != nil {
			logrus.Errorf("restore %s: %v", cand.AssetID, err)
		}
		if o, err := sim.book.Get(run.orderID); err == nil && o.State != OrderUnassignable {
			sim.closeOut(o, now)
		}
		return
	}
	asset, err := sim.fleet.Get(cand.AssetID)
	if err != nil {
		logrus.Errorf("commit %s: %v", run.orderID, err)
		return
	}

	orders := make([]*Order, 0, len(cand.Batch))
	for _, oid := range cand.Batch {
		o, err := sim.book.Get(oid)
		if err != nil || o.State != OrderPending && o.State != OrderOffered {
			continue // a batch sibling may have been taken meanwhile
		}
		orders = append(orders, o)
	}
	if len(orders) == 0 {
		logrus.Warnf("commit %s: batch evaporated", run.orderID)
		sim.advanceOffer(run, now, true)
		return
	}
	for _, o := range orders {
		if err := sim.book.SetState(o.ID, OrderAssigned, now); err != nil {
			logrus.Errorf("commit %s: %v", o.ID, err)
			continue
		}
		if err := sim.fleet.EnqueueOrder(cand.AssetID, o.ID, sim.cfg.MaxBatchSize); err != nil {
			logrus.Errorf("enqueue %s on %s: %v", o.ID, cand.AssetID, err)
		}
	}

	// The committed route covers everything still waiting on the asset's
	// queue: a pre-departure asset absorbs the new orders into one
	// pickup, a mid-delivery one chains them after its current run.
	var pending []*Order
	chained := false
	for _, oid := range asset.Queue() {
		o, err := sim.book.Get(oid)
		if err != nil {
			continue
		}
		switch o.State {
		case OrderAssigned:
			pending = append(pending, o)
		case OrderInDelivery:
			chained = true
		}
	}
	if len(pending) == 0 {
		if err := sim.fleet.SetStatus(cand.AssetID, run.prev); err != nil {
			logrus.Errorf("restore %s: %v", cand.AssetID, err)
		}
		return
	}
	if chained {
		// The asset stays on its current delivery until the chained route
		// starts; put its status back where the offer found it.
		if err := sim.fleet.SetStatus(cand.AssetID, run.prev); err != nil {
			logrus.Errorf("restore %s: %v", cand.AssetID, err)
		}
	}
	ids := make([]string, len(pending))
	for i, o := range pending {
		ids[i] = o.ID
	}
	for _, o := range pending {
		_ = sim.book.AttachAssignment(o.ID, cand.AssetID, ids)
	}
	for _, o := range orders {
		sim.record(now, trace.KindAssigned, o.ID, cand.AssetID, fmt.Sprintf("batch=%d", len(pending)))
	}
	sim.scheduleRoute(asset, pending, now, chained)
}
