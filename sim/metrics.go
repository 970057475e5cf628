package sim

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AssetKPI is per-asset performance over one run.
type AssetKPI struct {
	ID             string
	Name           string
	Kind           AssetKind
	Deliveries     int
	DistanceHoles  float64
	UtilizationPct float64
}

// KPIReport aggregates one run's outcomes against the scenario targets.
type KPIReport struct {
	Strategy    string
	Seed        int64
	DurationMin float64

	TotalOrders  int
	Delivered    int
	Unassignable int
	Abandoned    int // placed but never delivered nor declared unassignable

	AvgDeliveryMin    float64
	StdDevDeliveryMin float64
	P50DeliveryMin    float64
	P90DeliveryMin    float64
	MaxDeliveryMin    float64

	AvgWaitMin    float64
	P50WaitMin    float64
	StdDevWaitMin float64
	MaxWaitMin    float64

	// OnTimePct is the share of delivered orders at or under the
	// scenario's target delivery time; OnTimeWaitPct is the same for the
	// placed-to-assigned wait against the target wait time.
	OnTimePct        float64
	OnTimeWaitPct    float64
	DeliveredPerHour float64
	// BatchedPct is the share of delivered orders that rode in a batch
	// of two or more.
	BatchedPct float64

	// Fleet-wide utilization split by asset type.
	CartUtilizationPct  float64
	StaffUtilizationPct float64

	Assets []AssetKPI
}

// Report computes the KPI set from the book and fleet after Run.
func (sim *Simulator) Report() *KPIReport {
	r := &KPIReport{
		Strategy:    sim.cfg.Strategy,
		Seed:        sim.cfg.RNGSeed,
		DurationMin: sim.cfg.SimulationDurationMin,
	}

	var deliveryTimes, waitTimes []float64
	onTime, onTimeWait, batched := 0, 0, 0
	for _, o := range sim.book.Orders() {
		r.TotalOrders++
		switch o.State {
		case OrderDelivered:
			r.Delivered++
			if len(o.BatchWith) > 0 {
				batched++
			}
			total := o.TotalMinutes()
			deliveryTimes = append(deliveryTimes, total)
			if total <= sim.cfg.TargetDeliveryTimeMin {
				onTime++
			}
			if w := o.WaitMinutes(); w >= 0 {
				waitTimes = append(waitTimes, w)
				if w <= sim.cfg.TargetWaitTimeMin {
					onTimeWait++
				}
			}
		case OrderUnassignable:
			r.Unassignable++
		default:
			r.Abandoned++
		}
	}

	if len(deliveryTimes) > 0 {
		sort.Float64s(deliveryTimes)
		r.AvgDeliveryMin = stat.Mean(deliveryTimes, nil)
		r.StdDevDeliveryMin = stat.StdDev(deliveryTimes, nil)
		r.P50DeliveryMin = stat.Quantile(0.5, stat.Empirical, deliveryTimes, nil)
		r.P90DeliveryMin = stat.Quantile(0.9, stat.Empirical, deliveryTimes, nil)
		r.MaxDeliveryMin = deliveryTimes[len(deliveryTimes)-1]
		r.OnTimePct = 100 * float64(onTime) / float64(r.Delivered)
		r.BatchedPct = 100 * float64(batched) / float64(r.Delivered)
	}
	if len(waitTimes) > 0 {
		sort.Float64s(waitTimes)
		r.AvgWaitMin = stat.Mean(waitTimes, nil)
		r.StdDevWaitMin = stat.StdDev(waitTimes, nil)
		r.P50WaitMin = stat.Quantile(0.5, stat.Empirical, waitTimes, nil)
		r.MaxWaitMin = waitTimes[len(waitTimes)-1]
		r.OnTimeWaitPct = 100 * float64(onTimeWait) / float64(len(waitTimes))
	}
	if r.DurationMin > 0 {
		r.DeliveredPerHour = float64(r.Delivered) / (r.DurationMin / 60)
	}

	activeByKind := map[AssetKind]float64{}
	countByKind := map[AssetKind]int{}
	for _, a := range sim.fleet.Assets() {
		st := a.state()
		activeByKind[a.Kind()] += sim.activeMin[a.ID()]
		countByKind[a.Kind()]++
		r.Assets = append(r.Assets, AssetKPI{
			ID:             a.ID(),
			Name:           a.Name(),
			Kind:           a.Kind(),
			Deliveries:     st.deliveries,
			DistanceHoles:  st.distanceHoles,
			UtilizationPct: 100 * sim.activeMin[a.ID()] / r.DurationMin,
		})
	}
	if n := countByKind[KindBeverageCart]; n > 0 {
		r.CartUtilizationPct = 100 * activeByKind[KindBeverageCart] / (r.DurationMin * float64(n))
	}
	if n := countByKind[KindDeliveryStaff]; n > 0 {
		r.StaffUtilizationPct = 100 * activeByKind[KindDeliveryStaff] / (r.DurationMin * float64(n))
	}
	return r
}

// ToMap flattens the scalar KPIs for machine-readable output.
func (r *KPIReport) ToMap() map[string]float64 {
	return map[string]float64{
		"total_orders":          float64(r.TotalOrders),
		"delivered":             float64(r.Delivered),
		"unassignable":          float64(r.Unassignable),
		"abandoned":             float64(r.Abandoned),
		"avg_delivery_min":      r.AvgDeliveryMin,
		"stddev_delivery_min":   r.StdDevDeliveryMin,
		"p50_delivery_min":      r.P50DeliveryMin,
		"p90_delivery_min":      r.P90DeliveryMin,
		"max_delivery_min":      r.MaxDeliveryMin,
		"avg_wait_min":          r.AvgWaitMin,
		"p50_wait_min":          r.P50WaitMin,
		"stddev_wait_min":       r.StdDevWaitMin,
		"max_wait_min":          r.MaxWaitMin,
		"on_time_pct":           r.OnTimePct,
		"on_time_wait_pct":      r.OnTimeWaitPct,
		"batched_pct":           r.BatchedPct,
		"delivered_per_hour":    r.DeliveredPerHour,
		"cart_utilization_pct":  r.CartUtilizationPct,
		"staff_utilization_pct": r.StaffUtilizationPct,
	}
}
