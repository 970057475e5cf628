package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_AccountsForEveryOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimulationDurationMin = 60
	sim, err := NewSimulator(cfg)
	require.NoError(t, err)
	require.NoError(t, sim.Run())

	r := sim.Report()
	assert.Equal(t, cfg.Strategy, r.Strategy)
	assert.Equal(t, cfg.RNGSeed, r.Seed)
	assert.Positive(t, r.TotalOrders)
	assert.Equal(t, r.TotalOrders, r.Delivered+r.Unassignable+r.Abandoned)
	assert.Len(t, r.Assets, cfg.NumBeverageCarts+cfg.NumDeliveryStaff)

	if r.Delivered > 0 {
		assert.Positive(t, r.AvgDeliveryMin)
		assert.LessOrEqual(t, r.P50DeliveryMin, r.P90DeliveryMin)
		assert.LessOrEqual(t, r.P90DeliveryMin, r.MaxDeliveryMin)
		assert.LessOrEqual(t, r.P50WaitMin, r.MaxWaitMin)
		assert.LessOrEqual(t, r.AvgWaitMin, r.MaxWaitMin)
		assert.GreaterOrEqual(t, r.OnTimePct, 0.0)
		assert.LessOrEqual(t, r.OnTimePct, 100.0)
		assert.GreaterOrEqual(t, r.OnTimeWaitPct, 0.0)
		assert.LessOrEqual(t, r.OnTimeWaitPct, 100.0)
		assert.GreaterOrEqual(t, r.BatchedPct, 0.0)
		assert.LessOrEqual(t, r.BatchedPct, 100.0)
	}
	assert.GreaterOrEqual(t, r.CartUtilizationPct, 0.0)
	assert.LessOrEqual(t, r.CartUtilizationPct, 100.0)
	assert.GreaterOrEqual(t, r.StaffUtilizationPct, 0.0)
	assert.LessOrEqual(t, r.StaffUtilizationPct, 100.0)

	deliveries := 0
	for _, a := range r.Assets {
		deliveries += a.Deliveries
		assert.GreaterOrEqual(t, a.UtilizationPct, 0.0)
	}
	assert.Equal(t, r.Delivered, deliveries)
}

func TestReportToMap_CoversTheScalarKPIs(t *testing.T) {
	r := &KPIReport{TotalOrders: 7, Delivered: 5, Unassignable: 1, Abandoned: 1, BatchedPct: 40}
	m := r.ToMap()

	for _, key := range []string{
		"total_orders", "delivered", "unassignable", "abandoned",
		"avg_delivery_min", "stddev_delivery_min",
		"p50_delivery_min", "p90_delivery_min", "max_delivery_min",
		"avg_wait_min", "p50_wait_min", "stddev_wait_min", "max_wait_min",
		"on_time_pct", "on_time_wait_pct", "batched_pct", "delivered_per_hour",
		"cart_utilization_pct", "staff_utilization_pct",
	} {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, 7.0, m["total_orders"])
	assert.Equal(t, 40.0, m["batched_pct"])
}

// Every location tick lands in exactly one of the two buckets, so per
// asset the busy and idle totals cover the whole run.
func TestActiveAndIdleTimeCoverTheRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimulationDurationMin = 60
	sim, err := NewSimulator(cfg)
	require.NoError(t, err)
	require.NoError(t, sim.Run())

	for _, a := range sim.fleet.Assets() {
		total := sim.activeMin[a.ID()] + sim.idleMin[a.ID()]
		assert.InDelta(t, cfg.SimulationDurationMin, total, cfg.LocationTickMin,
			"asset %s: active %.1f + idle %.1f", a.ID(), sim.activeMin[a.ID()], sim.idleMin[a.ID()])
	}
}

func TestOnTimeWaitPctTracksTheWaitTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimulationDurationMin = 60
	sim, err := NewSimulator(cfg)
	require.NoError(t, err)
	require.NoError(t, sim.Run())

	r := sim.Report()
	waits := 0
	onTime := 0
	for _, o := range sim.book.Orders() {
		if o.State != OrderDelivered {
			continue
		}
		if w := o.WaitMinutes(); w >= 0 {
			waits++
			if w <= cfg.TargetWaitTimeMin {
				onTime++
			}
		}
	}
	if waits == 0 {
		t.Skip("no delivered orders with a recorded wait")
	}
	assert.InDelta(t, 100*float64(onTime)/float64(waits), r.OnTimeWaitPct, 1e-9)
}
