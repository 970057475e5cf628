package sim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderReport(t *testing.T) {
	r := &KPIReport{
		Strategy: StrategyCartPreference, Seed: 42, DurationMin: 240,
		TotalOrders: 10, Delivered: 8, Unassignable: 1, Abandoned: 1,
		AvgDeliveryMin: 14.2, P50DeliveryMin: 13.0, P90DeliveryMin: 21.5, MaxDeliveryMin: 24.0,
		AvgWaitMin: 4.2, P50WaitMin: 3.5, StdDevWaitMin: 1.1, MaxWaitMin: 6.0,
		OnTimePct: 87.5, OnTimeWaitPct: 100, DeliveredPerHour: 2.0,
		CartUtilizationPct: 62.5, StaffUtilizationPct: 40.0,
		Assets: []AssetKPI{
			{ID: "cart-1", Name: "Cart 1", Kind: KindBeverageCart, Deliveries: 5, DistanceHoles: 31, UtilizationPct: 62.5},
		},
	}

	var sb strings.Builder
	RenderReport(&sb, r)
	out := sb.String()

	assert.Contains(t, out, "CART_PREFERENCE | seed 42 | 240 min")
	assert.Contains(t, out, "10 placed, 8 delivered, 1 unassignable, 1 in flight")
	assert.Contains(t, out, "p90 21.5")
	assert.Contains(t, out, "on-time wait 100.0%")
	assert.Contains(t, out, "util carts 62.5% staff 40.0%")
	assert.Contains(t, out, "Cart 1")
	assert.Contains(t, out, "62.5%")
}

func TestRenderReport_SkipsDeliveryStatsWhenNothingDelivered(t *testing.T) {
	var sb strings.Builder
	RenderReport(&sb, &KPIReport{Strategy: StrategyNearest, DurationMin: 60})
	assert.NotContains(t, sb.String(), "delivery min")
}

func TestRenderComparison(t *testing.T) {
	var sb strings.Builder
	RenderComparison(&sb, []*KPIReport{
		{Strategy: StrategyFastestETA, Delivered: 9, AvgDeliveryMin: 12.1},
		{Strategy: StrategyRandom, Delivered: 6, AvgDeliveryMin: 19.7},
	})
	out := sb.String()

	assert.Contains(t, out, StrategyFastestETA)
	assert.Contains(t, out, StrategyRandom)
	assert.Less(t, strings.Index(out, StrategyFastestETA), strings.Index(out, StrategyRandom))
}
