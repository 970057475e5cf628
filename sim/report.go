package sim

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// RenderReport prints the run KPIs and per-asset table to w.
func RenderReport(w io.Writer, r *KPIReport) {
	fmt.Fprintf(w, "\n=== %s | seed %d | %.0f min ===\n", r.Strategy, r.Seed, r.DurationMin)
	fmt.Fprintf(w, "orders: %d placed, %d delivered, %d unassignable, %d in flight at close\n",
		r.TotalOrders, r.Delivered, r.Unassignable, r.Abandoned)
	if r.Delivered > 0 {
		fmt.Fprintf(w, "delivery min: avg %.1f ± %.1f, p50 %.1f, p90 %.1f, max %.1f\n",
			r.AvgDeliveryMin, r.StdDevDeliveryMin, r.P50DeliveryMin, r.P90DeliveryMin, r.MaxDeliveryMin)
		fmt.Fprintf(w, "wait min: avg %.1f ± %.1f, p50 %.1f, max %.1f | on-time wait %.1f%%\n",
			r.AvgWaitMin, r.StdDevWaitMin, r.P50WaitMin, r.MaxWaitMin, r.OnTimeWaitPct)
		fmt.Fprintf(w, "on-time %.1f%% | %.1f delivered/hr | util carts %.1f%% staff %.1f%%\n",
			r.OnTimePct, r.DeliveredPerHour, r.CartUtilizationPct, r.StaffUtilizationPct)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Asset", "Kind", "Deliveries", "Holes traveled", "Utilization")
	for _, a := range r.Assets {
		table.Append(
			a.Name,
			string(a.Kind),
			fmt.Sprintf("%d", a.Deliveries),
			fmt.Sprintf("%.0f", a.DistanceHoles),
			fmt.Sprintf("%.1f%%", a.UtilizationPct),
		)
	}
	table.Render()
}

// RenderComparison prints one row per run, for the compare command.
func RenderComparison(w io.Writer, reports []*KPIReport) {
	table := tablewriter.NewWriter(w)
	table.Header("Strategy", "Delivered", "Unassignable", "Avg min", "P90 min", "On-time", "Per hour")
	for _, r := range reports {
		table.Append(
			r.Strategy,
			fmt.Sprintf("%d", r.Delivered),
			fmt.Sprintf("%d", r.Unassignable),
			fmt.Sprintf("%.1f", r.AvgDeliveryMin),
			fmt.Sprintf("%.1f", r.P90DeliveryMin),
			fmt.Sprintf("%.1f%%", r.OnTimePct),
			fmt.Sprintf("%.1f", r.DeliveredPerHour),
		)
	}
	table.Render()
}
