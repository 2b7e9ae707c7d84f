// Package capacity turns a person's open work items into daily workload,
// utilization and overload figures. Everything here is pure computation over
// in-memory values; "today" is always supplied by the caller.
package capacity

import (
	"math"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

// Spread distributes remaining hours evenly across the closed range [start, end].
// An item that cannot be scheduled (no hours, or end before start) yields an empty workload.
func Spread(remaining float64, start, end models.Date) models.DailyWorkload {
	workload := make(models.DailyWorkload)
	if remaining <= 0 || math.IsNaN(remaining) || math.IsInf(remaining, 0) {
		return workload
	}
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return workload
	}

	days := start.DaysUntil(end) + 1
	share := remaining / float64(days)
	for i := 0; i < days; i++ {
		workload[start.AddDays(i)] = share
	}
	return workload
}

// Merge sums several workloads into a new one
func Merge(workloads ...models.DailyWorkload) models.DailyWorkload {
	merged := make(models.DailyWorkload)
	for _, w := range workloads {
		for d, h := range w {
			merged.Add(d, h)
		}
	}
	return merged
}
