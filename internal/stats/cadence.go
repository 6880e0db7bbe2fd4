package stats

import (
	"time"

	"flowcap/internal/tracker"
)

// DeliveryCadence represents a weekly snapshot of throughput.
type DeliveryCadence struct {
	WeekStarting   time.Time `json:"week_starting"`
	Label          string    `json:"label"`
	ItemsDelivered int       `json:"items_delivered"`
}

// CalculateDeliveryCadence counts tasks closed per ISO week over the trailing weeks ending at ref.
// Weeks without deliveries are kept with a zero count.
func CalculateDeliveryCadence(done []tracker.Task, ref time.Time, windowWeeks int) []DeliveryCadence {
	window := TrailingWeeks(ref, windowWeeks)
	starts := window.Subdivide()

	results := make([]DeliveryCadence, len(starts))
	for i, start := range starts {
		results[i] = DeliveryCadence{
			WeekStarting: start,
			Label:        window.GenerateLabel(start),
		}
	}

	for _, t := range done {
		if t.ClosedAt == nil || t.ClosedAt.After(ref) {
			continue
		}
		if idx := window.FindBucketIndex(*t.ClosedAt); idx >= 0 && idx < len(results) {
			results[idx].ItemsDelivered++
		}
	}

	return results
}
