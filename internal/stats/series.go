package stats

import (
	"time"

	"flowcap/internal/tracker"
	"flowcap/internal/workflow"
)

// Population is the analysed task set split by lifecycle.
type Population struct {
	Open     []tracker.Task
	Done     []tracker.Task
	Excluded int
}

// SplitPopulation separates open and done tasks and drops tasks in excluded statuses.
func SplitPopulation(tasks []tracker.Task, wf *workflow.Workflow) Population {
	var pop Population
	for _, t := range tasks {
		switch {
		case wf.IsExcluded(t.Status):
			pop.Excluded++
		case t.IsClosed():
			pop.Done = append(pop.Done, t)
		default:
			pop.Open = append(pop.Open, t)
		}
	}
	return pop
}

// BuildMonthlySeries counts entries and exits per calendar month over the trailing window
// ending with the reference month, then flags outlier months.
// Entries count every analysed task by creation month; exits count done tasks by closure month.
func BuildMonthlySeries(pop Population, tickets []tracker.Task, wf *workflow.Workflow, ref time.Time) []MonthPoint {
	window := TrailingMonths(ref, wf.Windows.SeriesMonths)
	starts := window.Subdivide()

	points := make([]MonthPoint, len(starts))
	for i, start := range starts {
		points[i] = MonthPoint{
			Month: MonthKey(start),
			Label: window.GenerateLabel(start),
		}
	}

	inc := func(t time.Time, field func(*MonthPoint)) {
		if t.IsZero() {
			return
		}
		if idx := window.FindBucketIndex(t); idx >= 0 && idx < len(points) {
			field(&points[idx])
		}
	}

	for _, t := range pop.Open {
		inc(t.CreatedAt, func(p *MonthPoint) { p.Entered++ })
	}
	for _, t := range pop.Done {
		inc(t.CreatedAt, func(p *MonthPoint) { p.Entered++ })
		inc(*t.ClosedAt, func(p *MonthPoint) { p.Exited++ })
	}
	for _, t := range tickets {
		if wf.IsExcluded(t.Status) {
			continue
		}
		inc(t.CreatedAt, func(p *MonthPoint) { p.Tickets++ })
	}

	exits := make([]int, len(points))
	for i := range points {
		points[i].Net = points[i].Exited - points[i].Entered
		exits[i] = points[i].Exited
	}
	for i, flagged := range DetectOutlierMonths(exits, wf.Outlier) {
		points[i].Outlier = flagged
	}

	return points
}

// TrailingMean averages the last n non-outlier months, newest first.
// It returns the mean and the number of months used.
func TrailingMean(points []MonthPoint, n int, value func(MonthPoint) int) (float64, int) {
	var vals []int
	for i := len(points) - 1; i >= 0 && len(vals) < n; i-- {
		if points[i].Outlier {
			continue
		}
		vals = append(vals, value(points[i]))
	}
	return MeanInt(vals), len(vals)
}

// OutlierMonths returns the keys of flagged months.
func OutlierMonths(points []MonthPoint) map[string]bool {
	out := make(map[string]bool)
	for _, p := range points {
		if p.Outlier {
			out[p.Month] = true
		}
	}
	return out
}

func entered(p MonthPoint) int { return p.Entered }
func exited(p MonthPoint) int  { return p.Exited }
