package stats

import (
	"cmp"
	"math"
	"slices"
	"time"

	"flowcap/internal/workflow"
)

// CalculatePhaseBenchmarks estimates the typical days spent in each phase.
// A phase is measured only on tasks that already have time in a later phase; the last phase
// is measured on tasks currently in it. Too few samples fall back to the configured default.
func CalculatePhaseBenchmarks(tasks []ClassifiedTask, wf *workflow.Workflow) []PhaseBenchmark {
	n := len(wf.Phases)
	result := make([]PhaseBenchmark, 0, n)

	for i, p := range wf.Phases {
		var samples []int
		for _, ct := range tasks {
			if i == n-1 {
				if ct.CurrentPhase == p.Name {
					samples = append(samples, ct.PhaseDays[p.Name])
				}
				continue
			}
			if pastPhase(ct, wf.Phases[i+1:]) {
				samples = append(samples, ct.PhaseDays[p.Name])
			}
		}

		b := PhaseBenchmark{
			Phase:   p.Name,
			Label:   p.Label,
			Days:    int(math.Round(MeanInt(samples))),
			Samples: len(samples),
		}
		if b.Samples < wf.Windows.MinSamples || b.Days == 0 {
			b.Days = p.DefaultDays
			b.Fallback = true
		}
		result = append(result, b)
	}

	return result
}

func pastPhase(ct ClassifiedTask, later []workflow.Phase) bool {
	for _, p := range later {
		if ct.PhaseDays[p.Name] > 0 {
			return true
		}
	}
	return false
}

// CalculateForecasts estimates the remaining days of every open task in a known phase.
// The current phase contributes max(minRemaining, benchmark - spent), where spent is the larger of
// the days already recorded and the configured advance of the current status; later phases
// contribute their full benchmark. Results are ordered soonest first, then by pipeline progress.
func CalculateForecasts(tasks []ClassifiedTask, benchmarks []PhaseBenchmark, wf *workflow.Workflow, now time.Time) []Forecast {
	today := SnapToStart(now, BucketDay)
	var result []Forecast

	for _, ct := range tasks {
		idx, ok := wf.PhaseOf(ct.Task.Status)
		if !ok || idx >= len(benchmarks) {
			continue
		}

		f := Forecast{
			TaskID: ct.Task.ID,
			Name:   ct.Task.Name,
			Status: ct.Task.Status,
			Phase:  benchmarks[idx].Phase,
		}
		for i := idx; i < len(benchmarks); i++ {
			bench := benchmarks[i].Days
			if i > idx {
				f.RemainingDays += bench
				continue
			}
			advanced := int(math.Round(float64(bench) * wf.AdvanceOf(ct.Task.Status)))
			f.SpentDays = max(ct.PhaseDays[benchmarks[i].Phase], advanced)
			f.RemainingDays += max(wf.Windows.MinRemainingDays, bench-f.SpentDays)
		}
		f.ExpectedAt = today.AddDate(0, 0, f.RemainingDays)
		result = append(result, f)
	}

	slices.SortStableFunc(result, func(a, b Forecast) int {
		if c := cmp.Compare(a.RemainingDays, b.RemainingDays); c != 0 {
			return c
		}
		if c := cmp.Compare(wf.StatusRank(b.Status), wf.StatusRank(a.Status)); c != 0 {
			return c
		}
		return cmp.Compare(a.TaskID, b.TaskID)
	})

	return result
}
