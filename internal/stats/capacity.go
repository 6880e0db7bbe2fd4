package stats

import (
	"cmp"
	"math"
	"slices"
	"time"

	"flowcap/internal/tracker"
	"flowcap/internal/workflow"
)

// Analyze builds the capacity snapshot for the pipeline as it stood at ref.
// Tasks are clipped to ref first, so a past reference date replays the pipeline of that day.
func Analyze(tasks, tickets []tracker.Task, wf *workflow.Workflow, ref time.Time) CapacitySnapshot {
	ref = ref.UTC()

	pop := SplitPopulation(clipTasks(tasks, ref), wf)
	open := ClassifyAll(pop.Open, wf, ref)
	slices.SortStableFunc(open, func(a, b ClassifiedTask) int {
		if c := cmp.Compare(b.AgeDays, a.AgeDays); c != 0 {
			return c
		}
		return cmp.Compare(a.Task.ID, b.Task.ID)
	})

	series := BuildMonthlySeries(pop, clipTasks(tickets, ref), wf, ref)

	return Aggregate(open, pop.Done, series, wf, ref)
}

// Aggregate derives every cross-task figure from classified open tasks, done tasks and the monthly series.
func Aggregate(open []ClassifiedTask, done []tracker.Task, series []MonthPoint, wf *workflow.Workflow, ref time.Time) CapacitySnapshot {
	buckets := CalculateAgeBuckets(open, wf.AgeBuckets)
	outliers := OutlierMonths(series)

	flow := CalculateFlowIndicator(series, wf)
	critical := CalculateCriticalIndicator(buckets, len(open), wf.Thresholds)

	avgOut, _ := TrailingMean(series, wf.Windows.OutMonths, exited)
	monthly := int(math.Round(avgOut))

	var steadyExits []int
	for _, p := range series {
		if !p.Outlier {
			steadyExits = append(steadyExits, p.Exited)
		}
	}
	stability, unpl := ThroughputStability(steadyExits)

	benchmarks := CalculatePhaseBenchmarks(open, wf)

	snap := CapacitySnapshot{
		ReferenceDate: ref,
		WIP:           CalculateWIPSummary(open),
		AgeBuckets:    buckets,
		Scenarios:     CalculateScenarioStats(open, wf.AgeBuckets),
		GroupBuckets:  CalculateGroupBuckets(open, wf.AgeBuckets),
		Monthly:       series,
		Cadence:       CalculateDeliveryCadence(done, ref, wf.Windows.CadenceWeeks),
		Throughput: Throughput{
			AvgMonthly:     monthly,
			AvgWeekly:      RoundTo(avgOut*12/52, 1),
			TotalCompleted: len(done),
			Cycle:          CalculateCycleStats(done, outliers, ref, wf.Windows.CycleDays),
			Stability:      stability,
			UNPL:           unpl,
		},
		Indicators: Indicators{
			Flow:        flow,
			WIPCritical: critical,
			Overall:     Worst(flow.Status, critical.Status),
		},
		IdealWIP:        CalculateIdealWIP(monthly, wf.WIP.Days),
		WIPLimit:        CalculateWIPLimit(monthly, len(open), wf.WIP),
		PhaseBenchmarks: benchmarks,
		Forecasts:       CalculateForecasts(open, benchmarks, wf, ref),
		TagBreakdown:    CalculateTagBreakdown(open, wf.TagPrefix),
		WIPCycleBands:   CalculateWIPCycleBands(done, outliers),
		Tasks:           open,
	}

	unmapped := make(map[string]bool)
	for _, ct := range open {
		if ct.Task.HistoryUnavailable {
			snap.UnavailableTasks = append(snap.UnavailableTasks, ct.Task.ID)
		}
		for _, s := range ct.UnmappedStatuses {
			unmapped[s] = true
		}
	}
	for s := range unmapped {
		snap.UnmappedStatuses = append(snap.UnmappedStatuses, s)
	}
	slices.Sort(snap.UnmappedStatuses)

	return snap
}

// CalculateScenarioStats counts open tasks per scenario with their mean flow efficiency.
func CalculateScenarioStats(open []ClassifiedTask, bounds []int) []ScenarioStat {
	layout := NewAgeBuckets(bounds)
	result := make([]ScenarioStat, 0, len(Scenarios))

	for _, sc := range Scenarios {
		st := ScenarioStat{Scenario: sc, Label: sc.Label()}
		var effs []int
		for _, ct := range open {
			if ct.Scenario != sc {
				continue
			}
			st.Count++
			if layout[BucketIndex(bounds, ct.AgeDays)].Critical {
				st.CriticalCount++
			}
			if ct.FlowEfficiency != nil {
				effs = append(effs, *ct.FlowEfficiency)
			}
		}
		st.SharePct = Percent(st.Count, len(open))
		if len(effs) > 0 {
			avg := int(math.Round(MeanInt(effs)))
			st.AvgFlowEfficiency = &avg
		}
		result = append(result, st)
	}

	return result
}

func clipTasks(tasks []tracker.Task, ref time.Time) []tracker.Task {
	out := make([]tracker.Task, 0, len(tasks))
	for _, t := range tasks {
		if clipped, ok := t.AsOf(ref); ok {
			out = append(out, clipped)
		}
	}
	return out
}
