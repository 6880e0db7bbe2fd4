package stats

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"flowcap/internal/tracker"
	"flowcap/internal/workflow"
)

func endToEndTasks() []tracker.Task {
	return []tracker.Task{
		openTask("a", "backlog", 10, "backlog", 10),
		openTask("b", "blocked", 70, "backlog", 50, "in progress", 20, "blocked", 0),
		openTask("c", "in progress", 95, "backlog", 45, "in progress", 30, "blocked", 10, "in progress", 10),
	}
}

func TestAnalyze_EndToEndScenario(t *testing.T) {
	wf := workflow.Default()
	snap := Analyze(endToEndTasks(), nil, wf, refDate)

	want := map[string]struct {
		bucket     string
		scenario   Scenario
		efficiency *int
	}{
		"a": {"0-30", ScenarioNotStarted, nil},
		"b": {"61-90", ScenarioBlocked, intPtr(100)},
		"c": {"90+", ScenarioActive, intPtr(80)},
	}

	if len(snap.Tasks) != 3 {
		t.Fatalf("len(Tasks) = %d, want 3", len(snap.Tasks))
	}
	for _, ct := range snap.Tasks {
		w := want[ct.Task.ID]
		bucket := snap.AgeBuckets[BucketIndex(wf.AgeBuckets, ct.AgeDays)].Label
		if bucket != w.bucket {
			t.Errorf("%s: bucket = %s, want %s", ct.Task.ID, bucket, w.bucket)
		}
		if ct.Scenario != w.scenario {
			t.Errorf("%s: scenario = %s, want %s", ct.Task.ID, ct.Scenario, w.scenario)
		}
		if !equalIntPtr(ct.FlowEfficiency, w.efficiency) {
			t.Errorf("%s: efficiency = %v, want %v", ct.Task.ID, fmtIntPtr(ct.FlowEfficiency), fmtIntPtr(w.efficiency))
		}
	}

	// Oldest first.
	if snap.Tasks[0].Task.ID != "c" || snap.Tasks[2].Task.ID != "a" {
		t.Errorf("task order = %s,%s,%s, want c,b,a", snap.Tasks[0].Task.ID, snap.Tasks[1].Task.ID, snap.Tasks[2].Task.ID)
	}

	crit := snap.Indicators.WIPCritical
	if crit.Count != 2 || crit.Total != 3 || crit.Pct != 67 || crit.Status != SeverityCritical {
		t.Errorf("WIPCritical = %+v, want 2/3 67%% critical", crit)
	}
	if snap.Indicators.Overall != SeverityCritical {
		t.Errorf("Overall = %s, want critical", snap.Indicators.Overall)
	}

	for _, sc := range snap.Scenarios {
		if sc.Count != 1 {
			t.Errorf("scenario %s count = %d, want 1", sc.Scenario, sc.Count)
		}
	}
	if eff := snap.Scenarios[0].AvgFlowEfficiency; eff != nil {
		t.Errorf("C1 average efficiency = %d, want nil", *eff)
	}
	if snap.WIP.Blocked != 1 || snap.WIP.OldestAge != 95 || snap.WIP.AvgAge != 58 {
		t.Errorf("WIP = %+v", snap.WIP)
	}
}

func TestAnalyze_OutlierMonthRoundTrip(t *testing.T) {
	wf := workflow.Default()

	var tasks []tracker.Task
	outlierMonth := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	for m := 0; m < 12; m++ {
		closed := time.Date(2025, 4+time.Month(m), 10, 9, 0, 0, 0, time.UTC)
		n := 11
		if closed.Equal(outlierMonth) {
			n = 379
		}
		for i := 0; i < n; i++ {
			c := closed
			tasks = append(tasks, tracker.Task{
				ID:        fmt.Sprintf("d-%d-%d", m, i),
				Status:    "done",
				CreatedAt: c.AddDate(0, 0, -20),
				ClosedAt:  &c,
			})
		}
	}

	snap := Analyze(tasks, nil, wf, refDate)

	var found bool
	for _, p := range snap.Monthly {
		if p.Month == "2026-01" {
			found = true
			if p.Exited != 379 || !p.Outlier {
				t.Errorf("2026-01 = %+v, want 379 exits flagged as outlier", p)
			}
		} else if p.Outlier {
			t.Errorf("%s unexpectedly flagged", p.Month)
		}
	}
	if !found {
		t.Fatal("2026-01 missing from series")
	}
	if len(snap.Monthly) != 12 {
		t.Errorf("len(Monthly) = %d, want 12", len(snap.Monthly))
	}

	if snap.Indicators.Flow.AvgOut != 11 {
		t.Errorf("AvgOut = %v, want 11", snap.Indicators.Flow.AvgOut)
	}
	if snap.Throughput.AvgMonthly != 11 {
		t.Errorf("AvgMonthly = %d, want 11", snap.Throughput.AvgMonthly)
	}
	if snap.Throughput.AvgWeekly != 2.5 {
		t.Errorf("AvgWeekly = %v, want 2.5", snap.Throughput.AvgWeekly)
	}
	if snap.Throughput.TotalCompleted != 11*11+379 {
		t.Errorf("TotalCompleted = %d", snap.Throughput.TotalCompleted)
	}

	wantIdeal := map[int]int{30: 11, 42: 15, 60: 22}
	for _, iw := range snap.IdealWIP {
		if iw.WIP != wantIdeal[iw.TargetDays] {
			t.Errorf("IdealWIP(%d) = %d, want %d", iw.TargetDays, iw.WIP, wantIdeal[iw.TargetDays])
		}
	}
	if snap.WIPLimit.Ideal != 15 || snap.WIPLimit.Max != 22 {
		t.Errorf("WIPLimit = %+v, want ideal 15 max 22", snap.WIPLimit)
	}

	// Tasks closed in the outlier month do not feed cycle statistics.
	if snap.Throughput.Cycle.MedianDays != 20 {
		t.Errorf("cycle median = %d, want 20", snap.Throughput.Cycle.MedianDays)
	}
}

func TestLittleWIP(t *testing.T) {
	tests := []struct {
		throughput, target, want int
	}{
		{11, 30, 11},
		{11, 42, 15},
		{11, 60, 22},
		{0, 60, 0},
		{7, 45, 11},
	}
	for _, tt := range tests {
		if got := LittleWIP(tt.throughput, tt.target); got != tt.want {
			t.Errorf("LittleWIP(%d, %d) = %d, want %d", tt.throughput, tt.target, got, tt.want)
		}
	}
}

func TestFlowRatio(t *testing.T) {
	tests := []struct {
		name          string
		avgIn, avgOut float64
		want          int
	}{
		{"Balanced", 10, 10, 100},
		{"NoExits", 5, 0, FlowRatioSaturated},
		{"NoExitsNoEntries", 0, 0, FlowRatioSaturated},
		{"Rounded", 14, 11, 127},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlowRatio(tt.avgIn, tt.avgOut); got != tt.want {
				t.Errorf("FlowRatio() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSeverityBands(t *testing.T) {
	th := workflow.Default().Thresholds

	flow := map[int]Severity{110: SeverityNormal, 111: SeverityAttention, 140: SeverityAttention, 141: SeverityCritical, FlowRatioSaturated: SeverityCritical}
	for ratio, want := range flow {
		if got := FlowSeverity(ratio, th); got != want {
			t.Errorf("FlowSeverity(%d) = %s, want %s", ratio, got, want)
		}
	}

	critical := map[int]Severity{0: SeverityNormal, 19: SeverityNormal, 20: SeverityAttention, 34: SeverityAttention, 35: SeverityCritical}
	for pct, want := range critical {
		if got := CriticalSeverity(pct, th); got != want {
			t.Errorf("CriticalSeverity(%d) = %s, want %s", pct, got, want)
		}
	}

	if got := Worst(SeverityNormal, SeverityAttention); got != SeverityAttention {
		t.Errorf("Worst() = %s, want attention", got)
	}
	if got := Worst(); got != SeverityNormal {
		t.Errorf("Worst() = %s, want normal", got)
	}
}

func TestAnalyze_FlowSaturation(t *testing.T) {
	wf := workflow.Default()
	tasks := []tracker.Task{
		openTask("n1", "backlog", 5, "backlog", 5),
		openTask("n2", "backlog", 3, "backlog", 3),
	}

	snap := Analyze(tasks, nil, wf, refDate)

	if snap.Indicators.Flow.Ratio != FlowRatioSaturated {
		t.Errorf("Ratio = %d, want %d", snap.Indicators.Flow.Ratio, FlowRatioSaturated)
	}
	if snap.Indicators.Flow.Status != SeverityCritical {
		t.Errorf("Status = %s, want critical", snap.Indicators.Flow.Status)
	}
}

func TestAnalyze_QuietWindowSaturates(t *testing.T) {
	wf := workflow.Default()
	closed := daysAgo(290)
	old := openTask("o", "done", 300, "in progress", 10)
	old.ClosedAt = &closed

	snap := Analyze([]tracker.Task{old}, nil, wf, refDate)

	if snap.Indicators.Flow.AvgIn != 0 || snap.Indicators.Flow.AvgOut != 0 {
		t.Fatalf("AvgIn/AvgOut = %v/%v, want 0/0", snap.Indicators.Flow.AvgIn, snap.Indicators.Flow.AvgOut)
	}
	if snap.Indicators.Flow.Ratio != FlowRatioSaturated {
		t.Errorf("Ratio = %d, want %d", snap.Indicators.Flow.Ratio, FlowRatioSaturated)
	}
}

func TestAnalyze_EmptyInputHasZeroFlowRatio(t *testing.T) {
	snap := Analyze(nil, nil, workflow.Default(), refDate)

	if snap.WIP.Total != 0 || snap.Indicators.WIPCritical.Pct != 0 || snap.Indicators.Flow.Ratio != 0 {
		t.Errorf("unexpected non-zero aggregates: %+v", snap.Indicators)
	}
	if snap.Indicators.Overall != SeverityNormal {
		t.Errorf("Overall = %s, want normal", snap.Indicators.Overall)
	}
	if snap.Throughput.AvgMonthly != 0 || snap.WIPLimit.CurrentVsMaxPct != 0 {
		t.Errorf("Throughput/WIPLimit = %+v/%+v", snap.Throughput, snap.WIPLimit)
	}
	for _, b := range snap.PhaseBenchmarks {
		if !b.Fallback || b.Samples != 0 {
			t.Errorf("benchmark %s = %+v, want fallback with 0 samples", b.Phase, b)
		}
	}
	if _, err := json.Marshal(snap); err != nil {
		t.Errorf("snapshot is not serializable: %v", err)
	}
}

func TestAnalyze_AsOfReplaysPast(t *testing.T) {
	wf := workflow.Default()
	closed := daysAgo(5)
	task := openTask("p", "done", 40, "backlog", 10, "in progress", 25)
	task.ClosedAt = &closed
	later := openTask("late", "backlog", 2, "backlog", 2)

	snap := Analyze([]tracker.Task{task, later}, nil, wf, daysAgo(20))

	if len(snap.Tasks) != 1 {
		t.Fatalf("len(Tasks) = %d, want 1", len(snap.Tasks))
	}
	ct := snap.Tasks[0]
	if ct.Task.ID != "p" || ct.Task.Status != "in progress" || ct.Task.IsClosed() {
		t.Errorf("replayed task = %+v", ct.Task)
	}
	if ct.AgeDays != 20 || ct.WorkDays != 10 {
		t.Errorf("AgeDays/WorkDays = %d/%d, want 20/10", ct.AgeDays, ct.WorkDays)
	}
}

func TestAnalyze_UnavailableAndUnmapped(t *testing.T) {
	wf := workflow.Default()
	tasks := []tracker.Task{
		{ID: "u", Status: "in progress", CreatedAt: daysAgo(3), HistoryUnavailable: true},
		openTask("m", "in progress", 6, "triage", 2, "in progress", 4),
		{ID: "x", Status: "cancelled", CreatedAt: daysAgo(3)},
	}

	snap := Analyze(tasks, nil, wf, refDate)

	if snap.WIP.Total != 2 {
		t.Errorf("WIP.Total = %d, want 2 (cancelled excluded)", snap.WIP.Total)
	}
	if len(snap.UnavailableTasks) != 1 || snap.UnavailableTasks[0] != "u" {
		t.Errorf("UnavailableTasks = %v, want [u]", snap.UnavailableTasks)
	}
	if len(snap.UnmappedStatuses) != 1 || snap.UnmappedStatuses[0] != "triage" {
		t.Errorf("UnmappedStatuses = %v, want [triage]", snap.UnmappedStatuses)
	}
}

func intPtr(v int) *int { return &v }

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func fmtIntPtr(p *int) string {
	if p == nil {
		return "nil"
	}
	return fmt.Sprint(*p)
}
