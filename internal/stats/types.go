package stats

import (
	"time"

	"flowcap/internal/tracker"
)

// Severity is the traffic-light status attached to every indicator.
type Severity string

const (
	SeverityNormal    Severity = "normal"
	SeverityAttention Severity = "attention"
	SeverityCritical  Severity = "critical"
)

// Rank orders severities so the worst one can be selected.
func (s Severity) Rank() int {
	switch s {
	case SeverityAttention:
		return 1
	case SeverityCritical:
		return 2
	default:
		return 0
	}
}

// Worst returns the highest-ranked severity, normal for no input.
func Worst(levels ...Severity) Severity {
	worst := SeverityNormal
	for _, s := range levels {
		if s.Rank() > worst.Rank() {
			worst = s
		}
	}
	return worst
}

// Scenario tags where a task stands in the pipeline.
type Scenario string

const (
	// ScenarioNotStarted has no recorded active work.
	ScenarioNotStarted Scenario = "C1"
	// ScenarioBlocked did work and is now in a blocked status.
	ScenarioBlocked Scenario = "C2"
	// ScenarioActive did work and is not blocked.
	ScenarioActive Scenario = "C3"
)

// Scenarios lists the scenarios in display order.
var Scenarios = []Scenario{ScenarioNotStarted, ScenarioBlocked, ScenarioActive}

// Label returns a short human description of the scenario.
func (s Scenario) Label() string {
	switch s {
	case ScenarioNotStarted:
		return "Waiting to start"
	case ScenarioBlocked:
		return "In progress, blocked"
	case ScenarioActive:
		return "In progress, active"
	default:
		return string(s)
	}
}

// ClassifiedTask is a task with its history reduced to day totals.
type ClassifiedTask struct {
	Task tracker.Task `json:"task"`

	AgeDays          int            `json:"age_days"`
	WorkDays         int            `json:"work_days"`
	BlockedDays      int            `json:"blocked_days"`
	QueueDays        int            `json:"queue_days"`
	UnclassifiedDays int            `json:"unclassified_days"`
	PhaseDays        map[string]int `json:"phase_days"`

	// HistoryExcessDays is how far the rounded group totals run past AgeDays.
	HistoryExcessDays int `json:"history_excess_days,omitempty"`

	// FlowEfficiency is nil when the task never entered a work or blocked status.
	FlowEfficiency *int     `json:"flow_efficiency"`
	Scenario       Scenario `json:"scenario"`
	IsBlocked      bool     `json:"is_blocked"`

	CurrentPhase      string   `json:"current_phase,omitempty"`
	CurrentStatusDays int      `json:"current_status_days"`
	Tag               string   `json:"tag,omitempty"`
	UnmappedStatuses  []string `json:"unmapped_statuses,omitempty"`
}

// AgeBucket counts open tasks whose age falls within [Min, Max]. Max is -1 for the open-ended bucket.
type AgeBucket struct {
	Label    string   `json:"label"`
	Min      int      `json:"min"`
	Max      int      `json:"max"`
	Count    int      `json:"count"`
	Critical bool     `json:"critical"`
	TaskIDs  []string `json:"task_ids,omitempty"`
}

// ScenarioStat summarizes the open tasks of one scenario.
type ScenarioStat struct {
	Scenario          Scenario `json:"scenario"`
	Label             string   `json:"label"`
	Count             int      `json:"count"`
	SharePct          int      `json:"share_pct"`
	CriticalCount     int      `json:"critical_count"`
	AvgFlowEfficiency *int     `json:"avg_flow_efficiency"`
}

// GroupBuckets holds, per status group, the age-bucket distribution of time spent in it.
type GroupBuckets struct {
	Group   string      `json:"group"`
	Buckets []AgeBucket `json:"buckets"`
}

// MonthPoint is one calendar month of the entry/exit series.
type MonthPoint struct {
	Month   string `json:"month"`
	Label   string `json:"label"`
	Entered int    `json:"entered"`
	Exited  int    `json:"exited"`
	Net     int    `json:"net"`
	Tickets int    `json:"tickets"`
	Outlier bool   `json:"outlier"`
}

// FlowIndicator compares arrivals with departures.
type FlowIndicator struct {
	AvgIn       float64  `json:"avg_in"`
	AvgOut      float64  `json:"avg_out"`
	InMonths    int      `json:"in_months"`
	OutMonths   int      `json:"out_months"`
	Ratio       int      `json:"ratio"`
	NetPerMonth float64  `json:"net_per_month"`
	Status      Severity `json:"status"`
}

// CriticalIndicator is the share of open tasks in the critical age buckets.
type CriticalIndicator struct {
	Count  int      `json:"count"`
	Total  int      `json:"total"`
	Pct    int      `json:"pct"`
	Status Severity `json:"status"`
}

// Indicators are the headline health figures.
type Indicators struct {
	Flow        FlowIndicator     `json:"flow"`
	WIPCritical CriticalIndicator `json:"wip_critical"`
	Overall     Severity          `json:"overall_status"`
}

// CycleStats describes recent completions.
type CycleStats struct {
	WindowDays int `json:"window_days"`
	Samples    int `json:"samples"`
	AvgDays    int `json:"avg_days"`
	MedianDays int `json:"median_days"`
	P85Days    int `json:"p85_days"`
}

// Throughput summarizes delivery volume.
type Throughput struct {
	AvgMonthly     int        `json:"avg_monthly"`
	AvgWeekly      float64    `json:"avg_weekly"`
	TotalCompleted int        `json:"total_completed"`
	Cycle          CycleStats `json:"cycle"`
	Stability      string     `json:"stability"`
	UNPL           float64    `json:"unpl"`
}

// IdealWIP is the Little's Law WIP for one target cycle time.
type IdealWIP struct {
	TargetDays int `json:"target_days"`
	WIP        int `json:"wip"`
}

// WIPLimit compares current WIP with the derived limits.
type WIPLimit struct {
	Ideal           int `json:"ideal"`
	Max             int `json:"max"`
	Current         int `json:"current"`
	OverBy          int `json:"over_by"`
	CurrentVsMaxPct int `json:"current_vs_max_pct"`
}

// WIPSummary describes the open population.
type WIPSummary struct {
	Total      int            `json:"total"`
	Blocked    int            `json:"blocked"`
	BlockedPct int            `json:"blocked_pct"`
	AvgAge     int            `json:"avg_age"`
	OldestAge  int            `json:"oldest_age"`
	ByStatus   map[string]int `json:"by_status"`
}

// PhaseBenchmark is the typical duration of a phase.
type PhaseBenchmark struct {
	Phase    string `json:"phase"`
	Label    string `json:"label"`
	Days     int    `json:"days"`
	Samples  int    `json:"samples"`
	Fallback bool   `json:"fallback"`
}

// Forecast estimates the remaining time of one open task.
type Forecast struct {
	TaskID        string    `json:"task_id"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	Phase         string    `json:"phase"`
	SpentDays     int       `json:"spent_days"`
	RemainingDays int       `json:"remaining_days"`
	ExpectedAt    time.Time `json:"expected_at"`
}

// TagStat groups open tasks by tag.
type TagStat struct {
	Tag     string `json:"tag"`
	Total   int    `json:"total"`
	Blocked int    `json:"blocked"`
	AvgAge  int    `json:"avg_age"`
}

// WIPBand relates the WIP present when a task started to its cycle time.
type WIPBand struct {
	Label          string `json:"label"`
	Min            int    `json:"min"`
	Max            int    `json:"max"`
	Samples        int    `json:"samples"`
	MedianDays     int    `json:"median_days"`
	AvgDays        int    `json:"avg_days"`
	FastPct        int    `json:"fast_pct"`
	SlowPct        int    `json:"slow_pct"`
	DegradationPct int    `json:"degradation_pct"`
}

// CapacitySnapshot is the complete output of one analysis run.
type CapacitySnapshot struct {
	RunID         string    `json:"run_id,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
	ReferenceDate time.Time `json:"reference_date"`

	WIP          WIPSummary        `json:"wip"`
	AgeBuckets   []AgeBucket       `json:"age_buckets"`
	Scenarios    []ScenarioStat    `json:"scenarios"`
	GroupBuckets []GroupBuckets    `json:"group_buckets"`
	Monthly      []MonthPoint      `json:"monthly"`
	Cadence      []DeliveryCadence `json:"cadence"`

	Throughput Throughput `json:"throughput"`
	Indicators Indicators `json:"indicators"`
	IdealWIP   []IdealWIP `json:"ideal_wip"`
	WIPLimit   WIPLimit   `json:"wip_limit"`

	PhaseBenchmarks []PhaseBenchmark `json:"phase_benchmarks"`
	Forecasts       []Forecast       `json:"forecasts"`
	TagBreakdown    []TagStat        `json:"tag_breakdown,omitempty"`
	WIPCycleBands   []WIPBand        `json:"wip_cycle_bands"`

	Tasks            []ClassifiedTask `json:"tasks"`
	UnavailableTasks []string         `json:"unavailable_tasks,omitempty"`
	UnmappedStatuses []string         `json:"unmapped_statuses,omitempty"`
}
