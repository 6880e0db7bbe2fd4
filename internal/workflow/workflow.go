package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Group is the coarse classification of a status.
type Group string

const (
	GroupWork    Group = "work"
	GroupBlocked Group = "blocked"
	GroupQueue   Group = "queue"
	GroupNone    Group = ""
)

// Phase is one step of the ordered delivery pipeline.
type Phase struct {
	Name        string   `yaml:"name" toml:"name" json:"name"`
	Label       string   `yaml:"label" toml:"label" json:"label"`
	DefaultDays int      `yaml:"default_days" toml:"default_days" json:"default_days"`
	Statuses    []string `yaml:"statuses" toml:"statuses" json:"statuses"`
}

// Outlier configures detection of anomalous exit months.
type Outlier struct {
	Method   string  `yaml:"method" toml:"method" json:"method"`
	MaxExits int     `yaml:"max_exits" toml:"max_exits" json:"max_exits"`
	ZLimit   float64 `yaml:"z_limit" toml:"z_limit" json:"z_limit"`
}

const (
	OutlierThreshold = "threshold"
	OutlierZScore    = "zscore"
	OutlierXmR       = "xmr"
)

// Thresholds hold the upper bounds of the normal and attention bands.
type Thresholds struct {
	FlowNormal        int `yaml:"flow_normal" toml:"flow_normal" json:"flow_normal"`
	FlowAttention     int `yaml:"flow_attention" toml:"flow_attention" json:"flow_attention"`
	CriticalNormal    int `yaml:"critical_normal" toml:"critical_normal" json:"critical_normal"`
	CriticalAttention int `yaml:"critical_attention" toml:"critical_attention" json:"critical_attention"`
}

// WIPTargets are the cycle-time targets used for Little's Law.
type WIPTargets struct {
	Days  []int `yaml:"days" toml:"days" json:"days"`
	Ideal int   `yaml:"ideal" toml:"ideal" json:"ideal"`
	Max   int   `yaml:"max" toml:"max" json:"max"`
}

// Windows are the trailing windows used by the rolling averages.
type Windows struct {
	SeriesMonths     int `yaml:"series_months" toml:"series_months" json:"series_months"`
	InMonths         int `yaml:"in_months" toml:"in_months" json:"in_months"`
	OutMonths        int `yaml:"out_months" toml:"out_months" json:"out_months"`
	CycleDays        int `yaml:"cycle_days" toml:"cycle_days" json:"cycle_days"`
	CadenceWeeks     int `yaml:"cadence_weeks" toml:"cadence_weeks" json:"cadence_weeks"`
	MinSamples       int `yaml:"min_samples" toml:"min_samples" json:"min_samples"`
	MinRemainingDays int `yaml:"min_remaining_days" toml:"min_remaining_days" json:"min_remaining_days"`
}

// Workflow is the status vocabulary and tuning for one tracker list.
// Call Validate before using the lookup methods.
type Workflow struct {
	Work     []string `yaml:"work" toml:"work" json:"work"`
	Blocked  []string `yaml:"blocked" toml:"blocked" json:"blocked"`
	Queue    []string `yaml:"queue" toml:"queue" json:"queue"`
	Excluded []string `yaml:"excluded" toml:"excluded" json:"excluded"`

	Phases []Phase `yaml:"phases" toml:"phases" json:"phases"`

	// Advance is the fraction of a phase benchmark assumed spent on reaching a status.
	Advance map[string]float64 `yaml:"advance" toml:"advance" json:"advance,omitempty"`

	AgeBuckets []int      `yaml:"age_buckets" toml:"age_buckets" json:"age_buckets"`
	Outlier    Outlier    `yaml:"outlier" toml:"outlier" json:"outlier"`
	Thresholds Thresholds `yaml:"thresholds" toml:"thresholds" json:"thresholds"`
	WIP        WIPTargets `yaml:"wip" toml:"wip" json:"wip"`
	Windows    Windows    `yaml:"windows" toml:"windows" json:"windows"`

	TagPrefix string `yaml:"tag_prefix" toml:"tag_prefix" json:"tag_prefix,omitempty"`

	groups     map[string]Group
	phases     map[string]int
	excluded   map[string]bool
	statusRank map[string]int
}

// Default returns a generic software-delivery workflow.
func Default() *Workflow {
	wf := &Workflow{
		Work:     []string{"in progress", "in review", "testing"},
		Blocked:  []string{"blocked", "waiting on customer"},
		Queue:    []string{"open", "to do", "backlog", "ready"},
		Excluded: []string{"cancelled", "archived"},
		Phases: []Phase{
			{Name: "queue", Label: "Queue", DefaultDays: 28, Statuses: []string{"open", "to do", "backlog", "ready"}},
			{Name: "build", Label: "Build", DefaultDays: 18, Statuses: []string{"in progress", "blocked"}},
			{Name: "review", Label: "Review", DefaultDays: 14, Statuses: []string{"in review", "testing", "waiting on customer"}},
		},
		Advance: map[string]float64{
			"testing":             0.5,
			"waiting on customer": 0.7,
		},
	}
	wf.applyDefaults()
	if err := wf.Validate(); err != nil {
		panic(fmt.Sprintf("default workflow is invalid: %v", err))
	}
	return wf
}

func (wf *Workflow) applyDefaults() {
	if len(wf.AgeBuckets) == 0 {
		wf.AgeBuckets = []int{30, 60, 90}
	}
	if wf.Outlier.Method == "" {
		wf.Outlier.Method = OutlierThreshold
	}
	if wf.Outlier.MaxExits == 0 {
		wf.Outlier.MaxExits = 50
	}
	if wf.Outlier.ZLimit == 0 {
		wf.Outlier.ZLimit = 3
	}
	if wf.Thresholds == (Thresholds{}) {
		wf.Thresholds = Thresholds{FlowNormal: 110, FlowAttention: 140, CriticalNormal: 20, CriticalAttention: 35}
	}
	if len(wf.WIP.Days) == 0 {
		wf.WIP.Days = []int{30, 42, 60}
	}
	if wf.WIP.Ideal == 0 {
		wf.WIP.Ideal = 42
	}
	if wf.WIP.Max == 0 {
		wf.WIP.Max = 60
	}
	w := &wf.Windows
	if w.SeriesMonths == 0 {
		w.SeriesMonths = 12
	}
	if w.InMonths == 0 {
		w.InMonths = 3
	}
	if w.OutMonths == 0 {
		w.OutMonths = 6
	}
	if w.CycleDays == 0 {
		w.CycleDays = 180
	}
	if w.CadenceWeeks == 0 {
		w.CadenceWeeks = 12
	}
	if w.MinSamples == 0 {
		w.MinSamples = 3
	}
	if w.MinRemainingDays == 0 {
		w.MinRemainingDays = 3
	}
}

// Validate checks the vocabulary for consistency and builds the lookup tables.
// All problems are reported together.
func (wf *Workflow) Validate() error {
	var errs []error

	wf.groups = make(map[string]Group)
	wf.phases = make(map[string]int)
	wf.excluded = make(map[string]bool)
	wf.statusRank = make(map[string]int)

	assign := func(statuses []string, g Group) {
		for _, s := range statuses {
			key := Normalize(s)
			if key == "" {
				errs = append(errs, fmt.Errorf("empty status name in %s group", g))
				continue
			}
			if prev, ok := wf.groups[key]; ok && prev != g {
				errs = append(errs, fmt.Errorf("status %q is mapped to both %s and %s", s, prev, g))
				continue
			}
			wf.groups[key] = g
		}
	}
	assign(wf.Work, GroupWork)
	assign(wf.Blocked, GroupBlocked)
	assign(wf.Queue, GroupQueue)

	for _, s := range wf.Excluded {
		key := Normalize(s)
		if g, ok := wf.groups[key]; ok {
			errs = append(errs, fmt.Errorf("excluded status %q is also mapped to %s", s, g))
		}
		wf.excluded[key] = true
	}

	if len(wf.Phases) == 0 {
		errs = append(errs, errors.New("at least one phase is required"))
	}
	names := make(map[string]bool)
	rank := 0
	for i, p := range wf.Phases {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("phase %d has no name", i))
		}
		if names[p.Name] {
			errs = append(errs, fmt.Errorf("phase %q is declared twice", p.Name))
		}
		names[p.Name] = true
		if p.DefaultDays < 0 {
			errs = append(errs, fmt.Errorf("phase %q has negative default_days", p.Name))
		}
		for _, s := range p.Statuses {
			key := Normalize(s)
			if prev, ok := wf.phases[key]; ok && prev != i {
				errs = append(errs, fmt.Errorf("status %q belongs to phases %q and %q", s, wf.Phases[prev].Name, p.Name))
				continue
			}
			wf.phases[key] = i
			wf.statusRank[key] = rank
			rank++
		}
	}

	for i := 1; i < len(wf.AgeBuckets); i++ {
		if wf.AgeBuckets[i] <= wf.AgeBuckets[i-1] {
			errs = append(errs, fmt.Errorf("age_buckets must be strictly increasing, got %v", wf.AgeBuckets))
			break
		}
	}

	switch wf.Outlier.Method {
	case OutlierThreshold, OutlierZScore, OutlierXmR:
	default:
		errs = append(errs, fmt.Errorf("unknown outlier method %q", wf.Outlier.Method))
	}

	for s, f := range wf.Advance {
		if f < 0 || f > 1 {
			errs = append(errs, fmt.Errorf("advance for %q must be within [0, 1], got %v", s, f))
		}
	}

	return errors.Join(errs...)
}

// Normalize folds a status label for lookups.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// GroupOf returns the group a status belongs to, or GroupNone when unmapped.
func (wf *Workflow) GroupOf(status string) Group {
	return wf.groups[Normalize(status)]
}

// IsBlocked reports whether a status is in the blocked group.
func (wf *Workflow) IsBlocked(status string) bool {
	return wf.GroupOf(status) == GroupBlocked
}

// IsExcluded reports whether a status is outside the analysed population.
func (wf *Workflow) IsExcluded(status string) bool {
	return wf.excluded[Normalize(status)]
}

// PhaseOf returns the index of the phase a status belongs to.
func (wf *Workflow) PhaseOf(status string) (int, bool) {
	idx, ok := wf.phases[Normalize(status)]
	return idx, ok
}

// StatusRank orders statuses by their position across the phase list.
// Unknown statuses rank last.
func (wf *Workflow) StatusRank(status string) int {
	if r, ok := wf.statusRank[Normalize(status)]; ok {
		return r
	}
	return len(wf.statusRank)
}

// AdvanceOf returns the configured progress fraction for a status, zero when unset.
func (wf *Workflow) AdvanceOf(status string) float64 {
	key := Normalize(status)
	for s, f := range wf.Advance {
		if Normalize(s) == key {
			return f
		}
	}
	return 0
}

// PhaseNames returns the phase names in pipeline order.
func (wf *Workflow) PhaseNames() []string {
	names := make([]string, len(wf.Phases))
	for i, p := range wf.Phases {
		names[i] = p.Name
	}
	return names
}
