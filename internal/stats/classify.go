package stats

import (
	"math"
	"slices"
	"strings"
	"time"

	"flowcap/internal/tracker"
	"flowcap/internal/workflow"
)

const minutesPerDay = 1440

// Classify reduces one task's status history to group and phase day totals.
// It never fails: a task without history yields zero durations and ScenarioNotStarted.
func Classify(task tracker.Task, wf *workflow.Workflow, now time.Time) ClassifiedTask {
	ct := ClassifiedTask{
		Task:      task,
		AgeDays:   task.AgeDays(now),
		PhaseDays: make(map[string]int, len(wf.Phases)),
		IsBlocked: wf.IsBlocked(task.Status),
		Tag:       extractTag(task.Tags, wf.TagPrefix),
	}
	if idx, ok := wf.PhaseOf(task.Status); ok {
		ct.CurrentPhase = wf.Phases[idx].Name
	}

	// work, blocked, queue
	var groupMin [3]int64
	phaseMin := make([]int64, len(wf.Phases))
	unmapped := make(map[string]bool)

	for _, iv := range task.History {
		minutes := max(iv.DurationMinutes, 0)

		switch wf.GroupOf(iv.Status) {
		case workflow.GroupWork:
			groupMin[0] += minutes
		case workflow.GroupBlocked:
			groupMin[1] += minutes
		case workflow.GroupQueue:
			groupMin[2] += minutes
		default:
			unmapped[workflow.Normalize(iv.Status)] = true
		}

		if idx, ok := wf.PhaseOf(iv.Status); ok {
			phaseMin[idx] += minutes
		}
	}

	ct.WorkDays = minutesToDays(groupMin[0])
	ct.BlockedDays = minutesToDays(groupMin[1])
	ct.QueueDays = minutesToDays(groupMin[2])

	for i, p := range wf.Phases {
		ct.PhaseDays[p.Name] = minutesToDays(phaseMin[i])
	}

	if touched := ct.WorkDays + ct.BlockedDays; touched > 0 {
		eff := int(math.Round(float64(ct.WorkDays) / float64(touched) * 100))
		ct.FlowEfficiency = &eff
	}

	switch {
	case ct.WorkDays == 0:
		ct.Scenario = ScenarioNotStarted
	case ct.IsBlocked:
		ct.Scenario = ScenarioBlocked
	default:
		ct.Scenario = ScenarioActive
	}

	// AgeDays stays creation-based; group totals that do not fit inside it are reported as excess.
	classified := ct.WorkDays + ct.BlockedDays + ct.QueueDays
	if classified > ct.AgeDays {
		ct.HistoryExcessDays = classified - ct.AgeDays
	} else {
		ct.UnclassifiedDays = ct.AgeDays - classified
	}

	if n := len(task.History); n > 0 {
		last := task.History[n-1]
		if workflow.Normalize(last.Status) == workflow.Normalize(task.Status) {
			ct.CurrentStatusDays = minutesToDays(last.DurationMinutes)
		}
	}

	for s := range unmapped {
		ct.UnmappedStatuses = append(ct.UnmappedStatuses, s)
	}
	slices.Sort(ct.UnmappedStatuses)

	return ct
}

// ClassifyAll classifies every task in order.
func ClassifyAll(tasks []tracker.Task, wf *workflow.Workflow, now time.Time) []ClassifiedTask {
	out := make([]ClassifiedTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Classify(t, wf, now))
	}
	return out
}

func minutesToDays(minutes int64) int {
	if minutes <= 0 {
		return 0
	}
	return int(math.Round(float64(minutes) / minutesPerDay))
}

// extractTag returns the first tag carrying the prefix, with the prefix and separators stripped.
func extractTag(tags []string, prefix string) string {
	if prefix == "" {
		return ""
	}
	for _, tag := range tags {
		trimmed := strings.TrimLeft(strings.TrimSpace(tag), ":")
		if len(trimmed) < len(prefix) || !strings.EqualFold(trimmed[:len(prefix)], prefix) {
			continue
		}
		if rest := strings.TrimLeft(trimmed[len(prefix):], ": "); rest != "" {
			return strings.TrimSpace(rest)
		}
		return tag
	}
	return ""
}
