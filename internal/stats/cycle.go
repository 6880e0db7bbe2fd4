package stats

import (
	"math"
	"time"

	"flowcap/internal/tracker"
)

const (
	fastCycleDays = 30
	slowCycleDays = 60
	maxCycleDays  = 365
)

var wipBandLayout = []struct {
	label    string
	min, max int
}{
	{"0-10", 0, 10},
	{"11-15", 11, 15},
	{"16-20", 16, 20},
	{"21-25", 21, 25},
	{"26-30", 26, 30},
	{"31-40", 31, 40},
	{"41-50", 41, 50},
	{"51+", 51, -1},
}

// CalculateCycleStats summarizes cycle times of tasks closed in the trailing window.
// Tasks closed in outlier months are skipped.
func CalculateCycleStats(done []tracker.Task, outliers map[string]bool, ref time.Time, windowDays int) CycleStats {
	cutoff := ref.AddDate(0, 0, -windowDays)
	var cycles []int
	for _, t := range done {
		if t.ClosedAt == nil || t.ClosedAt.Before(cutoff) || t.ClosedAt.After(ref) {
			continue
		}
		if outliers[MonthKey(*t.ClosedAt)] {
			continue
		}
		if c := t.CycleDays(); c >= 0 {
			cycles = append(cycles, c)
		}
	}

	return CycleStats{
		WindowDays: windowDays,
		Samples:    len(cycles),
		AvgDays:    int(math.Round(MeanInt(cycles))),
		MedianDays: int(math.Round(CalculateMedianDiscrete(cycles))),
		P85Days:    CalculatePercentileDiscrete(cycles, 85),
	}
}

// CalculateWIPCycleBands relates the WIP open when each done task was created to its cycle time.
// WIP at creation counts the other done tasks that were open at that instant.
func CalculateWIPCycleBands(done []tracker.Task, outliers map[string]bool) []WIPBand {
	type sample struct {
		created, closed time.Time
		cycle, wip      int
	}
	var samples []sample
	for _, t := range done {
		if t.ClosedAt == nil || t.CreatedAt.IsZero() || outliers[MonthKey(*t.ClosedAt)] {
			continue
		}
		c := t.CycleDays()
		if c < 0 || c >= maxCycleDays {
			continue
		}
		samples = append(samples, sample{created: t.CreatedAt, closed: *t.ClosedAt, cycle: c})
	}

	for i := range samples {
		for j := range samples {
			if i == j {
				continue
			}
			if !samples[j].created.After(samples[i].created) && !samples[j].closed.Before(samples[i].created) {
				samples[i].wip++
			}
		}
	}

	var bands []WIPBand
	baseline := 0
	for _, layout := range wipBandLayout {
		var cycles []int
		fast, slow := 0, 0
		for _, s := range samples {
			if s.wip < layout.min || (layout.max >= 0 && s.wip > layout.max) {
				continue
			}
			cycles = append(cycles, s.cycle)
			if s.cycle <= fastCycleDays {
				fast++
			}
			if s.cycle > slowCycleDays {
				slow++
			}
		}
		if len(cycles) == 0 {
			continue
		}

		band := WIPBand{
			Label:      layout.label,
			Min:        layout.min,
			Max:        layout.max,
			Samples:    len(cycles),
			MedianDays: int(math.Round(CalculateMedianDiscrete(cycles))),
			AvgDays:    int(math.Round(MeanInt(cycles))),
			FastPct:    Percent(fast, len(cycles)),
			SlowPct:    Percent(slow, len(cycles)),
		}
		if len(bands) == 0 {
			baseline = band.MedianDays
		}
		if baseline > 0 {
			band.DegradationPct = int(math.Round(float64(band.MedianDays-baseline) / float64(baseline) * 100))
		}
		bands = append(bands, band)
	}

	return bands
}
