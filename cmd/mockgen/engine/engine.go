package engine

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"flowcap/internal/store"
	"flowcap/internal/tracker"
)

// GeneratorConfig controls the synthetic pipeline.
type GeneratorConfig struct {
	Scenario     string // "mild", "blocked" or "migration"
	Distribution string // "uniform" or "weibull"
	Count        int
	Tickets      int
	Seed         int64
	Now          time.Time
}

// Dataset is what Generate produces: the pipeline tasks and the side list of tickets.
type Dataset struct {
	Tasks   []tracker.Task
	Tickets []tracker.Task
	// MigrationDay is set for the migration scenario.
	MigrationDay time.Time
}

type segment struct {
	status string
	until  float64 // share of the total cycle time
}

var tags = []string{"backend", "frontend", "infra", "data"}

// Generate builds one task per day ending at cfg.Now. Every task walks backlog, in progress
// and in review, and closes once its sampled cycle time has passed.
func Generate(cfg GeneratorConfig) Dataset {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now().UTC()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	var ds Dataset
	tArrival := cfg.Now.AddDate(0, 0, -cfg.Count)

	for i := 0; i < cfg.Count; i++ {
		arrival := tArrival.Add(time.Duration(i*24) * time.Hour)

		var total float64
		if cfg.Distribution == "weibull" {
			total = weibullSample(rng, 1.6, 45)
		} else {
			// Uniform baseline: 30-70 days
			total = 30 + rng.Float64()*40
		}

		path := []segment{{"backlog", 0.45}, {"in progress", 0.75}, {"in review", 1}}
		if cfg.Scenario == "blocked" && rng.Float64() < 0.4 {
			path = []segment{{"backlog", 0.35}, {"in progress", 0.5}, {"blocked", 0.8}, {"in progress", 0.9}, {"in review", 1}}
			total *= 1.5
		}

		task := tracker.Task{
			ID:        fmt.Sprintf("mock%04d", i+1),
			Name:      fmt.Sprintf("Synthetic task %d", i+1),
			CreatedAt: arrival,
			Tags:      []string{tags[i%len(tags)]},
		}

		done := arrival.Add(days(total))
		end := cfg.Now
		if done.Before(cfg.Now) {
			end = done
		}

		start := arrival
		for _, seg := range path {
			until := arrival.Add(days(total * seg.until))
			if !start.Before(end) {
				break
			}
			if until.After(end) {
				until = end
			}
			task.History = append(task.History, interval(seg.status, start, until))
			task.Status = seg.status
			start = until
		}

		if done.Before(cfg.Now) {
			closeTask(&task, done, cfg.Now)
		}
		ds.Tasks = append(ds.Tasks, task)
	}

	if cfg.Scenario == "migration" {
		ds.MigrationDay = bulkClose(rng, ds.Tasks, cfg.Now)
	}

	ds.Tickets = generateTickets(rng, cfg)
	return ds
}

// bulkClose closes most of the tasks open on one day three months back, the way a tracker
// migration or a backlog purge would.
func bulkClose(rng *rand.Rand, tasks []tracker.Task, now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), 15, 10, 0, 0, 0, time.UTC).AddDate(0, -3, 0)

	for i := range tasks {
		t := &tasks[i]
		if !t.CreatedAt.Before(day) || (t.ClosedAt != nil && t.ClosedAt.Before(day)) {
			continue
		}
		if rng.Float64() > 0.6 {
			continue
		}

		var kept []tracker.StatusInterval
		for _, iv := range t.History {
			if !iv.EnteredAt.Before(day) {
				break
			}
			if end := iv.EnteredAt.Add(time.Duration(iv.DurationMinutes) * time.Minute); end.After(day) {
				iv.DurationMinutes = int64(day.Sub(iv.EnteredAt) / time.Minute)
			}
			kept = append(kept, iv)
		}
		t.History = kept
		if len(kept) > 0 {
			t.Status = kept[len(kept)-1].Status
		}
		closeTask(t, day, now)
	}
	return day
}

func generateTickets(rng *rand.Rand, cfg GeneratorConfig) []tracker.Task {
	span := cfg.Count
	if span < 1 {
		span = 1
	}
	tickets := make([]tracker.Task, 0, cfg.Tickets)
	for i := 0; i < cfg.Tickets; i++ {
		created := cfg.Now.Add(-days(rng.Float64() * float64(span)))
		t := tracker.Task{
			ID:        fmt.Sprintf("tkt%04d", i+1),
			Name:      fmt.Sprintf("Support ticket %d", i+1),
			Status:    "open",
			CreatedAt: created,
		}
		if closed := created.Add(days(1 + rng.Float64()*6)); closed.Before(cfg.Now) {
			t.Status = "done"
			t.ClosedAt = &closed
		}
		tickets = append(tickets, t)
	}
	return tickets
}

func closeTask(t *tracker.Task, at, now time.Time) {
	closed := at
	t.ClosedAt = &closed
	t.Status = "done"
	t.History = append(t.History, interval("done", at, now))
}

func interval(status string, from, to time.Time) tracker.StatusInterval {
	return tracker.StatusInterval{
		Status:          status,
		DurationMinutes: int64(to.Sub(from) / time.Minute),
		EnteredAt:       from,
	}
}

func days(d float64) time.Duration {
	return time.Duration(d * 24 * float64(time.Hour))
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Save writes the dataset as the task caches the analyzer reads.
func Save(outDir string, ds Dataset) error {
	st := store.NewTaskStore()
	st.Replace(store.TasksSet, ds.Tasks)
	st.Replace(store.TicketsSet, ds.Tickets)

	for _, set := range []string{store.TasksSet, store.TicketsSet} {
		if err := st.Save(outDir, set); err != nil {
			return fmt.Errorf("failed to save %s: %w", set, err)
		}
	}
	return nil
}
