package tracker

import (
	"math"
	"time"
)

const minutesPerDay = 1440

// StatusInterval is one contiguous span a task spent in a single status.
type StatusInterval struct {
	Status          string    `json:"status"`
	DurationMinutes int64     `json:"duration_minutes"`
	EnteredAt       time.Time `json:"entered_at"`
}

// Task represents the subset of tracker task data needed for capacity analysis.
type Task struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	Tags      []string   `json:"tags,omitempty"`

	// History is ordered chronologically and includes the current status.
	History []StatusInterval `json:"history,omitempty"`
	// HistoryUnavailable marks tasks whose time-in-status fetch failed.
	HistoryUnavailable bool `json:"history_unavailable,omitempty"`
}

// IsClosed reports whether the task has a closure timestamp.
func (t Task) IsClosed() bool {
	return t.ClosedAt != nil
}

// AgeDays returns the rounded number of days between creation and closure, or now for open tasks.
func (t Task) AgeDays(now time.Time) int {
	end := now
	if t.ClosedAt != nil {
		end = *t.ClosedAt
	}
	if t.CreatedAt.IsZero() || end.Before(t.CreatedAt) {
		return 0
	}
	return int(math.Round(end.Sub(t.CreatedAt).Hours() / 24))
}

// CycleDays returns the rounded number of days from creation to closure, or -1 for open tasks.
func (t Task) CycleDays() int {
	if t.ClosedAt == nil {
		return -1
	}
	return int(math.Round(t.ClosedAt.Sub(t.CreatedAt).Hours() / 24))
}

// HistoryMinutes returns the total minutes recorded across the status history.
func (t Task) HistoryMinutes() int64 {
	var total int64
	for _, iv := range t.History {
		total += iv.DurationMinutes
	}
	return total
}

// AsOf reconstructs the task as it looked at the reference instant.
// It returns false when the task did not exist yet.
func (t Task) AsOf(ref time.Time) (Task, bool) {
	if ref.IsZero() {
		return t, true
	}
	if t.CreatedAt.After(ref) {
		return Task{}, false
	}

	out := t
	out.Tags = append([]string(nil), t.Tags...)
	changed := false
	if t.ClosedAt != nil && t.ClosedAt.After(ref) {
		out.ClosedAt = nil
		changed = true
	}

	out.History = make([]StatusInterval, 0, len(t.History))
	for _, iv := range t.History {
		if !iv.EnteredAt.IsZero() && iv.EnteredAt.After(ref) {
			changed = true
			break
		}
		if !iv.EnteredAt.IsZero() {
			end := iv.EnteredAt.Add(time.Duration(iv.DurationMinutes) * time.Minute)
			if end.After(ref) {
				iv.DurationMinutes = int64(ref.Sub(iv.EnteredAt).Minutes())
				changed = true
			}
		}
		out.History = append(out.History, iv)
	}

	// The status held at the reference instant is the last one entered before it.
	if changed && len(out.History) > 0 {
		out.Status = out.History[len(out.History)-1].Status
	}

	return out, true
}
