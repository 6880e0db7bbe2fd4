package tracker

import (
	"testing"
	"time"
)

func TestTask_AgeDays(t *testing.T) {
	now := time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)
	closed := now.AddDate(0, 0, -5)

	tests := []struct {
		name string
		task Task
		want int
	}{
		{"Open", Task{CreatedAt: now.AddDate(0, 0, -10)}, 10},
		{"RoundsHalfDay", Task{CreatedAt: now.Add(-36 * time.Hour)}, 2},
		{"Closed", Task{CreatedAt: now.AddDate(0, 0, -20), ClosedAt: &closed}, 15},
		{"ZeroCreated", Task{}, 0},
		{"Future", Task{CreatedAt: now.Add(time.Hour)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.AgeDays(now); got != tt.want {
				t.Errorf("AgeDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTask_AsOf(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	closed := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	task := Task{
		ID:        "t1",
		Status:    "done",
		CreatedAt: created,
		ClosedAt:  &closed,
		History: []StatusInterval{
			{Status: "backlog", DurationMinutes: 10 * minutesPerDay, EnteredAt: created},
			{Status: "in progress", DurationMinutes: 20 * minutesPerDay, EnteredAt: created.AddDate(0, 0, 10)},
			{Status: "done", DurationMinutes: 5 * minutesPerDay, EnteredAt: created.AddDate(0, 0, 30)},
		},
	}

	ref := created.AddDate(0, 0, 15)
	got, ok := task.AsOf(ref)
	if !ok {
		t.Fatal("AsOf() reported task as not existing")
	}
	if got.ClosedAt != nil {
		t.Errorf("ClosedAt = %v, want nil", got.ClosedAt)
	}
	if got.Status != "in progress" {
		t.Errorf("Status = %q, want %q", got.Status, "in progress")
	}
	if len(got.History) != 2 {
		t.Fatalf("History length = %d, want 2", len(got.History))
	}
	if got.History[1].DurationMinutes != 5*minutesPerDay {
		t.Errorf("clipped duration = %d, want %d", got.History[1].DurationMinutes, 5*minutesPerDay)
	}
	if task.History[1].DurationMinutes != 20*minutesPerDay {
		t.Error("AsOf() mutated the original history")
	}

	if _, ok := task.AsOf(created.Add(-time.Hour)); ok {
		t.Error("AsOf() before creation should report false")
	}
}
