package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"flowcap/internal/stats"
	"flowcap/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTasks() []tracker.Task {
	created := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	closed := created.AddDate(0, 0, 12)
	return []tracker.Task{
		{
			ID:        "b",
			Name:      "Second",
			Status:    "in progress",
			CreatedAt: created.AddDate(0, 0, 1),
			Tags:      []string{"erp: sap"},
			History: []tracker.StatusInterval{
				{Status: "backlog", DurationMinutes: 1440, EnteredAt: created.AddDate(0, 0, 1)},
				{Status: "in progress", DurationMinutes: 2880, EnteredAt: created.AddDate(0, 0, 2)},
			},
		},
		{ID: "a", Name: "First", Status: "done", CreatedAt: created, ClosedAt: &closed},
	}
}

func TestTaskStore_PutMergesAndOrders(t *testing.T) {
	s := NewTaskStore()
	s.Put(TasksSet, sampleTasks())

	got := s.Get(TasksSet)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID, "ordered by creation")

	updated := got[1]
	updated.Status = "blocked"
	s.Put(TasksSet, []tracker.Task{updated})

	got = s.Get(TasksSet)
	assert.Len(t, got, 2)
	assert.Equal(t, "blocked", got[1].Status)
	assert.Zero(t, s.Count(TicketsSet))
}

func TestTaskStore_ReplaceDropsMissing(t *testing.T) {
	s := NewTaskStore()
	s.Put(TasksSet, sampleTasks())
	s.Replace(TasksSet, sampleTasks()[:1])

	assert.Equal(t, 1, s.Count(TasksSet))
}

func TestTaskStore_ReplaceIsNeverSeenEmpty(t *testing.T) {
	s := NewTaskStore()
	s.Put(TasksSet, sampleTasks())

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			s.Replace(TasksSet, sampleTasks())
		}
		close(done)
	}()

	empty := 0
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
			if s.Count(TasksSet) == 0 {
				empty++
			}
		}
	}
	wg.Wait()

	assert.Zero(t, empty, "readers observed an empty set mid-replace")
	assert.Equal(t, 2, s.Count(TasksSet))
}

func TestTaskStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewTaskStore()
	s.Put(TasksSet, sampleTasks())
	require.NoError(t, s.Save(dir, TasksSet))

	_, err := os.Stat(filepath.Join(dir, "tasks.jsonl.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")

	loaded := NewTaskStore()
	require.NoError(t, loaded.Load(dir, TasksSet))

	got := loaded.Get(TasksSet)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsClosed())
	assert.Equal(t, []string{"erp: sap"}, got[1].Tags)
	assert.Len(t, got[1].History, 2)
	assert.Equal(t, int64(2880), got[1].History[1].DurationMinutes)
}

func TestTaskStore_LoadSkipsInvalidLines(t *testing.T) {
	dir := t.TempDir()
	content := `{"id":"x","name":"ok","status":"open","created_at":"2026-01-01T00:00:00Z"}
not json

{"id":"y","name":"also ok","status":"open","created_at":"2026-01-02T00:00:00Z"}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.jsonl"), []byte(content), 0o644))

	s := NewTaskStore()
	require.NoError(t, s.Load(dir, TasksSet))
	assert.Equal(t, 2, s.Count(TasksSet))
}

func TestTaskStore_LoadMissingFile(t *testing.T) {
	s := NewTaskStore()
	require.NoError(t, s.Load(t.TempDir(), TicketsSet))
	assert.Zero(t, s.Count(TicketsSet))
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	eff := 80
	snap := stats.CapacitySnapshot{
		RunID:         "run-1",
		ReferenceDate: time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		Indicators: stats.Indicators{
			Flow:    stats.FlowIndicator{Ratio: stats.FlowRatioSaturated, Status: stats.SeverityCritical},
			Overall: stats.SeverityCritical,
		},
		Scenarios: []stats.ScenarioStat{{Scenario: stats.ScenarioActive, Count: 1, AvgFlowEfficiency: &eff}},
	}

	require.NoError(t, SaveSnapshot(dir, snap))
	got, err := LoadSnapshot(dir)
	require.NoError(t, err)

	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, stats.FlowRatioSaturated, got.Indicators.Flow.Ratio)
	require.Len(t, got.Scenarios, 1)
	require.NotNil(t, got.Scenarios[0].AvgFlowEfficiency)
	assert.Equal(t, 80, *got.Scenarios[0].AvgFlowEfficiency)
}

func TestLoadSnapshot_Missing(t *testing.T) {
	_, err := LoadSnapshot(t.TempDir())
	assert.Error(t, err)
}
