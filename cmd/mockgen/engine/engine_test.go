package engine

import (
	"testing"
	"time"

	"flowcap/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

func TestGenerate_Mild(t *testing.T) {
	ds := Generate(GeneratorConfig{Scenario: "mild", Count: 120, Tickets: 30, Seed: 7, Now: now})

	require.Len(t, ds.Tasks, 120)
	assert.Len(t, ds.Tickets, 30)
	assert.True(t, ds.MigrationDay.IsZero())

	var open, closed int
	for _, task := range ds.Tasks {
		require.NotEmpty(t, task.History, task.ID)
		assert.Equal(t, task.CreatedAt, task.History[0].EnteredAt)
		assert.Equal(t, task.Status, task.History[len(task.History)-1].Status)

		end := task.History[len(task.History)-1]
		assert.False(t, end.EnteredAt.Add(time.Duration(end.DurationMinutes)*time.Minute).After(now))

		if task.IsClosed() {
			closed++
			assert.Equal(t, "done", task.Status)
		} else {
			open++
		}
	}
	assert.Positive(t, open)
	assert.Positive(t, closed)
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(GeneratorConfig{Scenario: "blocked", Count: 50, Seed: 42, Now: now})
	b := Generate(GeneratorConfig{Scenario: "blocked", Count: 50, Seed: 42, Now: now})
	assert.Equal(t, a, b)
}

func TestGenerate_MigrationClosesInBulk(t *testing.T) {
	ds := Generate(GeneratorConfig{Scenario: "migration", Count: 200, Seed: 3, Now: now})

	require.False(t, ds.MigrationDay.IsZero())
	assert.Equal(t, time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC), ds.MigrationDay)

	bulk := 0
	for _, task := range ds.Tasks {
		if task.ClosedAt != nil && task.ClosedAt.Equal(ds.MigrationDay) {
			bulk++
		}
	}
	assert.Greater(t, bulk, 10)
}

func TestSave_WritesBothCaches(t *testing.T) {
	dir := t.TempDir()
	ds := Generate(GeneratorConfig{Count: 20, Tickets: 5, Seed: 1, Now: now})
	require.NoError(t, Save(dir, ds))

	st := store.NewTaskStore()
	require.NoError(t, st.Load(dir, store.TasksSet))
	require.NoError(t, st.Load(dir, store.TicketsSet))
	assert.Equal(t, 20, st.Count(store.TasksSet))
	assert.Equal(t, 5, st.Count(store.TicketsSet))
}
