package dashboard

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"flowcap/internal/stats"
	"flowcap/internal/tracker"
	"flowcap/internal/workflow"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() stats.CapacitySnapshot {
	ref := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	created := ref.AddDate(0, 0, -40)
	tasks := []tracker.Task{
		{
			ID: "t1", Name: "Checkout <redesign>", Status: "blocked", CreatedAt: created,
			History: []tracker.StatusInterval{
				{Status: "in progress", DurationMinutes: 30 * 1440, EnteredAt: created},
				{Status: "blocked", DurationMinutes: 10 * 1440, EnteredAt: created.AddDate(0, 0, 30)},
			},
		},
		{ID: "t2", Name: "Backlog item", Status: "backlog", CreatedAt: ref.AddDate(0, 0, -3), HistoryUnavailable: true},
	}
	snap := stats.Analyze(tasks, nil, workflow.Default(), ref)
	snap.RunID = "run-42"
	snap.GeneratedAt = ref
	return snap
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, sampleSnapshot(), Options{Title: "Team Capacity", Minify: true})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "<title>Team Capacity</title>")
	assert.Contains(t, html, `id="chart-flow"`)
	assert.Contains(t, html, "window.FLOWCAP_DATA = {")
	assert.Contains(t, html, "run run-42")
	assert.Contains(t, html, "saturated")
	assert.Contains(t, html, "1 task(s) without status history: t2")
	assert.Contains(t, html, "Checkout &lt;redesign&gt;")
	assert.NotContains(t, html, "Checkout <redesign>")
	assert.Contains(t, html, DefaultChartJSURL)
}

func TestRender_UnminifiedKeepsSource(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleSnapshot(), Options{}))

	assert.Contains(t, buf.String(), "var palette = {")
	assert.Contains(t, buf.String(), "<title>Capacity</title>")
}

func TestRender_LimitsForecasts(t *testing.T) {
	snap := sampleSnapshot()
	snap.Forecasts = []stats.Forecast{
		{TaskID: "a", Name: "First forecast"},
		{TaskID: "b", Name: "Second forecast"},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, snap, Options{MaxForecasts: 1}))

	assert.Contains(t, buf.String(), "First forecast")
	assert.NotContains(t, buf.String(), "Second forecast")
}

func TestMinify(t *testing.T) {
	css, err := Minify("body {\n  color: red;\n}\n", api.LoaderCSS)
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", strings.TrimSpace(css))

	js, err := Minify("function add(first, second) {\n  return first + second;\n}\nadd(1, 2);\n", api.LoaderJS)
	require.NoError(t, err)
	assert.Less(t, len(js), 60)

	_, err = Minify("function (", api.LoaderJS)
	assert.Error(t, err)
}
