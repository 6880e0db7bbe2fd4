package visuals

import (
	"strings"
	"testing"

	"flowcap/internal/stats"
)

func TestGenerateFlowChart(t *testing.T) {
	points := []stats.MonthPoint{
		{Month: "2026-01", Label: "Jan 2026", Entered: 10, Exited: 379, Outlier: true},
		{Month: "2026-02", Label: "Feb 2026", Entered: 12, Exited: 9},
	}

	got := GenerateFlowChart(points)

	for _, want := range []string{
		"```mermaid\nxychart-beta\n",
		`x-axis ["Jan 2026 *", "Feb 2026"]`,
		"bar [10, 12]",
		"line [379, 9]",
		"y-axis \"Tasks\" 0 --> 454",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("GenerateFlowChart() missing %q in:\n%s", want, got)
		}
	}
}

func TestGenerateCharts_EmptyInput(t *testing.T) {
	tests := map[string]string{
		"flow":    GenerateFlowChart(nil),
		"xmr":     GenerateExitsXmRChart([]stats.MonthPoint{{Exited: 3}}),
		"cadence": GenerateThroughputChart(nil),
		"aging":   GenerateAgingChart(nil),
		"pie":     GenerateScenarioPie([]stats.ScenarioStat{{Scenario: stats.ScenarioActive}}),
		"bands":   GenerateWIPBandsChart(nil),
	}
	for name, got := range tests {
		if got != "" {
			t.Errorf("%s chart = %q, want empty", name, got)
		}
	}
}

func TestGenerateScenarioPie(t *testing.T) {
	got := GenerateScenarioPie([]stats.ScenarioStat{
		{Scenario: stats.ScenarioNotStarted, Label: "Not started", Count: 4},
		{Scenario: stats.ScenarioBlocked, Label: "Blocked", Count: 0},
		{Scenario: stats.ScenarioActive, Label: "Active", Count: 2},
	})

	if !strings.Contains(got, `"C1 Not started" : 4`) || !strings.Contains(got, `"C3 Active" : 2`) {
		t.Errorf("unexpected pie:\n%s", got)
	}
	if strings.Contains(got, "C2") {
		t.Errorf("empty scenario should be omitted:\n%s", got)
	}
}

func TestGenerateExitsXmRChart(t *testing.T) {
	got := GenerateExitsXmRChart([]stats.MonthPoint{
		{Month: "2026-01", Label: "Jan 2026", Exited: 10},
		{Month: "2026-02", Label: "Feb 2026", Exited: 12},
		{Month: "2026-03", Label: "Mar 2026", Exited: 8},
	})

	if !strings.Contains(got, "line [10, 12, 8]") || !strings.Contains(got, "line [10.0, 10.0, 10.0]") {
		t.Errorf("unexpected XmR chart:\n%s", got)
	}
}
