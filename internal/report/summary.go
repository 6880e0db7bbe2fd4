package report

import (
	"fmt"
	"strings"
	"time"

	"flowcap/internal/stats"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("244")).
		Width(18)

	sectionStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	severityStyles = map[stats.Severity]lipgloss.Style{
		stats.SeverityNormal:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		stats.SeverityAttention: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		stats.SeverityCritical:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}

	dimmedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Summary renders a compact terminal view of the snapshot.
func Summary(snap stats.CapacitySnapshot, now time.Time) string {
	var lines []string
	row := func(label, value string) {
		lines = append(lines, labelStyle.Render(label)+value)
	}

	flow := snap.Indicators.Flow
	crit := snap.Indicators.WIPCritical
	row("Overall", severity(snap.Indicators.Overall))
	row("Flow ratio", fmt.Sprintf("%s  %s", ratioText(flow.Ratio), severity(flow.Status)))
	row("Critical WIP", fmt.Sprintf("%d%% (%d of %d)  %s", crit.Pct, crit.Count, crit.Total, severity(crit.Status)))
	row("Open tasks", fmt.Sprintf("%s, %d blocked", humanize.Comma(int64(snap.WIP.Total)), snap.WIP.Blocked))
	row("WIP limit", fmt.Sprintf("ideal %d, max %d", snap.WIPLimit.Ideal, snap.WIPLimit.Max))
	row("Throughput", fmt.Sprintf("%d/month, %.1f/week, %s", snap.Throughput.AvgMonthly, snap.Throughput.AvgWeekly, snap.Throughput.Stability))
	row("Cycle time", fmt.Sprintf("median %dd, P85 %dd", snap.Throughput.Cycle.MedianDays, snap.Throughput.Cycle.P85Days))
	row("Delivered", humanize.Comma(int64(snap.Throughput.TotalCompleted)))

	var scen []string
	for _, s := range snap.Scenarios {
		scen = append(scen, fmt.Sprintf("%s %d", s.Scenario, s.Count))
	}
	row("Scenarios", strings.Join(scen, "  "))

	if n := len(snap.UnavailableTasks); n > 0 {
		row("No history", severity(stats.SeverityAttention)+fmt.Sprintf(" %d task(s)", n))
	}

	header := titleStyle.Render("Capacity as of " + snap.ReferenceDate.Format("2006-01-02"))
	if !snap.GeneratedAt.IsZero() {
		header += dimmedStyle.Render("  generated " + humanize.RelTime(snap.GeneratedAt, now, "ago", "from now"))
	}

	return header + "\n" + sectionStyle.Render(strings.Join(lines, "\n"))
}

func severity(s stats.Severity) string {
	style, ok := severityStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(strings.ToUpper(string(s)))
}
