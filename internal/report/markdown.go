package report

import (
	"fmt"
	"strings"

	"flowcap/internal/stats"
	"flowcap/internal/visuals"
)

// Markdown renders the snapshot as a markdown report. Mermaid charts are embedded when charts is true.
func Markdown(snap stats.CapacitySnapshot, charts bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Capacity report (%s)\n\n", snap.ReferenceDate.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Overall status: **%s**\n\n", snap.Indicators.Overall)

	flow := snap.Indicators.Flow
	crit := snap.Indicators.WIPCritical
	sb.WriteString("## Indicators\n\n")
	sb.WriteString("| Indicator | Value | Status |\n|---|---|---|\n")
	fmt.Fprintf(&sb, "| Flow ratio (in %.1f / out %.1f per month) | %s | %s |\n", flow.AvgIn, flow.AvgOut, ratioText(flow.Ratio), flow.Status)
	fmt.Fprintf(&sb, "| Critical WIP (%d of %d) | %d%% | %s |\n", crit.Count, crit.Total, crit.Pct, crit.Status)
	fmt.Fprintf(&sb, "| Net flow per month | %+.1f | |\n\n", flow.NetPerMonth)

	wip := snap.WIP
	fmt.Fprintf(&sb, "Open tasks: %d (%d blocked, %d%%). Average age %d days, oldest %d days.\n\n",
		wip.Total, wip.Blocked, wip.BlockedPct, wip.AvgAge, wip.OldestAge)

	sb.WriteString("## Capacity\n\n")
	tp := snap.Throughput
	fmt.Fprintf(&sb, "Throughput: %d per month (%.1f per week), %s.\n", tp.AvgMonthly, tp.AvgWeekly, tp.Stability)
	fmt.Fprintf(&sb, "Cycle time over the last %d days: median %d, average %d, P85 %d (%d tasks).\n\n",
		tp.Cycle.WindowDays, tp.Cycle.MedianDays, tp.Cycle.AvgDays, tp.Cycle.P85Days, tp.Cycle.Samples)
	sb.WriteString("| Target cycle | Little's Law WIP |\n|---|---|\n")
	for _, iw := range snap.IdealWIP {
		fmt.Fprintf(&sb, "| %d days | %d |\n", iw.TargetDays, iw.WIP)
	}
	lim := snap.WIPLimit
	fmt.Fprintf(&sb, "\nWIP limit: ideal %d, max %d, current %d (%d%% of max)", lim.Ideal, lim.Max, lim.Current, lim.CurrentVsMaxPct)
	if lim.OverBy > 0 {
		fmt.Fprintf(&sb, ", %d over", lim.OverBy)
	}
	sb.WriteString(".\n\n")

	sb.WriteString("## Age buckets\n\n| Bucket | Tasks |\n|---|---|\n")
	for _, b := range snap.AgeBuckets {
		marker := ""
		if b.Critical {
			marker = " (critical)"
		}
		fmt.Fprintf(&sb, "| %s%s | %d |\n", b.Label, marker, b.Count)
	}
	sb.WriteString("\n")

	sb.WriteString("## Scenarios\n\n| Scenario | Tasks | Share | Critical | Avg. efficiency |\n|---|---|---|---|---|\n")
	for _, s := range snap.Scenarios {
		fmt.Fprintf(&sb, "| %s %s | %d | %d%% | %d | %s |\n", s.Scenario, s.Label, s.Count, s.SharePct, s.CriticalCount, efficiencyText(s.AvgFlowEfficiency))
	}
	sb.WriteString("\n")

	var outliers []string
	for _, p := range snap.Monthly {
		if p.Outlier {
			outliers = append(outliers, fmt.Sprintf("%s (%d exits)", p.Label, p.Exited))
		}
	}
	if len(outliers) > 0 {
		fmt.Fprintf(&sb, "Outlier months excluded from averages: %s.\n\n", strings.Join(outliers, ", "))
	}

	if charts {
		for _, chart := range []string{
			visuals.GenerateFlowChart(snap.Monthly),
			visuals.GenerateExitsXmRChart(snap.Monthly),
			visuals.GenerateAgingChart(snap.AgeBuckets),
			visuals.GenerateScenarioPie(snap.Scenarios),
			visuals.GenerateThroughputChart(snap.Cadence),
			visuals.GenerateWIPBandsChart(snap.WIPCycleBands),
		} {
			if chart != "" {
				sb.WriteString(chart)
				sb.WriteString("\n\n")
			}
		}
	}

	if len(snap.Forecasts) > 0 {
		sb.WriteString("## Next deliveries\n\n| Task | Status | Remaining days | Expected |\n|---|---|---|---|\n")
		for i, f := range snap.Forecasts {
			if i == 15 {
				break
			}
			fmt.Fprintf(&sb, "| %s | %s | %d | %s |\n", f.Name, f.Status, f.RemainingDays, f.ExpectedAt.Format("2006-01-02"))
		}
		sb.WriteString("\n")
	}

	if len(snap.UnavailableTasks) > 0 {
		fmt.Fprintf(&sb, "> %d task(s) have no status history and count as not started.\n", len(snap.UnavailableTasks))
	}
	if len(snap.UnmappedStatuses) > 0 {
		fmt.Fprintf(&sb, "> Statuses outside the workflow map: %s.\n", strings.Join(snap.UnmappedStatuses, ", "))
	}

	return sb.String()
}

func ratioText(ratio int) string {
	if ratio == stats.FlowRatioSaturated {
		return "saturated (no exits)"
	}
	return fmt.Sprintf("%d%%", ratio)
}

func efficiencyText(p *int) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d%%", *p)
}
