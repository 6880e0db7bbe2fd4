package stats

import (
	"math"

	"flowcap/internal/workflow"
)

// FlowRatioSaturated is reported when nothing left the pipeline but work kept arriving.
const FlowRatioSaturated = 999

// FlowRatio returns round(avgIn/avgOut*100), saturating at FlowRatioSaturated whenever avgOut is zero.
func FlowRatio(avgIn, avgOut float64) int {
	if avgOut <= 0 {
		return FlowRatioSaturated
	}
	return int(math.Round(avgIn / avgOut * 100))
}

// FlowSeverity grades a flow ratio: <= normal bound, <= attention bound, else critical.
func FlowSeverity(ratio int, th workflow.Thresholds) Severity {
	switch {
	case ratio <= th.FlowNormal:
		return SeverityNormal
	case ratio <= th.FlowAttention:
		return SeverityAttention
	default:
		return SeverityCritical
	}
}

// CriticalSeverity grades the critical WIP share: < normal bound, < attention bound, else critical.
func CriticalSeverity(pct int, th workflow.Thresholds) Severity {
	switch {
	case pct < th.CriticalNormal:
		return SeverityNormal
	case pct < th.CriticalAttention:
		return SeverityAttention
	default:
		return SeverityCritical
	}
}

// CalculateFlowIndicator compares arrivals and departures over their trailing non-outlier windows.
func CalculateFlowIndicator(points []MonthPoint, wf *workflow.Workflow) FlowIndicator {
	avgIn, inMonths := TrailingMean(points, wf.Windows.InMonths, entered)
	avgOut, outMonths := TrailingMean(points, wf.Windows.OutMonths, exited)

	ratio := FlowRatio(avgIn, avgOut)
	if !hasMovement(points) {
		// An empty pipeline has nothing to saturate.
		ratio = 0
	}
	return FlowIndicator{
		AvgIn:       RoundTo(avgIn, 1),
		AvgOut:      RoundTo(avgOut, 1),
		InMonths:    inMonths,
		OutMonths:   outMonths,
		Ratio:       ratio,
		NetPerMonth: RoundTo(avgOut-avgIn, 1),
		Status:      FlowSeverity(ratio, wf.Thresholds),
	}
}

func hasMovement(points []MonthPoint) bool {
	for _, p := range points {
		if p.Entered > 0 || p.Exited > 0 {
			return true
		}
	}
	return false
}

// CalculateCriticalIndicator grades the share of open tasks in critical age buckets.
func CalculateCriticalIndicator(buckets []AgeBucket, open int, th workflow.Thresholds) CriticalIndicator {
	count := CriticalCount(buckets)
	pct := Percent(count, open)
	return CriticalIndicator{
		Count:  count,
		Total:  open,
		Pct:    pct,
		Status: CriticalSeverity(pct, th),
	}
}

// LittleWIP applies Little's Law with a 30-day month: round(throughput * targetDays / 30).
func LittleWIP(monthlyThroughput, targetDays int) int {
	return int(math.Round(float64(monthlyThroughput) * float64(targetDays) / 30))
}

// CalculateIdealWIP returns the Little's Law WIP for each target cycle time.
func CalculateIdealWIP(monthlyThroughput int, targets []int) []IdealWIP {
	out := make([]IdealWIP, 0, len(targets))
	for _, d := range targets {
		out = append(out, IdealWIP{TargetDays: d, WIP: LittleWIP(monthlyThroughput, d)})
	}
	return out
}

// CalculateWIPLimit compares current WIP against the ideal and maximum Little's Law limits.
func CalculateWIPLimit(monthlyThroughput, current int, targets workflow.WIPTargets) WIPLimit {
	limit := WIPLimit{
		Ideal:   LittleWIP(monthlyThroughput, targets.Ideal),
		Max:     LittleWIP(monthlyThroughput, targets.Max),
		Current: current,
	}
	limit.OverBy = max(0, current-limit.Max)
	limit.CurrentVsMaxPct = Percent(current, limit.Max)
	return limit
}
