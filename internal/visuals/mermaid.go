package visuals

import (
	"fmt"
	"math"
	"strings"

	"flowcap/internal/stats"
)

// GenerateFlowChart creates a Mermaid xychart-beta comparing monthly entries (bars) with exits (line).
func GenerateFlowChart(points []stats.MonthPoint) string {
	if len(points) == 0 {
		return ""
	}

	var labels, entered, exited []string
	maxVal := 0
	for _, p := range points {
		label := p.Label
		if p.Outlier {
			label += " *"
		}
		labels = append(labels, fmt.Sprintf("\"%s\"", label))
		entered = append(entered, fmt.Sprintf("%d", p.Entered))
		exited = append(exited, fmt.Sprintf("%d", p.Exited))
		maxVal = max(maxVal, p.Entered, p.Exited)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Entries vs Exits per Month\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Tasks\" 0 --> %d\n", headroom(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(entered, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(exited, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateExitsXmRChart plots monthly exits against their average and upper natural process limit.
func GenerateExitsXmRChart(points []stats.MonthPoint) string {
	if len(points) < 2 {
		return ""
	}

	values := make([]float64, len(points))
	keys := make([]string, len(points))
	for i, p := range points {
		values[i] = float64(p.Exited)
		keys[i] = p.Month
	}
	xmr := stats.CalculateXmRWithKeys(values, keys)

	var labels, vals, averages, unpls []string
	for i, v := range xmr.Values {
		labels = append(labels, fmt.Sprintf("\"%s\"", points[i].Label))
		vals = append(vals, fmt.Sprintf("%.0f", v))
		averages = append(averages, fmt.Sprintf("%.1f", xmr.Average))
		unpls = append(unpls, fmt.Sprintf("%.1f", xmr.UNPL))
	}

	maxY := xmr.UNPL * 1.2
	for _, v := range xmr.Values {
		if v > maxY {
			maxY = v * 1.1
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Exit Stability (XmR)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Exits\" 0 --> %d\n", int(math.Ceil(max(maxY, 1)))))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(vals, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(averages, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(unpls, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateThroughputChart creates a Mermaid bar chart for weekly delivery cadence.
func GenerateThroughputChart(cadence []stats.DeliveryCadence) string {
	if len(cadence) == 0 {
		return ""
	}

	var labels, values []string
	maxVal := 0
	for _, c := range cadence {
		labels = append(labels, fmt.Sprintf("\"%s\"", c.Label))
		values = append(values, fmt.Sprintf("%d", c.ItemsDelivered))
		maxVal = max(maxVal, c.ItemsDelivered)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Delivery Cadence (Throughput)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Items Delivered\" 0 --> %d\n", headroom(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateAgingChart creates a Mermaid bar chart of open tasks per age bucket.
func GenerateAgingChart(buckets []stats.AgeBucket) string {
	if len(buckets) == 0 {
		return ""
	}

	var labels, values []string
	maxVal := 0
	for _, b := range buckets {
		labels = append(labels, fmt.Sprintf("\"%s days\"", b.Label))
		values = append(values, fmt.Sprintf("%d", b.Count))
		maxVal = max(maxVal, b.Count)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"WIP Aging\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Open Tasks\" 0 --> %d\n", headroom(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateScenarioPie creates a Mermaid pie chart of open tasks per scenario.
func GenerateScenarioPie(scenarios []stats.ScenarioStat) string {
	total := 0
	for _, s := range scenarios {
		total += s.Count
	}
	if total == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Open Tasks by Scenario\n")
	for _, s := range scenarios {
		if s.Count == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("    \"%s %s\" : %d\n", s.Scenario, s.Label, s.Count))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateWIPBandsChart creates a Mermaid bar chart of median cycle time per WIP band.
func GenerateWIPBandsChart(bands []stats.WIPBand) string {
	if len(bands) == 0 {
		return ""
	}

	var labels, values []string
	maxVal := 0
	for _, b := range bands {
		labels = append(labels, fmt.Sprintf("\"WIP %s\"", b.Label))
		values = append(values, fmt.Sprintf("%d", b.MedianDays))
		maxVal = max(maxVal, b.MedianDays)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Median Cycle Time by WIP at Start\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Median Days\" 0 --> %d\n", headroom(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

func headroom(maxVal int) int {
	return maxVal + int(math.Max(1, float64(maxVal)*0.2))
}
