package stats

import (
	"math"

	"flowcap/internal/workflow"
)

// XmRResult represents the output of a Process Behavior Chart analysis.
type XmRResult struct {
	Average     float64   `json:"average"`
	AmR         float64   `json:"average_moving_range"`
	UNPL        float64   `json:"upper_natural_process_limit"`
	LNPL        float64   `json:"lower_natural_process_limit"`
	Values      []float64 `json:"values"`
	MovingRange []float64 `json:"moving_ranges"`
	Signals     []Signal  `json:"signals"`
}

// Signal represents a detected special cause variation.
type Signal struct {
	Index       int    `json:"index"`
	Key         string `json:"key"`
	Type        string `json:"type"` // "outlier", "shift"
	Description string `json:"description"`
}

// CalculateXmR performs the math for an Individuals and Moving Range chart.
func CalculateXmR(values []float64) XmRResult {
	return CalculateXmRWithKeys(values, nil)
}

// CalculateXmRWithKeys performs the math for an Individuals and Moving Range chart and binds keys to signals.
func CalculateXmRWithKeys(values []float64, keys []string) XmRResult {
	if len(values) == 0 {
		return XmRResult{}
	}

	result := XmRResult{
		Values: values,
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	result.Average = sum / float64(len(values))

	if len(values) > 1 {
		mrSum := 0.0
		result.MovingRange = make([]float64, len(values)-1)
		for i := 0; i < len(values)-1; i++ {
			mr := math.Abs(values[i+1] - values[i])
			result.MovingRange[i] = mr
			mrSum += mr
		}
		result.AmR = mrSum / float64(len(values)-1)
	}

	// Wheeler's scaling constant for Individuals is 2.66
	result.UNPL = result.Average + (2.66 * result.AmR)
	result.LNPL = math.Max(0, result.Average-(2.66*result.AmR))

	result.Signals = detectSignals(values, result.Average, result.UNPL, result.LNPL, keys)

	return result
}

// DetectOutlierMonths flags months whose exit count is anomalously high.
// Only high-side anomalies are flagged.
func DetectOutlierMonths(exits []int, cfg workflow.Outlier) []bool {
	flags := make([]bool, len(exits))

	switch cfg.Method {
	case workflow.OutlierZScore:
		if len(exits) < 3 {
			return flags
		}
		for i, v := range exits {
			// Leave-one-out baseline.
			others := make([]int, 0, len(exits)-1)
			others = append(others, exits[:i]...)
			others = append(others, exits[i+1:]...)
			mean := MeanInt(others)
			sd := math.Max(stdDev(others, mean), 1)
			if (float64(v)-mean)/sd > cfg.ZLimit {
				flags[i] = true
			}
		}
	case workflow.OutlierXmR:
		values := make([]float64, len(exits))
		for i, v := range exits {
			values[i] = float64(v)
		}
		xmr := CalculateXmR(values)
		for i, v := range values {
			if xmr.AmR > 0 && v > xmr.UNPL {
				flags[i] = true
			}
		}
	default:
		for i, v := range exits {
			flags[i] = v > cfg.MaxExits
		}
	}

	return flags
}

// ThroughputStability classifies a monthly exit series with an XmR chart.
func ThroughputStability(exits []int) (string, float64) {
	if len(exits) < 2 {
		return "insufficient_data", 0
	}
	values := make([]float64, len(exits))
	for i, v := range exits {
		values[i] = float64(v)
	}
	xmr := CalculateXmR(values)

	status := "stable"
	for _, s := range xmr.Signals {
		if s.Type == "shift" {
			return "shifting", RoundTo(xmr.UNPL, 1)
		}
		status = "unstable"
	}
	return status, RoundTo(xmr.UNPL, 1)
}

func stdDev(values []int, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := float64(v) - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func detectSignals(values []float64, avg, unpl, lnpl float64, keys []string) []Signal {
	var signals []Signal

	for i, v := range values {
		key := ""
		if i < len(keys) {
			key = keys[i]
		}

		if v > unpl {
			signals = append(signals, Signal{
				Index:       i,
				Key:         key,
				Type:        "outlier",
				Description: "Point above Upper Natural Process Limit (UNPL)",
			})
		} else if v < lnpl {
			signals = append(signals, Signal{
				Index:       i,
				Key:         key,
				Type:        "outlier",
				Description: "Point below Lower Natural Process Limit (LNPL)",
			})
		}
	}

	if len(values) >= 8 {
		side := 0
		count := 0
		for i, v := range values {
			currentSide := 0
			if v > avg {
				currentSide = 1
			} else if v < avg {
				currentSide = -1
			}

			if currentSide == side && currentSide != 0 {
				count++
			} else {
				side = currentSide
				count = 1
			}

			if count == 8 {
				key := ""
				if i < len(keys) {
					key = keys[i]
				}
				signals = append(signals, Signal{
					Index:       i,
					Key:         key,
					Type:        "shift",
					Description: "8 consecutive points on one side of the average",
				})
			}
		}
	}

	return signals
}
