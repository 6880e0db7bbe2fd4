package stats

import (
	"math"
	"slices"
)

// CalculateMedianDiscrete finds the median value in a slice of integers.
func CalculateMedianDiscrete(values []int) float64 {
	if len(values) == 0 {
		return 0
	}

	// Work on a copy to avoid mutating the original
	temp := make([]int, len(values))
	copy(temp, values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return float64(temp[n/2])
	}
	return float64(temp[n/2-1]+temp[n/2]) / 2.0
}

// CalculatePercentileDiscrete returns the nearest-rank percentile (0-100) of integer values.
func CalculatePercentileDiscrete(values []int, p float64) int {
	if len(values) == 0 {
		return 0
	}
	temp := make([]int, len(values))
	copy(temp, values)
	slices.Sort(temp)

	rank := int(math.Ceil(p / 100 * float64(len(temp))))
	rank = min(max(rank, 1), len(temp))
	return temp[rank-1]
}

// MeanInt returns the arithmetic mean, 0 for an empty slice.
func MeanInt(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// Percent returns round(part/total*100), 0 when total is 0.
func Percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// RoundTo rounds v to the given number of decimals.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
