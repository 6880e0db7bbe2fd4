package stats

import (
	"testing"
)

func TestCalculateMedianDiscrete(t *testing.T) {
	tests := []struct {
		name     string
		values   []int
		expected float64
	}{
		{"Empty", []int{}, 0},
		{"SingleItem", []int{5}, 5},
		{"OddCount", []int{1, 3, 2, 4, 5}, 3},
		{"EvenCount", []int{1, 2, 3, 4}, 2.5},
		{"Unsorted", []int{10, 2, 8, 4, 6}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateMedianDiscrete(tt.values); got != tt.expected {
				t.Errorf("CalculateMedianDiscrete() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCalculatePercentileDiscrete(t *testing.T) {
	values := []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	tests := []struct {
		name     string
		p        float64
		expected int
	}{
		{"P50", 50, 50},
		{"P85", 85, 90},
		{"P100", 100, 100},
		{"P0", 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculatePercentileDiscrete(values, tt.p); got != tt.expected {
				t.Errorf("CalculatePercentileDiscrete(%v) = %v, want %v", tt.p, got, tt.expected)
			}
		})
	}

	if got := CalculatePercentileDiscrete(nil, 85); got != 0 {
		t.Errorf("CalculatePercentileDiscrete(nil) = %v, want 0", got)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, total, expected int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{5, 5, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.part, tt.total); got != tt.expected {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.part, tt.total, got, tt.expected)
		}
	}
}

func TestMeanIntAndRoundTo(t *testing.T) {
	if got := MeanInt(nil); got != 0 {
		t.Errorf("MeanInt(nil) = %v, want 0", got)
	}
	if got := MeanInt([]int{1, 2}); got != 1.5 {
		t.Errorf("MeanInt() = %v, want 1.5", got)
	}
	if got := RoundTo(2.5384, 1); got != 2.5 {
		t.Errorf("RoundTo() = %v, want 2.5", got)
	}
}
