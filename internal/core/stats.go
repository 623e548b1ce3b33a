package core

import (
	"math"
	"sort"
)

// sortedAscending returns a sorted copy of values, leaving the input untouched.
func sortedAscending(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

// mean is the arithmetic mean. An empty slice has mean 0.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev is the standard deviation with Bessel's correction (n-1).
// Fewer than two observations have no sample deviation and yield 0.
func sampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// clampIndex keeps idx inside [0, n-1]; n must be positive.
func clampIndex(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// tailFrom returns values[idx:], or nil when idx is past the end.
func tailFrom(values []float64, idx int) []float64 {
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		return nil
	}
	return values[idx:]
}

// quantileIndex is the historical-simulation position of the
// (1-confidence) quantile in a sample of n ascending losses.
func quantileIndex(n int, confidence float64) int {
	return clampIndex(int(math.Floor(float64(n)*(1-confidence))), n)
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
