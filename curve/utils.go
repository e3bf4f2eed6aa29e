package curve

import "sort"

// segment returns the index of the first node time >= t, or len(times) when
// t lies beyond the last node.
func segment(times []float64, t float64) int {
	return sort.SearchFloat64s(times, t)
}

// strictlyIncreasing reports whether xs is sorted with no repeats.
func strictlyIncreasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return false
		}
	}
	return true
}
