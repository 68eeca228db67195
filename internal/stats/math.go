package stats

import "slices"

// percentOf returns floor(count*100/total) using integer arithmetic, 0 when total is 0.
func percentOf(count, total int) int {
	if total <= 0 {
		return 0
	}
	return (count * 100) / total
}

// meanOf returns floor(sum/n), 0 when n is 0.
func meanOf(sum, n int) int {
	if n <= 0 {
		return 0
	}
	return sum / n
}

// nonNegative clamps negative day counts to zero.
func nonNegative(days int) int {
	if days < 0 {
		return 0
	}
	return days
}

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
