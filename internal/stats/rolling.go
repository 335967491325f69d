// Package stats implements trailing rolling statistics over gap-ridden daily
// series. Missing observations are nil and stay nil through every transform;
// no function here ever substitutes zero for an undefined result.
package stats

import "math"

// normalizeMinPeriods applies the default policy: a non-positive minimum
// requires a full window of valid points.
func normalizeMinPeriods(window, minPeriods int) int {
	if minPeriods <= 0 || minPeriods > window {
		return window
	}
	return minPeriods
}

// rollingAccumulate walks the series once, maintaining running sums over the
// trailing window, and calls emit for every index with the valid count, sum
// and sum of squares of the window ending there. O(n) regardless of window.
func rollingAccumulate(values []*float64, window int, emit func(i, count int, sum, sumSq float64)) {
	var sum, sumSq float64
	count := 0
	for i, v := range values {
		if v != nil {
			sum += *v
			sumSq += *v * *v
			count++
		}
		if j := i - window; j >= 0 && values[j] != nil {
			sum -= *values[j]
			sumSq -= *values[j] * *values[j]
			count--
		}
		emit(i, count, sum, sumSq)
	}
}

// RollingMean computes the trailing mean over the last window slots, defined
// only where at least minPeriods valid points are present (minPeriods <= 0
// means a full window). Windows are strictly trailing; no look-ahead.
func RollingMean(values []*float64, window, minPeriods int) []*float64 {
	if window <= 0 {
		return make([]*float64, len(values))
	}
	minPeriods = normalizeMinPeriods(window, minPeriods)

	out := make([]*float64, len(values))
	rollingAccumulate(values, window, func(i, count int, sum, _ float64) {
		if count < minPeriods {
			return
		}
		m := sum / float64(count)
		out[i] = &m
	})
	return out
}

// RollingStd computes the trailing sample standard deviation. Undefined
// (nil) where fewer than minPeriods valid points, or fewer than two valid
// points, are present.
func RollingStd(values []*float64, window, minPeriods int) []*float64 {
	if window <= 0 {
		return make([]*float64, len(values))
	}
	minPeriods = normalizeMinPeriods(window, minPeriods)

	out := make([]*float64, len(values))
	rollingAccumulate(values, window, func(i, count int, sum, sumSq float64) {
		if count < minPeriods || count < 2 {
			return
		}
		mean := sum / float64(count)
		variance := (sumSq - sum*mean) / float64(count-1)
		if variance < 0 {
			variance = 0 // float round-off on near-constant windows
		}
		sd := math.Sqrt(variance)
		out[i] = &sd
	})
	return out
}

// ZScore standardizes each observation against its trailing window:
// (v - mean) / std. The result is nil where the observation, the mean or
// the std is undefined, and also where std == 0 (constant window): a
// degenerate denominator yields "missing", never a division by zero and
// never a fabricated zero.
func ZScore(values []*float64, window, minPeriods int) []*float64 {
	means := RollingMean(values, window, minPeriods)
	stds := RollingStd(values, window, minPeriods)

	out := make([]*float64, len(values))
	for i, v := range values {
		if v == nil || means[i] == nil || stds[i] == nil || *stds[i] == 0 {
			continue
		}
		z := (*v - *means[i]) / *stds[i]
		out[i] = &z
	}
	return out
}

// PercentileRankAt returns the fraction of valid observations in the
// trailing window ending at index i that are strictly less than value,
// nil when the window holds no valid observation.
func PercentileRankAt(values []*float64, window, i int, value float64) *float64 {
	if window <= 0 || i < 0 || i >= len(values) {
		return nil
	}
	start := i - window + 1
	if start < 0 {
		start = 0
	}
	count, below := 0, 0
	for j := start; j <= i; j++ {
		if values[j] == nil {
			continue
		}
		count++
		if *values[j] < value {
			below++
		}
	}
	if count == 0 {
		return nil
	}
	rank := float64(below) / float64(count)
	return &rank
}

// PercentileRank is PercentileRankAt anchored at the end of the series.
func PercentileRank(values []*float64, window int, value float64) *float64 {
	return PercentileRankAt(values, window, len(values)-1, value)
}
