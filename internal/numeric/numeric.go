// Package numeric holds the shared statistics helpers used by the insight
// engine. Degenerate inputs (empty vectors, zero variance) map to defined
// fallback values rather than NaN or errors, so callers never branch on
// numeric failure.
package numeric

import "math"

// Pearson returns the Pearson correlation coefficient of the paired
// vectors x and y. Vectors of unequal or zero length, and vectors where
// either side has zero variance, yield 0.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}

	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	fn := float64(n)
	denom := math.Sqrt((fn*sumX2 - sumX*sumX) * (fn*sumY2 - sumY*sumY))
	if denom == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denom
}

// Mean returns the arithmetic mean of vs, or 0 for an empty slice.
func Mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// ApportionTenths splits 100% into tenths of a percent across counts using
// the largest-remainder method: every count gets its floored share of
// count*1000/total, then the leftover tenths go to the counts with the
// largest division remainders, earliest first on ties. The returned shares
// always sum to exactly 1000 when total > 0, so percentages built from them
// sum to exactly 100.0 instead of drifting with per-entry rounding. A total
// of 0 yields all-zero shares.
func ApportionTenths(counts []int, total int) []int {
	tenths := make([]int, len(counts))
	if total == 0 {
		return tenths
	}

	rem := make([]int, len(counts))
	allocated := 0
	for i, c := range counts {
		tenths[i] = c * 1000 / total
		rem[i] = c * 1000 % total
		allocated += tenths[i]
	}

	for allocated < 1000 {
		best := -1
		for i := range rem {
			if rem[i] > 0 && (best == -1 || rem[i] > rem[best]) {
				best = i
			}
		}
		if best == -1 {
			break
		}
		tenths[best]++
		rem[best] = 0
		allocated++
	}

	return tenths
}
