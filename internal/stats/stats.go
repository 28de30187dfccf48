// Package stats holds the small numerical toolkit shared by the conformal
// and drift subsystems: means, rank-based quantiles, and the two-sample
// Kolmogorov-Smirnov test.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
// Empty input is a valid no-signal case for callers, not an error.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// SortedCopy returns an ascending sorted copy without mutating the input.
func SortedCopy(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// KSTestResult holds the outcome of a two-sample Kolmogorov-Smirnov test.
type KSTestResult struct {
	Statistic float64
	PValue    float64
}

// KSTwoSample runs the two-sample Kolmogorov-Smirnov test between two
// samples. The statistic is D = max |F1(x) - F2(x)| over the merged support;
// the p-value uses the Kolmogorov distribution asymptotic approximation with
// the effective sample size n1*n2/(n1+n2).
func KSTwoSample(sample1, sample2 []float64) KSTestResult {
	if len(sample1) == 0 || len(sample2) == 0 {
		return KSTestResult{Statistic: 0, PValue: 1}
	}

	d := ksStatistic(sample1, sample2)

	n1, n2 := float64(len(sample1)), float64(len(sample2))
	ne := (n1 * n2) / (n1 + n2)
	lambda := math.Sqrt(ne) * d

	return KSTestResult{Statistic: d, PValue: kolmogorovPValue(lambda)}
}

// ksStatistic computes D = max |F1(x) - F2(x)| where F1, F2 are the
// empirical CDFs of the two samples.
func ksStatistic(sample1, sample2 []float64) float64 {
	s1 := SortedCopy(sample1)
	s2 := SortedCopy(sample2)

	n1, n2 := float64(len(s1)), float64(len(s2))

	// Walk the merged support one distinct value at a time. Both CDFs are
	// only evaluated after every duplicate of the current value has been
	// consumed from both samples; measuring inside a tie run overstates D
	// when the two samples repeat a value with different multiplicity.
	i, j := 0, 0
	maxD := 0.0
	for i < len(s1) && j < len(s2) {
		v := math.Min(s1[i], s2[j])
		for i < len(s1) && s1[i] == v {
			i++
		}
		for j < len(s2) && s2[j] == v {
			j++
		}

		diff := math.Abs(float64(i)/n1 - float64(j)/n2)
		if diff > maxD {
			maxD = diff
		}
	}

	return maxD
}

// kolmogorovPValue approximates P(D > x) under the Kolmogorov distribution:
// 2 * sum_{k>=1} (-1)^{k-1} exp(-2 k^2 lambda^2), truncated after the terms
// stop mattering.
func kolmogorovPValue(lambda float64) float64 {
	if lambda <= 0 {
		return 1
	}

	sum := 0.0
	for k := 1; k <= 100; k++ {
		term := math.Exp(-2 * float64(k*k) * lambda * lambda)
		if k%2 == 1 {
			sum += term
		} else {
			sum -= term
		}
		if term < 1e-10 {
			break
		}
	}

	return Clamp(2*sum, 0, 1)
}
