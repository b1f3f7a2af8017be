package core

import (
	"math"
	"sort"

	mfstats "github.com/montanaflynn/stats"
)

// -----------------------------------------------------------------------------

// CalculateMeanStd computes mean and standard deviation (population).
func CalculateMeanStd(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(len(data))

	if len(data) == 1 {
		return mean, 0
	}

	varianceSum := 0.0
	for _, v := range data {
		varianceSum += (v - mean) * (v - mean)
	}
	std := math.Sqrt(varianceSum / float64(len(data)))
	return mean, std
}

// -----------------------------------------------------------------------------

// SampleVariance computes the variance with N-1 denominator.
func SampleVariance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	mean, _ := CalculateMeanStd(data)
	sum := 0.0
	for _, v := range data {
		sum += (v - mean) * (v - mean)
	}
	return sum / float64(len(data)-1)
}

// -----------------------------------------------------------------------------

// Standardize returns (x - mean) / std per element. A zero-variance input
// standardizes to all zeros rather than NaN.
func Standardize(data []float64) []float64 {
	mean, std := CalculateMeanStd(data)
	out := make([]float64, len(data))
	if std == 0 {
		return out
	}
	for i, v := range data {
		out[i] = (v - mean) / std
	}
	return out
}

// -----------------------------------------------------------------------------

// CalculateZScore calculates Z-Score (Standard Score).
func CalculateZScore(value, mean, std float64) float64 {
	if std == 0 {
		return 0.0
	}
	return (value - mean) / std
}

// -----------------------------------------------------------------------------

// Diff returns the first difference of data (length len(data)-1).
func Diff(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	out := make([]float64, len(data)-1)
	for i := 1; i < len(data); i++ {
		out[i-1] = data[i] - data[i-1]
	}
	return out
}

// -----------------------------------------------------------------------------

// Ranks returns fractional ranks (1-based, ties averaged).
func Ranks(data []float64) []float64 {
	n := len(data)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return data[idx[a]] < data[idx[b]] })

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && data[idx[j+1]] == data[idx[i]] {
			j++
		}
		// average rank over the tie run [i, j]
		avg := (float64(i+1) + float64(j+1)) / 2
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// -----------------------------------------------------------------------------

// DescribeSeries returns summary statistics for one value slice, skipping
// NaN cells and counting them as missing.
func DescribeSeries(data []float64) map[string]float64 {
	clean := make([]float64, 0, len(data))
	missing := 0
	for _, v := range data {
		if math.IsNaN(v) {
			missing++
			continue
		}
		clean = append(clean, v)
	}

	out := map[string]float64{
		"count":   float64(len(clean)),
		"missing": float64(missing),
	}
	if len(clean) == 0 {
		return out
	}

	mean, std := CalculateMeanStd(clean)
	out["mean"] = mean
	out["std"] = std

	if v, err := mfstats.Min(clean); err == nil {
		out["min"] = v
	}
	if v, err := mfstats.Max(clean); err == nil {
		out["max"] = v
	}
	if v, err := mfstats.Median(clean); err == nil {
		out["median"] = v
	}
	if v, err := mfstats.Percentile(clean, 25); err == nil {
		out["p25"] = v
	}
	if v, err := mfstats.Percentile(clean, 75); err == nil {
		out["p75"] = v
	}
	return out
}
