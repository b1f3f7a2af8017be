package core

import (
	"math"

	"econ-observer/src/helpers"
)

// -----------------------------------------------------------------------------
// Classical seasonal decomposition
// -----------------------------------------------------------------------------

// DecompositionResult represents the decomposition of a series into trend,
// seasonal and residual components.
type DecompositionResult struct {
	Trend    []float64
	Seasonal []float64
	Residual []float64
	Period   int
	Type     string // "additive" or "multiplicative"
}

// Decompose performs classical seasonal decomposition with a centered moving
// average trend. Type "additive" means Y = T + S + R, "multiplicative"
// Y = T * S * R.
func Decompose(data []float64, period int, decompositionType string) (*DecompositionResult, error) {
	n := len(data)
	if period < 2 {
		period = 2
	}
	if n < 2*period {
		return nil, helpers.NewInsufficientDataError("decomposition", 2*period, n)
	}

	if decompositionType != "additive" && decompositionType != "multiplicative" {
		decompositionType = "additive"
	}

	trend := calculateTrend(data, period)

	// Detrend.
	detrended := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case math.IsNaN(trend[i]):
			detrended[i] = math.NaN()
		case decompositionType == "multiplicative":
			if trend[i] == 0 {
				detrended[i] = math.NaN()
			} else {
				detrended[i] = data[i] / trend[i]
			}
		default:
			detrended[i] = data[i] - trend[i]
		}
	}

	// Average within each seasonal position.
	pattern := make([]float64, period)
	counts := make([]int, period)
	for i := 0; i < n; i++ {
		if !math.IsNaN(detrended[i]) {
			pattern[i%period] += detrended[i]
			counts[i%period]++
		}
	}
	for i := 0; i < period; i++ {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		}
	}

	// Normalize the seasonal component.
	sum := 0.0
	for _, v := range pattern {
		sum += v
	}
	mean := sum / float64(period)
	for i := range pattern {
		if decompositionType == "multiplicative" {
			if mean != 0 {
				pattern[i] /= mean
			}
		} else {
			pattern[i] -= mean
		}
	}

	seasonal := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = pattern[i%period]
	}

	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case math.IsNaN(trend[i]):
			residual[i] = math.NaN()
		case decompositionType == "multiplicative":
			if trend[i] == 0 || seasonal[i] == 0 {
				residual[i] = math.NaN()
			} else {
				residual[i] = data[i] / (trend[i] * seasonal[i])
			}
		default:
			residual[i] = data[i] - trend[i] - seasonal[i]
		}
	}

	return &DecompositionResult{
		Trend:    trend,
		Seasonal: seasonal,
		Residual: residual,
		Period:   period,
		Type:     decompositionType,
	}, nil
}

// -----------------------------------------------------------------------------

// calculateTrend calculates the trend using a centered moving average. Cells
// within half a period of either edge are NaN.
func calculateTrend(data []float64, period int) []float64 {
	n := len(data)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	halfPeriod := period / 2

	if period%2 == 0 {
		// Even period: 2xMA with half weights at the ends.
		for i := halfPeriod; i < n-halfPeriod; i++ {
			sum := data[i-halfPeriod]*0.5 + data[i+halfPeriod]*0.5
			for j := i - halfPeriod + 1; j < i+halfPeriod; j++ {
				sum += data[j]
			}
			trend[i] = sum / float64(period)
		}
	} else {
		for i := halfPeriod; i < n-halfPeriod; i++ {
			sum := 0.0
			for j := i - halfPeriod; j <= i+halfPeriod; j++ {
				sum += data[j]
			}
			trend[i] = sum / float64(period)
		}
	}

	return trend
}

// -----------------------------------------------------------------------------

// DetectSeasonalPeriod scans the ACF for the strongest peak beyond lag 1 and
// returns it as the candidate seasonal period, or 0 when no clear
// periodicity exists.
func DetectSeasonalPeriod(data []float64, maxPeriod int) int {
	n := len(data)
	if maxPeriod <= 1 || n < 3 {
		return 0
	}
	if maxPeriod > n/2 {
		maxPeriod = n / 2
	}

	acf := ACF(data, maxPeriod)
	if acf == nil {
		return 0
	}

	best := 0
	bestVal := 0.3 // minimum correlation to call something seasonal
	for lag := 2; lag <= maxPeriod && lag < len(acf); lag++ {
		// Local peak: larger than both neighbors.
		if lag+1 < len(acf) && acf[lag] > acf[lag-1] && acf[lag] >= acf[lag+1] && acf[lag] > bestVal {
			best = lag
			bestVal = acf[lag]
		}
	}
	return best
}
