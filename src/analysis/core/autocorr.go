package core

import (
	"econ-observer/src/helpers"

	"gonum.org/v1/gonum/stat/distuv"
)

// -----------------------------------------------------------------------------

// ACF calculates the autocorrelation function for lags 0..maxLag.
func ACF(data []float64, maxLag int) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean, _ := CalculateMeanStd(data)
	variance := 0.0
	for _, v := range data {
		variance += (v - mean) * (v - mean)
	}
	if variance == 0 {
		out := make([]float64, maxLag+1)
		out[0] = 1
		return out
	}

	out := make([]float64, maxLag+1)
	out[0] = 1
	for lag := 1; lag <= maxLag; lag++ {
		cov := 0.0
		for t := lag; t < n; t++ {
			cov += (data[t] - mean) * (data[t-lag] - mean)
		}
		out[lag] = cov / variance
	}
	return out
}

// -----------------------------------------------------------------------------

// PACF calculates partial autocorrelations for lags 0..maxLag using the
// Durbin-Levinson recursion.
func PACF(data []float64, maxLag int) []float64 {
	acf := ACF(data, maxLag)
	if acf == nil {
		return nil
	}
	maxLag = len(acf) - 1

	out := make([]float64, maxLag+1)
	out[0] = 1
	if maxLag == 0 {
		return out
	}

	phi := make([][]float64, maxLag+1)
	for i := range phi {
		phi[i] = make([]float64, maxLag+1)
	}

	phi[1][1] = acf[1]
	out[1] = acf[1]

	for k := 2; k <= maxLag; k++ {
		num := acf[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-j]
			den -= phi[k-1][j] * acf[j]
		}
		if den == 0 {
			break
		}
		phi[k][k] = num / den
		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}
		out[k] = phi[k][k]
	}
	return out
}

// -----------------------------------------------------------------------------
// Ljung-Box
// -----------------------------------------------------------------------------

// LjungBoxResult represents the result of a Ljung-Box test.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int
}

// LjungBox tests for autocorrelation up to the given lag. The null is no
// autocorrelation. fitdf is the number of parameters estimated by the model
// whose residuals are being tested (p+q for ARIMA, 0 for a raw series).
func LjungBox(data []float64, lags, fitdf int) (*LjungBoxResult, error) {
	n := len(data)
	if n < 10 {
		return nil, helpers.NewInsufficientDataError("ljung-box", 10, n)
	}
	if lags < 1 {
		lags = 1
	}
	if lags >= n {
		lags = n - 1
	}

	acf := ACF(data, lags)

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += (acf[k] * acf[k]) / float64(n-k)
	}
	q *= float64(n * (n + 2))

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	chi := distuv.ChiSquared{K: float64(dof)}
	pValue := 1 - chi.CDF(q)

	return &LjungBoxResult{
		Statistic: q,
		PValue:    pValue,
		Lags:      lags,
		DOF:       dof,
	}, nil
}

// -----------------------------------------------------------------------------

// DurbinWatson calculates the first-order autocorrelation statistic for a
// residual set. Values near 2 indicate no autocorrelation.
func DurbinWatson(residuals []float64) float64 {
	n := len(residuals)
	if n < 2 {
		return 0
	}

	numerator := 0.0
	denominator := 0.0
	for i := 1; i < n; i++ {
		d := residuals[i] - residuals[i-1]
		numerator += d * d
	}
	for _, r := range residuals {
		denominator += r * r
	}
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
