package core

import (
	"math"

	"econ-observer/src/helpers"

	"gonum.org/v1/gonum/stat/distuv"
)

// -----------------------------------------------------------------------------
// Jarque-Bera
// -----------------------------------------------------------------------------

// JarqueBeraResult represents the result of a Jarque-Bera normality test.
type JarqueBeraResult struct {
	Statistic float64
	PValue    float64
	Skewness  float64
	Kurtosis  float64
}

const jarqueBeraMinObs = 8

// JarqueBera tests a sample against normality using skewness and excess
// kurtosis. The null hypothesis is normality.
func JarqueBera(data []float64) (*JarqueBeraResult, error) {
	n := len(data)
	if n < jarqueBeraMinObs {
		return nil, helpers.NewInsufficientDataError("jarque-bera", jarqueBeraMinObs, n)
	}

	mean, std := CalculateMeanStd(data)
	if std == 0 {
		return nil, helpers.NewInsufficientDataError("jarque-bera", jarqueBeraMinObs, 0)
	}

	skew := 0.0
	kurt := 0.0
	for _, v := range data {
		z := (v - mean) / std
		skew += z * z * z
		kurt += z * z * z * z
	}
	skew /= float64(n)
	kurt /= float64(n)

	jb := float64(n) / 6 * (skew*skew + (kurt-3)*(kurt-3)/4)

	chi := distuv.ChiSquared{K: 2}
	pValue := 1 - chi.CDF(jb)
	if math.IsNaN(pValue) {
		pValue = 0
	}

	return &JarqueBeraResult{
		Statistic: jb,
		PValue:    pValue,
		Skewness:  skew,
		Kurtosis:  kurt,
	}, nil
}
