package core

import (
	"econ-observer/src/helpers"

	"gonum.org/v1/gonum/stat/distuv"
)

// -----------------------------------------------------------------------------
// Breusch-Pagan
// -----------------------------------------------------------------------------

// BreuschPaganResult represents the result of a Breusch-Pagan test.
type BreuschPaganResult struct {
	Statistic float64
	PValue    float64
	DOF       int
}

// BreuschPagan tests regression residuals for heteroscedasticity by
// regressing squared residuals on the original regressors. x must include
// the intercept column exactly as used in the main regression. The null
// hypothesis is homoscedasticity.
func BreuschPagan(x [][]float64, residuals []float64) (*BreuschPaganResult, error) {
	n := len(residuals)
	if n == 0 || len(x) != n {
		return nil, helpers.NewInsufficientDataError("breusch-pagan", 1, n)
	}
	k := len(x[0])
	if n <= k+2 {
		return nil, helpers.NewInsufficientDataError("breusch-pagan", k+3, n)
	}

	sq := make([]float64, n)
	for i, r := range residuals {
		sq[i] = r * r
	}

	aux, err := OLS(x, sq)
	if err != nil {
		return nil, err
	}

	// LM statistic: n * R² of the auxiliary regression, chi-squared with
	// (regressors - intercept) degrees of freedom.
	dof := k - 1
	if dof < 1 {
		dof = 1
	}
	lm := float64(n) * aux.R2

	chi := distuv.ChiSquared{K: float64(dof)}
	pValue := 1 - chi.CDF(lm)

	return &BreuschPaganResult{
		Statistic: lm,
		PValue:    pValue,
		DOF:       dof,
	}, nil
}
