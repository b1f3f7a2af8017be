package core

import (
	"math"

	"econ-observer/src/helpers"

	"gonum.org/v1/gonum/stat/distuv"
)

// -----------------------------------------------------------------------------
// Granger causality
// -----------------------------------------------------------------------------

// GrangerTestResult holds one Granger causality F-test at a fixed lag.
type GrangerTestResult struct {
	FStatistic float64
	PValue     float64
	Lag        int
	NObs       int
}

// GrangerTest tests whether lags of x improve prediction of y beyond y's own
// lags. The null hypothesis is that x does not Granger-cause y. Both slices
// must be aligned to the same index.
func GrangerTest(x, y []float64, lag int) (*GrangerTestResult, error) {
	n := len(y)
	if len(x) != n {
		return nil, helpers.NewInsufficientDataError("granger", n, len(x))
	}
	if lag < 1 {
		lag = 1
	}

	nObs := n - lag
	kUnrestricted := 1 + 2*lag
	// Enough observations for the unrestricted regression plus slack.
	minObs := kUnrestricted + 5
	if nObs < minObs {
		return nil, helpers.NewInsufficientDataError("granger", minObs+lag, n)
	}

	yReg := make([]float64, nObs)
	unrestricted := make([][]float64, nObs)
	restricted := make([][]float64, nObs)

	for i := 0; i < nObs; i++ {
		t := i + lag
		yReg[i] = y[t]

		ur := make([]float64, 0, kUnrestricted)
		r := make([]float64, 0, 1+lag)
		ur = append(ur, 1)
		r = append(r, 1)
		for j := 1; j <= lag; j++ {
			ur = append(ur, y[t-j])
			r = append(r, y[t-j])
		}
		for j := 1; j <= lag; j++ {
			ur = append(ur, x[t-j])
		}
		unrestricted[i] = ur
		restricted[i] = r
	}

	fitU, err := OLS(unrestricted, yReg)
	if err != nil {
		return nil, err
	}
	fitR, err := OLS(restricted, yReg)
	if err != nil {
		return nil, err
	}

	q := float64(lag)
	dof := float64(nObs - kUnrestricted)
	if dof <= 0 {
		return nil, helpers.NewInsufficientDataError("granger", kUnrestricted+lag+1, n)
	}

	// Floating point can make the restricted RSS marginally smaller.
	num := fitR.RSS - fitU.RSS
	if num < 0 {
		num = 0
	}
	den := fitU.RSS / dof

	fStat := 0.0
	pValue := 1.0
	if den > 0 && num > 0 {
		fStat = (num / q) / den
		if fStat > 0 && !math.IsNaN(fStat) && !math.IsInf(fStat, 0) {
			fDist := distuv.F{D1: q, D2: dof}
			pValue = 1 - fDist.CDF(fStat)
		} else {
			fStat = 0
		}
	}

	if pValue < 0 {
		pValue = 0
	}
	if pValue > 1 {
		pValue = 1
	}

	return &GrangerTestResult{
		FStatistic: fStat,
		PValue:     pValue,
		Lag:        lag,
		NObs:       nObs,
	}, nil
}
