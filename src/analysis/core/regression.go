package core

import (
	"math"

	"econ-observer/src/helpers"

	"gonum.org/v1/gonum/mat"
)

// -----------------------------------------------------------------------------
// Ordinary Least Squares
// -----------------------------------------------------------------------------

// OLSResult holds a fitted least-squares regression.
type OLSResult struct {
	Coeffs    []float64
	StdErr    []float64
	Residuals []float64
	Fitted    []float64
	RSS       float64
	TSS       float64
	R2        float64
	AdjR2     float64
	Sigma2    float64
	N         int
	K         int
}

// -----------------------------------------------------------------------------

// OLS fits y = X*beta by least squares. x is row-major (one row per
// observation). Rank-deficient designs fail with DegenerateDesignError
// instead of returning unstable coefficients.
func OLS(x [][]float64, y []float64) (*OLSResult, error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, helpers.NewInsufficientDataError("ols", 1, n)
	}
	k := len(x[0])
	if n <= k {
		return nil, helpers.NewInsufficientDataError("ols", k+1, n)
	}

	data := make([]float64, 0, n*k)
	for _, row := range x {
		data = append(data, row...)
	}
	X := mat.NewDense(n, k, data)

	// Rank check via SVD before solving.
	var svd mat.SVD
	if !svd.Factorize(X, mat.SVDThin) {
		return nil, helpers.NewDegenerateDesignError(0, k)
	}
	if rank := svd.Rank(1e-10); rank < k {
		return nil, helpers.NewDegenerateDesignError(rank, k)
	}

	// Normal equations: beta = (X'X)^-1 X'y
	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, helpers.NewDegenerateDesignError(k-1, k)
	}

	yVec := mat.NewVecDense(n, append([]float64(nil), y...))

	var xty mat.VecDense
	xty.MulVec(X.T(), yVec)

	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	res := &OLSResult{
		Coeffs:    make([]float64, k),
		StdErr:    make([]float64, k),
		Residuals: make([]float64, n),
		Fitted:    make([]float64, n),
		N:         n,
		K:         k,
	}
	for i := 0; i < k; i++ {
		res.Coeffs[i] = beta.AtVec(i)
	}

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)

	yMean, _ := CalculateMeanStd(y)
	for i := 0; i < n; i++ {
		res.Fitted[i] = fitted.AtVec(i)
		res.Residuals[i] = y[i] - res.Fitted[i]
		res.RSS += res.Residuals[i] * res.Residuals[i]
		res.TSS += (y[i] - yMean) * (y[i] - yMean)
	}

	if res.TSS > 0 {
		res.R2 = 1 - res.RSS/res.TSS
		res.AdjR2 = 1 - (res.RSS/float64(n-k))/(res.TSS/float64(n-1))
	}

	res.Sigma2 = res.RSS / float64(n-k)
	for i := 0; i < k; i++ {
		res.StdErr[i] = math.Sqrt(res.Sigma2 * xtxInv.At(i, i))
	}

	return res, nil
}

// -----------------------------------------------------------------------------
// Variance Inflation Factors
// -----------------------------------------------------------------------------

// VIF returns the variance inflation factor per regressor column. The design
// must not include the intercept column; one is added internally for each
// auxiliary regression. A perfectly collinear column reports +Inf.
func VIF(x [][]float64) ([]float64, error) {
	n := len(x)
	if n == 0 {
		return nil, helpers.NewInsufficientDataError("vif", 1, 0)
	}
	k := len(x[0])
	if k < 2 {
		return nil, helpers.NewInsufficientDataError("vif", 2, k)
	}
	if n < k+2 {
		return nil, helpers.NewInsufficientDataError("vif", k+2, n)
	}

	out := make([]float64, k)
	for j := 0; j < k; j++ {
		// Regress column j on all other columns plus an intercept.
		y := make([]float64, n)
		rows := make([][]float64, n)
		for i := 0; i < n; i++ {
			y[i] = x[i][j]
			row := make([]float64, 0, k)
			row = append(row, 1)
			for c := 0; c < k; c++ {
				if c != j {
					row = append(row, x[i][c])
				}
			}
			rows[i] = row
		}

		fit, err := OLS(rows, y)
		if err != nil {
			// Perfect collinearity of the remaining columns.
			out[j] = math.Inf(1)
			continue
		}
		if fit.R2 >= 1 {
			out[j] = math.Inf(1)
		} else {
			out[j] = 1 / (1 - fit.R2)
		}
	}
	return out, nil
}
