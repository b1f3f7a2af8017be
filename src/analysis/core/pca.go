package core

import (
	"sort"

	"econ-observer/src/helpers"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// -----------------------------------------------------------------------------
// Principal Component Analysis
// -----------------------------------------------------------------------------

// PCAResult holds the eigendecomposition of a standardized covariance matrix.
type PCAResult struct {
	ExplainedRatios []float64   // descending, sums to <= 1 + fp tolerance
	Loadings        [][]float64 // component x variable
	Eigenvalues     []float64
}

// PCA computes principal components of the given columns (column-major:
// columns[j] is one variable). Columns are standardized first so scale
// differences between series do not dominate the decomposition.
func PCA(columns [][]float64) (*PCAResult, error) {
	k := len(columns)
	if k < 2 {
		return nil, helpers.NewInsufficientDataError("pca", 2, k)
	}
	n := len(columns[0])
	if n < k+1 {
		return nil, helpers.NewInsufficientDataError("pca", k+1, n)
	}

	std := make([][]float64, k)
	for j, col := range columns {
		if len(col) != n {
			return nil, helpers.NewInsufficientDataError("pca", n, len(col))
		}
		std[j] = Standardize(col)
	}

	// Row-major observation matrix.
	data := make([]float64, n*k)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			data[i*k+j] = std[j][i]
		}
	}
	m := mat.NewDense(n, k, data)

	cov := mat.NewSymDense(k, nil)
	stat.CovarianceMatrix(cov, m, nil)

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return nil, helpers.NewDegenerateDesignError(0, k)
	}

	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// EigenSym returns ascending eigenvalues; order descending.
	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return vals[order[a]] > vals[order[b]] })

	total := 0.0
	for _, v := range vals {
		if v > 0 {
			total += v
		}
	}
	if total == 0 {
		return nil, helpers.NewDegenerateDesignError(0, k)
	}

	res := &PCAResult{
		ExplainedRatios: make([]float64, k),
		Loadings:        make([][]float64, k),
		Eigenvalues:     make([]float64, k),
	}
	for rank, idx := range order {
		v := vals[idx]
		if v < 0 {
			v = 0
		}
		res.Eigenvalues[rank] = v
		res.ExplainedRatios[rank] = v / total
		loading := make([]float64, k)
		for row := 0; row < k; row++ {
			loading[row] = vecs.At(row, idx)
		}
		res.Loadings[rank] = loading
	}

	return res, nil
}

// -----------------------------------------------------------------------------

// ComponentsForVariance returns the number of leading components needed to
// reach the cumulative explained-variance target.
func (r *PCAResult) ComponentsForVariance(target float64) int {
	cum := 0.0
	for i, ratio := range r.ExplainedRatios {
		cum += ratio
		if cum >= target {
			return i + 1
		}
	}
	return len(r.ExplainedRatios)
}

// -----------------------------------------------------------------------------

// Project maps row-major observations (rows x k variables, standardized the
// same way as the fit input) onto the first nComp components.
func (r *PCAResult) Project(rows [][]float64, nComp int) [][]float64 {
	if nComp > len(r.Loadings) {
		nComp = len(r.Loadings)
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		proj := make([]float64, nComp)
		for c := 0; c < nComp; c++ {
			dot := 0.0
			for j := 0; j < len(row) && j < len(r.Loadings[c]); j++ {
				dot += row[j] * r.Loadings[c][j]
			}
			proj[c] = dot
		}
		out[i] = proj
	}
	return out
}
