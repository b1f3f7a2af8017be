package core

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// -----------------------------------------------------------------------------

// CalculateCorrelation computes the Pearson correlation coefficient.
func CalculateCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}

	_, stdX := CalculateMeanStd(x)
	_, stdY := CalculateMeanStd(y)
	if stdX == 0 || stdY == 0 {
		return 0
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// -----------------------------------------------------------------------------

// SpearmanCorrelation computes the rank correlation coefficient.
func SpearmanCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	return CalculateCorrelation(Ranks(x), Ranks(y))
}

// -----------------------------------------------------------------------------

// KendallCorrelation computes Kendall's tau.
func KendallCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	tau := stat.Kendall(x, y, nil)
	if math.IsNaN(tau) {
		return 0
	}
	return tau
}

// -----------------------------------------------------------------------------

// CorrelationMatrix computes the pairwise matrix for columns under the given
// method ("pearson", "spearman" or "kendall"). columns is column-major:
// columns[j] is one series. Diagonal entries are exactly 1.
func CorrelationMatrix(columns [][]float64, method string) [][]float64 {
	k := len(columns)
	out := make([][]float64, k)
	for i := range out {
		out[i] = make([]float64, k)
		out[i][i] = 1
	}

	corr := CalculateCorrelation
	switch method {
	case "spearman":
		corr = SpearmanCorrelation
	case "kendall":
		corr = KendallCorrelation
	}

	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			r := corr(columns[i], columns[j])
			out[i][j] = r
			out[j][i] = r
		}
	}
	return out
}
