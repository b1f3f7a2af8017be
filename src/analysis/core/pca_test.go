package core

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCAExplainedRatioProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	cols := make([][]float64, 5)
	for j := range cols {
		cols[j] = make([]float64, 100)
		for i := range cols[j] {
			cols[j][i] = rng.NormFloat64()
		}
	}

	res, err := PCA(cols)
	require.NoError(t, err)

	sum := 0.0
	for i, r := range res.ExplainedRatios {
		assert.GreaterOrEqual(t, r, 0.0)
		if i > 0 {
			assert.LessOrEqual(t, r, res.ExplainedRatios[i-1]+1e-12, "ratios must descend")
		}
		sum += r
	}
	assert.LessOrEqual(t, sum, 1.0+1e-6)
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestPCAPerfectlyCorrelatedColumns(t *testing.T) {
	n := 80
	base := make([]float64, n)
	for i := range base {
		base[i] = float64(i) * 0.1
	}

	a := append([]float64(nil), base...)
	b := make([]float64, n)
	for i, v := range base {
		b[i] = 3*v + 1
	}

	res, err := PCA([][]float64{a, b})
	require.NoError(t, err)

	// Two perfectly correlated variables collapse onto one component
	assert.Greater(t, res.ExplainedRatios[0], 0.999)
}

func TestPCAComponentsForVariance(t *testing.T) {
	res := &PCAResult{ExplainedRatios: []float64{0.6, 0.25, 0.1, 0.05}}
	assert.Equal(t, 1, res.ComponentsForVariance(0.5))
	assert.Equal(t, 2, res.ComponentsForVariance(0.8))
	assert.Equal(t, 3, res.ComponentsForVariance(0.90))
	assert.Equal(t, 4, res.ComponentsForVariance(0.99))
}

func TestPCAProjectShape(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	n := 30
	cols := make([][]float64, 3)
	for j := range cols {
		cols[j] = make([]float64, n)
		for i := range cols[j] {
			cols[j][i] = rng.NormFloat64()
		}
	}

	res, err := PCA(cols)
	require.NoError(t, err)

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = []float64{cols[0][i], cols[1][i], cols[2][i]}
	}

	proj := res.Project(rows, 2)
	require.Len(t, proj, n)
	for _, p := range proj {
		assert.Len(t, p, 2)
	}
}
