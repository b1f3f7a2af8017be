package core

import (
	"math"
	"math/rand"

	"econ-observer/src/helpers"
)

// -----------------------------------------------------------------------------
// t-SNE
// -----------------------------------------------------------------------------

// TSNE embeds rows into two dimensions for display. Exact (non tree-based)
// gradient descent, suitable for the small entity counts this engine works
// with. Deterministic for a fixed seed.
func TSNE(rows [][]float64, perplexity float64, seed int64) ([][]float64, error) {
	n := len(rows)
	if n < 4 {
		return nil, helpers.NewInsufficientEntitiesError(n, 4)
	}
	if perplexity <= 0 {
		perplexity = 5
	}
	if maxPerp := float64(n-1) / 3; perplexity > maxPerp {
		perplexity = maxPerp
	}

	p := jointProbabilities(rows, perplexity)
	rng := rand.New(rand.NewSource(seed))

	// Small random initialization.
	y := make([][]float64, n)
	for i := range y {
		y[i] = []float64{rng.NormFloat64() * 1e-4, rng.NormFloat64() * 1e-4}
	}

	const (
		iters        = 500
		learningRate = 100.0
		earlyStop    = 100
		exaggeration = 4.0
	)

	gains := make([][]float64, n)
	inc := make([][]float64, n)
	for i := range gains {
		gains[i] = []float64{1, 1}
		inc[i] = []float64{0, 0}
	}

	for iter := 0; iter < iters; iter++ {
		exag := 1.0
		if iter < earlyStop {
			exag = exaggeration
		}
		momentum := 0.5
		if iter >= 250 {
			momentum = 0.8
		}

		// Low-dimensional affinities (Student-t kernel).
		num := make([][]float64, n)
		sumNum := 0.0
		for i := range num {
			num[i] = make([]float64, n)
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				d := squaredDistance(y[i], y[j])
				v := 1 / (1 + d)
				num[i][j] = v
				num[j][i] = v
				sumNum += 2 * v
			}
		}
		if sumNum < 1e-12 {
			sumNum = 1e-12
		}

		for i := 0; i < n; i++ {
			grad := []float64{0, 0}
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				q := num[i][j] / sumNum
				if q < 1e-12 {
					q = 1e-12
				}
				mult := (exag*p[i][j] - q) * num[i][j]
				grad[0] += 4 * mult * (y[i][0] - y[j][0])
				grad[1] += 4 * mult * (y[i][1] - y[j][1])
			}
			for d := 0; d < 2; d++ {
				if (grad[d] > 0) != (inc[i][d] > 0) {
					gains[i][d] += 0.2
				} else {
					gains[i][d] *= 0.8
				}
				if gains[i][d] < 0.01 {
					gains[i][d] = 0.01
				}
				inc[i][d] = momentum*inc[i][d] - learningRate*gains[i][d]*grad[d]
				y[i][d] += inc[i][d]
			}
		}

		// Recenter.
		var mx, my float64
		for i := range y {
			mx += y[i][0]
			my += y[i][1]
		}
		mx /= float64(n)
		my /= float64(n)
		for i := range y {
			y[i][0] -= mx
			y[i][1] -= my
		}
	}

	return y, nil
}

// -----------------------------------------------------------------------------

// jointProbabilities builds symmetric input affinities with per-point
// bandwidths found by binary search on the target perplexity.
func jointProbabilities(rows [][]float64, perplexity float64) [][]float64 {
	n := len(rows)
	logU := math.Log(perplexity)

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			if i != j {
				dist[i][j] = squaredDistance(rows[i], rows[j])
			}
		}
	}

	p := make([][]float64, n)
	for i := range p {
		p[i] = make([]float64, n)

		beta := 1.0
		betaMin := math.Inf(-1)
		betaMax := math.Inf(1)

		for tries := 0; tries < 50; tries++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				if j == i {
					p[i][j] = 0
					continue
				}
				p[i][j] = math.Exp(-dist[i][j] * beta)
				sum += p[i][j]
			}
			if sum < 1e-12 {
				sum = 1e-12
			}

			entropy := 0.0
			for j := 0; j < n; j++ {
				if j == i || p[i][j] == 0 {
					continue
				}
				pj := p[i][j] / sum
				entropy -= pj * math.Log(pj)
				p[i][j] = pj
			}

			diff := entropy - logU
			if math.Abs(diff) < 1e-5 {
				break
			}
			if diff > 0 {
				betaMin = beta
				if math.IsInf(betaMax, 1) {
					beta *= 2
				} else {
					beta = (beta + betaMax) / 2
				}
			} else {
				betaMax = beta
				if math.IsInf(betaMin, -1) {
					beta /= 2
				} else {
					beta = (beta + betaMin) / 2
				}
			}
		}
	}

	// Symmetrize and normalize.
	out := make([][]float64, n)
	total := 0.0
	for i := range out {
		out[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := (p[i][j] + p[j][i]) / (2 * float64(n))
			out[i][j] = v
			total += v
		}
	}
	if total > 0 {
		for i := range out {
			for j := range out[i] {
				out[i][j] /= total
				if out[i][j] < 1e-12 {
					out[i][j] = 1e-12
				}
			}
		}
	}
	return out
}
