package core

import (
	"math"
	"math/rand"

	"econ-observer/src/helpers"
)

// -----------------------------------------------------------------------------
// K-means clustering
// -----------------------------------------------------------------------------

// KMeansResult holds assignments and centroids for a single k.
type KMeansResult struct {
	K         int
	Labels    []int
	Centroids [][]float64
	Inertia   float64
	Iters     int
}

// -----------------------------------------------------------------------------

// KMeans partitions rows into k clusters with k-means++ seeding and Lloyd
// iterations. Results are deterministic for a fixed seed.
func KMeans(rows [][]float64, k int, seed int64) (*KMeansResult, error) {
	n := len(rows)
	if k < 1 {
		return nil, helpers.NewInsufficientDataError("kmeans k", 1, k)
	}
	if n < k {
		return nil, helpers.NewInsufficientEntitiesError(n, k)
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := seedPlusPlus(rows, k, rng)

	labels := make([]int, n)
	const maxIter = 300

	result := &KMeansResult{K: k}
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, row := range rows {
			best := 0
			bestDist := math.Inf(1)
			for c, cen := range centroids {
				if d := squaredDistance(row, cen); d < bestDist {
					bestDist = d
					best = c
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		result.Iters = iter + 1
		if !changed && iter > 0 {
			break
		}

		dim := len(rows[0])
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, row := range rows {
			c := labels[i]
			counts[c]++
			for j, v := range row {
				sums[c][j] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Reseed an empty cluster onto the point farthest from its
				// assigned centroid.
				far, farDist := 0, -1.0
				for i, row := range rows {
					if d := squaredDistance(row, centroids[labels[i]]); d > farDist {
						farDist = d
						far = i
					}
				}
				centroids[c] = append([]float64(nil), rows[far]...)
				labels[far] = c
				continue
			}
			for j := range sums[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	inertia := 0.0
	for i, row := range rows {
		inertia += squaredDistance(row, centroids[labels[i]])
	}

	result.Labels = labels
	result.Centroids = centroids
	result.Inertia = inertia
	return result, nil
}

// -----------------------------------------------------------------------------

// seedPlusPlus picks initial centroids with probability proportional to the
// squared distance from the nearest existing centroid.
func seedPlusPlus(rows [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(rows)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), rows[rng.Intn(n)]...))

	dists := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i, row := range rows {
			best := math.Inf(1)
			for _, cen := range centroids {
				if d := squaredDistance(row, cen); d < best {
					best = d
				}
			}
			dists[i] = best
			total += best
		}

		if total == 0 {
			// All remaining points coincide with a centroid.
			centroids = append(centroids, append([]float64(nil), rows[rng.Intn(n)]...))
			continue
		}

		target := rng.Float64() * total
		cum := 0.0
		pick := n - 1
		for i, d := range dists {
			cum += d
			if cum >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), rows[pick]...))
	}
	return centroids
}

// -----------------------------------------------------------------------------

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// -----------------------------------------------------------------------------

// Silhouette computes the mean silhouette coefficient for an assignment.
// Returns 0 when a cluster structure cannot be scored (k < 2 or singleton
// data).
func Silhouette(rows [][]float64, labels []int, k int) float64 {
	n := len(rows)
	if k < 2 || n < 3 {
		return 0
	}

	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	total := 0.0
	scored := 0
	for i := range rows {
		own := labels[i]
		if counts[own] <= 1 {
			continue
		}

		sums := make([]float64, k)
		for j := range rows {
			if i == j {
				continue
			}
			sums[labels[j]] += math.Sqrt(squaredDistance(rows[i], rows[j]))
		}

		a := sums[own] / float64(counts[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || counts[c] == 0 {
				continue
			}
			if avg := sums[c] / float64(counts[c]); avg < b {
				b = avg
			}
		}

		denom := math.Max(a, b)
		if denom > 0 {
			total += (b - a) / denom
			scored++
		}
	}

	if scored == 0 {
		return 0
	}
	return total / float64(scored)
}

// -----------------------------------------------------------------------------

// ElbowIndex picks the k with the largest second difference of inertia,
// the classic elbow heuristic. Keys of inertias must be a contiguous range.
func ElbowIndex(ks []int, inertias []float64) int {
	if len(ks) < 3 {
		if len(ks) == 0 {
			return 0
		}
		return ks[0]
	}

	bestK := ks[1]
	bestCurv := math.Inf(-1)
	for i := 1; i < len(ks)-1; i++ {
		curv := inertias[i-1] - 2*inertias[i] + inertias[i+1]
		if curv > bestCurv {
			bestCurv = curv
			bestK = ks[i]
		}
	}
	return bestK
}
