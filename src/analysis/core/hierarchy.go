package core

import (
	"math"

	"econ-observer/src/helpers"
)

// -----------------------------------------------------------------------------
// Agglomerative clustering
// -----------------------------------------------------------------------------

// HierarchicalResult holds a flat cut of the dendrogram at k clusters.
type HierarchicalResult struct {
	K      int
	Labels []int
}

// -----------------------------------------------------------------------------

// Hierarchical runs bottom-up agglomerative clustering with average linkage
// and cuts the tree at k clusters.
func Hierarchical(rows [][]float64, k int) (*HierarchicalResult, error) {
	n := len(rows)
	if k < 1 {
		return nil, helpers.NewInsufficientDataError("hierarchical k", 1, k)
	}
	if n < k {
		return nil, helpers.NewInsufficientEntitiesError(n, k)
	}

	// Pairwise euclidean distances.
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := 0; j < i; j++ {
			d := math.Sqrt(squaredDistance(rows[i], rows[j]))
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	// Active clusters as member index lists.
	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	for len(clusters) > k {
		bi, bj := 0, 1
		best := math.Inf(1)
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				if d := averageLinkage(clusters[i], clusters[j], dist); d < best {
					best = d
					bi, bj = i, j
				}
			}
		}

		merged := append(append([]int(nil), clusters[bi]...), clusters[bj]...)
		next := make([][]int, 0, len(clusters)-1)
		for idx, c := range clusters {
			if idx == bi || idx == bj {
				continue
			}
			next = append(next, c)
		}
		clusters = append(next, merged)
	}

	labels := make([]int, n)
	for c, members := range clusters {
		for _, m := range members {
			labels[m] = c
		}
	}
	return &HierarchicalResult{K: len(clusters), Labels: labels}, nil
}

// -----------------------------------------------------------------------------

func averageLinkage(a, b []int, dist [][]float64) float64 {
	sum := 0.0
	for _, i := range a {
		for _, j := range b {
			sum += dist[i][j]
		}
	}
	return sum / float64(len(a)*len(b))
}
