package analysis

import (
	"fmt"

	"econ-observer/src/analysis/core"
	"econ-observer/src/helpers"
	"econ-observer/src/logger"
	"econ-observer/src/models"
)

// Segmenter clusters the panel two ways: time periods into regimes, and
// series into behavior groups. Both operate on standardized transposed views
// of the same complete-row submatrix.
type Segmenter struct {
	Config *models.MConfig
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSegmenter(cfg *models.MConfig, log *logger.Logger) *Segmenter {
	return &Segmenter{Config: cfg, Logger: log}
}

// -----------------------------------------------------------------------------

// ClusterPeriods groups time points by the standardized series values
// observed at each point.
func (s *Segmenter) ClusterPeriods(panel *models.MAlignedPanel) (*models.MClusterAssignment, error) {
	rows, entities, err := s.periodView(panel)
	if err != nil {
		return nil, err
	}
	return s.cluster(rows, entities, "period")
}

// -----------------------------------------------------------------------------

// ClusterSeries groups series by their standardized value trajectories.
func (s *Segmenter) ClusterSeries(panel *models.MAlignedPanel) (*models.MClusterAssignment, error) {
	rows, entities, err := s.seriesView(panel)
	if err != nil {
		return nil, err
	}
	return s.cluster(rows, entities, "series")
}

// -----------------------------------------------------------------------------

// periodView builds the feature matrix with one row per complete time point
// and one standardized column per series.
func (s *Segmenter) periodView(panel *models.MAlignedPanel) ([][]float64, []string, error) {
	complete := panel.CompleteRows()
	kMin := s.Config.Analysis.ClusterKMin
	if len(complete) < kMin {
		return nil, nil, helpers.NewInsufficientEntitiesError(len(complete), kMin)
	}

	std := make([][]float64, len(panel.SeriesIDs))
	for j, id := range panel.SeriesIDs {
		col, _ := panel.Column(id)
		vals := make([]float64, len(complete))
		for i, r := range complete {
			vals[i] = col[r]
		}
		std[j] = core.Standardize(vals)
	}

	rows := make([][]float64, len(complete))
	entities := make([]string, len(complete))
	for i, r := range complete {
		rows[i] = make([]float64, len(panel.SeriesIDs))
		for j := range panel.SeriesIDs {
			rows[i][j] = std[j][i]
		}
		entities[i] = panel.Index[r].Format("2006-01-02")
	}
	return rows, entities, nil
}

// -----------------------------------------------------------------------------

// seriesView builds the transposed matrix with one row per series and its
// standardized trajectory as features.
func (s *Segmenter) seriesView(panel *models.MAlignedPanel) ([][]float64, []string, error) {
	complete := panel.CompleteRows()
	kMin := s.Config.Analysis.ClusterKMin
	if len(panel.SeriesIDs) < kMin {
		return nil, nil, helpers.NewInsufficientEntitiesError(len(panel.SeriesIDs), kMin)
	}
	if len(complete) < 2 {
		return nil, nil, helpers.NewInsufficientDataError("series clustering", 2, len(complete))
	}

	rows := make([][]float64, len(panel.SeriesIDs))
	entities := make([]string, len(panel.SeriesIDs))
	for j, id := range panel.SeriesIDs {
		col, _ := panel.Column(id)
		vals := make([]float64, len(complete))
		for i, r := range complete {
			vals[i] = col[r]
		}
		rows[j] = core.Standardize(vals)
		entities[j] = id
	}
	return rows, entities, nil
}

// -----------------------------------------------------------------------------

// cluster sweeps the configured k range, records the inertia and silhouette
// curves, recommends a k, and runs the final assignment at that k with the
// selected algorithm. Dimensionality reduction is computed afterwards from
// the same standardized matrix, purely for display.
func (s *Segmenter) cluster(rows [][]float64, entities []string, mode string) (*models.MClusterAssignment, error) {
	opts := s.Config.Analysis
	n := len(rows)

	kMin := opts.ClusterKMin
	kMax := opts.ClusterKMax
	if kMax >= n {
		kMax = n - 1
	}
	if kMax < kMin {
		return nil, helpers.NewInsufficientEntitiesError(n, kMin)
	}

	distinct := countDistinct(rows)
	if distinct < kMin {
		return nil, helpers.NewInsufficientEntitiesError(distinct, kMin)
	}

	assignment := &models.MClusterAssignment{
		Mode:       mode,
		Algorithm:  opts.ClusteringAlgorithm,
		Inertia:    map[int]float64{},
		Silhouette: map[int]float64{},
	}

	// Curves always come from k-means inertia, matching the elbow method,
	// with silhouette computed on whichever algorithm is selected.
	var ks []int
	var inertias []float64
	bestSil := -2.0
	bestSilK := kMin
	for k := kMin; k <= kMax; k++ {
		km, err := core.KMeans(rows, k, opts.RandomSeed)
		if err != nil {
			return nil, err
		}
		labels := km.Labels
		if opts.ClusteringAlgorithm == models.FamilyHierarchical {
			hc, err := core.Hierarchical(rows, k)
			if err != nil {
				return nil, err
			}
			labels = hc.Labels
		}

		sil := core.Silhouette(rows, labels, k)
		assignment.Inertia[k] = km.Inertia
		assignment.Silhouette[k] = sil
		ks = append(ks, k)
		inertias = append(inertias, km.Inertia)
		if sil > bestSil {
			bestSil = sil
			bestSilK = k
		}
	}

	elbowK := core.ElbowIndex(ks, inertias)
	// Silhouette arbitrates when the two heuristics disagree.
	recommended := elbowK
	if bestSilK != elbowK && assignment.Silhouette[bestSilK] > assignment.Silhouette[elbowK]+0.05 {
		recommended = bestSilK
	}
	assignment.BestByCurve = recommended
	assignment.K = recommended

	labels, err := s.finalLabels(rows, recommended)
	if err != nil {
		return nil, err
	}
	assignment.Labels = make(map[string]int, n)
	for i, e := range entities {
		assignment.Labels[e] = labels[i]
	}

	s.attachReduction(assignment, rows, entities)
	s.Logger.Info("Clustered %d %s entities into k=%d (silhouette %.3f)",
		n, mode, recommended, assignment.Silhouette[recommended])
	return assignment, nil
}

// -----------------------------------------------------------------------------

func (s *Segmenter) finalLabels(rows [][]float64, k int) ([]int, error) {
	if s.Config.Analysis.ClusteringAlgorithm == models.FamilyHierarchical {
		hc, err := core.Hierarchical(rows, k)
		if err != nil {
			return nil, err
		}
		return hc.Labels, nil
	}
	km, err := core.KMeans(rows, k, s.Config.Analysis.RandomSeed)
	if err != nil {
		return nil, err
	}
	return km.Labels, nil
}

// -----------------------------------------------------------------------------

// attachReduction computes 2-D display coordinates. Failure here only costs
// the visualization, never the assignment.
func (s *Segmenter) attachReduction(assignment *models.MClusterAssignment, rows [][]float64, entities []string) {
	opts := s.Config.Analysis

	var coords [][]float64
	switch opts.ReductionMethod {
	case "tsne":
		out, err := core.TSNE(rows, float64(len(rows))/4, opts.RandomSeed)
		if err != nil {
			s.Logger.Warning("t-SNE reduction failed: %v", err)
			return
		}
		coords = out
		assignment.ReductionBy = "tsne"
	default:
		columns := transpose(rows)
		pca, err := core.PCA(columns)
		if err != nil {
			s.Logger.Warning("PCA reduction failed: %v", err)
			return
		}
		nComp := 2
		if len(pca.Loadings) < 2 {
			nComp = len(pca.Loadings)
		}
		coords = pca.Project(rows, nComp)
		assignment.ReductionBy = "pca"
	}

	assignment.Reduction = make(map[string][]float64, len(entities))
	for i, e := range entities {
		assignment.Reduction[e] = coords[i]
	}
}

// -----------------------------------------------------------------------------

func transpose(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}
	cols := make([][]float64, len(rows[0]))
	for j := range cols {
		cols[j] = make([]float64, len(rows))
		for i := range rows {
			cols[j][i] = rows[i][j]
		}
	}
	return cols
}

// -----------------------------------------------------------------------------

func countDistinct(rows [][]float64) int {
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		key := ""
		for _, v := range row {
			key += fmt.Sprintf("%.9g,", v)
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}
