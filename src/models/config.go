package models

// MConfig Structure
type MConfig struct {
	Name     string          `yaml:"name" json:"name"`
	Host     string          `yaml:"host" json:"host"`
	Port     int             `yaml:"port" json:"port"`
	LogLevel string          `yaml:"log_level" json:"log_level"`
	Storage  MStorageConfig  `yaml:"storage" json:"storage"`
	Sources  []MSourceConfig `yaml:"sources" json:"sources"`
	Analysis MAnalysisConfig `yaml:"analysis" json:"analysis"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type" json:"db_type"`
	DBPath             string `yaml:"db_path" json:"db_path"`
	DBConnectionString string `yaml:"db_connection_string" json:"-"`
}

type MSourceConfig struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"` // "csv"
	Path string `yaml:"path" json:"path"`
}

// -----------------------------------------------------------------------------

// Recognized option values for the aligner.
const (
	FillForward = "forward_fill"
	FillLinear  = "linear_interpolate"
	FillDrop    = "drop"

	RangeIntersect = "intersect"
	RangeUnion     = "union"

	AggMean = "mean"
	AggLast = "last"
)

// -----------------------------------------------------------------------------

// MMaxOrder bounds the ARIMA (p, d, q) grid search.
type MMaxOrder struct {
	P int `yaml:"p" json:"p"`
	D int `yaml:"d" json:"d"`
	Q int `yaml:"q" json:"q"`
}

// MRegressionSpec requests an OLS fit of Target on Predictors, each predictor
// optionally entered at the given lag offsets (0 = contemporaneous).
type MRegressionSpec struct {
	Target     string           `yaml:"target" json:"target"`
	Predictors []string         `yaml:"predictors" json:"predictors"`
	Lags       map[string][]int `yaml:"lags" json:"lags,omitempty"`
}

// -----------------------------------------------------------------------------

// MAnalysisConfig carries every recognized per-run option. Zero values are
// replaced by defaults in ApplyDefaults so a partial YAML or JSON document is
// always usable.
type MAnalysisConfig struct {
	// Aligner
	FillMethod        string     `yaml:"fill_method" json:"fill_method"` // forward_fill, linear_interpolate, drop
	MaxFillRun        int        `yaml:"max_fill_run" json:"max_fill_run"`
	FrequencyOverride MFrequency `yaml:"frequency_override" json:"frequency_override,omitempty"`
	RangePolicy       string     `yaml:"range_policy" json:"range_policy"` // intersect, union
	Aggregation       string     `yaml:"aggregation" json:"aggregation"`   // mean, last

	// Diagnostics
	SignificanceLevel float64 `yaml:"significance_level" json:"significance_level"`
	LjungBoxLags      []int   `yaml:"ljung_box_lags" json:"ljung_box_lags"`
	VIFThreshold      float64 `yaml:"vif_threshold" json:"vif_threshold"`
	SeasonalPeriod    int     `yaml:"seasonal_period" json:"seasonal_period"` // 0 = auto-detect
	DecompositionType string  `yaml:"decomposition_type" json:"decomposition_type"`

	// Modeler
	GrangerMaxLag      int              `yaml:"granger_max_lag" json:"granger_max_lag"`
	CorrelationMethods []string         `yaml:"correlation_methods" json:"correlation_methods"`
	PCAComponents      int              `yaml:"pca_components" json:"pca_components"` // 0 = use variance target
	PCAVarianceTarget  float64          `yaml:"pca_variance_target" json:"pca_variance_target"`
	Regression         []MRegressionSpec `yaml:"regression" json:"regression,omitempty"`

	// Forecasting
	MaxARIMAOrder     MMaxOrder `yaml:"max_arima_order" json:"max_arima_order"`
	ForecastHorizon   int       `yaml:"forecast_horizon" json:"forecast_horizon"`
	ConfidenceLevel   float64   `yaml:"confidence_level" json:"confidence_level"`
	ForecastFamily    string    `yaml:"forecast_family" json:"forecast_family"` // "", arima, ets
	BacktestFolds     int       `yaml:"backtest_folds" json:"backtest_folds"`
	BacktestWindow    string    `yaml:"backtest_window" json:"backtest_window"` // expanding, sliding
	BacktestStep      int       `yaml:"backtest_step" json:"backtest_step"`
	MinTrainWindow    int       `yaml:"min_train_window" json:"min_train_window"`
	FitTimeoutSeconds int       `yaml:"fit_timeout_seconds" json:"fit_timeout_seconds"`
	MaxParallelFits   int       `yaml:"max_parallel_fits" json:"max_parallel_fits"`

	// Segmentation
	ClusterKMin         int    `yaml:"cluster_k_min" json:"cluster_k_min"`
	ClusterKMax         int    `yaml:"cluster_k_max" json:"cluster_k_max"`
	ClusteringAlgorithm string `yaml:"clustering_algorithm" json:"clustering_algorithm"` // kmeans, hierarchical
	ReductionMethod     string `yaml:"reduction_method" json:"reduction_method"`         // pca, tsne

	// Determinism for k-means++ and t-SNE.
	RandomSeed int64 `yaml:"random_seed" json:"random_seed"`
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills every zero-valued option with its documented default.
func (c *MAnalysisConfig) ApplyDefaults() {
	if c.FillMethod == "" {
		c.FillMethod = "forward_fill"
	}
	if c.MaxFillRun <= 0 {
		c.MaxFillRun = 3
	}
	if c.RangePolicy == "" {
		c.RangePolicy = "intersect"
	}
	if c.Aggregation == "" {
		c.Aggregation = "mean"
	}
	if c.SignificanceLevel <= 0 || c.SignificanceLevel >= 1 {
		c.SignificanceLevel = 0.05
	}
	if len(c.LjungBoxLags) == 0 {
		c.LjungBoxLags = []int{10}
	}
	if c.VIFThreshold <= 0 {
		c.VIFThreshold = 10
	}
	if c.DecompositionType == "" {
		c.DecompositionType = "additive"
	}
	if c.GrangerMaxLag <= 0 {
		c.GrangerMaxLag = 4
	}
	if len(c.CorrelationMethods) == 0 {
		c.CorrelationMethods = []string{"pearson", "spearman", "kendall"}
	}
	if c.PCAVarianceTarget <= 0 || c.PCAVarianceTarget > 1 {
		c.PCAVarianceTarget = 0.90
	}
	if c.MaxARIMAOrder.P <= 0 {
		c.MaxARIMAOrder.P = 3
	}
	if c.MaxARIMAOrder.D <= 0 {
		c.MaxARIMAOrder.D = 2
	}
	if c.MaxARIMAOrder.Q <= 0 {
		c.MaxARIMAOrder.Q = 3
	}
	if c.ForecastHorizon <= 0 {
		c.ForecastHorizon = 12
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		c.ConfidenceLevel = 0.95
	}
	if c.BacktestFolds <= 0 {
		c.BacktestFolds = 5
	}
	if c.BacktestWindow == "" {
		c.BacktestWindow = "expanding"
	}
	if c.BacktestStep <= 0 {
		c.BacktestStep = 1
	}
	if c.MinTrainWindow <= 0 {
		c.MinTrainWindow = 24
	}
	if c.FitTimeoutSeconds <= 0 {
		c.FitTimeoutSeconds = 30
	}
	if c.MaxParallelFits <= 0 {
		c.MaxParallelFits = 4
	}
	if c.ClusterKMin < 2 {
		c.ClusterKMin = 2
	}
	if c.ClusterKMax < c.ClusterKMin {
		c.ClusterKMax = 8
	}
	if c.ClusteringAlgorithm == "" {
		c.ClusteringAlgorithm = "kmeans"
	}
	if c.ReductionMethod == "" {
		c.ReductionMethod = "pca"
	}
	if c.RandomSeed == 0 {
		c.RandomSeed = 42
	}
}
