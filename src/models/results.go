package models

import "time"

// -----------------------------------------------------------------------------
// MDiagnosticResult
// -----------------------------------------------------------------------------

// MDiagnosticResult is the outcome of one statistical test. Immutable once
// produced.
type MDiagnosticResult struct {
	Test           string             `json:"test"`
	SeriesID       string             `json:"series_id,omitempty"`
	Statistic      float64            `json:"statistic"`
	PValue         float64            `json:"p_value"`
	Significance   float64            `json:"significance"`
	RejectNull     bool               `json:"reject_null"`
	Interpretation string             `json:"interpretation"`
	Detail         map[string]float64 `json:"detail,omitempty"`
	Curve          []float64          `json:"curve,omitempty"` // e.g. ACF values per lag
}

// -----------------------------------------------------------------------------
// MStationarityVerdict
// -----------------------------------------------------------------------------

// Stationarity labels. ADF and KPSS test opposite nulls; the combined label
// surfaces any disagreement instead of resolving it silently.
const (
	StationarityStationary    = "stationary"
	StationarityNonStationary = "non-stationary"
	StationarityInconclusive  = "inconclusive"
)

type MStationarityVerdict struct {
	SeriesID string            `json:"series_id"`
	ADF      MDiagnosticResult `json:"adf"`
	KPSS     MDiagnosticResult `json:"kpss"`
	Label    string            `json:"label"`
	// SuggestedD is the differencing order that first produced a stationary
	// label, used to seed ARIMA order selection.
	SuggestedD int `json:"suggested_d"`
}

// -----------------------------------------------------------------------------
// MModelFit
// -----------------------------------------------------------------------------

// Model families.
const (
	FamilyARIMA        = "arima"
	FamilyETS          = "ets"
	FamilyOLS          = "ols"
	FamilyPCA          = "pca"
	FamilyKMeans       = "kmeans"
	FamilyHierarchical = "hierarchical"
)

// Forecast lifecycle states, in order. A fit only ever moves forward.
const (
	StateUnfit         = "unfit"
	StateOrderSelected = "order_selected"
	StateFitted        = "fitted"
	StateForecasted    = "forecasted"
	StateBacktested    = "backtested"
)

type MForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Point     float64   `json:"point"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

type MBacktestReport struct {
	Folds    int       `json:"folds"`
	Horizon  int       `json:"horizon"`
	Window   string    `json:"window"` // "expanding" or "sliding"
	MAE      float64   `json:"mae"`
	RMSE     float64   `json:"rmse"`
	MAPE     float64   `json:"mape"`
	FoldMAE  []float64 `json:"fold_mae"`
	FoldRMSE []float64 `json:"fold_rmse"`
	FoldMAPE []float64 `json:"fold_mape"`
}

// MModelFit is the result of fitting one statistical or forecasting model.
type MModelFit struct {
	Family       string              `json:"family"`
	SeriesID     string              `json:"series_id,omitempty"`
	State        string              `json:"state,omitempty"`
	Order        map[string]int      `json:"order,omitempty"`      // e.g. {"p":1,"d":1,"q":0} or {"form":…} keys
	Params       map[string]float64  `json:"params,omitempty"`     // coefficients, smoothing weights
	Coefficients []float64           `json:"coefficients,omitempty"`
	Metrics      map[string]float64  `json:"metrics,omitempty"` // aic, bic, r2, sigma2, loglik
	Forecast     []MForecastPoint    `json:"forecast,omitempty"`
	Backtest     *MBacktestReport    `json:"backtest,omitempty"`
	Diagnostics  []MDiagnosticResult `json:"diagnostics,omitempty"` // residual diagnostics
	Warnings     []string            `json:"warnings,omitempty"`
	Failed       bool                `json:"failed,omitempty"`
	FailReason   string              `json:"fail_reason,omitempty"`
	// Alternatives lists candidate families evaluated but not selected,
	// with their comparison criterion.
	Alternatives map[string]float64 `json:"alternatives,omitempty"`
}

// -----------------------------------------------------------------------------
// MCorrelationMatrix
// -----------------------------------------------------------------------------

type MCorrelationMatrix struct {
	Method    string      `json:"method"` // pearson, spearman, kendall
	SeriesIDs []string    `json:"series_ids"`
	Matrix    [][]float64 `json:"matrix"`
}

// -----------------------------------------------------------------------------
// MGrangerResult
// -----------------------------------------------------------------------------

type MGrangerResult struct {
	Cause       string  `json:"cause"`
	Effect      string  `json:"effect"`
	MaxLag      int     `json:"max_lag"`
	MinimalLag  int     `json:"minimal_lag"` // first lag reaching significance, 0 if none
	FStatistic  float64 `json:"f_statistic"` // at MinimalLag (or MaxLag when not significant)
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
}

// -----------------------------------------------------------------------------
// MPCAResult
// -----------------------------------------------------------------------------

type MPCAResult struct {
	SeriesIDs       []string    `json:"series_ids"`
	ExplainedRatios []float64   `json:"explained_ratios"` // descending, sum <= 1+eps
	Loadings        [][]float64 `json:"loadings"`         // component x variable
	Components      int         `json:"components"`
}

// -----------------------------------------------------------------------------
// MClusterAssignment
// -----------------------------------------------------------------------------

type MClusterAssignment struct {
	Mode        string             `json:"mode"`      // "period" or "series"
	Algorithm   string             `json:"algorithm"` // kmeans, hierarchical
	Labels      map[string]int     `json:"labels"`    // entity -> cluster
	K           int                `json:"k"`
	Inertia     map[int]float64    `json:"inertia_curve"`    // k -> inertia
	Silhouette  map[int]float64    `json:"silhouette_curve"` // k -> mean silhouette
	BestByCurve int                `json:"recommended_k"`
	Reduction   map[string][]float64 `json:"reduction,omitempty"` // entity -> 2-D display coords
	ReductionBy string             `json:"reduction_by,omitempty"`
}

// -----------------------------------------------------------------------------
// MFinding
// -----------------------------------------------------------------------------

// Finding severities, highest first.
const (
	SeverityCritical = 3
	SeverityNotable  = 2
	SeverityInfo     = 1
)

type MFinding struct {
	Severity int      `json:"severity"`
	Rank     int      `json:"rank"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
	Sources  []string `json:"sources,omitempty"` // result identifiers that produced it
}

// -----------------------------------------------------------------------------
// MPanelSummary
// -----------------------------------------------------------------------------

type MPanelSummary struct {
	Frequency  MFrequency                    `json:"frequency"`
	Start      time.Time                     `json:"start"`
	End        time.Time                     `json:"end"`
	Rows       int                           `json:"rows"`
	SeriesIDs  []string                      `json:"series_ids"`
	Statistics map[string]map[string]float64 `json:"statistics"` // id -> {mean,std,min,max,median,missing}
}

// -----------------------------------------------------------------------------
// MResultBundle
// -----------------------------------------------------------------------------

// MResultBundle is the terminal artifact of one analysis run. Never mutated
// after creation; persisted through the artifact sink as an opaque document.
type MResultBundle struct {
	RunID        string                 `json:"run_id"`
	CreatedAt    time.Time              `json:"created_at"`
	Config       MAnalysisConfig        `json:"config"`
	Panel        MPanelSummary          `json:"panel"`
	Stationarity []MStationarityVerdict `json:"stationarity"`
	Diagnostics  []MDiagnosticResult    `json:"diagnostics"`
	Correlations []MCorrelationMatrix   `json:"correlations"`
	Granger      []MGrangerResult       `json:"granger"`
	PCA          *MPCAResult            `json:"pca,omitempty"`
	Regressions  []MModelFit            `json:"regressions,omitempty"`
	Forecasts    []MModelFit            `json:"forecasts"`
	Clusters     []MClusterAssignment   `json:"clusters"`
	Findings     []MFinding             `json:"findings"`
	Elapsed      time.Duration          `json:"elapsed_ns"`
}

// -----------------------------------------------------------------------------
// MRunSummary
// -----------------------------------------------------------------------------

// MRunSummary is the lightweight listing record for a stored bundle.
type MRunSummary struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	SeriesIDs []string  `json:"series_ids"`
	Findings  int       `json:"findings"`
	Location  string    `json:"location"`
}

// -----------------------------------------------------------------------------
// MRunEvent
// -----------------------------------------------------------------------------

// MRunEvent is pushed over the websocket hub while a run progresses.
type MRunEvent struct {
	Type      string    `json:"type"` // run_started, component_done, run_done, run_failed
	RunID     string    `json:"run_id"`
	Component string    `json:"component,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
