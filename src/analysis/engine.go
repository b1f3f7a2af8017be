package analysis

import (
	"context"
	"sync"
	"time"

	"econ-observer/src/analysis/core"
	"econ-observer/src/interfaces"
	"econ-observer/src/logger"
	"econ-observer/src/models"

	"github.com/google/uuid"
)

// Engine runs one full analysis: align, fan out the analytical components,
// join, synthesize findings, and assemble the immutable result bundle. A run
// shares no mutable state with any other run.
type Engine struct {
	Config     *models.MConfig
	Logger     *logger.Logger
	Aligner    *Aligner
	Diagnostic *DiagnosticSuite
	Modeler    *Modeler
	Forecaster *Forecaster
	Segmenter  *Segmenter
	Synth      *Synthesizer
	Notifier   interfaces.IRunNotifier
}

// -----------------------------------------------------------------------------

func NewEngine(cfg *models.MConfig, log *logger.Logger, notifier interfaces.IRunNotifier) *Engine {
	return &Engine{
		Config:     cfg,
		Logger:     log,
		Aligner:    NewAligner(cfg, log),
		Diagnostic: NewDiagnosticSuite(cfg, log),
		Modeler:    NewModeler(cfg, log),
		Forecaster: NewForecaster(cfg, log),
		Segmenter:  NewSegmenter(cfg, log),
		Synth:      NewSynthesizer(cfg, log),
		Notifier:   notifier,
	}
}

// -----------------------------------------------------------------------------

// Run executes the whole pipeline on the given series. The run fails only
// when alignment cannot produce a usable panel; component failures are
// recorded in the bundle as reduced-confidence findings.
func (e *Engine) Run(ctx context.Context, series []models.MSeries) (*models.MResultBundle, error) {
	started := time.Now()
	runID := uuid.New().String()
	e.notify(models.MRunEvent{Type: "run_started", RunID: runID})

	panel, err := e.Aligner.Align(series)
	if err != nil {
		e.Logger.Error("Run %s: alignment failed: %v", runID, err)
		e.notify(models.MRunEvent{Type: "run_failed", RunID: runID, Component: "aligner", Message: err.Error()})
		return nil, err
	}
	e.notify(models.MRunEvent{Type: "component_done", RunID: runID, Component: "aligner"})

	bundle := &models.MResultBundle{
		RunID:     runID,
		CreatedAt: started.UTC(),
		Config:    e.Config.Analysis,
		Panel:     summarizePanel(panel),
	}

	componentErrors := make(map[string]error)
	var mu sync.Mutex
	fail := func(component string, err error) {
		e.Logger.Warning("Run %s: %s failed: %v", runID, component, err)
		mu.Lock()
		componentErrors[component] = err
		mu.Unlock()
	}

	// Per-series stationarity runs first: the forecaster seeds its
	// differencing order from these verdicts.
	verdicts := e.runStationarity(panel, bundle, fail)
	e.notify(models.MRunEvent{Type: "component_done", RunID: runID, Component: "diagnostics"})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.runModeler(panel, bundle, fail)
		e.notify(models.MRunEvent{Type: "component_done", RunID: runID, Component: "modeler"})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		bundle.Forecasts = e.runForecasts(ctx, panel, verdicts)
		e.notify(models.MRunEvent{Type: "component_done", RunID: runID, Component: "forecaster"})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.runSegmentation(panel, bundle, fail)
		e.notify(models.MRunEvent{Type: "component_done", RunID: runID, Component: "segmenter"})
	}()

	wg.Wait()

	bundle.Findings = e.Synth.Synthesize(bundle, componentErrors)
	bundle.Elapsed = time.Since(started)

	e.Logger.Info("Run %s finished in %s: %d findings, %d forecasts, %d clusterings",
		runID, bundle.Elapsed.Round(time.Millisecond), len(bundle.Findings), len(bundle.Forecasts), len(bundle.Clusters))
	e.notify(models.MRunEvent{Type: "run_done", RunID: runID})
	return bundle, nil
}

// -----------------------------------------------------------------------------

// runStationarity produces a verdict per series, plus the per-series
// decomposition diagnostic when a seasonal structure is configured or found.
func (e *Engine) runStationarity(panel *models.MAlignedPanel, bundle *models.MResultBundle, fail func(string, error)) map[string]*models.MStationarityVerdict {
	verdicts := make(map[string]*models.MStationarityVerdict, len(panel.SeriesIDs))
	for _, id := range panel.SeriesIDs {
		data := panel.ObservedColumn(id)

		v, err := e.Diagnostic.Stationarity(id, data)
		if err != nil {
			fail("stationarity:"+id, err)
		} else {
			verdicts[id] = v
			bundle.Stationarity = append(bundle.Stationarity, *v)
		}

		if r, err := e.Diagnostic.Normality(id, data); err == nil {
			bundle.Diagnostics = append(bundle.Diagnostics, *r)
		} else {
			e.Logger.Debug("Skipping normality on %s: %v", id, err)
		}
		if r, err := e.Diagnostic.Autocorrelation(id, data, 0); err == nil {
			bundle.Diagnostics = append(bundle.Diagnostics, *r)
		} else {
			e.Logger.Debug("Skipping ljung-box on %s: %v", id, err)
		}
		if _, r, err := e.Diagnostic.Decomposition(id, data); err == nil {
			bundle.Diagnostics = append(bundle.Diagnostics, *r)
		} else {
			e.Logger.Debug("Skipping decomposition on %s: %v", id, err)
		}
	}
	return verdicts
}

// -----------------------------------------------------------------------------

func (e *Engine) runModeler(panel *models.MAlignedPanel, bundle *models.MResultBundle, fail func(string, error)) {
	correlations, err := e.Modeler.Correlations(panel, e.Config.Analysis.CorrelationMethods)
	if err != nil {
		fail("correlation", err)
	} else {
		bundle.Correlations = correlations
	}

	granger, err := e.Modeler.Granger(panel)
	if err != nil {
		fail("granger", err)
	} else {
		bundle.Granger = granger
	}

	if len(panel.SeriesIDs) >= 2 {
		pca, err := e.Modeler.PCA(panel)
		if err != nil {
			fail("pca", err)
		} else {
			bundle.PCA = pca
		}
	}

	for _, spec := range e.Config.Analysis.Regression {
		fit, err := e.Modeler.Regression(panel, spec)
		if err != nil {
			fail("regression:"+spec.Target, err)
			continue
		}
		bundle.Regressions = append(bundle.Regressions, *fit)
	}
}

// -----------------------------------------------------------------------------

// runForecasts fans out one fit task per series over a bounded worker pool
// and joins the results in panel order.
func (e *Engine) runForecasts(ctx context.Context, panel *models.MAlignedPanel, verdicts map[string]*models.MStationarityVerdict) []models.MModelFit {
	workers := e.Config.Analysis.MaxParallelFits
	if workers < 1 {
		workers = 1
	}

	fits := make([]models.MModelFit, len(panel.SeriesIDs))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				id := panel.SeriesIDs[idx]
				fits[idx] = *e.Forecaster.ForecastSeries(ctx, panel, id, verdicts[id])
			}
		}()
	}

	for idx := range panel.SeriesIDs {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return fits
}

// -----------------------------------------------------------------------------

func (e *Engine) runSegmentation(panel *models.MAlignedPanel, bundle *models.MResultBundle, fail func(string, error)) {
	if c, err := e.Segmenter.ClusterPeriods(panel); err != nil {
		fail("period_clustering", err)
	} else {
		bundle.Clusters = append(bundle.Clusters, *c)
	}

	if c, err := e.Segmenter.ClusterSeries(panel); err != nil {
		fail("series_clustering", err)
	} else {
		bundle.Clusters = append(bundle.Clusters, *c)
	}
}

// -----------------------------------------------------------------------------

func summarizePanel(panel *models.MAlignedPanel) models.MPanelSummary {
	summary := models.MPanelSummary{
		Frequency:  panel.Frequency,
		Rows:       panel.Len(),
		SeriesIDs:  append([]string(nil), panel.SeriesIDs...),
		Statistics: make(map[string]map[string]float64, len(panel.SeriesIDs)),
	}
	if panel.Len() > 0 {
		summary.Start = panel.Index[0]
		summary.End = panel.Index[panel.Len()-1]
	}

	for _, id := range panel.SeriesIDs {
		col, _ := panel.Column(id)
		stats := core.DescribeSeries(col)
		summary.Statistics[id] = stats
	}
	return summary
}

// -----------------------------------------------------------------------------

func (e *Engine) notify(event models.MRunEvent) {
	if e.Notifier == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	e.Notifier.Notify(event)
}
