package datasource

import (
	"fmt"
	"sync"
	"time"

	"econ-observer/src/data_source/csv"
	"econ-observer/src/helpers"
	"econ-observer/src/interfaces"
	"econ-observer/src/logger"
	"econ-observer/src/models"
)

// Registry aggregates multiple ISeriesProvider instances and fans fetches
// out across them.
type Registry struct {
	Providers map[string]interfaces.ISeriesProvider
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewRegistry(cfg *models.MConfig, log *logger.Logger) (*Registry, error) {
	r := &Registry{
		Providers: make(map[string]interfaces.ISeriesProvider),
		Logger:    log,
	}

	for _, src := range cfg.Sources {
		switch src.Type {
		case "csv":
			p, err := csv.NewCSVProvider(src.Name, src.Path, log)
			if err != nil {
				return nil, err
			}
			if err := r.AddProvider(p); err != nil {
				return nil, err
			}
		default:
			return nil, &helpers.ConfigurationError{AnalysisError: helpers.AnalysisError{
				Message: "unsupported source type: " + src.Type}}
		}
	}
	return r, nil
}

// -----------------------------------------------------------------------------

func (r *Registry) AddProvider(p interfaces.ISeriesProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.Providers[name]; exists {
		return fmt.Errorf("provider %s already exists", name)
	}
	r.Providers[name] = p
	r.Logger.Info("Added provider: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

func (r *Registry) snapshot() []interfaces.ISeriesProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]interfaces.ISeriesProvider, 0, len(r.Providers))
	for _, p := range r.Providers {
		list = append(list, p)
	}
	return list
}

// -----------------------------------------------------------------------------

func (r *Registry) Name() string {
	return "Registry"
}

// -----------------------------------------------------------------------------

// Fetch fans out to all providers and merges results. A provider failure is
// logged and skipped; missing requested series fail the fetch so the caller
// never silently analyzes a partial panel.
func (r *Registry) Fetch(seriesIDs []string, from, to time.Time) ([]models.MSeries, error) {
	found := make(map[string]models.MSeries)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, p := range r.snapshot() {
		wg.Add(1)
		go func(p interfaces.ISeriesProvider) {
			defer wg.Done()
			series, err := p.Fetch(seriesIDs, from, to)
			if err != nil {
				r.Logger.Error("Provider %s failed fetch: %v", p.Name(), err)
				return
			}
			mu.Lock()
			for _, s := range series {
				if _, dup := found[s.ID]; !dup {
					found[s.ID] = s
				}
			}
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	out := make([]models.MSeries, 0, len(seriesIDs))
	for _, id := range seriesIDs {
		s, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("series %s not available from any provider", id)
		}
		out = append(out, s)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// Available merges the series lists of every provider.
func (r *Registry) Available() ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range r.snapshot() {
		ids, err := p.Available()
		if err != nil {
			r.Logger.Error("Provider %s failed listing: %v", p.Name(), err)
			continue
		}
		for _, id := range ids {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out, nil
}
