package datasource

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econ-observer/src/interfaces"
	"econ-observer/src/logger"
	"econ-observer/src/models"
)

func testLog() *logger.Logger {
	return logger.NewLogger(&models.MConfig{LogLevel: "ERROR"}, "registry-test")
}

func newTestRegistry() *Registry {
	return &Registry{
		Providers: make(map[string]interfaces.ISeriesProvider),
		Logger:    testLog(),
	}
}

// stubProvider serves a fixed series map, optionally failing every call.
type stubProvider struct {
	name   string
	series map[string]models.MSeries
	fail   bool
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Fetch(seriesIDs []string, from, to time.Time) ([]models.MSeries, error) {
	if p.fail {
		return nil, errors.New("provider down")
	}
	var out []models.MSeries
	for _, id := range seriesIDs {
		if s, ok := p.series[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (p *stubProvider) Available() ([]string, error) {
	if p.fail {
		return nil, errors.New("provider down")
	}
	out := make([]string, 0, len(p.series))
	for id := range p.series {
		out = append(out, id)
	}
	return out, nil
}

func stubSeries(id string) models.MSeries {
	return models.MSeries{ID: id, Observations: []models.MObservation{
		{Timestamp: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Value: 1},
	}}
}

// -----------------------------------------------------------------------------

func TestRegistryFetchMergesProviders(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.AddProvider(&stubProvider{
		name:   "one",
		series: map[string]models.MSeries{"gdp": stubSeries("gdp")},
	}))
	require.NoError(t, r.AddProvider(&stubProvider{
		name:   "two",
		series: map[string]models.MSeries{"cpi": stubSeries("cpi")},
	}))

	series, err := r.Fetch([]string{"gdp", "cpi"}, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, series, 2)
	// Output follows the requested order regardless of provider.
	assert.Equal(t, "gdp", series[0].ID)
	assert.Equal(t, "cpi", series[1].ID)
}

// -----------------------------------------------------------------------------

func TestRegistryFetchMissingSeriesFails(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.AddProvider(&stubProvider{
		name:   "one",
		series: map[string]models.MSeries{"gdp": stubSeries("gdp")},
	}))

	_, err := r.Fetch([]string{"gdp", "unknown"}, time.Time{}, time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}

// -----------------------------------------------------------------------------

func TestRegistryFetchSurvivesProviderFailure(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.AddProvider(&stubProvider{name: "down", fail: true}))
	require.NoError(t, r.AddProvider(&stubProvider{
		name:   "up",
		series: map[string]models.MSeries{"gdp": stubSeries("gdp")},
	}))

	series, err := r.Fetch([]string{"gdp"}, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "gdp", series[0].ID)
}

// -----------------------------------------------------------------------------

func TestRegistryDuplicateProviderRejected(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.AddProvider(&stubProvider{name: "dup"}))
	err := r.AddProvider(&stubProvider{name: "dup"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

// -----------------------------------------------------------------------------

func TestRegistryAvailableDeduplicates(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.AddProvider(&stubProvider{
		name:   "one",
		series: map[string]models.MSeries{"gdp": stubSeries("gdp"), "cpi": stubSeries("cpi")},
	}))
	require.NoError(t, r.AddProvider(&stubProvider{
		name:   "two",
		series: map[string]models.MSeries{"gdp": stubSeries("gdp"), "fx": stubSeries("fx")},
	}))
	require.NoError(t, r.AddProvider(&stubProvider{name: "down", fail: true}))

	ids, err := r.Available()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gdp", "cpi", "fx"}, ids)
}

// -----------------------------------------------------------------------------

func TestNewRegistryFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macro.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,gdp\n2020-01-01,100\n2020-02-01,101\n"), 0644))

	cfg := &models.MConfig{
		LogLevel: "ERROR",
		Sources:  []models.MSourceConfig{{Name: "macro", Type: "csv", Path: path}},
	}
	r, err := NewRegistry(cfg, testLog())
	require.NoError(t, err)

	ids, err := r.Available()
	require.NoError(t, err)
	assert.Equal(t, []string{"gdp"}, ids)

	cfg.Sources[0].Type = "grpc"
	_, err = NewRegistry(cfg, testLog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported source type")
}
