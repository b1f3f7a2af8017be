package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econ-observer/src/models"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalYAML = `
name: "econ-observer"
host: "127.0.0.1"
port: 8080
log_level: "ERROR"
storage:
  db_type: "sqlite"
  db_path: "observer.db"
`

// -----------------------------------------------------------------------------

func TestNewConfigAppliesAnalysisDefaults(t *testing.T) {
	path := writeConfigFile(t, minimalYAML)

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "econ-observer", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
	// A config with no analysis block still yields a fully usable run
	// configuration.
	assert.Equal(t, "forward_fill", cfg.Analysis.FillMethod)
	assert.Equal(t, 0.05, cfg.Analysis.SignificanceLevel)
	assert.Equal(t, 12, cfg.Analysis.ForecastHorizon)
	assert.Equal(t, "kmeans", cfg.Analysis.ClusteringAlgorithm)
}

// -----------------------------------------------------------------------------

func TestNewConfigParsesAnalysisOverrides(t *testing.T) {
	path := writeConfigFile(t, minimalYAML+`
analysis:
  fill_method: "linear_interpolate"
  range_policy: "union"
  forecast_horizon: 6
  ljung_box_lags: [5, 10, 20]
  regression:
    - target: "gdp"
      predictors: ["rates", "cpi"]
      lags:
        rates: [0, 1]
`)

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "linear_interpolate", cfg.Analysis.FillMethod)
	assert.Equal(t, "union", cfg.Analysis.RangePolicy)
	assert.Equal(t, 6, cfg.Analysis.ForecastHorizon)
	assert.Equal(t, []int{5, 10, 20}, cfg.Analysis.LjungBoxLags)
	require.Len(t, cfg.Analysis.Regression, 1)
	spec := cfg.Analysis.Regression[0]
	assert.Equal(t, "gdp", spec.Target)
	assert.Equal(t, []string{"rates", "cpi"}, spec.Predictors)
	assert.Equal(t, []int{0, 1}, spec.Lags["rates"])
}

// -----------------------------------------------------------------------------

func TestNewConfigRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `
host: "127.0.0.1"
port: 8080
storage: {db_type: "sqlite", db_path: "x.db"}
`,
			want: "application name",
		},
		{
			name: "privileged port",
			yaml: `
name: "app"
host: "127.0.0.1"
port: 80
storage: {db_type: "sqlite", db_path: "x.db"}
`,
			want: "port",
		},
		{
			name: "sqlite without path",
			yaml: `
name: "app"
host: "127.0.0.1"
port: 8080
storage: {db_type: "sqlite"}
`,
			want: "database path",
		},
		{
			name: "postgres without connection string",
			yaml: `
name: "app"
host: "127.0.0.1"
port: 8080
storage: {db_type: "postgres"}
`,
			want: "connection string",
		},
		{
			name: "unsupported source type",
			yaml: minimalYAML + `
sources:
  - name: "feed"
    type: "parquet"
    path: "data.parquet"
`,
			want: "unsupported type",
		},
		{
			name: "bad fill method",
			yaml: minimalYAML + `
analysis:
  fill_method: "extrapolate"
`,
			want: "fill_method",
		},
		{
			name: "bad frequency override",
			yaml: minimalYAML + `
analysis:
  frequency_override: "fortnightly"
`,
			want: "frequency_override",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, tc.yaml)
			_, err := NewConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

// -----------------------------------------------------------------------------

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

// -----------------------------------------------------------------------------

func TestConfigSaveRoundtrip(t *testing.T) {
	path := writeConfigFile(t, minimalYAML)
	cfg, err := NewConfig(path)
	require.NoError(t, err)

	cfg.Analysis.ForecastHorizon = 18
	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(out))

	reloaded, err := NewConfig(out)
	require.NoError(t, err)
	assert.Equal(t, 18, reloaded.Analysis.ForecastHorizon)
	assert.Equal(t, cfg.Storage, reloaded.Storage)
}

// -----------------------------------------------------------------------------

func TestConfigEmbedsModel(t *testing.T) {
	path := writeConfigFile(t, minimalYAML)
	cfg, err := NewConfig(path)
	require.NoError(t, err)

	var _ *models.MConfig = cfg.MConfig
	assert.Equal(t, models.MStorageConfig{DBType: "sqlite", DBPath: "observer.db"}, cfg.Storage)
}
