package config

import (
	"fmt"
	"os"

	"econ-observer/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.Analysis.ApplyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	// Validate sources
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d must have a name", i)
		}
		if src.Type != "csv" {
			return fmt.Errorf("source '%s' has unsupported type '%s'", src.Name, src.Type)
		}
		if src.Path == "" {
			return fmt.Errorf("source '%s' must have a path", src.Name)
		}
	}

	// Validate analysis options
	a := c.Analysis
	switch a.FillMethod {
	case "forward_fill", "linear_interpolate", "drop":
	default:
		return fmt.Errorf("invalid fill_method: %s", a.FillMethod)
	}
	switch a.RangePolicy {
	case "intersect", "union":
	default:
		return fmt.Errorf("invalid range_policy: %s", a.RangePolicy)
	}
	switch a.ClusteringAlgorithm {
	case "kmeans", "hierarchical":
	default:
		return fmt.Errorf("invalid clustering_algorithm: %s", a.ClusteringAlgorithm)
	}
	switch a.ReductionMethod {
	case "pca", "tsne":
	default:
		return fmt.Errorf("invalid reduction_method: %s", a.ReductionMethod)
	}
	if a.FrequencyOverride != "" && !a.FrequencyOverride.Valid() {
		return fmt.Errorf("invalid frequency_override: %s", a.FrequencyOverride)
	}
	if a.ClusterKMax < a.ClusterKMin {
		return fmt.Errorf("cluster_k_max (%d) below cluster_k_min (%d)", a.ClusterKMax, a.ClusterKMin)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
