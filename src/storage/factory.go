package storage

import (
	"econ-observer/src/helpers"
	"econ-observer/src/interfaces"
	"econ-observer/src/logger"
	"econ-observer/src/models"
)

// -----------------------------------------------------------------------------

// NewSink returns the artifact sink matching the configured db_type.
func NewSink(cfg *models.MConfig, log *logger.Logger) (interfaces.IArtifactSink, error) {
	switch cfg.Storage.DBType {
	case "postgres":
		return NewPostgresSink(cfg, log)
	case "sqlite", "":
		return NewSQLiteSink(cfg, log)
	default:
		return nil, &helpers.ConfigurationError{AnalysisError: helpers.AnalysisError{
			Message: "unsupported storage db_type: " + cfg.Storage.DBType}}
	}
}
