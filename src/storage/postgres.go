package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"econ-observer/src/helpers"
	"econ-observer/src/logger"
	"econ-observer/src/models"

	"github.com/lib/pq"
)

// -----------------------------------------------------------------------------

// PostgresSink stores result bundles as JSONB documents.
type PostgresSink struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresSink(cfg *models.MConfig, log *logger.Logger) (*PostgresSink, error) {
	return &PostgresSink{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSink) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString

	err := helpers.RetryWithBackoff("postgres connect", 3, 2*time.Second, func() error {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return err
		}
		d.DB = db
		return nil
	})
	if err != nil {
		return err
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *PostgresSink) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS result_bundles (
			run_id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ,
			series_ids TEXT[],
			findings INTEGER,
			document JSONB
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create result_bundles: %w", err)
	}

	query = `
		CREATE INDEX IF NOT EXISTS idx_result_bundles_created
		ON result_bundles (created_at DESC);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to index result_bundles: %w", err)
	}

	d.Logger.Info("PostgresSink initialized")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSink) SaveResultBundle(bundle *models.MResultBundle) (string, error) {
	doc, err := json.Marshal(bundle)
	if err != nil {
		return "", err
	}

	_, err = d.DB.Exec(`
		INSERT INTO result_bundles (run_id, created_at, series_ids, findings, document)
		VALUES ($1, $2, $3, $4, $5)
	`, bundle.RunID, bundle.CreatedAt, pq.Array(bundle.Panel.SeriesIDs), len(bundle.Findings), doc)
	if err != nil {
		return "", err
	}

	d.Logger.Info("Stored bundle %s (%d bytes)", bundle.RunID, len(doc))
	return "postgres://result_bundles/" + bundle.RunID, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSink) LoadResultBundle(runID string) (*models.MResultBundle, error) {
	var doc []byte
	err := d.DB.QueryRow(`SELECT document FROM result_bundles WHERE run_id = $1`, runID).Scan(&doc)
	if err != nil {
		return nil, err
	}

	var bundle models.MResultBundle
	if err := json.Unmarshal(doc, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSink) ListRuns(limit int) ([]models.MRunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.DB.Query(`
		SELECT run_id, created_at, series_ids, findings
		FROM result_bundles ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MRunSummary
	for rows.Next() {
		var s models.MRunSummary
		if err := rows.Scan(&s.RunID, &s.CreatedAt, pq.Array(&s.SeriesIDs), &s.Findings); err != nil {
			return nil, err
		}
		s.Location = "postgres://result_bundles/" + s.RunID
		out = append(out, s)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *PostgresSink) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
