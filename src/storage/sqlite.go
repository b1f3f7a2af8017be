package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"econ-observer/src/logger"
	"econ-observer/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteSink stores result bundles as JSON documents alongside a queryable
// runs table.
type SQLiteSink struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteSink(cfg *models.MConfig, log *logger.Logger) (*SQLiteSink, error) {
	return &SQLiteSink{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSink) Initialize() error {
	dsn := d.Config.Storage.DBPath

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		return err
	}
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteSink) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS result_bundles (
			run_id TEXT PRIMARY KEY,
			created_at INTEGER,
			series_ids TEXT,
			findings INTEGER,
			document TEXT
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
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSink) SaveResultBundle(bundle *models.MResultBundle) (string, error) {
	doc, err := json.Marshal(bundle)
	if err != nil {
		return "", err
	}

	_, err = d.DB.Exec(`
		INSERT INTO result_bundles (run_id, created_at, series_ids, findings, document)
		VALUES (?, ?, ?, ?, ?)
	`, bundle.RunID, bundle.CreatedAt.Unix(), strings.Join(bundle.Panel.SeriesIDs, ","), len(bundle.Findings), string(doc))
	if err != nil {
		return "", err
	}

	d.Logger.Info("Stored bundle %s (%d bytes)", bundle.RunID, len(doc))
	return "sqlite://result_bundles/" + bundle.RunID, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSink) LoadResultBundle(runID string) (*models.MResultBundle, error) {
	var doc string
	err := d.DB.QueryRow(`SELECT document FROM result_bundles WHERE run_id = ?`, runID).Scan(&doc)
	if err != nil {
		return nil, err
	}

	var bundle models.MResultBundle
	if err := json.Unmarshal([]byte(doc), &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSink) ListRuns(limit int) ([]models.MRunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.DB.Query(`
		SELECT run_id, created_at, series_ids, findings
		FROM result_bundles ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MRunSummary
	for rows.Next() {
		var s models.MRunSummary
		var createdAt int64
		var ids string
		if err := rows.Scan(&s.RunID, &createdAt, &ids, &s.Findings); err != nil {
			return nil, err
		}
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		if ids != "" {
			s.SeriesIDs = strings.Split(ids, ",")
		}
		s.Location = "sqlite://result_bundles/" + s.RunID
		out = append(out, s)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteSink) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
