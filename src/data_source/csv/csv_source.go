package csv

import (
	stdcsv "encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"econ-observer/src/logger"
	"econ-observer/src/models"
)

// dateLayouts accepted in the first column, tried in order.
var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339, "2006/01/02", "01/02/2006"}

// -----------------------------------------------------------------------------

// CSVProvider serves series from one wide-format CSV file: first column is
// the date, every other column is one series identified by its header. Empty
// cells are missing observations. The file is parsed once at construction.
type CSVProvider struct {
	name   string
	path   string
	series map[string]models.MSeries
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCSVProvider(name, path string, log *logger.Logger) (*CSVProvider, error) {
	p := &CSVProvider{
		name:   name,
		path:   path,
		series: make(map[string]models.MSeries),
		Logger: log,
	}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

// -----------------------------------------------------------------------------

func (p *CSVProvider) Name() string {
	return p.name
}

// -----------------------------------------------------------------------------

func (p *CSVProvider) load() error {
	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("csv provider %s: %w", p.name, err)
	}
	defer f.Close()

	reader := stdcsv.NewReader(f)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("csv provider %s: %w", p.name, err)
	}
	if len(records) < 2 {
		return fmt.Errorf("csv provider %s: file %s has no data rows", p.name, p.path)
	}

	header := records[0]
	if len(header) < 2 {
		return fmt.Errorf("csv provider %s: need a date column plus at least one series column", p.name)
	}

	observations := make(map[string][]models.MObservation, len(header)-1)
	for _, row := range records[1:] {
		ts, err := parseDate(row[0])
		if err != nil {
			p.Logger.Warning("Skipping row with unparseable date %q in %s", row[0], p.path)
			continue
		}
		for col := 1; col < len(row) && col < len(header); col++ {
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(v) {
				continue
			}
			id := header[col]
			observations[id] = append(observations[id], models.MObservation{Timestamp: ts, Value: v})
		}
	}

	for col := 1; col < len(header); col++ {
		id := header[col]
		obs := observations[id]
		if len(obs) == 0 {
			p.Logger.Warning("Series %s in %s has no observations, skipping", id, p.path)
			continue
		}
		// Rows in the file are not guaranteed to be chronological.
		sort.Slice(obs, func(i, j int) bool { return obs[i].Timestamp.Before(obs[j].Timestamp) })
		s := models.MSeries{ID: id, Observations: obs}
		if !s.ValidateMonotonic() {
			p.Logger.Warning("Series %s in %s has duplicate timestamps, skipping", id, p.path)
			continue
		}
		p.series[id] = s
	}

	p.Logger.Info("Loaded %d series from %s", len(p.series), p.path)
	return nil
}

// -----------------------------------------------------------------------------

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// -----------------------------------------------------------------------------

// Fetch returns the requested series restricted to [from, to]. Unknown ids
// are simply absent from the result; the registry decides whether that is
// fatal.
func (p *CSVProvider) Fetch(seriesIDs []string, from, to time.Time) ([]models.MSeries, error) {
	var out []models.MSeries
	for _, id := range seriesIDs {
		s, ok := p.series[id]
		if !ok {
			continue
		}

		obs := make([]models.MObservation, 0, len(s.Observations))
		for _, o := range s.Observations {
			if !from.IsZero() && o.Timestamp.Before(from) {
				continue
			}
			if !to.IsZero() && o.Timestamp.After(to) {
				continue
			}
			obs = append(obs, o)
		}
		if len(obs) == 0 {
			continue
		}
		out = append(out, models.MSeries{
			ID:           s.ID,
			Observations: obs,
			Frequency:    s.Frequency,
			Unit:         s.Unit,
			Scale:        s.Scale,
		})
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (p *CSVProvider) Available() ([]string, error) {
	out := make([]string, 0, len(p.series))
	for id := range p.series {
		out = append(out, id)
	}
	return out, nil
}
