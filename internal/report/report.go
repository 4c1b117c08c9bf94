// Package report defines the terminal artifact of an evaluation run: a
// per-item row table plus an aggregate summary, serialized once as JSON.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the snapshot of the settings a run was produced under.
type Config struct {
	Dataset     string `json:"dataset"`
	Model       string `json:"model"`
	K           int    `json:"k"`
	Concurrency int    `json:"concurrency"`
	Dry         bool   `json:"dry"`
	Cache       bool   `json:"cache"`
	SaveRaw     bool   `json:"save_raw,omitempty"`
}

// Row is one dataset item's outcome. A failed item carries Error and no
// metrics; a scored item carries metrics rounded to 3 decimals.
type Row struct {
	Name      string  `json:"name"`
	K         int     `json:"k"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	AP        float64 `json:"ap"`
	MRR       float64 `json:"mrr"`
	NDCG      float64 `json:"ndcg"`
	MS        int64   `json:"ms"`
	Cache     bool    `json:"cache"`
	Error     string  `json:"error,omitempty"`
}

// MarshalJSON collapses failed rows to {name, error}.
func (r Row) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Name  string `json:"name"`
			Error string `json:"error"`
		}{Name: r.Name, Error: r.Error})
	}
	type alias Row
	return json.Marshal(alias(r))
}

// Summary aggregates scored rows, rounded to 4 decimals (avg_ms to 1).
type Summary struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	MAP       float64 `json:"map"`
	MRR       float64 `json:"mrr"`
	NDCG      float64 `json:"ndcg"`
	AvgMS     float64 `json:"avg_ms"`
}

// Report is written once at the end of a run and never mutated.
type Report struct {
	Config  Config    `json:"config"`
	Rows    []Row     `json:"rows"`
	Summary Summary   `json:"summary"`
	TS      time.Time `json:"ts"`
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Write persists the report as indented JSON, creating parent directories.
func Write(path string, r *Report) error {
	if r == nil {
		return errors.New("report: nil report")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("report: empty path")
	}

	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("report: create dir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("report: write %q: %w", path, err)
	}
	return nil
}

// DefaultPath names a report file under dir from the run timestamp.
func DefaultPath(dir string, ts time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("eval_%s.json", ts.UTC().Format("20060102T150405Z")))
}
