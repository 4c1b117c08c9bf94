package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stellarlinkco/extract-eval/internal/report"
)

const defaultListLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRunStmt *sql.Stmt
	getRunStmt    *sql.Stmt
	listRunsStmt  *sql.Stmt
}

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := st.prepareStatements(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			dataset TEXT NOT NULL,
			model TEXT NOT NULL,
			k INTEGER NOT NULL,
			concurrency INTEGER NOT NULL,
			dry INTEGER NOT NULL,
			cached INTEGER NOT NULL,
			total_items INTEGER NOT NULL,
			failed_items INTEGER NOT NULL,
			precision REAL NOT NULL,
			recall REAL NOT NULL,
			f1 REAL NOT NULL,
			map REAL NOT NULL,
			mrr REAL NOT NULL,
			ndcg REAL NOT NULL,
			avg_ms REAL NOT NULL,
			report_json BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

const runColumns = `id, created_at, dataset, model, k, concurrency, dry, cached,
	total_items, failed_items, precision, recall, f1, map, mrr, ndcg, avg_ms, report_json`

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()
	type stmtSpec struct {
		dst    **sql.Stmt
		query  string
		errFmt string
	}

	specs := []stmtSpec{
		{
			dst: &s.insertRunStmt,
			query: `INSERT INTO runs (` + runColumns + `)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			errFmt: "store: prepare insert run: %w",
		},
		{
			dst:    &s.getRunStmt,
			query:  `SELECT ` + runColumns + ` FROM runs WHERE id = ?`,
			errFmt: "store: prepare get run: %w",
		},
		{
			dst:    &s.listRunsStmt,
			query:  `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC LIMIT ?`,
			errFmt: "store: prepare list runs: %w",
		},
	}

	for _, spec := range specs {
		stmt, err := s.db.PrepareContext(ctx, spec.query)
		if err != nil {
			return fmt.Errorf(spec.errFmt, err)
		}
		*spec.dst = stmt
	}
	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	for _, stmt := range []*sql.Stmt{s.insertRunStmt, s.getRunStmt, s.listRunsStmt} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun persists a run record.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if run == nil {
		return errors.New("store: nil run")
	}

	id := strings.TrimSpace(run.ID)
	if id == "" {
		return errors.New("store: empty run id")
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	reportJSON := []byte("null")
	if run.Report != nil {
		var err error
		reportJSON, err = json.Marshal(run.Report)
		if err != nil {
			return fmt.Errorf("store: marshal report: %w", err)
		}
	}

	_, err := s.insertRunStmt.ExecContext(
		ctx,
		id,
		createdAt.UTC().UnixMilli(),
		run.Dataset,
		run.Model,
		run.K,
		run.Concurrency,
		run.Dry,
		run.Cached,
		run.TotalItems,
		run.FailedItems,
		run.Summary.Precision,
		run.Summary.Recall,
		run.Summary.F1,
		run.Summary.MAP,
		run.Summary.MRR,
		run.Summary.NDCG,
		run.Summary.AvgMS,
		reportJSON,
	)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}
	return nil
}

// GetRun loads a run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("store: empty run id")
	}

	run, err := scanRun(s.getRunStmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.listRunsStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		run         RunRecord
		createdAtMS int64
		reportJSON  []byte
	)
	if err := row.Scan(
		&run.ID,
		&createdAtMS,
		&run.Dataset,
		&run.Model,
		&run.K,
		&run.Concurrency,
		&run.Dry,
		&run.Cached,
		&run.TotalItems,
		&run.FailedItems,
		&run.Summary.Precision,
		&run.Summary.Recall,
		&run.Summary.F1,
		&run.Summary.MAP,
		&run.Summary.MRR,
		&run.Summary.NDCG,
		&run.Summary.AvgMS,
		&reportJSON,
	); err != nil {
		return nil, err
	}

	run.CreatedAt = time.UnixMilli(createdAtMS).UTC()
	if len(reportJSON) > 0 && string(reportJSON) != "null" {
		var rep report.Report
		if err := json.Unmarshal(reportJSON, &rep); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		run.Report = &rep
	}
	return &run, nil
}
