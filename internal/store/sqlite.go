package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/episim-dev/episim/internal/params"
	"github.com/episim-dev/episim/internal/results"
)

// RunStore persists runs in a SQLite database.
type RunStore struct {
	db *sql.DB
}

// RunMeta describes one stored run.
type RunMeta struct {
	ID        int64
	Label     string
	CreatedAt time.Time
	Pars      params.Pars
	Summary   map[string]float64
}

// Open creates or opens the run database at path.
func Open(path string) (*RunStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &RunStore{db: db}, nil
}

// Close releases the database handle.
func (s *RunStore) Close() error { return s.db.Close() }

// SaveRun persists a completed run and its result series, returning the
// new run ID.
func (s *RunStore) SaveRun(ctx context.Context, pars params.Pars, res *results.Set) (int64, error) {
	summary, err := json.Marshal(res.Summary())
	if err != nil {
		return 0, fmt.Errorf("store: marshal summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	out, err := tx.ExecContext(ctx,
		`INSERT INTO runs (label, created_at, seed, n_agents, start, stop, dt, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pars.Label, time.Now().UTC().Format(time.RFC3339), int64(pars.RandSeed),
		pars.NAgents, pars.Start, pars.Stop, pars.DT, string(summary))
	if err != nil {
		return 0, fmt.Errorf("store: insert run: %w", err)
	}
	runID, err := out.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO series (run_id, module, name, idx, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare series insert: %w", err)
	}
	defer stmt.Close()

	for _, sr := range res.All() {
		for i, v := range sr.Values {
			if _, err := stmt.ExecContext(ctx, runID, sr.Module, sr.Name, i, v); err != nil {
				return 0, fmt.Errorf("store: insert series %s: %w", sr.Key(), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return runID, nil
}

// ListRuns returns metadata for all stored runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context) ([]RunMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, created_at, seed, n_agents, start, stop, dt, summary
		 FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunMeta
	for rows.Next() {
		m, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadRun returns one run's metadata and its full result series. The time
// axis is reconstructed from the stored parameters.
func (s *RunStore) LoadRun(ctx context.Context, id int64) (RunMeta, *results.Set, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, label, created_at, seed, n_agents, start, stop, dt, summary
		 FROM runs WHERE id = ?`, id)
	meta, err := scanRun(row)
	if err == sql.ErrNoRows {
		return RunMeta{}, nil, fmt.Errorf("store: run %d not found", id)
	}
	if err != nil {
		return RunMeta{}, nil, err
	}

	res := results.NewSet(meta.Pars.Timevec())
	rows, err := s.db.QueryContext(ctx,
		`SELECT module, name, idx, value FROM series WHERE run_id = ? ORDER BY module, name, idx`, id)
	if err != nil {
		return RunMeta{}, nil, fmt.Errorf("store: load series: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var module, name string
		var idx int
		var value float64
		if err := rows.Scan(&module, &name, &idx, &value); err != nil {
			return RunMeta{}, nil, fmt.Errorf("store: scan series: %w", err)
		}
		sr := res.Get(module, name)
		if sr == nil {
			sr = res.New(module, name)
		}
		if idx >= 0 && idx < len(sr.Values) {
			sr.Values[idx] = value
		}
	}
	return meta, res, rows.Err()
}

// DeleteRun removes a run and its series.
func (s *RunStore) DeleteRun(ctx context.Context, id int64) error {
	out, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete run %d: %w", id, err)
	}
	n, err := out.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("store: run %d not found", id)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunMeta, error) {
	var m RunMeta
	var createdAt, summary string
	var seed int64
	if err := row.Scan(&m.ID, &m.Label, &createdAt, &seed, &m.Pars.NAgents,
		&m.Pars.Start, &m.Pars.Stop, &m.Pars.DT, &summary); err != nil {
		return RunMeta{}, err
	}
	m.Pars.RandSeed = uint64(seed)
	m.Pars.Label = m.Label
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		m.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(summary), &m.Summary); err != nil {
		return RunMeta{}, fmt.Errorf("store: parse summary for run %d: %w", m.ID, err)
	}
	return m, nil
}
