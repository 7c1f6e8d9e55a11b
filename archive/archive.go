// Package archive stores finished runs in a SQLite database so yield curves
// and peak lattices from many experiments can be queried side by side.
package archive

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/hotforest/experiment"
	"github.com/pthm-cable/hotforest/forest"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID         string  `db:"id"`
	CreatedAt  string  `db:"created_at"`
	Sites      int     `db:"sites"`
	CharLen    float64 `db:"char_len"`
	Tries      int     `db:"tries"`
	Seed       int64   `db:"seed"`
	PeakYield  float64 `db:"peak_yield"`
	PeakStep   int     `db:"peak_step"`
	Snapshot   string  `db:"snapshot"`
	SparksJSON string  `db:"sparks_json"`
	ElapsedMS  int64   `db:"elapsed_ms"`
}

// PeakDensity is PeakStep / Sites.
func (r RunRecord) PeakDensity() float64 {
	return float64(r.PeakStep) / float64(r.Sites)
}

// Lattice decodes the stored peak snapshot.
func (r RunRecord) Lattice() forest.Lattice {
	return forest.ParseLattice(r.Snapshot)
}

// Sparks decodes the stored spark set.
func (r RunRecord) Sparks() ([]int, error) {
	var sparks []int
	if err := json.Unmarshal([]byte(r.SparksJSON), &sparks); err != nil {
		return nil, fmt.Errorf("decode sparks: %w", err)
	}
	return sparks, nil
}

// TrialRecord is one row of the trials table.
type TrialRecord struct {
	RunID       string `db:"run_id"`
	Trial       int    `db:"trial"`
	Seed        int64  `db:"seed"`
	PeakYield   int    `db:"peak_yield"`
	PeakStep    int    `db:"peak_step"`
	FinalYield  int    `db:"final_yield"`
	Fires       int    `db:"fires"`
	LargestFire int    `db:"largest_fire"`
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		sites INTEGER NOT NULL,
		char_len REAL NOT NULL,
		tries INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		peak_yield REAL NOT NULL,
		peak_step INTEGER NOT NULL,
		snapshot TEXT NOT NULL,
		sparks_json TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS yield_points (
		run_id TEXT NOT NULL REFERENCES runs(id),
		step INTEGER NOT NULL,
		yield REAL NOT NULL,
		PRIMARY KEY (run_id, step)
	);

	CREATE TABLE IF NOT EXISTS trials (
		run_id TEXT NOT NULL REFERENCES runs(id),
		trial INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		peak_yield INTEGER NOT NULL,
		peak_step INTEGER NOT NULL,
		final_yield INTEGER NOT NULL,
		fires INTEGER NOT NULL,
		largest_fire INTEGER NOT NULL,
		PRIMARY KEY (run_id, trial)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_params ON runs(sites, char_len);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun writes a run, its mean curve and its trials in one transaction.
func (db *DB) SaveRun(id string, run *experiment.Run) error {
	sparksJSON, err := json.Marshal(run.Sparks)
	if err != nil {
		return fmt.Errorf("encode sparks: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	agg := run.Aggregate
	_, err = tx.Exec(`INSERT INTO runs
		(id, created_at, sites, char_len, tries, seed, peak_yield, peak_step,
		 snapshot, sparks_json, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), run.Params.Sites, run.Params.CharLen,
		run.Params.Tries, run.Params.Seed, agg.Peak, agg.PeakStep,
		agg.Snapshot.String(), string(sparksJSON), run.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", id, err)
	}

	stmt, err := tx.Preparex("INSERT INTO yield_points (run_id, step, yield) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for step, y := range agg.Curve {
		if _, err := stmt.Exec(id, step, y); err != nil {
			return fmt.Errorf("insert yield point %d: %w", step, err)
		}
	}

	for _, o := range run.Outcomes {
		_, err := tx.Exec(`INSERT INTO trials
			(run_id, trial, seed, peak_yield, peak_step, final_yield, fires, largest_fire)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, o.Index, o.Seed, o.Peak, o.PeakStep, o.FinalYield(), len(o.Fires), o.LargestFire(),
		)
		if err != nil {
			return fmt.Errorf("insert trial %d: %w", o.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("run archived", "id", id, "points", len(agg.Curve), "trials", len(run.Outcomes))
	return nil
}

// Run loads one run record.
func (db *DB) Run(id string) (*RunRecord, error) {
	var r RunRecord
	if err := db.conn.Get(&r, "SELECT * FROM runs WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return &r, nil
}

// Runs lists runs, newest first, optionally filtered by site count (0 = all).
func (db *DB) Runs(sites int) ([]RunRecord, error) {
	var runs []RunRecord
	var err error
	if sites > 0 {
		err = db.conn.Select(&runs, "SELECT * FROM runs WHERE sites = ? ORDER BY created_at DESC, id", sites)
	} else {
		err = db.conn.Select(&runs, "SELECT * FROM runs ORDER BY created_at DESC, id")
	}
	return runs, err
}

// YieldCurve loads the mean curve of a run in step order.
func (db *DB) YieldCurve(id string) ([]float64, error) {
	var curve []float64
	err := db.conn.Select(&curve, "SELECT yield FROM yield_points WHERE run_id = ? ORDER BY step", id)
	return curve, err
}

// Trials loads the per-trial rows of a run.
func (db *DB) Trials(id string) ([]TrialRecord, error) {
	var trials []TrialRecord
	err := db.conn.Select(&trials, "SELECT * FROM trials WHERE run_id = ? ORDER BY trial", id)
	return trials, err
}
