package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("storage")

// sqlitePersister is the sqlite implementation for history persistence. Runs are never rewritten:
// each save only inserts the tail of every group beyond what the database already holds
type sqlitePersister struct {
	db *sql.DB
}

// NewSQLitePersister creates the database and its schema
func NewSQLitePersister(dbPath string) (*sqlitePersister, error) {
	err := prepareDirectories(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial empty DB file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqlitePersister{
		db: db,
	}, nil
}

func prepareDirectories(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS history_meta (
		id          INTEGER NOT NULL PRIMARY KEY CHECK (id = 1),
		last_update INTEGER NOT NULL DEFAULT 0,
		repo_url    TEXT    NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS runs (
		group_name         TEXT    NOT NULL,
		position           INTEGER NOT NULL,
		revision_id        TEXT    NOT NULL,
		author_name        TEXT    NOT NULL,
		author_handle      TEXT    NOT NULL,
		committer_name     TEXT    NOT NULL,
		committer_handle   TEXT    NOT NULL,
		message            TEXT    NOT NULL,
		revision_timestamp INTEGER NOT NULL,
		revision_url       TEXT    NOT NULL,
		tool               TEXT    NOT NULL,
		run_timestamp      INTEGER NOT NULL,
		PRIMARY KEY (group_name, position),
		UNIQUE (group_name, revision_id)
	);

	CREATE TABLE IF NOT EXISTS run_metrics (
		group_name   TEXT    NOT NULL,
		position     INTEGER NOT NULL,
		metric_index INTEGER NOT NULL,
		name         TEXT    NOT NULL,
		value        REAL    NOT NULL,
		error_margin REAL    NOT NULL,
		unit         TEXT    NOT NULL,
		PRIMARY KEY (group_name, position, metric_index)
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Save persists the runs of the snapshot that are not yet stored, together with the history metadata
func (s *sqlitePersister) Save(ctx context.Context, h model.History) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO history_meta (id, last_update, repo_url)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_update=MAX(last_update, excluded.last_update),
			repo_url=excluded.repo_url
	`, h.LastUpdate, h.RepoURL)
	if err != nil {
		return fmt.Errorf("failed to upsert history metadata: %w", err)
	}

	numInserted := 0
	for group, runs := range h.Groups {
		var numStored int
		err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE group_name = ?", group).Scan(&numStored)
		if err != nil {
			return fmt.Errorf("failed to count stored runs of %s: %w", group, err)
		}
		if numStored > len(runs) {
			return fmt.Errorf("%w: group %s has %d stored runs, snapshot has %d", ErrHistoryDiverged, group, numStored, len(runs))
		}

		for position := numStored; position < len(runs); position++ {
			err = insertRun(ctx, tx, group, position, runs[position])
			if err != nil {
				return err
			}
			numInserted++
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}

	log.Debug("saved history to sqlite", "new runs", numInserted, "last update", h.LastUpdate)

	return nil
}

func insertRun(ctx context.Context, tx *sql.Tx, group string, position int, run model.BenchRun) error {
	rev := run.Revision
	_, err := tx.ExecContext(ctx, `
		INSERT INTO runs (group_name, position, revision_id, author_name, author_handle, committer_name,
			committer_handle, message, revision_timestamp, revision_url, tool, run_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, group, position, rev.ID, rev.Author.Name, rev.Author.Handle, rev.Committer.Name,
		rev.Committer.Handle, rev.Message, rev.Timestamp, rev.URL, run.Tool, run.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert run %s of %s: %w", rev.ID, group, err)
	}

	for idx, m := range run.Metrics {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_metrics (group_name, position, metric_index, name, value, error_margin, unit)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, group, position, idx, m.Name, m.Value, m.ErrorMargin, m.Unit)
		if err != nil {
			return fmt.Errorf("failed to insert metric %s of run %s: %w", m.Name, rev.ID, err)
		}
	}

	return nil
}

// Load reads the whole persisted history. An empty database yields an empty history
func (s *sqlitePersister) Load(ctx context.Context) (model.History, error) {
	h := model.NewHistory()

	err := s.db.QueryRowContext(ctx, "SELECT last_update, repo_url FROM history_meta WHERE id = 1").Scan(&h.LastUpdate, &h.RepoURL)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.History{}, fmt.Errorf("failed to read history metadata: %w", err)
	}

	err = s.loadRuns(ctx, h)
	if err != nil {
		return model.History{}, err
	}

	err = s.loadMetrics(ctx, h)
	if err != nil {
		return model.History{}, err
	}

	return h, nil
}

func (s *sqlitePersister) loadRuns(ctx context.Context, h model.History) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_name, position, revision_id, author_name, author_handle, committer_name,
			committer_handle, message, revision_timestamp, revision_url, tool, run_timestamp
		FROM runs
		ORDER BY group_name, position
	`)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var group string
		var position int
		var run model.BenchRun
		rev := &run.Revision

		err = rows.Scan(&group, &position, &rev.ID, &rev.Author.Name, &rev.Author.Handle, &rev.Committer.Name,
			&rev.Committer.Handle, &rev.Message, &rev.Timestamp, &rev.URL, &run.Tool, &run.Timestamp)
		if err != nil {
			return err
		}
		if position != len(h.Groups[group]) {
			return fmt.Errorf("%w: group %s has a gap at position %d", ErrCorruptedHistory, group, position)
		}

		run.Metrics = make([]model.Metric, 0)
		h.Groups[group] = append(h.Groups[group], run)
	}

	return rows.Err()
}

func (s *sqlitePersister) loadMetrics(ctx context.Context, h model.History) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_name, position, name, value, error_margin, unit
		FROM run_metrics
		ORDER BY group_name, position, metric_index
	`)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var group string
		var position int
		var m model.Metric

		err = rows.Scan(&group, &position, &m.Name, &m.Value, &m.ErrorMargin, &m.Unit)
		if err != nil {
			return err
		}

		runs := h.Groups[group]
		if position >= len(runs) {
			return fmt.Errorf("%w: metric %s references missing run %d of %s", ErrCorruptedHistory, m.Name, position, group)
		}
		runs[position].Metrics = append(runs[position].Metrics, m)
	}

	return rows.Err()
}

// Close closes the database
func (s *sqlitePersister) Close() error {
	return s.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *sqlitePersister) IsInterfaceNil() bool {
	return s == nil
}
