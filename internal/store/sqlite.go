package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/quality-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Timestamps are
// stored as unix nanoseconds.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS response_cache (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	cached_at  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	ticker     TEXT NOT NULL,
	total      REAL NOT NULL,
	record     TEXT NOT NULL,
	scorecard  TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scores (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	ticker   TEXT NOT NULL,
	category TEXT NOT NULL,
	score    REAL NOT NULL,
	PRIMARY KEY (run_id, category)
);

CREATE INDEX IF NOT EXISTS idx_response_cache_expires_at ON response_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_runs_ticker_created ON runs(ticker, created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM response_cache WHERE key = ? AND expires_at > ?`,
		key, s.now().UnixNano(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "sqlite: get cache %s", key)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO response_cache (key, value, cached_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		key, value, now.UnixNano(), now.Add(ttl).UnixNano(),
	)
	return eris.Wrapf(err, "sqlite: set cache %s", key)
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM response_cache WHERE expires_at <= ?`, s.now().UnixNano(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired cache")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) SaveRun(ctx context.Context, rec model.FinalRecord, card model.ScoreCard) (*Run, error) {
	run := newRun(uuid.New().String(), rec, card, s.now().UTC())

	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal record")
	}
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal scorecard")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, ticker, total, record, scorecard, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Ticker, run.Total, string(recordJSON), string(cardJSON), run.CreatedAt.UnixNano(),
	); err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert run for %s", run.Ticker)
	}
	for _, row := range scoreRows(run) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scores (run_id, ticker, category, score) VALUES (?, ?, ?, ?)`, row...,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: insert score")
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit run")
	}
	return run, nil
}

func (s *SQLiteStore) LatestRun(ctx context.Context, ticker string) (*Run, error) {
	runs, err := s.ListRuns(ctx, RunFilter{Ticker: ticker, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: latest run for %s", ticker)
	}
	return &runs[0], nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, ticker, total, record, scorecard, created_at FROM runs WHERE 1=1`
	var args []any

	if filter.Ticker != "" {
		query += ` AND ticker = ?`
		args = append(args, filter.Ticker)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var (
			r                    Run
			recordJSON, cardJSON string
			created              int64
		)
		if err := rows.Scan(&r.ID, &r.Ticker, &r.Total, &recordJSON, &cardJSON, &created); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		if err := decodeRun(&r, []byte(recordJSON), []byte(cardJSON)); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// scoreRows flattens a run's scorecard into (run_id, ticker, category,
// score) rows, PriceValue included only when set.
func scoreRows(run *Run) [][]any {
	var rows [][]any
	for _, c := range model.ScoredCategories {
		if v, ok := run.Card.Get(c); ok {
			rows = append(rows, []any{run.ID, run.Ticker, string(c), v})
		}
	}
	if v, ok := run.Card.Get(model.CategoryPriceValue); ok {
		rows = append(rows, []any{run.ID, run.Ticker, string(model.CategoryPriceValue), v})
	}
	return rows
}

func decodeRun(r *Run, recordJSON, cardJSON []byte) error {
	if err := json.Unmarshal(recordJSON, &r.Record); err != nil {
		return eris.Wrap(err, "unmarshal record")
	}
	if err := json.Unmarshal(cardJSON, &r.Card); err != nil {
		return eris.Wrap(err, "unmarshal scorecard")
	}
	return nil
}
