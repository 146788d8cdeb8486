// Package store persists the response cache and scoring run history.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quality-cli/internal/model"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = eris.New("store: not found")

// Run is one persisted scoring run.
type Run struct {
	ID        string            `json:"id"`
	Ticker    string            `json:"ticker"`
	Total     float64           `json:"total"`
	Record    model.FinalRecord `json:"record"`
	Card      model.ScoreCard   `json:"scorecard"`
	CreatedAt time.Time         `json:"created_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Ticker string `json:"ticker,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// defaultListLimit caps ListRuns when no limit is given.
const defaultListLimit = 100

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Cache is a TTL key-value cache for source responses. It satisfies
// source.Cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteExpired(ctx context.Context) (int, error)
}

// Store is the full persistence interface: cache plus run history.
type Store interface {
	Cache

	// Runs
	SaveRun(ctx context.Context, rec model.FinalRecord, card model.ScoreCard) (*Run, error)
	LatestRun(ctx context.Context, ticker string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// Open connects to the configured backend and migrates it.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = "quality.db"
		}
		st, err = NewSQLite(path)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// newRun builds the Run saved for a record and its scorecard.
func newRun(id string, rec model.FinalRecord, card model.ScoreCard, now time.Time) *Run {
	return &Run{
		ID:        id,
		Ticker:    rec.Ticker,
		Total:     card.Total(),
		Record:    rec,
		Card:      card,
		CreatedAt: now,
	}
}
