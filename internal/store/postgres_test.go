package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/quality-cli/internal/model"
)

var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock, now: func() time.Time { return fixedNow }}
	return s, mock
}

func testCard() model.ScoreCard {
	return model.ScoreCard{
		Ticker: "KO",
		Scores: map[model.Category]float64{
			model.CategorySimplicity:        8,
			model.CategoryOperatingHistory:  10,
			model.CategoryMoat:              9,
			model.CategoryManagement:        6,
			model.CategoryROEROIC:           9,
			model.CategoryPredictability:    8,
			model.CategoryCapitalAllocation: 7,
			model.CategoryLeverage:          5,
			model.CategoryResilience:        8,
		},
	}
}

func TestPostgresStore_Get_Miss(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT value FROM response_cache WHERE key = \$1 AND expires_at > \$2`).
		WithArgs("yahoo:info:KO", fixedNow).
		WillReturnError(pgx.ErrNoRows)

	v, ok, err := s.Get(context.Background(), "yahoo:info:KO")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_Hit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT value FROM response_cache`).
		WithArgs("fred:series:DGS10", fixedNow).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`4.1`)))

	v, ok, err := s.Get(context.Background(), "fred:series:DGS10")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`4.1`), v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT value FROM response_cache`).
		WithArgs("k", fixedNow).
		WillReturnError(errors.New("conn reset"))

	_, _, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: get cache k")
}

func TestPostgresStore_Set_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(key\) DO UPDATE`).
		WithArgs("edgar:company_tickers", []byte(`{}`), fixedNow, fixedNow.Add(24*time.Hour)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Set(context.Background(), "edgar:company_tickers", []byte(`{}`), 24*time.Hour)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteExpired(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM response_cache WHERE expires_at <= \$1`).
		WithArgs(fixedNow).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := s.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	card := testCard()
	card.PriceValue = model.Some(6.0)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "KO", 76.0, pgxmock.AnyArg(), pgxmock.AnyArg(), fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"scores"}, scoreColumns).WillReturnResult(10)
	mock.ExpectCommit()

	run, err := s.SaveRun(context.Background(), model.FinalRecord{Ticker: "KO"}, card)
	require.NoError(t, err)
	assert.Equal(t, "KO", run.Ticker)
	assert.Equal(t, 76.0, run.Total)
	assert.NotEmpty(t, run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun_CopyFailureRollsBack(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO runs`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"scores"}, scoreColumns).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.SaveRun(context.Background(), model.FinalRecord{Ticker: "KO"}, testCard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: copy scores")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	recordJSON, err := json.Marshal(model.FinalRecord{Ticker: "KO", SourcesUsed: []string{model.SourceYahoo}})
	require.NoError(t, err)
	cardJSON, err := json.Marshal(testCard())
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, ticker, total, record, scorecard, created_at FROM runs WHERE true AND ticker = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("KO", 5, 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "ticker", "total", "record", "scorecard", "created_at"}).
			AddRow("run-1", "KO", 70.0, recordJSON, cardJSON, fixedNow))

	runs, err := s.ListRuns(context.Background(), RunFilter{Ticker: "KO", Limit: 5, Offset: 10})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, []string{model.SourceYahoo}, runs[0].Record.SourcesUsed)
	assert.Equal(t, 9.0, runs[0].Card.Scores[model.CategoryMoat])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, ticker, total, record, scorecard, created_at FROM runs`).
		WithArgs("ZZZZ", 1).
		WillReturnRows(pgxmock.NewRows([]string{"id", "ticker", "total", "record", "scorecard", "created_at"}))

	_, err := s.LatestRun(context.Background(), "ZZZZ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
