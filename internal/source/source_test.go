package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/internal/resilience"
	"github.com/sells-group/quality-cli/pkg/edgar"
	"github.com/sells-group/quality-cli/pkg/fmp"
	"github.com/sells-group/quality-cli/pkg/fred"
	"github.com/sells-group/quality-cli/pkg/yahoo"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

type mockYahoo struct{ mock.Mock }

func (m *mockYahoo) QuoteSummary(ctx context.Context, ticker string) (*yahoo.QuoteSummary, error) {
	args := m.Called(ctx, ticker)
	if v := args.Get(0); v != nil {
		return v.(*yahoo.QuoteSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockEDGAR struct{ mock.Mock }

func (m *mockEDGAR) Submissions(ctx context.Context, cik string) (*edgar.Submissions, error) {
	args := m.Called(ctx, cik)
	if v := args.Get(0); v != nil {
		return v.(*edgar.Submissions), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEDGAR) FilingIndex(ctx context.Context, cik, accession string) (*edgar.FilingIndex, error) {
	args := m.Called(ctx, cik, accession)
	if v := args.Get(0); v != nil {
		return v.(*edgar.FilingIndex), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEDGAR) Document(ctx context.Context, cik, accession, name string) (string, error) {
	args := m.Called(ctx, cik, accession, name)
	return args.String(0), args.Error(1)
}

func (m *mockEDGAR) CompanyTickers(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(map[string]string), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockFMP struct{ mock.Mock }

func (m *mockFMP) Profile(ctx context.Context, ticker string) (*fmp.Profile, error) {
	args := m.Called(ctx, ticker)
	if v := args.Get(0); v != nil {
		return v.(*fmp.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFMP) KeyMetrics(ctx context.Context, ticker string, limit int) ([]fmp.KeyMetrics, error) {
	args := m.Called(ctx, ticker, limit)
	v, _ := args.Get(0).([]fmp.KeyMetrics)
	return v, args.Error(1)
}

func (m *mockFMP) Ratios(ctx context.Context, ticker string, limit int) ([]fmp.Ratios, error) {
	args := m.Called(ctx, ticker, limit)
	v, _ := args.Get(0).([]fmp.Ratios)
	return v, args.Error(1)
}

func (m *mockFMP) IncomeStatements(ctx context.Context, ticker string, limit int) ([]fmp.IncomeStatement, error) {
	args := m.Called(ctx, ticker, limit)
	v, _ := args.Get(0).([]fmp.IncomeStatement)
	return v, args.Error(1)
}

func (m *mockFMP) BalanceSheets(ctx context.Context, ticker string, limit int) ([]fmp.BalanceSheet, error) {
	args := m.Called(ctx, ticker, limit)
	v, _ := args.Get(0).([]fmp.BalanceSheet)
	return v, args.Error(1)
}

func (m *mockFMP) CashFlows(ctx context.Context, ticker string, limit int) ([]fmp.CashFlow, error) {
	args := m.Called(ctx, ticker, limit)
	v, _ := args.Get(0).([]fmp.CashFlow)
	return v, args.Error(1)
}

func (m *mockFMP) EnterpriseValues(ctx context.Context, ticker string, limit int) ([]fmp.EnterpriseValue, error) {
	args := m.Called(ctx, ticker, limit)
	v, _ := args.Get(0).([]fmp.EnterpriseValue)
	return v, args.Error(1)
}

type mockFRED struct{ mock.Mock }

func (m *mockFRED) Latest(ctx context.Context, seriesID string) (fred.Observation, error) {
	args := m.Called(ctx, seriesID)
	return args.Get(0).(fred.Observation), args.Error(1)
}

func TestFRED_Get10YYield(t *testing.T) {
	mc := &mockFRED{}
	mc.On("Latest", mock.Anything, fred.SeriesTreasury10Y).Return(fred.Observation{Date: "2026-10-15", Value: 4.12}, nil).Once()

	got, err := NewFRED(mc).Get10YYield(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Some(4.12), got)
	mc.AssertExpectations(t)
}

func TestFRED_NoObservationIsAbsent(t *testing.T) {
	mc := &mockFRED{}
	mc.On("Latest", mock.Anything, fred.SeriesTreasury10Y).Return(fred.Observation{}, fred.ErrNoObservation)

	got, err := NewFRED(mc).Get10YYield(context.Background())
	require.NoError(t, err)
	assert.False(t, got.Valid)
}

func TestFRED_Error(t *testing.T) {
	mc := &mockFRED{}
	mc.On("Latest", mock.Anything, fred.SeriesTreasury10Y).Return(fred.Observation{}, &fred.StatusError{StatusCode: 400, Body: "bad api_key"})

	_, err := NewFRED(mc).Get10YYield(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fred: 10y treasury")
}

func TestCached_HitSkipsClient(t *testing.T) {
	cache := newMemCache()
	mc := &mockFRED{}
	mc.On("Latest", mock.Anything, fred.SeriesTreasury10Y).Return(fred.Observation{Value: 3.9}, nil).Once()

	f := NewFRED(mc, WithCache(cache, time.Hour))
	first, err := f.Get10YYield(context.Background())
	require.NoError(t, err)
	second, err := f.Get10YYield(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, time.Hour, cache.ttls["fred:series:DGS10"])
	mc.AssertNumberOfCalls(t, "Latest", 1)
}

func TestCached_ErrorNotStored(t *testing.T) {
	cache := newMemCache()
	mc := &mockFRED{}
	mc.On("Latest", mock.Anything, mock.Anything).Return(fred.Observation{}, errors.New("boom"))

	_, err := NewFRED(mc, WithCache(cache, 0)).Get10YYield(context.Background())
	require.Error(t, err)
	assert.Empty(t, cache.data)
}

func TestCached_CacheFailuresIgnored(t *testing.T) {
	cache := newMemCache()
	cache.getErr = errors.New("disk gone")
	cache.setErr = errors.New("disk gone")
	mc := &mockFRED{}
	mc.On("Latest", mock.Anything, mock.Anything).Return(fred.Observation{Value: 4.0}, nil)

	got, err := NewFRED(mc, WithCache(cache, 0)).Get10YYield(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Some(4.0), got)
}

func TestCached_UndecodableEntryRefetched(t *testing.T) {
	cache := newMemCache()
	cache.data["fred:series:DGS10"] = []byte("{not json")
	mc := &mockFRED{}
	mc.On("Latest", mock.Anything, mock.Anything).Return(fred.Observation{Value: 4.4}, nil).Once()

	got, err := NewFRED(mc, WithCache(cache, 0)).Get10YYield(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Some(4.4), got)
	assert.Equal(t, DefaultCacheTTL, cache.ttls["fred:series:DGS10"])
}

func TestWithGuard_RetriesTransient(t *testing.T) {
	guard := resilience.NewGuard(
		resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		resilience.DefaultCircuitBreakerConfig(),
	)
	mc := &mockFRED{}
	mc.On("Latest", mock.Anything, mock.Anything).Return(fred.Observation{}, &fred.StatusError{StatusCode: 503}).Once()
	mc.On("Latest", mock.Anything, mock.Anything).Return(fred.Observation{Value: 4.2}, nil).Once()

	got, err := NewFRED(mc, WithGuard(guard)).Get10YYield(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Some(4.2), got)
	mc.AssertNumberOfCalls(t, "Latest", 2)
}
