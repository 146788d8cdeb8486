package fmp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProfile(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{
		"/profile/AAPL": `[{"symbol":"AAPL","companyName":"Apple Inc.","cik":"0000320193","isin":"US0378331005","industry":"Consumer Electronics","sector":"Technology","ceo":"Mr. Timothy D. Cook","ipoDate":"1980-12-12","price":190.5}]`,
		"/profile/NONE": `[]`,
	})
	c := NewClient("test-key", WithBaseURL(srv.URL))

	p, err := c.Profile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "1980-12-12", p.IPODate)
	assert.Equal(t, "Technology", p.Sector)
	assert.Equal(t, "US0378331005", p.ISIN)

	_, err = c.Profile(context.Background(), "NONE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEndpoints(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "annual", r.URL.Query().Get("period"))
		wantLimit := "10"
		if r.URL.Path == "/income-statement/KO" {
			wantLimit = "20"
		}
		assert.Equal(t, wantLimit, r.URL.Query().Get("limit"))
		switch r.URL.Path {
		case "/key-metrics/KO":
			w.Write([]byte(`[{"date":"2023-12-31","roe":0.40,"roic":0.21,"freeCashFlowPerShare":2.2,"revenuePerShare":10.6}]`))
		case "/ratios/KO":
			w.Write([]byte(`[{"date":"2023-12-31","priceEarningsRatio":24.1,"priceToBookRatio":10.2,"debtEquityRatio":1.6}]`))
		case "/income-statement/KO":
			w.Write([]byte(`[{"date":"2023-12-31","calendarYear":"2023","revenue":45754000000,"eps":2.48,"grossProfitRatio":0.597,"operatingIncomeRatio":0.29,"weightedAverageShsOut":4323000000}]`))
		case "/balance-sheet-statement/KO":
			w.Write([]byte(`[{"date":"2023-12-31","totalDebt":42000000000,"shortTermDebt":5000000000}]`))
		case "/cash-flow-statement/KO":
			w.Write([]byte(`[{"date":"2023-12-31","freeCashFlow":9700000000,"dividendsPaid":-7950000000}]`))
		case "/enterprise-values/KO":
			w.Write([]byte(`[{"date":"2023-12-31","enterpriseValue":290000000000}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	ctx := context.Background()

	km, err := c.KeyMetrics(ctx, "KO", 10)
	require.NoError(t, err)
	require.Len(t, km, 1)
	assert.Equal(t, 0.40, km[0].ROE)

	r, err := c.Ratios(ctx, "KO", 10)
	require.NoError(t, err)
	assert.Equal(t, 24.1, r[0].PriceEarningsRatio)

	is, err := c.IncomeStatements(ctx, "KO", 20)
	require.NoError(t, err)
	assert.Equal(t, 2023, is[0].Year())

	bs, err := c.BalanceSheets(ctx, "KO", 10)
	require.NoError(t, err)
	assert.Equal(t, 5e9, bs[0].ShortTermDebt)

	cf, err := c.CashFlows(ctx, "KO", 10)
	require.NoError(t, err)
	assert.Equal(t, -7.95e9, cf[0].DividendsPaid)

	ev, err := c.EnterpriseValues(ctx, "KO", 10)
	require.NoError(t, err)
	assert.Equal(t, 2.9e11, ev[0].EnterpriseValue)
}

func TestErrorObjectWith200(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{
		"/ratios/KO": `{"Error Message": "Invalid API KEY."}`,
	})
	_, err := NewClient("test-key", WithBaseURL(srv.URL)).Ratios(context.Background(), "KO", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API KEY")
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"Error Message": "Limit Reach"}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).KeyMetrics(context.Background(), "KO", 10)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.HTTPStatus())
	assert.Equal(t, "Limit Reach", se.Message)
}

func TestIncomeStatementYear(t *testing.T) {
	assert.Equal(t, 2019, IncomeStatement{Date: "2019-09-28"}.Year())
	assert.Equal(t, 2020, IncomeStatement{Date: "2019-12-31", CalendarYear: "2020"}.Year())
	assert.Equal(t, 0, IncomeStatement{}.Year())
}
