package fred

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatest_SkipsMissingValues(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/series/observations", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, SeriesTreasury10Y, q.Get("series_id"))
		assert.Equal(t, "test-key", q.Get("api_key"))
		assert.Equal(t, "desc", q.Get("sort_order"))
		assert.Equal(t, "json", q.Get("file_type"))
		w.Write([]byte(`{"observations":[{"date":"2024-07-04","value":"."},{"date":"2024-07-03","value":"4.36"}]}`))
	}))
	defer srv.Close()

	obs, err := NewClient("test-key", WithBaseURL(srv.URL)).Latest(context.Background(), SeriesTreasury10Y)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-03", obs.Date)
	assert.Equal(t, 4.36, obs.Value)
}

func TestLatest_NoNumericValue(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"observations":[{"date":"2024-07-04","value":"."}]}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Latest(context.Background(), SeriesTreasury10Y)
	assert.ErrorIs(t, err, ErrNoObservation)
}

func TestLatest_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_code":400,"error_message":"Bad Request. The value for variable api_key is not registered."}`))
	}))
	defer srv.Close()

	_, err := NewClient("bad", WithBaseURL(srv.URL)).Latest(context.Background(), SeriesTreasury10Y)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.HTTPStatus())
}
