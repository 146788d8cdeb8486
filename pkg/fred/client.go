// Package fred provides a client for FRED series observations.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// SeriesTreasury10Y is the 10-year Treasury constant maturity rate.
const SeriesTreasury10Y = "DGS10"

// ErrNoObservation is returned when no numeric observation is available.
var ErrNoObservation = eris.New("fred: no numeric observation")

// Client defines the FRED operations.
type Client interface {
	// Latest returns the most recent numeric observation of a series.
	Latest(ctx context.Context, seriesID string) (Observation, error)
}

// Observation is one dated series value.
type Observation struct {
	Date  string
	Value float64
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fred: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Option configures the FRED client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new FRED client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.stlouisfed.org/fred",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// Latest requests the ten newest observations and returns the first
// numeric one. FRED reports market holidays as ".".
func (c *httpClient) Latest(ctx context.Context, seriesID string) (Observation, error) {
	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	q.Set("sort_order", "desc")
	q.Set("limit", "10")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/series/observations?"+q.Encode(), nil)
	if err != nil {
		return Observation{}, eris.Wrap(err, "fred: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Observation{}, eris.Wrap(err, "fred: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Observation{}, eris.Wrap(err, "fred: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return Observation{}, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out observationsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Observation{}, eris.Wrap(err, "fred: unmarshal observations")
	}
	for _, o := range out.Observations {
		v, err := strconv.ParseFloat(strings.TrimSpace(o.Value), 64)
		if err != nil {
			continue
		}
		return Observation{Date: o.Date, Value: v}, nil
	}
	return Observation{}, ErrNoObservation
}
