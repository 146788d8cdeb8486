// Package edgar provides a client for SEC EDGAR submissions and archives.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// maxDocumentBytes caps primary-document downloads.
const maxDocumentBytes = 16 << 20

// Client defines the EDGAR operations.
type Client interface {
	// Submissions fetches the company submissions index for a CIK.
	Submissions(ctx context.Context, cik string) (*Submissions, error)
	// FilingIndex fetches the archive directory listing for one filing.
	FilingIndex(ctx context.Context, cik, accession string) (*FilingIndex, error)
	// Document fetches a filing document as text.
	Document(ctx context.Context, cik, accession, name string) (string, error)
	// CompanyTickers fetches the SEC ticker to CIK map, keyed by upper-case ticker.
	CompanyTickers(ctx context.Context) (map[string]string, error)
}

// Submissions is the subset of the submissions JSON the pipeline reads.
type Submissions struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings struct {
		Recent RecentFilings `json:"recent"`
	} `json:"filings"`
}

// RecentFilings is the columnar recent-filings table. All slices share an
// index.
type RecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
	Items           []string `json:"items"`
}

// Filing is one row of RecentFilings.
type Filing struct {
	AccessionNumber string
	FilingDate      string
	Form            string
	PrimaryDocument string
	Items           string
}

// Rows returns the recent filings as rows, newest first as EDGAR orders them.
func (r RecentFilings) Rows() []Filing {
	out := make([]Filing, 0, len(r.Form))
	for i, form := range r.Form {
		out = append(out, Filing{
			AccessionNumber: at(r.AccessionNumber, i),
			FilingDate:      at(r.FilingDate, i),
			Form:            form,
			PrimaryDocument: at(r.PrimaryDocument, i),
			Items:           at(r.Items, i),
		})
	}
	return out
}

// Latest returns the newest filing of the given form.
func (r RecentFilings) Latest(form string) (Filing, bool) {
	for _, f := range r.Rows() {
		if f.Form == form {
			return f, true
		}
	}
	return Filing{}, false
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// FilingIndex is an archive directory listing.
type FilingIndex struct {
	Directory struct {
		Name string      `json:"name"`
		Item []IndexItem `json:"item"`
	} `json:"directory"`
}

// IndexItem is one file in a filing directory.
type IndexItem struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size string `json:"size"`
}

// PadCIK left-pads a CIK to the ten digits EDGAR URLs use.
func PadCIK(cik string) string {
	cik = strings.TrimLeft(strings.TrimSpace(cik), "0")
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// ArchiveURL returns the directory URL for a filing.
func ArchiveURL(base, cik, accession string) string {
	n, err := strconv.ParseInt(strings.TrimLeft(cik, "0"), 10, 64)
	if err != nil {
		n = 0
	}
	return fmt.Sprintf("%s/Archives/edgar/data/%d/%s/", strings.TrimRight(base, "/"), n, strings.ReplaceAll(accession, "-", ""))
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("edgar: unexpected status %d for %s", e.StatusCode, e.URL)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Option configures the EDGAR client.
type Option func(*httpClient)

// WithBaseURL sets the data.sec.gov base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.dataURL = strings.TrimRight(url, "/")
	}
}

// WithWWWBaseURL sets the www.sec.gov base URL (for testing).
func WithWWWBaseURL(url string) Option {
	return func(c *httpClient) {
		c.wwwURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the maximum requests per second. SEC asks for at most 10.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		if perSec > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

type httpClient struct {
	userAgent string
	dataURL   string
	wwwURL    string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a new EDGAR client. SEC rejects requests without a
// descriptive User-Agent carrying a contact address.
func NewClient(userAgent string, opts ...Option) Client {
	c := &httpClient{
		userAgent: userAgent,
		dataURL:   "https://data.sec.gov",
		wwwURL:    "https://www.sec.gov",
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(10), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, reqURL string, limit int64) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "edgar: rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "edgar: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "edgar: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: reqURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, eris.Wrap(err, "edgar: read response body")
	}
	return body, nil
}

func (c *httpClient) Submissions(ctx context.Context, cik string) (*Submissions, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/submissions/CIK%s.json", c.dataURL, PadCIK(cik)), maxDocumentBytes)
	if err != nil {
		return nil, err
	}
	var out Submissions
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "edgar: unmarshal submissions")
	}
	return &out, nil
}

func (c *httpClient) FilingIndex(ctx context.Context, cik, accession string) (*FilingIndex, error) {
	body, err := c.get(ctx, ArchiveURL(c.wwwURL, cik, accession)+"index.json", maxDocumentBytes)
	if err != nil {
		return nil, err
	}
	var out FilingIndex
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "edgar: unmarshal filing index")
	}
	return &out, nil
}

func (c *httpClient) Document(ctx context.Context, cik, accession, name string) (string, error) {
	body, err := c.get(ctx, ArchiveURL(c.wwwURL, cik, accession)+name, maxDocumentBytes)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

func (c *httpClient) CompanyTickers(ctx context.Context) (map[string]string, error) {
	body, err := c.get(ctx, c.wwwURL+"/files/company_tickers.json", maxDocumentBytes)
	if err != nil {
		return nil, err
	}
	var raw map[string]tickerEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "edgar: unmarshal company tickers")
	}
	out := make(map[string]string, len(raw))
	for _, e := range raw {
		out[strings.ToUpper(e.Ticker)] = PadCIK(strconv.FormatInt(e.CIK, 10))
	}
	return out, nil
}
