// Package yahoo provides a client for the Yahoo Finance quoteSummary API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Modules requested from quoteSummary.
var Modules = []string{
	"assetProfile",
	"financialData",
	"defaultKeyStatistics",
	"summaryDetail",
	"price",
	"quoteType",
}

// Client defines the Yahoo Finance operations.
type Client interface {
	// QuoteSummary fetches the quoteSummary modules for ticker.
	QuoteSummary(ctx context.Context, ticker string) (*QuoteSummary, error)
}

// Num is a Yahoo numeric field, encoded as {"raw": x, "fmt": "..."}.
// An empty object or missing field decodes to a nil Raw.
type Num struct {
	Raw *float64 `json:"raw"`
}

// Float returns the raw value and whether it was reported.
func (n Num) Float() (float64, bool) {
	if n.Raw == nil {
		return 0, false
	}
	return *n.Raw, true
}

// UnmarshalJSON accepts both {"raw": x} objects and bare numbers.
func (n *Num) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "{}" || s == `""` {
		n.Raw = nil
		return nil
	}
	if strings.HasPrefix(s, "{") {
		var obj struct {
			Raw *float64 `json:"raw"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		n.Raw = obj.Raw
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	n.Raw = &f
	return nil
}

// QuoteSummary is the subset of quoteSummary modules the pipeline reads.
type QuoteSummary struct {
	AssetProfile         AssetProfile         `json:"assetProfile"`
	FinancialData        FinancialData        `json:"financialData"`
	DefaultKeyStatistics DefaultKeyStatistics `json:"defaultKeyStatistics"`
	SummaryDetail        SummaryDetail        `json:"summaryDetail"`
	Price                Price                `json:"price"`
	QuoteType            QuoteType            `json:"quoteType"`
}

// AssetProfile holds company descriptors.
type AssetProfile struct {
	Sector              string `json:"sector"`
	Industry            string `json:"industry"`
	Country             string `json:"country"`
	LongBusinessSummary string `json:"longBusinessSummary"`
}

// FinancialData holds trailing profitability and balance-sheet figures.
type FinancialData struct {
	CurrentPrice     Num `json:"currentPrice"`
	ReturnOnEquity   Num `json:"returnOnEquity"`
	GrossMargins     Num `json:"grossMargins"`
	OperatingMargins Num `json:"operatingMargins"`
	RevenueGrowth    Num `json:"revenueGrowth"`
	EarningsGrowth   Num `json:"earningsGrowth"`
	TotalDebt        Num `json:"totalDebt"`
	TotalCash        Num `json:"totalCash"`
	EBITDA           Num `json:"ebitda"`
	DebtToEquity     Num `json:"debtToEquity"`
}

// DefaultKeyStatistics holds per-share and valuation statistics.
type DefaultKeyStatistics struct {
	PriceToBook         Num `json:"priceToBook"`
	Beta                Num `json:"beta"`
	HeldPercentInsiders Num `json:"heldPercentInsiders"`
	TrailingEPS         Num `json:"trailingEps"`
	EnterpriseToEBITDA  Num `json:"enterpriseToEbitda"`
}

// SummaryDetail holds market summary values.
type SummaryDetail struct {
	TrailingPE   Num    `json:"trailingPE"`
	DividendRate Num    `json:"dividendRate"`
	Beta         Num    `json:"beta"`
	MarketCap    Num    `json:"marketCap"`
	Currency     string `json:"currency"`
}

// Price holds naming and listing details.
type Price struct {
	LongName     string `json:"longName"`
	ShortName    string `json:"shortName"`
	Currency     string `json:"currency"`
	ExchangeName string `json:"exchangeName"`
	MarketCap    Num    `json:"marketCap"`
}

// QuoteType holds the listing date.
type QuoteType struct {
	FirstTradeDateEpochUTC Num `json:"firstTradeDateEpochUtc"`
}

// FirstTradeYear returns the UTC year of the first trade, if reported.
// Listings before 1970 carry negative epochs.
func (q QuoteType) FirstTradeYear() (int, bool) {
	v, ok := q.FirstTradeDateEpochUTC.Float()
	if !ok || v == 0 {
		return 0, false
	}
	return time.Unix(int64(v), 0).UTC().Year(), true
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("yahoo: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// ErrNotFound is returned when Yahoo has no data for a ticker.
var ErrNotFound = eris.New("yahoo: ticker not found")

// Option configures the Yahoo client.
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
	baseURL string
	http    *http.Client
}

// NewClient creates a new Yahoo Finance client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://query2.finance.yahoo.com",
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type quoteSummaryEnvelope struct {
	QuoteSummary struct {
		Result []QuoteSummary `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func (c *httpClient) QuoteSummary(ctx context.Context, ticker string) (*QuoteSummary, error) {
	q := url.Values{}
	q.Set("modules", strings.Join(Modules, ","))
	reqURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.baseURL, url.PathEscape(ticker), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "yahoo: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; quality-cli)")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "yahoo: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "yahoo: read response body")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var env quoteSummaryEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "yahoo: unmarshal response")
	}
	if e := env.QuoteSummary.Error; e != nil {
		return nil, eris.Errorf("yahoo: %s: %s", e.Code, e.Description)
	}
	if len(env.QuoteSummary.Result) == 0 {
		return nil, ErrNotFound
	}
	return &env.QuoteSummary.Result[0], nil
}
