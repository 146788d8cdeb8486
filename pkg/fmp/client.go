// Package fmp provides a client for the Financial Modeling Prep v3 API.
package fmp

import (
	"bytes"
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

// Client defines the FMP operations. List endpoints return annual rows,
// newest first.
type Client interface {
	Profile(ctx context.Context, ticker string) (*Profile, error)
	KeyMetrics(ctx context.Context, ticker string, limit int) ([]KeyMetrics, error)
	Ratios(ctx context.Context, ticker string, limit int) ([]Ratios, error)
	IncomeStatements(ctx context.Context, ticker string, limit int) ([]IncomeStatement, error)
	BalanceSheets(ctx context.Context, ticker string, limit int) ([]BalanceSheet, error)
	CashFlows(ctx context.Context, ticker string, limit int) ([]CashFlow, error)
	EnterpriseValues(ctx context.Context, ticker string, limit int) ([]EnterpriseValue, error)
}

// Profile is the company profile.
type Profile struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	CIK         string  `json:"cik"`
	ISIN        string  `json:"isin"`
	Currency    string  `json:"currency"`
	Exchange    string  `json:"exchangeShortName"`
	Industry    string  `json:"industry"`
	Sector      string  `json:"sector"`
	CEO         string  `json:"ceo"`
	Description string  `json:"description"`
	IPODate     string  `json:"ipoDate"`
	Price       float64 `json:"price"`
}

// KeyMetrics is one year of key metrics. Ratios are fractions.
type KeyMetrics struct {
	Date                 string  `json:"date"`
	ROE                  float64 `json:"roe"`
	ROIC                 float64 `json:"roic"`
	FreeCashFlowPerShare float64 `json:"freeCashFlowPerShare"`
	RevenuePerShare      float64 `json:"revenuePerShare"`
	DebtToEquity         float64 `json:"debtToEquity"`
	InterestCoverage     float64 `json:"interestCoverage"`
	NetDebtToEBITDA      float64 `json:"netDebtToEBITDA"`
}

// Ratios is one year of financial ratios.
type Ratios struct {
	Date               string  `json:"date"`
	PriceEarningsRatio float64 `json:"priceEarningsRatio"`
	PriceToBookRatio   float64 `json:"priceToBookRatio"`
	DebtEquityRatio    float64 `json:"debtEquityRatio"`
	InterestCoverage   float64 `json:"interestCoverage"`
	PayoutRatio        float64 `json:"payoutRatio"`
}

// IncomeStatement is one annual income statement.
type IncomeStatement struct {
	Date                  string  `json:"date"`
	CalendarYear          string  `json:"calendarYear"`
	Revenue               float64 `json:"revenue"`
	GrossProfitRatio      float64 `json:"grossProfitRatio"`
	OperatingIncome       float64 `json:"operatingIncome"`
	OperatingIncomeRatio  float64 `json:"operatingIncomeRatio"`
	InterestExpense       float64 `json:"interestExpense"`
	NetIncome             float64 `json:"netIncome"`
	EPS                   float64 `json:"eps"`
	WeightedAverageShsOut float64 `json:"weightedAverageShsOut"`
}

// Year returns the fiscal year of the statement.
func (s IncomeStatement) Year() int {
	if y, err := strconv.Atoi(s.CalendarYear); err == nil {
		return y
	}
	return yearOf(s.Date)
}

// BalanceSheet is one annual balance sheet.
type BalanceSheet struct {
	Date                    string  `json:"date"`
	ShortTermDebt           float64 `json:"shortTermDebt"`
	LongTermDebt            float64 `json:"longTermDebt"`
	TotalDebt               float64 `json:"totalDebt"`
	TotalStockholdersEquity float64 `json:"totalStockholdersEquity"`
	CashAndCashEquivalents  float64 `json:"cashAndCashEquivalents"`
	CommonStock             float64 `json:"commonStock"`
}

// CashFlow is one annual cash-flow statement. Outflows are negative.
type CashFlow struct {
	Date                   string  `json:"date"`
	FreeCashFlow           float64 `json:"freeCashFlow"`
	DividendsPaid          float64 `json:"dividendsPaid"`
	CommonStockRepurchased float64 `json:"commonStockRepurchased"`
}

// EnterpriseValue is one year of enterprise value.
type EnterpriseValue struct {
	Date            string  `json:"date"`
	EnterpriseValue float64 `json:"enterpriseValue"`
	MarketCap       float64 `json:"marketCapitalization"`
}

// Year returns the fiscal year of the valuation date.
func (e EnterpriseValue) Year() int {
	return yearOf(e.Date)
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fmp: unexpected status %d: %s", e.StatusCode, e.Message)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// ErrNotFound is returned when FMP has no profile for a ticker.
var ErrNotFound = eris.New("fmp: ticker not found")

// Option configures the FMP client.
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

// NewClient creates a new FMP client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://financialmodelingprep.com/api/v3",
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, endpoint, ticker string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, endpoint, url.PathEscape(ticker), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "fmp: create %s request", endpoint)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fmp: %s request failed", endpoint)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "fmp: read %s body", endpoint)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	// Invalid keys and plan limits come back as 200 with an error object.
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		if msg := errorMessage(body); msg != "" {
			return nil, eris.Errorf("fmp: %s: %s", endpoint, msg)
		}
	}
	return body, nil
}

func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"Error Message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func getList[T any](ctx context.Context, c *httpClient, endpoint, ticker string, limit int) ([]T, error) {
	params := url.Values{}
	params.Set("period", "annual")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.get(ctx, endpoint, ticker, params)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrapf(err, "fmp: unmarshal %s", endpoint)
	}
	return out, nil
}

func (c *httpClient) Profile(ctx context.Context, ticker string) (*Profile, error) {
	body, err := c.get(ctx, "profile", ticker, nil)
	if err != nil {
		return nil, err
	}
	var out []Profile
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "fmp: unmarshal profile")
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (c *httpClient) KeyMetrics(ctx context.Context, ticker string, limit int) ([]KeyMetrics, error) {
	return getList[KeyMetrics](ctx, c, "key-metrics", ticker, limit)
}

func (c *httpClient) Ratios(ctx context.Context, ticker string, limit int) ([]Ratios, error) {
	return getList[Ratios](ctx, c, "ratios", ticker, limit)
}

func (c *httpClient) IncomeStatements(ctx context.Context, ticker string, limit int) ([]IncomeStatement, error) {
	return getList[IncomeStatement](ctx, c, "income-statement", ticker, limit)
}

func (c *httpClient) BalanceSheets(ctx context.Context, ticker string, limit int) ([]BalanceSheet, error) {
	return getList[BalanceSheet](ctx, c, "balance-sheet-statement", ticker, limit)
}

func (c *httpClient) CashFlows(ctx context.Context, ticker string, limit int) ([]CashFlow, error) {
	return getList[CashFlow](ctx, c, "cash-flow-statement", ticker, limit)
}

func (c *httpClient) EnterpriseValues(ctx context.Context, ticker string, limit int) ([]EnterpriseValue, error) {
	return getList[EnterpriseValue](ctx, c, "enterprise-values", ticker, limit)
}
