package model

// Identity is the identity-phase payload: who the company is plus a raw
// snapshot of trailing market-data ratios used for gap-filling.
type Identity struct {
	Ticker      string   `json:"ticker"`
	Name        string   `json:"company_name"`
	ISIN        string   `json:"isin"`
	CIK         string   `json:"cik"`
	Sector      string   `json:"sector"`
	Industry    string   `json:"industry"`
	Country     string   `json:"country"`
	Currency    string   `json:"currency"`
	Exchange    string   `json:"exchange"`
	Description string   `json:"description"`
	Snapshot    Snapshot `json:"snapshot"`
}

// Empty reports whether nothing was fetched.
func (i Identity) Empty() bool {
	return i == Identity{Ticker: i.Ticker}
}

// Snapshot is the raw trailing market-data view. Ratios are fractions
// (0.28 means 28%) exactly as the provider reports them.
type Snapshot struct {
	ReturnOnEquity      Opt[float64] `json:"returnOnEquity"`
	GrossMargins        Opt[float64] `json:"grossMargins"`
	OperatingMargins    Opt[float64] `json:"operatingMargins"`
	TrailingPE          Opt[float64] `json:"trailingPE"`
	PriceToBook         Opt[float64] `json:"priceToBook"`
	RevenueGrowth       Opt[float64] `json:"revenueGrowth"`
	EarningsGrowth      Opt[float64] `json:"earningsGrowth"`
	Beta                Opt[float64] `json:"beta"`
	HeldPercentInsiders Opt[float64] `json:"heldPercentInsiders"`
	DividendRate        Opt[float64] `json:"dividendRate"`
	TrailingEPS         Opt[float64] `json:"trailingEps"`
	TotalDebt           Opt[float64] `json:"totalDebt"`
	TotalCash           Opt[float64] `json:"totalCash"`
	EBITDA              Opt[float64] `json:"ebitda"`
	DebtToEquity        Opt[float64] `json:"debtToEquity"`
	EnterpriseToEBITDA  Opt[float64] `json:"enterpriseToEbitda"`
	CurrentPrice        Opt[float64] `json:"currentPrice"`
	MarketCap           Opt[float64] `json:"marketCap"`
	FirstTradeYear      Opt[int]     `json:"firstTradeYear"`
}

// Filings is the filings-phase payload.
type Filings struct {
	Segments     Segments      `json:"segments"`
	History      History       `json:"history"`
	Executives   Executives    `json:"executives"`
	Restatements []Restatement `json:"restatements"`
	AnnualReport FilingRef     `json:"annual_report"`
	Proxy        FilingRef     `json:"proxy"`
}

// Empty reports whether nothing was fetched.
func (f Filings) Empty() bool {
	return f.Segments.Count == 0 && len(f.Segments.Names) == 0 &&
		f.History == (History{}) && f.Executives == (Executives{}) &&
		len(f.Restatements) == 0 &&
		f.AnnualReport == (FilingRef{}) && f.Proxy == (FilingRef{})
}

// Segments describes reported business segments.
type Segments struct {
	Count int      `json:"segment_count"`
	Names []string `json:"segments"`
}

// History holds corporate history facts.
type History struct {
	FoundedYear Opt[int] `json:"founded_year"`
}

// Executives holds officer tenure.
type Executives struct {
	CEO Executive `json:"ceo"`
	CFO Executive `json:"cfo"`
}

// Executive is one officer.
type Executive struct {
	TenureYears Opt[int] `json:"tenure_years"`
}

// Restatement is a filing counted as a potential restatement signal.
type Restatement struct {
	FilingDate string `json:"filing_date"`
	Form       string `json:"form"`
}

// FilingRef points at a specific filing.
type FilingRef struct {
	Form            string `json:"form,omitempty"`
	AccessionNumber string `json:"accession_number,omitempty"`
	FilingDate      string `json:"filing_date,omitempty"`
	URL             string `json:"url,omitempty"`
	PrimaryDocument string `json:"primary_document,omitempty"`
}

// Fundamentals is the fundamentals-phase payload. Percent metrics are
// already scaled to percentage points.
type Fundamentals struct {
	Profile Profile           `json:"profile"`
	Metrics Metrics10Y        `json:"metrics_10y"`
	Crisis  CrisisPerformance `json:"crisis_performance"`
	Shares  SharesChange      `json:"shares_change"`
}

// Empty reports whether nothing was fetched.
func (f Fundamentals) Empty() bool {
	return f == Fundamentals{}
}

// Profile is the fundamentals company profile.
type Profile struct {
	ISIN     string `json:"isin,omitempty"`
	IPODate  string `json:"ipo_date"`
	Industry string `json:"industry"`
	Sector   string `json:"sector"`
	CEO      string `json:"ceo"`
}

// Metrics10Y aggregates ten years of annual data.
type Metrics10Y struct {
	ROE        ReturnStats `json:"roe"`
	ROIC       ReturnStats `json:"roic"`
	Margins    Margins     `json:"margins"`
	Valuation  Valuation   `json:"valuation"`
	Growth     Growth      `json:"growth"`
	Volatility Volatility  `json:"volatility"`
	Leverage   Leverage    `json:"leverage"`
}

// ReturnStats summarizes a return-on-capital series.
type ReturnStats struct {
	Avg10Y    Opt[float64] `json:"avg_10y"`
	Avg5Y     Opt[float64] `json:"avg_5y"`
	Median10Y Opt[float64] `json:"median_10y"`
	Std10Y    Opt[float64] `json:"std_10y"`
}

// Margins summarizes margin series.
type Margins struct {
	GrossAvg5Y      Opt[float64] `json:"gross_avg_5y"`
	OperatingAvg5Y  Opt[float64] `json:"operating_avg_5y"`
	GrossStd10Y     Opt[float64] `json:"gross_std_10y"`
	OperatingStd10Y Opt[float64] `json:"operating_std_10y"`
	FCFAvg5Y        Opt[float64] `json:"fcf_avg_5y"`
}

// Valuation summarizes multiples.
type Valuation struct {
	PEMedian10Y     Opt[float64] `json:"pe_median_10y"`
	PEAvg10Y        Opt[float64] `json:"pe_avg_10y"`
	PBMedian10Y     Opt[float64] `json:"pb_median_10y"`
	PBAvg10Y        Opt[float64] `json:"pb_avg_10y"`
	EVEBITMedian10Y Opt[float64] `json:"ev_ebit_median_10y"`
}

// Growth holds compound growth rates.
type Growth struct {
	RevenueCAGR10Y Opt[float64] `json:"revenue_cagr_10y"`
	EPSCAGR10Y     Opt[float64] `json:"eps_cagr_10y"`
}

// Volatility holds growth dispersion. COV values are std/|mean| of the
// year-over-year growth series, in percent.
type Volatility struct {
	RevenueStd  Opt[float64] `json:"revenue_std"`
	RevenueCOV  Opt[float64] `json:"revenue_cov"`
	EarningsCOV Opt[float64] `json:"earnings_cov"`
}

// Leverage holds balance-sheet leverage aggregates.
type Leverage struct {
	DebtEquityAvg5Y  Opt[float64] `json:"debt_equity_avg_5y"`
	InterestCoverage Opt[float64] `json:"interest_coverage"`
	ShortTermDebtPct Opt[float64] `json:"short_term_debt_pct"`
	DebtCAGR5Y       Opt[float64] `json:"debt_cagr_5y"`
	FCFCAGR5Y        Opt[float64] `json:"fcf_cagr_5y"`
	Dividend5YCAGR   Opt[float64] `json:"dividend_cagr_5y"`
	// DividendCut is set when any year's dividend fell more than 10%
	// below the year before.
	DividendCut      Opt[bool]    `json:"dividend_cut"`
}

// CrisisPerformance holds revenue/EPS deltas through the two stress periods.
type CrisisPerformance struct {
	GFC   CrisisDelta `json:"2008_2009"`
	Covid CrisisDelta `json:"2020"`
}

// CrisisDelta is the percent change across one crisis window.
type CrisisDelta struct {
	RevenueChangePct Opt[float64] `json:"revenue_change_pct"`
	EPSChangePct     Opt[float64] `json:"eps_change_pct"`
}

// Present reports whether any delta was computed.
func (c CrisisDelta) Present() bool {
	return c.RevenueChangePct.Valid || c.EPSChangePct.Valid
}

// SharesChange holds share-count drift.
type SharesChange struct {
	FiveYearChangePct Opt[float64] `json:"shares_5y_change_pct"`
}

// Macro is the macro-phase payload.
type Macro struct {
	Treasury10Y Opt[float64] `json:"treasury_10y"`
}

// Empty reports whether nothing was fetched.
func (m Macro) Empty() bool {
	return !m.Treasury10Y.Valid
}

// Moat categories.
const (
	MoatBrand          = "Brand"
	MoatNetworkEffects = "Network Effects"
	MoatRegulatory     = "Regulatory/Licenses"
	MoatSwitchingCosts = "Switching Costs"
	MoatCostAdvantage  = "Cost Advantage"
	MoatNone           = "None"
)

// Pricing power categories.
const (
	PricingYes      = "Yes"
	PricingModerate = "Moderate"
	PricingNo       = "No"
)

// Demand categories.
const (
	DemandRecurring     = "Recurring"
	DemandMixed         = "Mixed"
	DemandDiscretionary = "Discretionary"
)

// MoatTypes lists the accepted moat categories.
var MoatTypes = []string{MoatBrand, MoatNetworkEffects, MoatRegulatory, MoatSwitchingCosts, MoatCostAdvantage, MoatNone}

// PricingPowers lists the accepted pricing power categories.
var PricingPowers = []string{PricingYes, PricingModerate, PricingNo}

// DemandTypes lists the accepted demand categories.
var DemandTypes = []string{DemandRecurring, DemandMixed, DemandDiscretionary}

// Qualitative is the qualitative-phase payload. Any analysis may be absent.
type Qualitative struct {
	BusinessModel   Opt[string] `json:"business_model"`
	MoatType        Opt[string] `json:"moat_type"`
	PricingPower    Opt[string] `json:"pricing_power"`
	ComplexityScore Opt[int]    `json:"complexity_score"`
	DemandType      Opt[string] `json:"demand_type"`
}

// Empty reports whether no analysis produced a value.
func (q Qualitative) Empty() bool {
	return q == Qualitative{}
}
