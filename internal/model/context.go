package model

// MarginTrend classifies current operating margin against its baseline.
type MarginTrend string

const (
	MarginImproving MarginTrend = "improving"
	MarginStable    MarginTrend = "stable"
	MarginDeclining MarginTrend = "declining"
)

// FinancialMetrics is the consolidated metric bundle handed to the
// qualitative analyzer. Values are percentage points; 0 means unknown.
type FinancialMetrics struct {
	ROE             float64 `json:"roe"`
	GrossMargin     float64 `json:"gross_margin"`
	OperatingMargin float64 `json:"operating_margin"`
}

// Context is the consolidated view of phases 1-3 and 5.
type Context struct {
	Sector           string           `json:"sector"`
	Industry         string           `json:"industry"`
	SegmentCount     int              `json:"segment_count"`
	Segments         []string         `json:"segments"`
	GeographicCount  int              `json:"geographic_count"`
	FinancialMetrics FinancialMetrics `json:"financial_metrics"`
	MarginTrend      MarginTrend      `json:"margin_trend"`
}
