package model

// Provenance marks which source, or which fallback tier, produced a value.
type Provenance string

const (
	ProvenancePrimary       Provenance = "PRIMARY"
	ProvenanceFallbackProxy Provenance = "FALLBACK_PROXY"
	ProvenanceEstimated     Provenance = "ESTIMATED"
	ProvenanceAbsent        Provenance = "ABSENT"
)

// Valid reports whether p is one of the known tags.
func (p Provenance) Valid() bool {
	switch p {
	case ProvenancePrimary, ProvenanceFallbackProxy, ProvenanceEstimated, ProvenanceAbsent:
		return true
	}
	return false
}

// Gap-fill target metric keys.
const (
	MetricROE5YAvg              = "roe_5y_avg"
	MetricROIC5YAvg             = "roic_5y_avg"
	MetricGrossMargin5Y         = "gross_margin_5y"
	MetricOperatingMargin5Y     = "operating_margin_5y"
	MetricPEMedian              = "pe_median"
	MetricPBMedian              = "pb_median"
	MetricRevenueGrowth         = "revenue_growth"
	MetricEarningsGrowth        = "earnings_growth"
	MetricCrisisVolatilityProxy = "crisis_volatility_proxy"
)

// GapFillTargets lists the nine target metrics in resolution order.
var GapFillTargets = []string{
	MetricROE5YAvg,
	MetricROIC5YAvg,
	MetricGrossMargin5Y,
	MetricOperatingMargin5Y,
	MetricPEMedian,
	MetricPBMedian,
	MetricRevenueGrowth,
	MetricEarningsGrowth,
	MetricCrisisVolatilityProxy,
}

// FieldValue is a single merged datum with its provenance.
type FieldValue struct {
	Value      Opt[float64] `json:"value"`
	Provenance Provenance   `json:"provenance"`
	Source     string       `json:"source,omitempty"`
}
