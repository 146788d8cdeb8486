package fusion

import (
	"slices"

	"github.com/sells-group/quality-cli/internal/model"
)

// Margin trend thresholds relative to the five-year baseline.
const (
	improvingFactor = 1.1
	decliningFactor = 0.9
)

// BuildContext consolidates phases 1-3 and the gap-fill map into the view
// handed to the qualitative analyzer. Financial metrics take fundamentals
// first, then gap-fill, then the identity TTM figure, defaulting to 0.
func BuildContext(identity model.Identity, filings model.Filings, fundamentals model.Fundamentals, gaps map[string]model.FieldValue) model.Context {
	gap := func(key string) model.Opt[float64] {
		return gaps[key].Value
	}
	snap := identity.Snapshot
	margins := fundamentals.Metrics.Margins

	sector := identity.Sector
	if sector == "" {
		sector = fundamentals.Profile.Sector
	}
	industry := identity.Industry
	if industry == "" {
		industry = fundamentals.Profile.Industry
	}

	segments := slices.Clone(filings.Segments.Names)
	if segments == nil {
		segments = []string{}
	}

	metrics := model.FinancialMetrics{
		ROE: model.FirstNonzero(
			fundamentals.Metrics.ROE.Avg10Y,
			gap(model.MetricROE5YAvg),
			model.Scale(snap.ReturnOnEquity, 100),
		).Or(0),
		GrossMargin: model.FirstNonzero(
			margins.GrossAvg5Y,
			gap(model.MetricGrossMargin5Y),
			model.Scale(snap.GrossMargins, 100),
		).Or(0),
		OperatingMargin: model.FirstNonzero(
			margins.OperatingAvg5Y,
			gap(model.MetricOperatingMargin5Y),
			model.Scale(snap.OperatingMargins, 100),
		).Or(0),
	}

	current := model.Scale(snap.OperatingMargins, 100)
	if !current.Valid {
		current = model.Some(metrics.OperatingMargin)
	}
	baseline := model.FirstNonzero(margins.OperatingAvg5Y, gap(model.MetricOperatingMargin5Y))

	return model.Context{
		Sector:           sector,
		Industry:         industry,
		SegmentCount:     filings.Segments.Count,
		Segments:         segments,
		GeographicCount:  0,
		FinancialMetrics: metrics,
		MarginTrend:      ClassifyMarginTrend(current, baseline),
	}
}

// ClassifyMarginTrend compares the current operating margin with its
// baseline. Either side absent or zero yields stable.
func ClassifyMarginTrend(current, baseline model.Opt[float64]) model.MarginTrend {
	if !model.Nonzero(current) || !model.Nonzero(baseline) {
		return model.MarginStable
	}
	switch {
	case current.Val > baseline.Val*improvingFactor:
		return model.MarginImproving
	case current.Val < baseline.Val*decliningFactor:
		return model.MarginDeclining
	}
	return model.MarginStable
}
