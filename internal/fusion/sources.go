// Package fusion sequences the source phases for one ticker, fills metric
// gaps from fallback proxies, and compiles the immutable FinalRecord.
package fusion

import (
	"context"

	"github.com/sells-group/quality-cli/internal/model"
)

// IdentityProvider fetches basic company identity and the trailing
// market-data snapshot.
type IdentityProvider interface {
	GetInfo(ctx context.Context, ticker string) (model.Identity, error)
}

// CIKResolver maps a ticker to its SEC central index key.
type CIKResolver interface {
	LookupCIK(ctx context.Context, ticker string) (string, error)
}

// FilingsProvider fetches structured filings data for a CIK.
type FilingsProvider interface {
	GetComprehensiveData(ctx context.Context, cik string) (model.Filings, error)
}

// FundamentalsProvider fetches ten-year fundamentals aggregates.
type FundamentalsProvider interface {
	GetComprehensiveData(ctx context.Context, ticker string) (model.Fundamentals, error)
}

// MacroProvider fetches the current 10-year benchmark yield.
type MacroProvider interface {
	Get10YYield(ctx context.Context) (model.Opt[float64], error)
}

// QualitativeAnalyzer runs free-text analyses. Each method returns an
// absent value on failure instead of an error.
type QualitativeAnalyzer interface {
	SummarizeBusinessModel(ctx context.Context, text string) model.Opt[string]
	CategorizeMoat(ctx context.Context, text string, metrics model.FinancialMetrics) model.Opt[string]
	AssessPricingPower(ctx context.Context, text string, trend model.MarginTrend) model.Opt[string]
	AssessSimplicity(ctx context.Context, text string, segmentCount, geoCount int) model.Opt[int]
	CategorizeDemand(ctx context.Context, text, industry string) model.Opt[string]
}

// Sources wires the adapters. A nil adapter means the source is not
// configured and its phase is skipped.
type Sources struct {
	Identity     IdentityProvider
	CIK          CIKResolver
	Filings      FilingsProvider
	Fundamentals FundamentalsProvider
	Macro        MacroProvider
	Qualitative  QualitativeAnalyzer
}
