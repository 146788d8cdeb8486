package fusion

import "github.com/sells-group/quality-cli/internal/model"

// gapRule describes one gap-fill target: how to tell whether the primary
// fundamentals value is usable and how to derive the fallback from the
// identity snapshot.
type gapRule struct {
	key      string
	primary  func(model.Fundamentals) bool
	fallback func(model.Snapshot) model.Opt[float64]
	tag      model.Provenance
}

func nonzero(get func(model.Fundamentals) model.Opt[float64]) func(model.Fundamentals) bool {
	return func(f model.Fundamentals) bool { return model.Nonzero(get(f)) }
}

func scaled(get func(model.Snapshot) model.Opt[float64], factor float64) func(model.Snapshot) model.Opt[float64] {
	return func(s model.Snapshot) model.Opt[float64] { return model.Scale(get(s), factor) }
}

// gapRules are evaluated in model.GapFillTargets order. The ROIC (ROE x 0.7)
// and beta rules are approximations, so they carry ESTIMATED.
var gapRules = []gapRule{
	{
		key:      model.MetricROE5YAvg,
		primary:  nonzero(func(f model.Fundamentals) model.Opt[float64] { return f.Metrics.ROE.Avg5Y }),
		fallback: scaled(func(s model.Snapshot) model.Opt[float64] { return s.ReturnOnEquity }, 100),
		tag:      model.ProvenanceFallbackProxy,
	},
	{
		key:      model.MetricROIC5YAvg,
		primary:  nonzero(func(f model.Fundamentals) model.Opt[float64] { return f.Metrics.ROIC.Avg5Y }),
		fallback: scaled(func(s model.Snapshot) model.Opt[float64] { return s.ReturnOnEquity }, 0.7*100),
		tag:      model.ProvenanceEstimated,
	},
	{
		key:      model.MetricGrossMargin5Y,
		primary:  nonzero(func(f model.Fundamentals) model.Opt[float64] { return f.Metrics.Margins.GrossAvg5Y }),
		fallback: scaled(func(s model.Snapshot) model.Opt[float64] { return s.GrossMargins }, 100),
		tag:      model.ProvenanceFallbackProxy,
	},
	{
		key:      model.MetricOperatingMargin5Y,
		primary:  nonzero(func(f model.Fundamentals) model.Opt[float64] { return f.Metrics.Margins.OperatingAvg5Y }),
		fallback: scaled(func(s model.Snapshot) model.Opt[float64] { return s.OperatingMargins }, 100),
		tag:      model.ProvenanceFallbackProxy,
	},
	{
		key:      model.MetricPEMedian,
		primary:  nonzero(func(f model.Fundamentals) model.Opt[float64] { return f.Metrics.Valuation.PEMedian10Y }),
		fallback: func(s model.Snapshot) model.Opt[float64] { return s.TrailingPE },
		tag:      model.ProvenanceFallbackProxy,
	},
	{
		key:      model.MetricPBMedian,
		primary:  nonzero(func(f model.Fundamentals) model.Opt[float64] { return f.Metrics.Valuation.PBMedian10Y }),
		fallback: func(s model.Snapshot) model.Opt[float64] { return s.PriceToBook },
		tag:      model.ProvenanceFallbackProxy,
	},
	{
		key:      model.MetricRevenueGrowth,
		primary:  nonzero(func(f model.Fundamentals) model.Opt[float64] { return f.Metrics.Growth.RevenueCAGR10Y }),
		fallback: scaled(func(s model.Snapshot) model.Opt[float64] { return s.RevenueGrowth }, 100),
		tag:      model.ProvenanceFallbackProxy,
	},
	{
		key:      model.MetricEarningsGrowth,
		primary:  nonzero(func(f model.Fundamentals) model.Opt[float64] { return f.Metrics.Growth.EPSCAGR10Y }),
		fallback: scaled(func(s model.Snapshot) model.Opt[float64] { return s.EarningsGrowth }, 100),
		tag:      model.ProvenanceFallbackProxy,
	},
	{
		key:      model.MetricCrisisVolatilityProxy,
		primary:  func(f model.Fundamentals) bool { return f.Crisis.GFC.Present() },
		fallback: func(s model.Snapshot) model.Opt[float64] { return s.Beta },
		tag:      model.ProvenanceEstimated,
	},
}

// ResolveGaps computes fallback values for every target whose primary
// fundamentals value is absent or zero. A present primary is never
// overwritten, and a target with no fallback input is left out. The result
// depends only on its arguments.
func ResolveGaps(identity model.Identity, fundamentals model.Fundamentals) map[string]model.FieldValue {
	out := make(map[string]model.FieldValue)
	for _, r := range gapRules {
		if r.primary(fundamentals) {
			continue
		}
		v := r.fallback(identity.Snapshot)
		if !model.Nonzero(v) {
			continue
		}
		out[r.key] = model.FieldValue{Value: v, Provenance: r.tag, Source: model.SourceYahoo}
	}
	return out
}

// ResolveProvenance tags every gap-fill target: PRIMARY when fundamentals
// supplied it, the fallback tag when a gap value was written, otherwise
// ABSENT.
func ResolveProvenance(fundamentals model.Fundamentals, gaps map[string]model.FieldValue) map[string]model.Provenance {
	out := make(map[string]model.Provenance, len(gapRules))
	for _, r := range gapRules {
		switch fv, ok := gaps[r.key]; {
		case r.primary(fundamentals):
			out[r.key] = model.ProvenancePrimary
		case ok:
			out[r.key] = fv.Provenance
		default:
			out[r.key] = model.ProvenanceAbsent
		}
	}
	return out
}
