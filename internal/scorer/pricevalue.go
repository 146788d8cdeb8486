package scorer

import "github.com/sells-group/quality-cli/internal/model"

// PriceValueFacts are the valuation facts shown next to the manually
// entered PriceValue score. Nothing here is scored.
type PriceValueFacts struct {
	Ticker        string             `json:"ticker"`
	Price         model.Opt[float64] `json:"price"`
	PETTM         model.Opt[float64] `json:"pe_ttm"`
	PB            model.Opt[float64] `json:"pb"`
	EVEBITDA      model.Opt[float64] `json:"ev_ebitda"`
	PEMedian      model.FieldValue   `json:"pe_median"`
	PBMedian      model.FieldValue   `json:"pb_median"`
	Treasury10Y   model.Opt[float64] `json:"treasury_10y"`
	EarningsYield model.Opt[float64] `json:"earnings_yield"`
	SpreadBps     model.Opt[float64] `json:"spread_bps"`
	Score         model.Opt[float64] `json:"score"`
}

// PriceValue collects valuation facts for rec. The earnings-yield spread
// over the 10-year treasury is (100/PE - yield) * 100 basis points.
func PriceValue(rec model.FinalRecord) PriceValueFacts {
	snap := rec.Identity.Snapshot
	val := rec.Fundamentals.Metrics.Valuation

	facts := PriceValueFacts{
		Ticker:      rec.Ticker,
		Price:       snap.CurrentPrice,
		PETTM:       snap.TrailingPE,
		PB:          snap.PriceToBook,
		EVEBITDA:    snap.EnterpriseToEBITDA,
		PEMedian:    resolved(rec, val.PEMedian10Y, model.MetricPEMedian),
		PBMedian:    resolved(rec, val.PBMedian10Y, model.MetricPBMedian),
		Treasury10Y: rec.Macro.Treasury10Y,
	}

	if pe, ok := snap.TrailingPE.Get(); ok && pe > 0 {
		facts.EarningsYield = model.Some(100 / pe)
		if y, ok := rec.Macro.Treasury10Y.Get(); ok {
			facts.SpreadBps = model.Some((100/pe - y) * 100)
		}
	}
	return facts
}

// resolved returns the primary value when present and nonzero, else the
// gap-fill entry, else an ABSENT field.
func resolved(rec model.FinalRecord, primary model.Opt[float64], key string) model.FieldValue {
	if model.Nonzero(primary) {
		return model.FieldValue{Value: primary, Provenance: model.ProvenancePrimary, Source: model.SourceFMP}
	}
	if fv, ok := rec.Gap(key); ok {
		return fv
	}
	return model.FieldValue{Provenance: model.ProvenanceAbsent}
}
