package fusion

import (
	"maps"
	"time"

	"github.com/sells-group/quality-cli/internal/model"
)

// Compile assembles the final record from a finished state. The record
// shares no mutable state with st.
func Compile(st State, now time.Time) model.FinalRecord {
	gaps := st.GapFill
	if gaps == nil {
		gaps = map[string]model.FieldValue{}
	}

	// The market-data source rarely carries an ISIN; the fundamentals
	// profile does.
	isin := st.Identity.ISIN
	if isin == "" {
		isin = st.Fundamentals.Profile.ISIN
	}

	rec := model.FinalRecord{
		Ticker:       st.Ticker,
		ISIN:         isin,
		CIK:          st.Identity.CIK,
		Identity:     st.Identity,
		Filings:      st.Filings,
		Fundamentals: st.Fundamentals,
		Macro:        st.Macro,
		GapFill:      maps.Clone(gaps),
		Qualitative:  st.Qualitative,
		Context:      st.Context,
		Provenance:   ResolveProvenance(st.Fundamentals, gaps),
		Phases:       st.Phases,
		SourcesUsed:  sourcesUsed(st),
		Timestamp:    now.UTC(),
	}
	return rec.Clone()
}

// sourcesUsed lists, in phase order, each source whose phase produced a
// non-empty payload. A CIK from the ticker map does not count as market
// data, so the market-data source also needs its phase to have completed.
func sourcesUsed(st State) []string {
	var out []string
	add := func(used bool, name string) {
		if used {
			out = append(out, name)
		}
	}
	add(phaseCompleted(st, model.PhaseIdentity) && !st.Identity.Empty(), model.SourceYahoo)
	add(!st.Filings.Empty(), model.SourceEDGAR)
	add(!st.Fundamentals.Empty(), model.SourceFMP)
	add(!st.Macro.Empty(), model.SourceFRED)
	add(len(st.GapFill) > 0, model.SourceGapFill)
	add(!st.Qualitative.Empty(), model.SourceAI)
	if out == nil {
		out = []string{}
	}
	return out
}

func phaseCompleted(st State, name string) bool {
	for _, pr := range st.Phases {
		if pr.Name == name {
			return pr.Status == model.PhaseStatusComplete
		}
	}
	return false
}
