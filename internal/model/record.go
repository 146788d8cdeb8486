package model

import (
	"maps"
	"slices"
	"time"
)

// Source names reported in FinalRecord.SourcesUsed.
const (
	SourceYahoo   = "Yahoo"
	SourceEDGAR   = "EDGAR"
	SourceFMP     = "FMP"
	SourceFRED    = "FRED"
	SourceGapFill = "Gap-Fill"
	SourceAI      = "AI"
)

// FinalRecord is the compiled per-ticker aggregate. It is built once by the
// compiler and only read afterwards; use Clone before handing it to code
// that may modify it.
type FinalRecord struct {
	Ticker       string                `json:"ticker"`
	ISIN         string                `json:"isin,omitempty"`
	CIK          string                `json:"cik,omitempty"`
	Identity     Identity              `json:"phase1_identity"`
	Filings      Filings               `json:"phase2_filings"`
	Fundamentals Fundamentals          `json:"phase3_fundamentals"`
	Macro        Macro                 `json:"phase4_macro"`
	GapFill      map[string]FieldValue `json:"phase5_gap_fill"`
	Qualitative  Qualitative           `json:"phase6_qualitative"`
	Context      Context               `json:"context"`
	Provenance   map[string]Provenance `json:"provenance"`
	Phases       []PhaseResult         `json:"phases"`
	SourcesUsed  []string              `json:"sources_used"`
	Timestamp    time.Time             `json:"timestamp"`
}

// Gap returns the gap-fill value for key, if one was written.
func (r FinalRecord) Gap(key string) (FieldValue, bool) {
	fv, ok := r.GapFill[key]
	return fv, ok
}

// Phase returns the bookkeeping for the named phase.
func (r FinalRecord) Phase(name string) (PhaseResult, bool) {
	for _, p := range r.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseResult{}, false
}

// Clone returns a deep copy that shares no mutable state with r.
func (r FinalRecord) Clone() FinalRecord {
	out := r
	out.GapFill = maps.Clone(r.GapFill)
	out.Provenance = maps.Clone(r.Provenance)
	out.SourcesUsed = slices.Clone(r.SourcesUsed)
	out.Filings.Segments.Names = slices.Clone(r.Filings.Segments.Names)
	out.Filings.Restatements = slices.Clone(r.Filings.Restatements)
	out.Context.Segments = slices.Clone(r.Context.Segments)
	out.Phases = slices.Clone(r.Phases)
	for i := range out.Phases {
		out.Phases[i].Metadata = maps.Clone(out.Phases[i].Metadata)
	}
	return out
}
