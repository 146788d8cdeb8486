package model

// PhaseStatus represents the outcome of a fusion phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusSkipped  PhaseStatus = "skipped"
	PhaseStatusFailed   PhaseStatus = "failed"
)

// Phase names in execution order.
const (
	PhaseIdentity     = "1_identity"
	PhaseFilings      = "2_filings"
	PhaseFundamentals = "3_fundamentals"
	PhaseMacro        = "4_macro"
	PhaseGapFill      = "5_gap_fill"
	PhaseQualitative  = "6_qualitative"
)

// PhaseOrder lists every phase in the order the sequencer runs them.
var PhaseOrder = []string{
	PhaseIdentity,
	PhaseFilings,
	PhaseFundamentals,
	PhaseMacro,
	PhaseGapFill,
	PhaseQualitative,
}

// Skip reasons.
const (
	ReasonSourceUnavailable   = "source_unavailable"
	ReasonMissingPrerequisite = "missing_prerequisite"
)

// PhaseResult holds the bookkeeping for one phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Reason   string         `json:"reason,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Succeeded reports whether the phase ran to completion.
func (p PhaseResult) Succeeded() bool {
	return p.Status == PhaseStatusComplete
}
