package fusion

import (
	"maps"
	"slices"

	"github.com/sells-group/quality-cli/internal/model"
)

// State is the value threaded through the phases. Phase functions take a
// State and return a new one; the with* helpers never modify the receiver's
// shared slices or maps.
type State struct {
	Ticker       string
	Identity     model.Identity
	Filings      model.Filings
	Fundamentals model.Fundamentals
	Macro        model.Macro
	GapFill      map[string]model.FieldValue
	Context      model.Context
	Qualitative  model.Qualitative
	Phases       []model.PhaseResult
}

// NewState starts a run for ticker.
func NewState(ticker string) State {
	t := model.NormalizeTicker(ticker)
	return State{Ticker: t, Identity: model.Identity{Ticker: t}}
}

func (s State) withPhase(pr model.PhaseResult) State {
	s.Phases = append(slices.Clip(s.Phases), pr)
	return s
}

func (s State) withIdentity(id model.Identity, pr model.PhaseResult) State {
	id.Ticker = s.Ticker
	s.Identity = id
	return s.withPhase(pr)
}

func (s State) withFilings(f model.Filings, pr model.PhaseResult) State {
	s.Filings = f
	return s.withPhase(pr)
}

func (s State) withFundamentals(f model.Fundamentals, pr model.PhaseResult) State {
	s.Fundamentals = f
	return s.withPhase(pr)
}

func (s State) withMacro(m model.Macro, pr model.PhaseResult) State {
	s.Macro = m
	return s.withPhase(pr)
}

func (s State) withGapFill(g map[string]model.FieldValue, pr model.PhaseResult) State {
	s.GapFill = maps.Clone(g)
	return s.withPhase(pr)
}

func (s State) withContext(c model.Context) State {
	s.Context = c
	return s
}

func (s State) withQualitative(q model.Qualitative, pr model.PhaseResult) State {
	s.Qualitative = q
	return s.withPhase(pr)
}
