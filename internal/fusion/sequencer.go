package fusion

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/quality-cli/internal/model"
)

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) { s.now = now }
}

// WithPhaseTimeout bounds each phase. Zero leaves phases unbounded.
func WithPhaseTimeout(d time.Duration) Option {
	return func(s *Sequencer) { s.phaseTimeout = d }
}

// Sequencer runs the six fusion phases for a ticker. It holds no per-run
// state and is safe for concurrent use.
type Sequencer struct {
	src          Sources
	now          func() time.Time
	phaseTimeout time.Duration
}

// NewSequencer creates a Sequencer over the given sources.
func NewSequencer(src Sources, opts ...Option) *Sequencer {
	s := &Sequencer{src: src, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run executes every phase and compiles the record. It never fails: a
// source that is missing, errors or panics leaves its phase empty.
//
// Identity runs first. Filings, fundamentals and macro then run
// concurrently and are all awaited. Gap-fill and qualitative follow the
// join.
func (s *Sequencer) Run(ctx context.Context, ticker string) model.FinalRecord {
	st := NewState(ticker)
	log := zap.L().With(zap.String("ticker", st.Ticker))
	log.Info("fusion: starting run")

	st = s.identityPhase(ctx, log, st)

	var (
		filings      model.Filings
		filingsPR    model.PhaseResult
		fundamentals model.Fundamentals
		fundPR       model.PhaseResult
		macro        model.Macro
		macroPR      model.PhaseResult
	)

	// Plain group: a failing sibling must not cancel the others.
	var g errgroup.Group
	g.Go(func() error {
		filings, filingsPR = s.filingsPhase(ctx, log, st)
		return nil
	})
	g.Go(func() error {
		fundamentals, fundPR = s.fundamentalsPhase(ctx, log, st)
		return nil
	})
	g.Go(func() error {
		macro, macroPR = s.macroPhase(ctx, log, st)
		return nil
	})
	_ = g.Wait()

	st = st.withFilings(filings, filingsPR).
		withFundamentals(fundamentals, fundPR).
		withMacro(macro, macroPR)

	st = s.gapFillPhase(ctx, log, st)
	st = st.withContext(BuildContext(st.Identity, st.Filings, st.Fundamentals, st.GapFill))
	st = s.qualitativePhase(ctx, log, st)

	rec := Compile(st, s.now())
	log.Info("fusion: run complete",
		zap.Strings("sources_used", rec.SourcesUsed),
		zap.Int("gap_fills", len(rec.GapFill)),
	)
	return rec
}

// RunAll is Run under the name consumers use.
func (s *Sequencer) RunAll(ctx context.Context, ticker string) model.FinalRecord {
	return s.Run(ctx, ticker)
}

func (s *Sequencer) identityPhase(ctx context.Context, log *zap.Logger, st State) State {
	if s.src.Identity == nil {
		st = st.withIdentity(model.Identity{}, skipPhase(log, model.PhaseIdentity, model.ReasonSourceUnavailable))
	} else {
		id, pr := runPhase(ctx, log, s.phaseTimeout, model.PhaseIdentity, func(ctx context.Context) (model.Identity, map[string]any, error) {
			id, err := s.src.Identity.GetInfo(ctx, st.Ticker)
			if err != nil {
				return model.Identity{}, nil, eris.Wrap(err, "fusion: identity")
			}
			return id, map[string]any{"has_cik": id.CIK != "", "has_description": id.Description != ""}, nil
		})
		st = st.withIdentity(id, pr)
	}

	if st.Identity.CIK != "" || s.src.CIK == nil {
		return st
	}

	// The market-data source often lacks a CIK; the filings source's
	// ticker map is the fallback. Failure only means phase 2 is skipped.
	cik := s.lookupCIK(ctx, log, st.Ticker)
	if cik == "" {
		return st
	}
	id := st.Identity
	id.CIK = cik
	st.Identity = id

	if st.Phases[len(st.Phases)-1].Status != model.PhaseStatusComplete {
		return st
	}
	st.Phases = slices.Clone(st.Phases)
	last := &st.Phases[len(st.Phases)-1]
	last.Metadata = maps.Clone(last.Metadata)
	if last.Metadata == nil {
		last.Metadata = map[string]any{}
	}
	last.Metadata["cik_source"] = "ticker_map"
	return st
}

func (s *Sequencer) lookupCIK(ctx context.Context, log *zap.Logger, ticker string) (cik string) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("fusion: cik lookup panicked", zap.Any("panic", r))
			cik = ""
		}
	}()
	if s.phaseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.phaseTimeout)
		defer cancel()
	}
	cik, err := s.src.CIK.LookupCIK(ctx, ticker)
	if err != nil {
		log.Warn("fusion: cik lookup failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(cik)
}

func (s *Sequencer) filingsPhase(ctx context.Context, log *zap.Logger, st State) (model.Filings, model.PhaseResult) {
	switch {
	case s.src.Filings == nil:
		return model.Filings{}, skipPhase(log, model.PhaseFilings, model.ReasonSourceUnavailable)
	case strings.TrimSpace(st.Identity.CIK) == "":
		return model.Filings{}, skipPhase(log, model.PhaseFilings, model.ReasonMissingPrerequisite)
	}
	return runPhase(ctx, log, s.phaseTimeout, model.PhaseFilings, func(ctx context.Context) (model.Filings, map[string]any, error) {
		f, err := s.src.Filings.GetComprehensiveData(ctx, st.Identity.CIK)
		if err != nil {
			return model.Filings{}, nil, eris.Wrap(err, "fusion: filings")
		}
		return f, map[string]any{"cik": st.Identity.CIK, "restatements": len(f.Restatements)}, nil
	})
}

func (s *Sequencer) fundamentalsPhase(ctx context.Context, log *zap.Logger, st State) (model.Fundamentals, model.PhaseResult) {
	if s.src.Fundamentals == nil {
		return model.Fundamentals{}, skipPhase(log, model.PhaseFundamentals, model.ReasonSourceUnavailable)
	}
	return runPhase(ctx, log, s.phaseTimeout, model.PhaseFundamentals, func(ctx context.Context) (model.Fundamentals, map[string]any, error) {
		f, err := s.src.Fundamentals.GetComprehensiveData(ctx, st.Ticker)
		if err != nil {
			return model.Fundamentals{}, nil, eris.Wrap(err, "fusion: fundamentals")
		}
		return f, nil, nil
	})
}

func (s *Sequencer) macroPhase(ctx context.Context, log *zap.Logger, _ State) (model.Macro, model.PhaseResult) {
	if s.src.Macro == nil {
		return model.Macro{}, skipPhase(log, model.PhaseMacro, model.ReasonSourceUnavailable)
	}
	return runPhase(ctx, log, s.phaseTimeout, model.PhaseMacro, func(ctx context.Context) (model.Macro, map[string]any, error) {
		y, err := s.src.Macro.Get10YYield(ctx)
		if err != nil {
			return model.Macro{}, nil, eris.Wrap(err, "fusion: macro")
		}
		return model.Macro{Treasury10Y: y}, nil, nil
	})
}

func (s *Sequencer) gapFillPhase(ctx context.Context, log *zap.Logger, st State) State {
	gaps, pr := runPhase(ctx, log, 0, model.PhaseGapFill, func(context.Context) (map[string]model.FieldValue, map[string]any, error) {
		g := ResolveGaps(st.Identity, st.Fundamentals)
		return g, map[string]any{"filled": len(g)}, nil
	})
	if gaps == nil {
		gaps = map[string]model.FieldValue{}
	}
	return st.withGapFill(gaps, pr)
}

func (s *Sequencer) qualitativePhase(ctx context.Context, log *zap.Logger, st State) State {
	switch {
	case s.src.Qualitative == nil:
		return st.withQualitative(model.Qualitative{}, skipPhase(log, model.PhaseQualitative, model.ReasonSourceUnavailable))
	case strings.TrimSpace(st.Identity.Description) == "":
		return st.withQualitative(model.Qualitative{}, skipPhase(log, model.PhaseQualitative, model.ReasonMissingPrerequisite))
	}

	q, pr := runPhase(ctx, log, s.phaseTimeout, model.PhaseQualitative, func(ctx context.Context) (model.Qualitative, map[string]any, error) {
		q := analyze(ctx, log, s.src.Qualitative, st.Identity.Description, st.Context)
		return q, map[string]any{"margin_trend": string(st.Context.MarginTrend)}, nil
	})
	return st.withQualitative(q, pr)
}

// analyze runs the five independent analyses concurrently. A panicking
// analysis is logged and left absent.
func analyze(ctx context.Context, log *zap.Logger, a QualitativeAnalyzer, text string, c model.Context) model.Qualitative {
	var q model.Qualitative
	var g errgroup.Group

	safe := func(name string, fn func()) {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Warn("fusion: analysis panicked", zap.String("analysis", name), zap.Any("panic", r))
				}
			}()
			fn()
			return nil
		})
	}

	safe("business_model", func() { q.BusinessModel = a.SummarizeBusinessModel(ctx, text) })
	safe("moat", func() { q.MoatType = a.CategorizeMoat(ctx, text, c.FinancialMetrics) })
	safe("pricing_power", func() { q.PricingPower = a.AssessPricingPower(ctx, text, c.MarginTrend) })
	safe("simplicity", func() { q.ComplexityScore = a.AssessSimplicity(ctx, text, c.SegmentCount, c.GeographicCount) })
	safe("demand", func() { q.DemandType = a.CategorizeDemand(ctx, text, c.Industry) })

	_ = g.Wait()
	return q
}
