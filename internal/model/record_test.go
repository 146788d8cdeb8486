package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTickers(t *testing.T) {
	t.Parallel()

	got := ParseTickers(" aapl,msft ", "AAPL goog\nbrk.b", "")
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG", "BRK.B"}, got)
}

func TestNewEntity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "WLK", NewEntity("  wlk ").Ticker)
}

func TestProvenance_Valid(t *testing.T) {
	t.Parallel()

	for _, p := range []Provenance{ProvenancePrimary, ProvenanceFallbackProxy, ProvenanceEstimated, ProvenanceAbsent} {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, Provenance("GUESSED").Valid())
}

func TestEmptyPayloads(t *testing.T) {
	t.Parallel()

	assert.True(t, Identity{Ticker: "AAPL"}.Empty())
	assert.False(t, Identity{Ticker: "AAPL", CIK: "320193"}.Empty())
	assert.False(t, Identity{Snapshot: Snapshot{Beta: Some(1.1)}}.Empty())

	assert.True(t, Filings{}.Empty())
	assert.False(t, Filings{Restatements: []Restatement{{Form: "8-K"}}}.Empty())

	assert.True(t, Fundamentals{}.Empty())
	assert.False(t, Fundamentals{Shares: SharesChange{FiveYearChangePct: Some(-3.0)}}.Empty())

	assert.True(t, Macro{}.Empty())
	assert.False(t, Macro{Treasury10Y: Some(4.1)}.Empty())

	assert.True(t, Qualitative{}.Empty())
	assert.False(t, Qualitative{ComplexityScore: Some(4)}.Empty())
}

func TestCrisisDelta_Present(t *testing.T) {
	t.Parallel()

	assert.False(t, CrisisDelta{}.Present())
	assert.True(t, CrisisDelta{EPSChangePct: Some(-12.0)}.Present())
}

func TestFinalRecord_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	rec := FinalRecord{
		Ticker: "AAPL",
		GapFill: map[string]FieldValue{
			MetricROE5YAvg: {Value: Some(28.0), Provenance: ProvenanceFallbackProxy},
		},
		Provenance:  map[string]Provenance{MetricROE5YAvg: ProvenanceFallbackProxy},
		Phases:      []PhaseResult{{Name: PhaseIdentity, Status: PhaseStatusComplete, Metadata: map[string]any{"cik": "320193"}}},
		SourcesUsed: []string{SourceYahoo},
		Timestamp:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	cp := rec.Clone()
	assert.Equal(t, rec, cp)

	cp.GapFill[MetricROE5YAvg] = FieldValue{Value: Some(1.0)}
	cp.Provenance[MetricROE5YAvg] = ProvenanceAbsent
	cp.Phases[0].Metadata["cik"] = "x"
	cp.SourcesUsed[0] = "other"

	assert.Equal(t, 28.0, rec.GapFill[MetricROE5YAvg].Value.Val)
	assert.Equal(t, ProvenanceFallbackProxy, rec.Provenance[MetricROE5YAvg])
	assert.Equal(t, "320193", rec.Phases[0].Metadata["cik"])
	assert.Equal(t, SourceYahoo, rec.SourcesUsed[0])
}

func TestFinalRecord_Lookups(t *testing.T) {
	t.Parallel()

	rec := FinalRecord{
		GapFill: map[string]FieldValue{MetricPEMedian: {Value: Some(18.0)}},
		Phases:  []PhaseResult{{Name: PhaseMacro, Status: PhaseStatusSkipped}},
	}

	fv, ok := rec.Gap(MetricPEMedian)
	assert.True(t, ok)
	assert.Equal(t, 18.0, fv.Value.Val)
	_, ok = rec.Gap(MetricPBMedian)
	assert.False(t, ok)

	p, ok := rec.Phase(PhaseMacro)
	assert.True(t, ok)
	assert.False(t, p.Succeeded())
	_, ok = rec.Phase(PhaseFilings)
	assert.False(t, ok)
}

func TestScoreCard_TotalAndAverage(t *testing.T) {
	t.Parallel()

	sc := ScoreCard{Scores: map[Category]float64{}}
	for _, c := range ScoredCategories {
		sc.Scores[c] = 5
	}
	assert.Equal(t, 45.0, sc.Total())
	assert.Equal(t, 4.5, sc.Average())

	sc.PriceValue = Some(5.0)
	assert.Equal(t, 50.0, sc.Total())
	assert.Equal(t, 5.0, sc.Average())

	v, ok := sc.Get(CategoryPriceValue)
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
	v, ok = sc.Get(CategoryMoat)
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
}
