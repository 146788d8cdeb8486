// Package scorer implements the deterministic nine-category quality rubric.
// Every function is pure: absent inputs take a neutral default and every
// score is clamped to [1,10] and rounded to one decimal.
package scorer

import (
	"strconv"
	"strings"

	"github.com/sells-group/quality-cli/internal/model"
)

// Neutral defaults substituted for absent inputs.
const (
	DefaultComplexity       = 5
	DefaultRevenueCOV       = 15.0
	DefaultEarningsCOV      = 20.0
	DefaultAvgPE            = 20.0
	DefaultPayoutRatio      = 50.0
	DefaultROEStdDev        = 5.0
	DefaultDebtToEquity     = 0.5
	DefaultMarginStdDev     = 3.0
	DefaultReinvestmentRate = 50.0
	DefaultROIC             = 10.0
	DefaultNetDebtEBITDA    = 2.0
	DefaultInterestCoverage = 5.0
	DefaultShortTermDebtPct = 30.0
)

// SimplicityInputs feed Simplicity.
type SimplicityInputs struct {
	SegmentCount    model.Opt[int]
	GeoCount        model.Opt[int]
	HasDerivatives  bool
	IsFinancial     bool
	ComplexityScore model.Opt[int]
	Products        model.Opt[string]
}

// OperatingHistoryInputs feed OperatingHistory.
type OperatingHistoryInputs struct {
	YearsListed     model.Opt[float64]
	RevenueCOV      model.Opt[float64]
	EarningsCOV     model.Opt[float64]
	HasRestatements bool
	MajorPivots     bool
}

// MoatInputs feed Moat.
type MoatInputs struct {
	MoatType      model.Opt[string]
	PricingPower  model.Opt[string]
	ROIC5YAvg     model.Opt[float64]
	GrossMargin5Y model.Opt[float64]
	MarginTrend   model.MarginTrend
}

// ManagementInputs feed Management.
type ManagementInputs struct {
	InsiderOwnershipPct model.Opt[float64]
	CEOTenureYears      model.Opt[float64]
	Shares5YChangePct   model.Opt[float64]
	AvgPE               model.Opt[float64]
	CompensationAligned bool
	PayoutRatio         model.Opt[float64]
}

// ROEROICInputs feed ROEROIC.
type ROEROICInputs struct {
	ROEAvg       model.Opt[float64]
	ROICAvg      model.Opt[float64]
	ROEStdDev    model.Opt[float64]
	DebtToEquity model.Opt[float64]
}

// PredictabilityInputs feed Predictability.
type PredictabilityInputs struct {
	RevenueCOV   model.Opt[float64]
	EarningsCOV  model.Opt[float64]
	MarginStdDev model.Opt[float64]
}

// CapitalAllocationInputs feed CapitalAllocation.
type CapitalAllocationInputs struct {
	Shares5YChangePct model.Opt[float64]
	AvgPE             model.Opt[float64]
	PayoutRatio       model.Opt[float64]
	DividendGrowth    model.Opt[float64]
	ReinvestmentRate  model.Opt[float64]
	ROIC              model.Opt[float64]
	HasMA             bool
	ROICPreMA         model.Opt[float64]
	ROICPostMA        model.Opt[float64]
}

// LeverageInputs feed Leverage.
type LeverageInputs struct {
	NetDebtEBITDA    model.Opt[float64]
	InterestCoverage model.Opt[float64]
	ShortTermDebtPct model.Opt[float64]
	DebtCAGR         model.Opt[float64]
	FCFCAGR          model.Opt[float64]
}

// ResilienceInputs feed Resilience.
type ResilienceInputs struct {
	RevenueChange2008       model.Opt[float64]
	RevenueChange2020       model.Opt[float64]
	DividendCuts            bool
	DemandType              model.Opt[string]
	CustomerDiversification model.Opt[string]
}

// Inputs bundles every category's inputs.
type Inputs struct {
	Simplicity        SimplicityInputs
	OperatingHistory  OperatingHistoryInputs
	Moat              MoatInputs
	Management        ManagementInputs
	ROEROIC           ROEROICInputs
	Predictability    PredictabilityInputs
	CapitalAllocation CapitalAllocationInputs
	Leverage          LeverageInputs
	Resilience        ResilienceInputs
}

// financialSectors are identity sectors treated as balance-sheet businesses.
var financialSectors = []string{"financial services", "financial", "financials", "banks", "insurance"}

// InputsFromRecord maps a compiled record onto scoring inputs. Fundamentals
// win over gap-fill values, which win over identity TTM figures. Inputs
// that only unstructured filing text could supply stay at their defaults.
func InputsFromRecord(rec model.FinalRecord) Inputs {
	id := rec.Identity
	snap := id.Snapshot
	f := rec.Fundamentals
	m := f.Metrics

	roe5y := model.FirstNonzero(m.ROE.Avg5Y, gapValue(rec, model.MetricROE5YAvg))
	roic5y := model.FirstNonzero(m.ROIC.Avg5Y, gapValue(rec, model.MetricROIC5YAvg))
	gross5y := model.FirstNonzero(m.Margins.GrossAvg5Y, gapValue(rec, model.MetricGrossMargin5Y))
	avgPE := model.FirstNonzero(m.Valuation.PEAvg10Y, m.Valuation.PEMedian10Y, gapValue(rec, model.MetricPEMedian))
	payout := payoutRatio(snap)
	shares := f.Shares.FiveYearChangePct

	var in Inputs

	in.Simplicity = SimplicityInputs{
		IsFinancial:     isFinancial(id.Sector, f.Profile.Sector),
		ComplexityScore: rec.Qualitative.ComplexityScore,
	}
	if rec.Filings.Segments.Count > 0 {
		in.Simplicity.SegmentCount = model.Some(rec.Filings.Segments.Count)
	}
	if rec.Context.GeographicCount > 0 {
		in.Simplicity.GeoCount = model.Some(rec.Context.GeographicCount)
	}

	in.OperatingHistory = OperatingHistoryInputs{
		YearsListed:     yearsListed(rec),
		RevenueCOV:      m.Volatility.RevenueCOV,
		EarningsCOV:     m.Volatility.EarningsCOV,
		HasRestatements: len(rec.Filings.Restatements) > 0,
	}

	in.Moat = MoatInputs{
		MoatType:      rec.Qualitative.MoatType,
		PricingPower:  rec.Qualitative.PricingPower,
		ROIC5YAvg:     roic5y,
		GrossMargin5Y: gross5y,
		MarginTrend:   rec.Context.MarginTrend,
	}

	in.Management = ManagementInputs{
		InsiderOwnershipPct: model.Scale(snap.HeldPercentInsiders, 100),
		Shares5YChangePct:   shares,
		AvgPE:               model.FirstNonzero(avgPE, snap.TrailingPE),
		PayoutRatio:         payout,
	}
	if t, ok := rec.Filings.Executives.CEO.TenureYears.Get(); ok {
		in.Management.CEOTenureYears = model.Some(float64(t))
	}

	in.ROEROIC = ROEROICInputs{
		ROEAvg:       roe5y,
		ROICAvg:      roic5y,
		ROEStdDev:    m.ROE.Std10Y,
		DebtToEquity: model.FirstNonzero(m.Leverage.DebtEquityAvg5Y, model.Scale(snap.DebtToEquity, 0.01)),
	}

	in.Predictability = PredictabilityInputs{
		RevenueCOV:   m.Volatility.RevenueCOV,
		EarningsCOV:  m.Volatility.EarningsCOV,
		MarginStdDev: m.Margins.OperatingStd10Y,
	}

	in.CapitalAllocation = CapitalAllocationInputs{
		Shares5YChangePct: shares,
		AvgPE:             avgPE,
		PayoutRatio:       payout,
		DividendGrowth:    m.Leverage.Dividend5YCAGR,
		ROIC:              model.FirstNonzero(m.ROIC.Avg10Y, roic5y),
	}

	in.Leverage = LeverageInputs{
		NetDebtEBITDA:    netDebtEBITDA(snap),
		InterestCoverage: m.Leverage.InterestCoverage,
		ShortTermDebtPct: m.Leverage.ShortTermDebtPct,
		DebtCAGR:         m.Leverage.DebtCAGR5Y,
		FCFCAGR:          m.Leverage.FCFCAGR5Y,
	}

	in.Resilience = ResilienceInputs{
		RevenueChange2008: f.Crisis.GFC.RevenueChangePct,
		RevenueChange2020: f.Crisis.Covid.RevenueChangePct,
		DividendCuts:      m.Leverage.DividendCut.Or(false),
		DemandType:        rec.Qualitative.DemandType,
	}

	return in
}

func gapValue(rec model.FinalRecord, key string) model.Opt[float64] {
	fv, ok := rec.Gap(key)
	if !ok {
		return model.Opt[float64]{}
	}
	return fv.Value
}

// payoutRatio is annual dividend over trailing EPS, in percent.
func payoutRatio(s model.Snapshot) model.Opt[float64] {
	div, ok1 := s.DividendRate.Get()
	eps, ok2 := s.TrailingEPS.Get()
	if !ok1 || !ok2 || eps <= 0 {
		return model.Opt[float64]{}
	}
	return model.Some(div / eps * 100)
}

// netDebtEBITDA is (total debt - cash) / EBITDA. A negative result means
// the company holds net cash.
func netDebtEBITDA(s model.Snapshot) model.Opt[float64] {
	debt, ok := s.TotalDebt.Get()
	ebitda, ok2 := s.EBITDA.Get()
	if !ok || !ok2 || ebitda <= 0 {
		return model.Opt[float64]{}
	}
	return model.Some((debt - s.TotalCash.Or(0)) / ebitda)
}

func isFinancial(sectors ...string) bool {
	for _, s := range sectors {
		s = strings.ToLower(strings.TrimSpace(s))
		for _, fs := range financialSectors {
			if s == fs {
				return true
			}
		}
	}
	return false
}

// yearsListed measures from the IPO year (or the first trade year) to the
// record's own timestamp so the result does not drift with wall time.
func yearsListed(rec model.FinalRecord) model.Opt[float64] {
	if rec.Timestamp.IsZero() {
		return model.Opt[float64]{}
	}
	start := 0
	if ipo := rec.Fundamentals.Profile.IPODate; len(ipo) >= 4 {
		if y, err := strconv.Atoi(ipo[:4]); err == nil {
			start = y
		}
	}
	if start == 0 {
		start = rec.Identity.Snapshot.FirstTradeYear.Or(0)
	}
	if start <= 0 {
		return model.Opt[float64]{}
	}
	return model.Some(float64(rec.Timestamp.Year() - start))
}
