package source

import (
	"math"
	"slices"

	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/pkg/fmp"
)

// Crisis windows as (base year, trough year).
var (
	gfcWindow   = [2]int{2007, 2009}
	covidWindow = [2]int{2019, 2020}
)

// A year paying less than this share of the prior year's dividend is a cut.
const dividendCutRatio = 0.9

// FMPData is the raw annual history an aggregation runs over. Every list is
// newest first.
type FMPData struct {
	Profile    *fmp.Profile
	KeyMetrics []fmp.KeyMetrics
	Ratios     []fmp.Ratios
	Income     []fmp.IncomeStatement
	Balance    []fmp.BalanceSheet
	CashFlow   []fmp.CashFlow
	EV         []fmp.EnterpriseValue
}

// Aggregate reduces the annual history to the fundamentals payload.
func Aggregate(d FMPData) model.Fundamentals {
	var out model.Fundamentals
	if d.Profile != nil {
		out.Profile = model.Profile{
			ISIN:     d.Profile.ISIN,
			IPODate:  d.Profile.IPODate,
			Industry: d.Profile.Industry,
			Sector:   d.Profile.Sector,
			CEO:      d.Profile.CEO,
		}
	}

	m := &out.Metrics
	m.ROE = returnStats(pluck(d.KeyMetrics, func(k fmp.KeyMetrics) float64 { return k.ROE }))
	m.ROIC = returnStats(pluck(d.KeyMetrics, func(k fmp.KeyMetrics) float64 { return k.ROIC }))

	var fcfMargins []float64
	for _, k := range d.KeyMetrics {
		if k.FreeCashFlowPerShare != 0 && k.RevenuePerShare != 0 {
			fcfMargins = append(fcfMargins, k.FreeCashFlowPerShare/k.RevenuePerShare*100)
		}
	}
	m.Margins.FCFAvg5Y = avg5(fcfMargins)

	pe := positive(pluck(d.Ratios, func(r fmp.Ratios) float64 { return r.PriceEarningsRatio }))
	pb := positive(pluck(d.Ratios, func(r fmp.Ratios) float64 { return r.PriceToBookRatio }))
	m.Valuation.PEMedian10Y = optMedian(pe)
	m.Valuation.PEAvg10Y = optMean(pe)
	m.Valuation.PBMedian10Y = optMedian(pb)
	m.Valuation.PBAvg10Y = optMean(pb)
	m.Valuation.EVEBITMedian10Y = optMedian(evToEBIT(d.EV, d.Income))

	m.Leverage.DebtEquityAvg5Y = avg5(pluck(d.Ratios, func(r fmp.Ratios) float64 { return r.DebtEquityRatio }))
	m.Leverage.InterestCoverage = interestCoverage(d.Ratios, d.Income)
	if len(d.Balance) > 0 && d.Balance[0].TotalDebt > 0 {
		m.Leverage.ShortTermDebtPct = model.Some(d.Balance[0].ShortTermDebt / d.Balance[0].TotalDebt * 100)
	}
	debt := make([]float64, len(d.Balance))
	for i, b := range d.Balance {
		debt[i] = b.TotalDebt
	}
	fcf := make([]float64, len(d.CashFlow))
	div := make([]float64, len(d.CashFlow))
	for i, c := range d.CashFlow {
		fcf[i] = c.FreeCashFlow
		div[i] = -c.DividendsPaid
	}
	m.Leverage.DebtCAGR5Y = fiveYearCAGR(debt)
	m.Leverage.FCFCAGR5Y = fiveYearCAGR(fcf)
	m.Leverage.Dividend5YCAGR = fiveYearCAGR(div)
	m.Leverage.DividendCut = dividendCut(div)

	income := d.Income
	if len(income) > 10 {
		income = income[:10]
	}
	revenues := pluck(income, func(s fmp.IncomeStatement) float64 { return s.Revenue })
	eps := pluck(income, func(s fmp.IncomeStatement) float64 { return s.EPS })
	if len(revenues) >= 2 {
		m.Growth.RevenueCAGR10Y = cagr(revenues[0], revenues[len(revenues)-1], len(revenues)-1)
	}
	if len(eps) >= 2 && eps[0] > 0 {
		m.Growth.EPSCAGR10Y = cagr(eps[0], eps[len(eps)-1], len(eps)-1)
	}

	if g := growthSeries(revenues); len(g) > 0 {
		std := stdev(g)
		m.Volatility.RevenueStd = model.Some(std)
		m.Volatility.RevenueCOV = cov(std, g)
	}
	if g := growthSeries(eps); len(g) > 0 {
		m.Volatility.EarningsCOV = cov(stdev(g), g)
	}

	gross := pluck(income, func(s fmp.IncomeStatement) float64 { return s.GrossProfitRatio * 100 })
	op := pluck(income, func(s fmp.IncomeStatement) float64 { return s.OperatingIncomeRatio * 100 })
	m.Margins.GrossAvg5Y = avg5(gross)
	m.Margins.OperatingAvg5Y = avg5(op)
	if len(gross) > 0 {
		m.Margins.GrossStd10Y = model.Some(stdev(gross))
	}
	if len(op) > 0 {
		m.Margins.OperatingStd10Y = model.Some(stdev(op))
	}

	out.Crisis.GFC = crisisDelta(d.Income, gfcWindow)
	out.Crisis.Covid = crisisDelta(d.Income, covidWindow)
	out.Shares.FiveYearChangePct = sharesChange(d.Income)
	return out
}

// pluck collects f over rows, dropping zero values the way the provider
// reports missing fields.
func pluck[T any](rows []T, f func(T) float64) []float64 {
	var out []float64
	for _, r := range rows {
		if v := f(r); v != 0 && !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func positive(vs []float64) []float64 {
	var out []float64
	for _, v := range vs {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

func returnStats(vs []float64) model.ReturnStats {
	if len(vs) == 0 {
		return model.ReturnStats{}
	}
	return model.ReturnStats{
		Avg10Y:    model.Some(mean(vs) * 100),
		Median10Y: model.Some(median(vs) * 100),
		Avg5Y:     model.Scale(avg5(vs), 100),
		Std10Y:    model.Some(stdev(vs) * 100),
	}
}

// avg5 is the mean of the five most recent values, absent with fewer than
// five.
func avg5(vs []float64) model.Opt[float64] {
	if len(vs) < 5 {
		return model.None[float64]()
	}
	return model.Some(mean(vs[:5]))
}

func optMean(vs []float64) model.Opt[float64] {
	if len(vs) == 0 {
		return model.None[float64]()
	}
	return model.Some(mean(vs))
}

func optMedian(vs []float64) model.Opt[float64] {
	if len(vs) == 0 {
		return model.None[float64]()
	}
	return model.Some(median(vs))
}

func mean(vs []float64) float64 {
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func median(vs []float64) float64 {
	s := slices.Clone(vs)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// stdev is the sample standard deviation; zero for fewer than two values.
func stdev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	mu := mean(vs)
	ss := 0.0
	for _, v := range vs {
		ss += (v - mu) * (v - mu)
	}
	return math.Sqrt(ss / float64(len(vs)-1))
}

// cagr is the compound annual growth from start to end over years, in
// percent. Absent unless both ends are positive.
func cagr(end, start float64, years int) model.Opt[float64] {
	if years <= 0 || start <= 0 || end <= 0 {
		return model.None[float64]()
	}
	return model.Some((math.Pow(end/start, 1/float64(years)) - 1) * 100)
}

// fiveYearCAGR compares the newest value with the one five rows back, or
// the oldest available when history is shorter.
func fiveYearCAGR(vs []float64) model.Opt[float64] {
	if len(vs) < 2 {
		return model.None[float64]()
	}
	back := min(5, len(vs)-1)
	return cagr(vs[0], vs[back], back)
}

// dividendCut reports whether a newest-first dividend series ever dropped
// by more than dividendCutRatio from one year to the next. It is absent
// without two years of history or any dividend paid.
func dividendCut(div []float64) model.Opt[bool] {
	if len(div) < 2 || !slices.ContainsFunc(div, func(v float64) bool { return v > 0 }) {
		return model.None[bool]()
	}
	for i := 0; i+1 < len(div); i++ {
		if div[i+1] > 0 && div[i] < div[i+1]*dividendCutRatio {
			return model.Some(true)
		}
	}
	return model.Some(false)
}

// growthSeries is the year-over-year percent change of a newest-first series.
func growthSeries(vs []float64) []float64 {
	var out []float64
	for i := 0; i+1 < len(vs); i++ {
		if vs[i+1] != 0 {
			out = append(out, (vs[i]/vs[i+1]-1)*100)
		}
	}
	return out
}

// cov is std/|mean| in percent, absent when the mean is zero.
func cov(std float64, series []float64) model.Opt[float64] {
	mu := mean(series)
	if mu == 0 {
		return model.None[float64]()
	}
	return model.Some(std / math.Abs(mu) * 100)
}

func interestCoverage(ratios []fmp.Ratios, income []fmp.IncomeStatement) model.Opt[float64] {
	if len(ratios) > 0 && ratios[0].InterestCoverage != 0 {
		return model.Some(ratios[0].InterestCoverage)
	}
	if len(income) > 0 && income[0].InterestExpense != 0 {
		return model.Some(income[0].OperatingIncome / math.Abs(income[0].InterestExpense))
	}
	return model.None[float64]()
}

// evToEBIT matches enterprise value to operating income by fiscal year.
func evToEBIT(ev []fmp.EnterpriseValue, income []fmp.IncomeStatement) []float64 {
	ebit := make(map[int]float64, len(income))
	for _, s := range income {
		if _, seen := ebit[s.Year()]; !seen {
			ebit[s.Year()] = s.OperatingIncome
		}
	}
	var out []float64
	for _, e := range ev {
		if op := ebit[e.Year()]; op > 0 && e.EnterpriseValue > 0 {
			out = append(out, e.EnterpriseValue/op)
		}
	}
	return out
}

func crisisDelta(income []fmp.IncomeStatement, window [2]int) model.CrisisDelta {
	var before, after *fmp.IncomeStatement
	for i := range income {
		switch income[i].Year() {
		case window[0]:
			if before == nil {
				before = &income[i]
			}
		case window[1]:
			if after == nil {
				after = &income[i]
			}
		}
	}
	var d model.CrisisDelta
	if before == nil || after == nil {
		return d
	}
	if before.Revenue != 0 {
		d.RevenueChangePct = model.Some((after.Revenue - before.Revenue) / before.Revenue * 100)
	}
	if before.EPS != 0 {
		d.EPSChangePct = model.Some((after.EPS - before.EPS) / math.Abs(before.EPS) * 100)
	}
	return d
}

// sharesChange is the percent drift in diluted share count over five years.
func sharesChange(income []fmp.IncomeStatement) model.Opt[float64] {
	shares := pluck(income, func(s fmp.IncomeStatement) float64 { return s.WeightedAverageShsOut })
	if len(shares) < 2 {
		return model.None[float64]()
	}
	then := shares[min(5, len(shares)-1)]
	return model.Some((shares[0] - then) / then * 100)
}
