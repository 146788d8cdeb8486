package scorer

import (
	"math"

	"github.com/sells-group/quality-cli/internal/model"
)

// finalize rounds to one decimal and clamps to [1,10]. Intermediate scores
// may leave the range; only the final value is bounded.
func finalize(score float64) float64 {
	return math.Max(1, math.Min(10, math.Round(score*10)/10))
}

// Simplicity rewards businesses that are easy to understand (higher is
// simpler).
func Simplicity(in SimplicityInputs) float64 {
	score := 10.0

	switch segments := in.SegmentCount.Or(0); {
	case segments > 5:
		score -= 2
	case segments > 3:
		score--
	}

	switch geo := in.GeoCount.Or(0); {
	case geo > 15:
		score -= 2
	case geo > 8:
		score--
	}

	if in.HasDerivatives {
		score -= 2
	}
	if in.IsFinancial {
		score -= 2
	}

	switch complexity := in.ComplexityScore.Or(DefaultComplexity); {
	case complexity >= 8:
		score -= 3
	case complexity >= 6:
		score -= 2
	case complexity >= 4:
		score--
	}

	if in.Products.Or("") == "Many" {
		score--
	}

	return finalize(score)
}

// OperatingHistory rewards long, consistent, restatement-free records.
func OperatingHistory(in OperatingHistoryInputs) float64 {
	score := 5.0

	switch years := in.YearsListed.Or(0); {
	case years >= 50:
		score += 3
	case years >= 30:
		score += 2
	case years >= 15:
		score++
	case years < 5:
		score -= 2
	}

	switch cov := in.RevenueCOV.Or(DefaultRevenueCOV); {
	case cov < 5:
		score += 2
	case cov < 10:
		score++
	case cov > 30:
		score -= 2
	}

	switch cov := in.EarningsCOV.Or(DefaultEarningsCOV); {
	case cov < 10:
		score += 2
	case cov < 20:
		score++
	case cov > 50:
		score -= 2
	}

	if in.HasRestatements {
		score -= 2
	} else {
		score++
	}

	if in.MajorPivots {
		score--
	} else {
		score++
	}

	return finalize(score)
}

// Moat scores durable competitive advantage. It starts low since moats are
// rare.
func Moat(in MoatInputs) float64 {
	score := 3.0

	switch in.MoatType.Or(model.MoatNone) {
	case model.MoatBrand, model.MoatNetworkEffects:
		score += 3
	case model.MoatRegulatory, model.MoatSwitchingCosts:
		score += 2
	case model.MoatCostAdvantage:
		score += 2
	}

	switch in.PricingPower.Or(model.PricingNo) {
	case model.PricingYes:
		score += 3
	case model.PricingModerate:
		score++
	}

	switch roic := in.ROIC5YAvg.Or(0); {
	case roic > 25:
		score += 2
	case roic > 20:
		score += 1.5
	case roic > 15:
		score++
	case roic < 10 && roic > 0:
		score--
	}

	if in.GrossMargin5Y.Or(0) > 60 {
		score++
	}

	switch in.MarginTrend {
	case model.MarginImproving:
		score += 0.5
	case model.MarginDeclining:
		score--
	}

	return finalize(score)
}

// Management scores alignment and capital discipline of leadership.
func Management(in ManagementInputs) float64 {
	score := 5.0

	switch insider := in.InsiderOwnershipPct.Or(0); {
	case insider > 20:
		score += 2
	case insider > 10:
		score++
	case insider < 1:
		score--
	}

	switch tenure := in.CEOTenureYears.Or(0); {
	case tenure >= 5 && tenure <= 20:
		score++
	case tenure > 30:
		score -= 0.5
	case tenure < 2:
		score -= 0.5
	}

	score += buybackAdjustment(in.Shares5YChangePct.Or(0), in.AvgPE.Or(DefaultAvgPE))

	if in.CompensationAligned {
		score++
	}

	switch payout := in.PayoutRatio.Or(DefaultPayoutRatio); {
	case payout >= 30 && payout <= 60:
		score++
	case payout > 90:
		score--
	}

	return finalize(score)
}

// buybackAdjustment rewards large buybacks made at sensible multiples and
// penalizes dilution.
func buybackAdjustment(sharesChange, avgPE float64) float64 {
	switch {
	case sharesChange < -15:
		switch {
		case avgPE < 15:
			return 3
		case avgPE < 20:
			return 2
		}
	case sharesChange > 10:
		return -2
	}
	return 0
}

// ROEROIC scores returns on capital. It is purely additive from zero.
func ROEROIC(in ROEROICInputs) float64 {
	var score float64

	roe := in.ROEAvg.Or(0)
	switch {
	case roe > 25:
		score += 4
	case roe > 20:
		score += 3
	case roe > 15:
		score += 2
	case roe > 10:
		score++
	}

	roic := in.ROICAvg.Or(0)
	switch {
	case roic > 20:
		score += 4
	case roic > 15:
		score += 3
	case roic > 12:
		score += 2
	case roic > 10:
		score++
	}

	if in.ROEStdDev.Or(DefaultROEStdDev) < 3 {
		score++
	}

	// ROE well above ROIC on a levered balance sheet is borrowed return.
	if roe-roic > 10 && in.DebtToEquity.Or(DefaultDebtToEquity) > 1 {
		score--
	}

	return finalize(score)
}

// Predictability scores revenue and earnings stability.
func Predictability(in PredictabilityInputs) float64 {
	score := 5.0

	switch cov := in.RevenueCOV.Or(DefaultRevenueCOV); {
	case cov < 3:
		score += 3
	case cov < 5:
		score += 2
	case cov < 10:
		score++
	case cov > 25:
		score -= 2
	}

	switch cov := in.EarningsCOV.Or(DefaultEarningsCOV); {
	case cov < 5:
		score += 3
	case cov < 10:
		score += 2
	case cov < 20:
		score++
	case cov > 50:
		score -= 2
	}

	if in.MarginStdDev.Or(DefaultMarginStdDev) < 2 {
		score++
	}

	return finalize(score)
}

// CapitalAllocation scores buybacks, dividends, reinvestment and M&A.
func CapitalAllocation(in CapitalAllocationInputs) float64 {
	score := 5.0

	score += buybackAdjustment(in.Shares5YChangePct.Or(0), in.AvgPE.Or(DefaultAvgPE))

	payout := in.PayoutRatio.Or(DefaultPayoutRatio)
	switch {
	case payout >= 30 && payout <= 60 && in.DividendGrowth.Or(0) > 0:
		score += 2
	case payout > 90:
		score -= 2
	}

	roic := in.ROIC.Or(DefaultROIC)
	reinvest := in.ReinvestmentRate.Or(DefaultReinvestmentRate)
	switch {
	case roic > 15 && reinvest > 50:
		score += 2
	case roic < 10 && reinvest > 70:
		score--
	}

	if in.HasMA {
		if in.ROICPostMA.Or(DefaultROIC) >= in.ROICPreMA.Or(DefaultROIC) {
			score += 2
		} else {
			score--
		}
	}

	return finalize(score)
}

// Leverage starts perfect and subtracts for debt load, weak coverage,
// near-term maturities and debt outgrowing free cash flow.
func Leverage(in LeverageInputs) float64 {
	score := 10.0

	switch nd := in.NetDebtEBITDA.Or(DefaultNetDebtEBITDA); {
	case nd < 0:
		score = 10
	case nd < 1:
	case nd < 2:
		score--
	case nd < 3:
		score -= 3
	case nd < 4:
		score -= 5
	default:
		score -= 7
	}

	switch cov := in.InterestCoverage.Or(DefaultInterestCoverage); {
	case cov < 3:
		score -= 3
	case cov < 5:
		score--
	}

	if in.ShortTermDebtPct.Or(DefaultShortTermDebtPct) > 50 {
		score -= 2
	}

	if in.DebtCAGR.Or(0) > in.FCFCAGR.Or(0) {
		score--
	}

	return finalize(score)
}

// Resilience scores behavior through the 2008-09 and 2020 crises plus
// demand durability.
func Resilience(in ResilienceInputs) float64 {
	score := 5.0

	switch rev := in.RevenueChange2008.Or(0); {
	case rev > 0:
		score += 3
	case rev > -10:
		score += 2
	case rev > -20:
		score++
	case rev < -30:
		score -= 2
	}

	switch rev := in.RevenueChange2020.Or(0); {
	case rev > 0:
		score += 2
	case rev > -10:
		score++
	case rev < -30:
		score--
	}

	if in.DividendCuts {
		score -= 2
	} else {
		score += 2
	}

	switch in.DemandType.Or(model.DemandMixed) {
	case model.DemandRecurring:
		score += 2
	case model.DemandDiscretionary:
		score--
	}

	switch in.CustomerDiversification.Or("") {
	case "High":
		score++
	case "Low":
		score--
	}

	return finalize(score)
}
