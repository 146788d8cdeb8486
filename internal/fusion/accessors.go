package fusion

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/model"
)

// Historical returns source tags.
const (
	ReturnsSourceFMP           = "FMP"
	ReturnsSourceYahooFallback = "Yahoo Fallback"
)

// BasicInfo is the identity summary used for ticker listings.
type BasicInfo struct {
	Ticker   string `json:"ticker"`
	Company  string `json:"company"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
	Exchange string `json:"exchange"`
	CIK      string `json:"cik"`
	ISIN     string `json:"isin"`
}

// GetBasicInfo runs only the identity phase, including the CIK fallback.
func (s *Sequencer) GetBasicInfo(ctx context.Context, ticker string) BasicInfo {
	st := NewState(ticker)
	st = s.identityPhase(ctx, zap.L().With(zap.String("ticker", st.Ticker)), st)
	id := st.Identity
	return BasicInfo{
		Ticker:   st.Ticker,
		Company:  id.Name,
		Sector:   id.Sector,
		Industry: id.Industry,
		Country:  id.Country,
		Currency: id.Currency,
		Exchange: id.Exchange,
		CIK:      id.CIK,
		ISIN:     id.ISIN,
	}
}

// HistoricalReturns are the return-on-capital averages with their origin.
type HistoricalReturns struct {
	ROE5YAvg   model.Opt[float64] `json:"roe_5y_avg"`
	ROE10YAvg  model.Opt[float64] `json:"roe_10y_avg"`
	ROIC5YAvg  model.Opt[float64] `json:"roic_5y_avg"`
	ROIC10YAvg model.Opt[float64] `json:"roic_10y_avg"`
	Source     string             `json:"source"`
}

// GetHistoricalReturns reads ROE/ROIC averages from rec, taking the
// gap-fill value for a five-year average fundamentals did not supply. The
// source is FMP only when fundamentals reported the five-year ROE.
func GetHistoricalReturns(rec model.FinalRecord) HistoricalReturns {
	m := rec.Fundamentals.Metrics
	gap := func(key string) model.Opt[float64] {
		fv, _ := rec.Gap(key)
		return fv.Value
	}

	out := HistoricalReturns{
		ROE5YAvg:   model.FirstNonzero(m.ROE.Avg5Y, gap(model.MetricROE5YAvg)),
		ROE10YAvg:  m.ROE.Avg10Y,
		ROIC5YAvg:  model.FirstNonzero(m.ROIC.Avg5Y, gap(model.MetricROIC5YAvg)),
		ROIC10YAvg: m.ROIC.Avg10Y,
		Source:     ReturnsSourceYahooFallback,
	}
	if model.Nonzero(m.ROE.Avg5Y) {
		out.Source = ReturnsSourceFMP
	}
	return out
}

// QualitativeAnalysis is the qualitative output with the context it was
// derived from.
type QualitativeAnalysis struct {
	model.Qualitative
	MarginTrend      model.MarginTrend      `json:"margin_trend"`
	FinancialMetrics model.FinancialMetrics `json:"financial_metrics"`
	Ran              bool                   `json:"ran"`
}

// GetQualitativeAnalysis reads the qualitative phase from rec.
func GetQualitativeAnalysis(rec model.FinalRecord) QualitativeAnalysis {
	pr, _ := rec.Phase(model.PhaseQualitative)
	return QualitativeAnalysis{
		Qualitative:      rec.Qualitative,
		MarginTrend:      rec.Context.MarginTrend,
		FinancialMetrics: rec.Context.FinancialMetrics,
		Ran:              pr.Succeeded(),
	}
}
