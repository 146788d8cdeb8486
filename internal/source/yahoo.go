package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/pkg/yahoo"
)

// Yahoo implements fusion.IdentityProvider over the quoteSummary API.
type Yahoo struct {
	base
	client yahoo.Client
}

// NewYahoo creates the identity adapter.
func NewYahoo(client yahoo.Client, opts ...Option) *Yahoo {
	return &Yahoo{base: newBase(NameYahoo, opts), client: client}
}

// GetInfo fetches identity and the trailing snapshot for ticker.
func (y *Yahoo) GetInfo(ctx context.Context, ticker string) (model.Identity, error) {
	return cached(ctx, &y.base, "info:"+ticker, func(ctx context.Context) (model.Identity, error) {
		qs, err := call(ctx, &y.base, "quote_summary", func(ctx context.Context) (*yahoo.QuoteSummary, error) {
			return y.client.QuoteSummary(ctx, yahooSymbol(ticker))
		})
		if err != nil {
			return model.Identity{}, eris.Wrapf(err, "yahoo: quote summary %s", ticker)
		}
		return identityFromQuote(ticker, qs), nil
	})
}

// yahooSymbol converts share-class tickers: BRK.B is BRK-B on Yahoo.
func yahooSymbol(ticker string) string {
	return strings.ReplaceAll(ticker, ".", "-")
}

func num(n yahoo.Num) model.Opt[float64] {
	if v, ok := n.Float(); ok {
		return model.Some(v)
	}
	return model.None[float64]()
}

func firstNum(ns ...yahoo.Num) model.Opt[float64] {
	for _, n := range ns {
		if o := num(n); o.Valid {
			return o
		}
	}
	return model.None[float64]()
}

func firstString(ss ...string) string {
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func identityFromQuote(ticker string, qs *yahoo.QuoteSummary) model.Identity {
	fd, ks, sd := qs.FinancialData, qs.DefaultKeyStatistics, qs.SummaryDetail

	snap := model.Snapshot{
		ReturnOnEquity:      num(fd.ReturnOnEquity),
		GrossMargins:        num(fd.GrossMargins),
		OperatingMargins:    num(fd.OperatingMargins),
		TrailingPE:          num(sd.TrailingPE),
		PriceToBook:         num(ks.PriceToBook),
		RevenueGrowth:       num(fd.RevenueGrowth),
		EarningsGrowth:      num(fd.EarningsGrowth),
		Beta:                firstNum(ks.Beta, sd.Beta),
		HeldPercentInsiders: num(ks.HeldPercentInsiders),
		DividendRate:        num(sd.DividendRate),
		TrailingEPS:         num(ks.TrailingEPS),
		TotalDebt:           num(fd.TotalDebt),
		TotalCash:           num(fd.TotalCash),
		EBITDA:              num(fd.EBITDA),
		DebtToEquity:        num(fd.DebtToEquity),
		EnterpriseToEBITDA:  num(ks.EnterpriseToEBITDA),
		CurrentPrice:        num(fd.CurrentPrice),
		MarketCap:           firstNum(qs.Price.MarketCap, sd.MarketCap),
	}
	if year, ok := qs.QuoteType.FirstTradeYear(); ok {
		snap.FirstTradeYear = model.Some(year)
	}

	return model.Identity{
		Ticker:      ticker,
		Name:        firstString(qs.Price.LongName, qs.Price.ShortName),
		Sector:      qs.AssetProfile.Sector,
		Industry:    qs.AssetProfile.Industry,
		Country:     qs.AssetProfile.Country,
		Currency:    firstString(qs.Price.Currency, sd.Currency),
		Exchange:    qs.Price.ExchangeName,
		Description: strings.TrimSpace(qs.AssetProfile.LongBusinessSummary),
		Snapshot:    snap,
	}
}
