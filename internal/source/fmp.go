package source

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/pkg/fmp"
)

// History depth per endpoint. Income reaches back far enough to cover the
// 2007 crisis base year.
const (
	fmpYears       = 10
	fmpIncomeYears = 20
)

// FMP implements fusion.FundamentalsProvider.
type FMP struct {
	base
	client fmp.Client
}

// NewFMP creates the fundamentals adapter.
func NewFMP(client fmp.Client, opts ...Option) *FMP {
	return &FMP{base: newBase(NameFMP, opts), client: client}
}

// GetComprehensiveData fetches the annual history for ticker and aggregates
// it. Endpoints are fetched concurrently; a failed endpoint leaves its
// metrics absent and the call fails only when every endpoint fails. A
// partial result is cached for at most PartialCacheTTL.
func (f *FMP) GetComprehensiveData(ctx context.Context, ticker string) (model.Fundamentals, error) {
	return cachedPartial(ctx, &f.base, "fundamentals:"+ticker, func(ctx context.Context) (model.Fundamentals, bool, error) {
		data, failed, err := f.fetch(ctx, ticker)
		if err != nil {
			return model.Fundamentals{}, false, err
		}
		return Aggregate(data), failed == 0, nil
	})
}

// fetch returns the endpoint payloads and how many endpoints failed.
func (f *FMP) fetch(ctx context.Context, ticker string) (FMPData, int, error) {
	var (
		data FMPData
		errs [7]error
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := call(gctx, &f.base, "profile", func(ctx context.Context) (*fmp.Profile, error) {
			return f.client.Profile(ctx, ticker)
		})
		if err != nil {
			errs[0] = eris.Wrap(err, "fmp: profile")
			return nil
		}
		data.Profile = p
		return nil
	})
	g.Go(func() error {
		data.KeyMetrics, errs[1] = fetchList(gctx, f, "key-metrics", ticker, fmpYears, f.client.KeyMetrics)
		return nil
	})
	g.Go(func() error {
		data.Ratios, errs[2] = fetchList(gctx, f, "ratios", ticker, fmpYears, f.client.Ratios)
		return nil
	})
	g.Go(func() error {
		data.Income, errs[3] = fetchList(gctx, f, "income-statement", ticker, fmpIncomeYears, f.client.IncomeStatements)
		return nil
	})
	g.Go(func() error {
		data.Balance, errs[4] = fetchList(gctx, f, "balance-sheet-statement", ticker, fmpYears, f.client.BalanceSheets)
		return nil
	})
	g.Go(func() error {
		data.CashFlow, errs[5] = fetchList(gctx, f, "cash-flow-statement", ticker, fmpYears, f.client.CashFlows)
		return nil
	})
	g.Go(func() error {
		data.EV, errs[6] = fetchList(gctx, f, "enterprise-values", ticker, fmpYears, f.client.EnterpriseValues)
		return nil
	})
	_ = g.Wait()

	failed := 0
	var last error
	for _, err := range errs {
		if err != nil {
			failed++
			last = err
		}
	}
	if failed == len(errs) {
		return FMPData{}, failed, eris.Wrapf(last, "fmp: all endpoints failed for %s", ticker)
	}
	if failed > 0 {
		zap.L().Warn("fmp: partial fundamentals",
			zap.String("ticker", ticker),
			zap.Int("failed_endpoints", failed),
			zap.Error(last),
		)
	}
	return data, failed, nil
}

func fetchList[T any](ctx context.Context, f *FMP, op, ticker string, limit int, fn func(context.Context, string, int) ([]T, error)) ([]T, error) {
	rows, err := call(ctx, &f.base, op, func(ctx context.Context) ([]T, error) {
		return fn(ctx, ticker, limit)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "fmp: %s", op)
	}
	return rows, nil
}
