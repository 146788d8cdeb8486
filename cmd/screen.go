package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/internal/report"
	"github.com/sells-group/quality-cli/internal/scorer"
	"github.com/sells-group/quality-cli/internal/store"
)

// runner compiles one ticker's record.
type runner interface {
	RunAll(ctx context.Context, ticker string) model.FinalRecord
}

// runSaver persists a scored run.
type runSaver interface {
	SaveRun(ctx context.Context, rec model.FinalRecord, card model.ScoreCard) (*store.Run, error)
}

// screenOptions controls a batch screening.
type screenOptions struct {
	Concurrency int
	// Score computes a ScoreCard per record.
	Score bool
	// Runs persists each scored run when non-nil.
	Runs runSaver
	// PriceValues are manual PriceValue scores carried into the cards.
	PriceValues map[string]float64
}

// screenResult is one ticker's output, in input order.
type screenResult struct {
	Record model.FinalRecord
	Card   model.ScoreCard
	RunID  string
}

// screen runs the tickers concurrently, bounded by opts.Concurrency. The
// orchestrator never fails, so only cancellation aborts the batch; a failed
// save is logged and counted.
func screen(ctx context.Context, r runner, tickers []string, opts screenOptions) ([]screenResult, error) {
	if len(tickers) == 0 {
		return nil, eris.New("screen: no tickers")
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	zap.L().Info("screen: starting batch",
		zap.Int("tickers", len(tickers)),
		zap.Int("concurrency", opts.Concurrency),
	)

	results := make([]screenResult, len(tickers))
	var saveFailed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, ticker := range tickers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := r.RunAll(gctx, ticker)
			res := screenResult{Record: rec}
			if opts.Score {
				res.Card = scorer.Score(rec)
				if v, ok := opts.PriceValues[rec.Ticker]; ok {
					res.Card.PriceValue = model.Some(v)
				}
				if opts.Runs != nil {
					run, err := opts.Runs.SaveRun(gctx, rec, res.Card)
					if err != nil {
						saveFailed.Add(1)
						zap.L().Warn("screen: save run failed", zap.String("ticker", ticker), zap.Error(err))
					} else {
						res.RunID = run.ID
					}
				}
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "screen: cancelled")
	}

	zap.L().Info("screen: batch complete",
		zap.Int("tickers", len(tickers)),
		zap.Int64("save_failures", saveFailed.Load()),
	)
	return results, nil
}

// reportEntries converts screen results for the workbook writer.
func reportEntries(results []screenResult) []report.Entry {
	out := make([]report.Entry, 0, len(results))
	for _, r := range results {
		out = append(out, report.Entry{Record: r.Record, Card: r.Card})
	}
	return out
}

// resolveTickers merges positional arguments with a ticker file (.xlsx or
// plain text, one per line or comma separated). With neither, the
// configured watch list is used.
func resolveTickers(args []string, file string, fallback []string) ([]string, error) {
	raw := append([]string(nil), args...)

	if file != "" {
		if strings.EqualFold(filepath.Ext(file), ".xlsx") {
			tickers, err := report.ReadTickers(file)
			if err != nil {
				return nil, err
			}
			raw = append(raw, tickers...)
		} else {
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, eris.Wrapf(err, "read ticker file %s", file)
			}
			raw = append(raw, string(data))
		}
	}

	if len(raw) == 0 {
		raw = fallback
	}
	tickers := model.ParseTickers(raw...)
	if len(tickers) == 0 {
		return nil, eris.New("no tickers given: pass tickers, --file, or set watch.tickers")
	}
	return tickers, nil
}
