package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/config"
	"github.com/sells-group/quality-cli/internal/fusion"
	"github.com/sells-group/quality-cli/internal/qualitative"
	"github.com/sells-group/quality-cli/internal/resilience"
	"github.com/sells-group/quality-cli/internal/source"
	"github.com/sells-group/quality-cli/internal/store"
	anthropicpkg "github.com/sells-group/quality-cli/pkg/anthropic"
	"github.com/sells-group/quality-cli/pkg/edgar"
	"github.com/sells-group/quality-cli/pkg/fmp"
	"github.com/sells-group/quality-cli/pkg/fred"
	"github.com/sells-group/quality-cli/pkg/yahoo"
)

// appEnv holds the wired sources and persistence for one command.
type appEnv struct {
	Store     store.Store
	Cache     store.Cache
	Sequencer *fusion.Sequencer
	closers   []func() error
}

// Close releases the store and cache connections.
func (e *appEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			zap.L().Warn("close failed", zap.Error(err))
		}
	}
}

// initStore opens the run history backend.
func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, store.Config{
		Driver:      cfg.Store.Driver,
		DatabaseURL: cfg.Store.DatabaseURL,
		SQLitePath:  cfg.Store.SQLitePath,
	})
}

// initCache returns the response cache: Redis when configured, otherwise
// the store itself.
func initCache(ctx context.Context, st store.Store) (store.Cache, func() error, error) {
	if cfg.Store.Cache != "redis" {
		return st, nil, nil
	}
	rc, err := store.NewRedisCache(ctx, store.RedisOptions{
		Address:  cfg.Store.Redis.Address,
		Password: cfg.Store.Redis.Password,
		DB:       cfg.Store.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	return rc, rc.Close, nil
}

// initEnv opens persistence and wires every configured source.
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &appEnv{Store: st, closers: []func() error{st.Close}}

	cache, closeCache, err := initCache(ctx, st)
	if err != nil {
		env.Close()
		return nil, err
	}
	if closeCache != nil {
		env.closers = append(env.closers, closeCache)
	}
	env.Cache = cache

	guard := resilience.NewGuard(
		resilience.FromRetryConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs, 0, 0),
		resilience.FromCircuitConfig(cfg.Circuit.FailureThreshold, cfg.Circuit.ResetTimeoutSecs),
	)
	env.Sequencer = fusion.NewSequencer(buildSources(cfg, cache, guard),
		fusion.WithPhaseTimeout(time.Duration(cfg.Fusion.PhaseTimeoutSecs)*time.Second),
	)
	return env, nil
}

// buildSources wires the adapters. A source without its key is left nil so
// its phase is skipped as unavailable.
func buildSources(c *config.Config, cache source.Cache, guard *resilience.Guard) fusion.Sources {
	opts := []source.Option{
		source.WithCache(cache, time.Duration(c.Store.CacheTTLHours)*time.Hour),
		source.WithGuard(guard),
	}

	var yahooOpts []yahoo.Option
	if c.Yahoo.BaseURL != "" {
		yahooOpts = append(yahooOpts, yahoo.WithBaseURL(c.Yahoo.BaseURL))
	}

	edgarOpts := []edgar.Option{edgar.WithRateLimit(c.EDGAR.RatePerSec)}
	if c.EDGAR.BaseURL != "" {
		edgarOpts = append(edgarOpts, edgar.WithBaseURL(c.EDGAR.BaseURL))
	}
	if c.EDGAR.WWWBaseURL != "" {
		edgarOpts = append(edgarOpts, edgar.WithWWWBaseURL(c.EDGAR.WWWBaseURL))
	}
	filings := source.NewEDGAR(edgar.NewClient(c.EDGAR.UserAgent, edgarOpts...), c.EDGAR.WWWBaseURL, opts...)

	src := fusion.Sources{
		Identity: source.NewYahoo(yahoo.NewClient(yahooOpts...), opts...),
		CIK:      filings,
		Filings:  filings,
	}

	if c.FMP.Key != "" {
		var fmpOpts []fmp.Option
		if c.FMP.BaseURL != "" {
			fmpOpts = append(fmpOpts, fmp.WithBaseURL(c.FMP.BaseURL))
		}
		src.Fundamentals = source.NewFMP(fmp.NewClient(c.FMP.Key, fmpOpts...), opts...)
	}

	if c.FRED.Key != "" {
		var fredOpts []fred.Option
		if c.FRED.BaseURL != "" {
			fredOpts = append(fredOpts, fred.WithBaseURL(c.FRED.BaseURL))
		}
		src.Macro = source.NewFRED(fred.NewClient(c.FRED.Key, fredOpts...), opts...)
	}

	if c.Anthropic.Enabled && c.Anthropic.Key != "" {
		src.Qualitative = qualitative.New(anthropicpkg.NewClient(c.Anthropic.Key),
			qualitative.WithModel(c.Anthropic.Model),
			qualitative.WithMaxTokens(c.Anthropic.MaxTokens),
			qualitative.WithGuard(guard),
		)
	}
	return src
}
