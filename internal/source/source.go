// Package source adapts the raw API clients to the fusion adapter
// interfaces. It is the ingestion boundary: provider payloads become model
// types here, with optional response caching and per-source resilience.
package source

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/resilience"
)

// Source names, used for cache keys, breakers and logs.
const (
	NameYahoo     = "yahoo"
	NameEDGAR     = "edgar"
	NameFMP       = "fmp"
	NameFRED      = "fred"
	NameAnthropic = "anthropic"
)

// DefaultCacheTTL is how long cached responses stay fresh.
const DefaultCacheTTL = 24 * time.Hour

// PartialCacheTTL caps the lifetime of a result assembled with some
// sub-requests failed, so a transient outage heals within the hour.
const PartialCacheTTL = time.Hour

// Cache stores serialized adapter output keyed "source:key".
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Option configures an adapter.
type Option func(*base)

// WithCache enables response caching.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(b *base) {
		b.cache = c
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithGuard routes client calls through a retry and circuit-breaker guard.
func WithGuard(g *resilience.Guard) Option {
	return func(b *base) {
		b.guard = g
	}
}

// WithClock overrides the clock used for date-relative calculations.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		b.now = now
	}
}

// base holds what every adapter shares.
type base struct {
	name  string
	cache Cache
	ttl   time.Duration
	guard *resilience.Guard
	now   func() time.Time
}

func newBase(name string, opts []Option) base {
	b := base{name: name, ttl: DefaultCacheTTL, now: time.Now}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// call runs one guarded client call.
func call[T any](ctx context.Context, b *base, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	return resilience.Call(ctx, b.guard, b.name, op, fn)
}

// cached returns the cached value for key or computes and stores it.
// Cache failures are logged and never fail the call.
func cached[T any](ctx context.Context, b *base, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	return cachedPartial(ctx, b, key, func(ctx context.Context) (T, bool, error) {
		v, err := fn(ctx)
		return v, true, err
	})
}

// cachedPartial is cached for producers that may return an incomplete
// value; incomplete values are stored for at most PartialCacheTTL.
func cachedPartial[T any](ctx context.Context, b *base, key string, fn func(ctx context.Context) (T, bool, error)) (T, error) {
	if b.cache == nil {
		v, _, err := fn(ctx)
		return v, err
	}
	fullKey := b.name + ":" + key
	log := zap.L().With(zap.String("source", b.name), zap.String("key", fullKey))

	raw, ok, err := b.cache.Get(ctx, fullKey)
	if err != nil {
		log.Warn("source: cache read failed", zap.Error(err))
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			log.Debug("source: cache hit")
			return v, nil
		}
		log.Warn("source: discarding undecodable cache entry")
	}

	v, complete, err := fn(ctx)
	if err != nil {
		return v, err
	}
	ttl := b.ttl
	if !complete && ttl > PartialCacheTTL {
		ttl = PartialCacheTTL
	}
	if raw, err := json.Marshal(v); err != nil {
		log.Warn("source: cache encode failed", zap.Error(err))
	} else if err := b.cache.Set(ctx, fullKey, raw, ttl); err != nil {
		log.Warn("source: cache write failed", zap.Error(err))
	}
	return v, nil
}
