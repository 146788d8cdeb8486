package resilience

import "context"

// Guard wraps source calls in a per-source circuit breaker and a retry
// policy. The breaker sits outside the retries, so one exhausted retry
// sequence counts as a single failure.
type Guard struct {
	breakers *ServiceBreakers
	retry    RetryConfig
}

// NewGuard creates a Guard.
func NewGuard(retry RetryConfig, circuit CircuitBreakerConfig) *Guard {
	return &Guard{breakers: NewServiceBreakers(circuit), retry: retry}
}

// Breakers exposes the breaker registry, for health reporting.
func (g *Guard) Breakers() *ServiceBreakers {
	return g.breakers
}

// Call runs fn for the named source and operation. A nil Guard calls fn
// directly.
func Call[T any](ctx context.Context, g *Guard, source, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	if g == nil {
		return fn(ctx)
	}
	retry := g.retry
	if retry.OnRetry == nil {
		retry.OnRetry = RetryLogger(source, op)
	}
	return ExecuteVal(ctx, g.breakers.Get(source), func(ctx context.Context) (T, error) {
		return DoVal(ctx, retry, fn)
	})
}
