package model

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedModel waits on a token bucket before delegating each call.
type RateLimitedModel struct {
	next    Model
	limiter *rate.Limiter
}

// RateLimited wraps m so that calls are admitted at most at the limiter's rate.
func RateLimited(m Model, limiter *rate.Limiter) *RateLimitedModel {
	return &RateLimitedModel{next: m, limiter: limiter}
}

// PerSecond builds a limiter admitting rps calls per second with a burst of one.
// A non-positive rps yields an unlimited limiter.
func PerSecond(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Generate implements Model.
func (m *RateLimitedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	if err := m.limiter.Wait(ctx); err != nil {
		respCh := make(chan Response)
		errCh := make(chan error, 1)
		errCh <- fmt.Errorf("rate limit wait: %w", err)
		close(respCh)
		close(errCh)
		return respCh, errCh
	}
	return m.next.Generate(ctx, req)
}

// Info implements Model.
func (m *RateLimitedModel) Info() Info { return m.next.Info() }
