// Package rate enforces per-model token budgets over a fixed time window.
// The budget record itself is persisted through a domain.BudgetStore so it
// survives process restarts and can be shared by future worker pools.
package rate

import (
	"context"
	"time"

	"github.com/lorebind/lorebind/internal/domain"
	"github.com/lorebind/lorebind/internal/observability"
)

// Limiter blocks callers until a model's budget can absorb the estimated
// cost of one call, then lets the caller commit actual usage afterwards.
type Limiter struct {
	store  domain.BudgetStore
	window time.Duration
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter over the given store and window. A nil clock
// means time.Now.
func NewLimiter(store domain.BudgetStore, window time.Duration, clk func() time.Time) *Limiter {
	if clk == nil {
		clk = time.Now
	}
	return &Limiter{
		store:  store,
		window: window,
		now:    clk,
		sleep:  sleepContext,
	}
}

// Reserve blocks until the model's budget can absorb inputTokens plus
// maxOutput, resetting the window when it has elapsed. The caller performs
// the transport call after Reserve returns and reports actual usage through
// Commit.
func (l *Limiter) Reserve(ctx context.Context, model string, capacity, inputTokens, maxOutput int) error {
	budget, err := l.rollWindow(ctx, model)
	if err != nil {
		return err
	}

	if budget.TokensUsed+inputTokens+maxOutput <= capacity {
		return nil
	}

	wait := l.window - l.now().Sub(budget.WindowStart)
	if wait < 0 {
		wait = 0
	}

	logger := observability.FromContext(ctx)
	logger.Warn("rate budget exhausted, cooling down",
		observability.String("model", model),
		observability.Int("tokens_used", budget.TokensUsed),
		observability.Int("capacity", capacity),
		observability.Duration("wait", wait))

	if err := l.sleep(ctx, wait); err != nil {
		return err
	}

	_, err = l.store.Update(ctx, model, func(domain.RateBudget) domain.RateBudget {
		return domain.RateBudget{WindowStart: l.now()}
	})
	return err
}

// Commit adds the actual token usage of a completed call to the window.
func (l *Limiter) Commit(ctx context.Context, model string, tokens int) error {
	_, err := l.store.Update(ctx, model, func(b domain.RateBudget) domain.RateBudget {
		b.TokensUsed += tokens
		return b
	})
	return err
}

// rollWindow resets the budget when the window has elapsed, or on first use
// of a model key.
func (l *Limiter) rollWindow(ctx context.Context, model string) (domain.RateBudget, error) {
	now := l.now()
	return l.store.Update(ctx, model, func(b domain.RateBudget) domain.RateBudget {
		if b.WindowStart.IsZero() || now.Sub(b.WindowStart) > l.window {
			return domain.RateBudget{WindowStart: now}
		}
		return b
	})
}

// sleepContext sleeps for d but returns early when ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
