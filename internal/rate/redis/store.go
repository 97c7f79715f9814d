// Package redis persists rate budgets in Redis so a model's window survives
// process restarts and can be shared by several workers.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lorebind/lorebind/internal/domain"
)

const (
	keyPrefix = "rate_budget:"

	// Optimistic-lock retries before Update gives up.
	maxTxRetries = 10

	fieldWindowStart = "window_start"
	fieldTokensUsed  = "tokens_used"
)

// Store implements domain.BudgetStore on a Redis hash per model key.
// window_start is stored as float seconds since epoch, tokens_used as an
// integer.
type Store struct {
	client *redis.Client
}

// NewStore creates a Redis-backed budget store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Read returns the budget for a model key; a missing key reads as the
// zero-value budget.
func (s *Store) Read(ctx context.Context, model string) (domain.RateBudget, error) {
	fields, err := s.client.HGetAll(ctx, keyPrefix+model).Result()
	if err != nil {
		return domain.RateBudget{}, fmt.Errorf("failed to read rate budget: %w", err)
	}
	return budgetFromFields(fields)
}

// Update applies fn under WATCH so concurrent writers cannot interleave
// between the read and the write.
func (s *Store) Update(ctx context.Context, model string, fn func(domain.RateBudget) domain.RateBudget) (domain.RateBudget, error) {
	key := keyPrefix + model

	var updated domain.RateBudget
	txn := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}

		budget, err := budgetFromFields(fields)
		if err != nil {
			return err
		}

		updated = fn(budget)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldWindowStart, formatEpochSeconds(updated.WindowStart),
				fieldTokensUsed, updated.TokensUsed)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return domain.RateBudget{}, fmt.Errorf("failed to update rate budget: %w", err)
	}

	return domain.RateBudget{}, errors.New("rate budget update contended beyond retry limit")
}

func budgetFromFields(fields map[string]string) (domain.RateBudget, error) {
	if len(fields) == 0 {
		return domain.RateBudget{}, nil
	}

	var budget domain.RateBudget

	if raw, ok := fields[fieldWindowStart]; ok && raw != "" {
		seconds, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.RateBudget{}, fmt.Errorf("malformed window_start %q: %w", raw, err)
		}
		if seconds > 0 {
			budget.WindowStart = time.Unix(0, int64(seconds*float64(time.Second)))
		}
	}

	if raw, ok := fields[fieldTokensUsed]; ok && raw != "" {
		used, err := strconv.Atoi(raw)
		if err != nil {
			return domain.RateBudget{}, fmt.Errorf("malformed tokens_used %q: %w", raw, err)
		}
		budget.TokensUsed = used
	}

	return budget, nil
}

func formatEpochSeconds(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatFloat(float64(t.UnixNano())/float64(time.Second), 'f', 6, 64)
}
