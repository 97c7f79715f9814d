// Package engine drives one logical completion chain: the original call plus
// any continuation calls needed to recover a length-truncated response,
// guarded by the rate limiter and the bounded retry policy.
package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/lorebind/lorebind/internal/domain"
	"github.com/lorebind/lorebind/internal/jsonsplice"
	"github.com/lorebind/lorebind/internal/observability"
)

// tokenConversionFactor converts character counts to an input-token
// estimate. Deliberately pessimistic so reservations err on the high side.
const tokenConversionFactor = 0.7

// DefaultContinuationMaxTokens caps each continuation call. Continuations
// only need to finish a thought, not restate one, so the cap is small.
const DefaultContinuationMaxTokens = 500

// RateLimiter reserves estimated token cost before a call and commits
// actual usage after it.
type RateLimiter interface {
	Reserve(ctx context.Context, model string, capacity, inputTokens, maxOutput int) error
	Commit(ctx context.Context, model string, tokens int) error
}

// RetryPolicy advances the shared attempt budget after a failed call. A nil
// error from Handle means the caller should re-issue the call.
type RetryPolicy interface {
	Handle(ctx context.Context, err error, attempt int) (int, error)
}

// Engine orchestrates completion chains against registered providers.
type Engine struct {
	registry              domain.ProviderRegistry
	limiter               RateLimiter
	retrier               RetryPolicy
	continuationMaxTokens int
}

// New creates an engine. continuationMaxTokens <= 0 selects the default.
func New(registry domain.ProviderRegistry, limiter RateLimiter, retrier RetryPolicy, continuationMaxTokens int) *Engine {
	if continuationMaxTokens <= 0 {
		continuationMaxTokens = DefaultContinuationMaxTokens
	}

	return &Engine{
		registry:              registry,
		limiter:               limiter,
		retrier:               retrier,
		continuationMaxTokens: continuationMaxTokens,
	}
}

// Complete obtains one merged completion for req, issuing as many calls as
// truncation and transient failures require. The attempt budget is shared
// across the whole chain: a retry spent on the original call is not
// available to a continuation. Returns a *domain.FatalError when the chain
// cannot be completed.
func (e *Engine) Complete(ctx context.Context, req *domain.CompletionRequest) (string, error) {
	if req == nil {
		return "", &domain.ValidationError{Field: "request", Reason: "must not be nil"}
	}

	provider, err := e.registry.GetByModel(ctx, req.Model)
	if err != nil {
		return "", err
	}

	spec, ok := provider.Spec(req.Model)
	if !ok {
		return "", &domain.ValidationError{Field: "model", Reason: "provider has no declared limits for " + req.Model}
	}

	ctx = observability.WithProvider(ctx, provider.Name())
	ctx = observability.WithModel(ctx, req.Model)
	logger := observability.FromContext(ctx)

	current := *req
	attempt := 0
	answer := ""
	prior := ""

	for {
		estimated := estimateInputTokens(current.Instruction, current.Prompt, prior)
		if estimated+current.MaxTokens > spec.RateCapacity {
			// No window, however empty, could ever absorb this call.
			return "", &domain.ValidationError{
				Field:  "prompt",
				Reason: "estimated cost exceeds the model's rate capacity",
			}
		}

		if err := e.limiter.Reserve(ctx, current.Model, spec.RateCapacity, estimated, current.MaxTokens); err != nil {
			return "", err
		}

		result, err := provider.Complete(ctx, &current, prior)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				// Raised before any network call; no retry can change it.
				return "", err
			}

			if attempt, err = e.retrier.Handle(ctx, err, attempt); err != nil {
				return "", err
			}
			continue
		}

		if err := e.limiter.Commit(ctx, current.Model, result.Usage.TotalTokens); err != nil {
			return "", err
		}

		answer = e.combine(ctx, req.Structured, prior, result.Text)
		if result.StopReason != domain.StopLength {
			return answer, nil
		}

		logger.Warn("max tokens exceeded, issuing continuation",
			observability.Int("completion_tokens", result.Usage.CompletionTokens),
			observability.Int("max_tokens", current.MaxTokens))

		if req.Structured {
			// A dangling partial key or value must never be fed back as
			// continuation context.
			prior = jsonsplice.TrimToLastObject(answer)
		} else {
			prior = answer
		}

		current.MaxTokens = e.continuationMaxTokens
		if current.MaxTokens > spec.MaxOutputTokens {
			current.MaxTokens = spec.MaxOutputTokens
		}
	}
}

// combine folds the newest partial text into the chain's answer so far.
func (e *Engine) combine(ctx context.Context, structured bool, prior, text string) string {
	if prior == "" {
		return text
	}

	if !structured {
		return prior + text
	}

	// Models almost always re-open the root object on a continuation; drop
	// that brace before splicing.
	part := strings.TrimPrefix(strings.TrimSpace(text), "{")

	merged, err := jsonsplice.Reconcile(ctx, prior, part)
	if err != nil {
		observability.FromContext(ctx).Warn("keeping best-effort reconciliation",
			observability.Error(err))
	}

	return merged
}

func estimateInputTokens(parts ...string) int {
	chars := 0
	for _, p := range parts {
		chars += len(p)
	}

	return int(float64(chars) / tokenConversionFactor)
}
