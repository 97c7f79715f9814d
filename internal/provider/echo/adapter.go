// Package echo provides a testing provider that echoes back input text.
// It implements the domain.Provider interface without making external API
// calls, providing deterministic responses for development and handler
// tests. A small max_tokens value makes it simulate length truncation, so
// the continuation path can be exercised offline.
package echo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lorebind/lorebind/internal/domain"
	"github.com/lorebind/lorebind/internal/observability"
)

const (
	providerName = "echo"
	modelName    = "echo4"
)

var echoSpec = domain.ModelSpec{
	ContextWindow:   8_192,
	MaxOutputTokens: 4_096,
	TemperatureMin:  0,
	TemperatureMax:  2,
	RateCapacity:    250_000,
}

// Provider implements the domain.Provider interface for echo testing.
type Provider struct {
	name string
}

// NewProvider creates a new echo provider.
// No configuration is required as this provider operates entirely in-memory.
func NewProvider() *Provider {
	return &Provider{name: providerName}
}

// Complete echoes the prompt back, word by word up to max_tokens. When the
// prompt holds more words than max_tokens the response is truncated with a
// length stop reason, and a continuation call picks up after the words
// already present in prior.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest, prior string) (*domain.CompletionResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if req.Model != modelName {
		return nil, fmt.Errorf("model %s is not supported by echo provider", req.Model)
	}

	if req.MaxTokens <= 0 || req.MaxTokens > echoSpec.MaxOutputTokens {
		return nil, &domain.ValidationError{
			Field:  "max_tokens",
			Reason: fmt.Sprintf("%d is outside (0, %d]", req.MaxTokens, echoSpec.MaxOutputTokens),
		}
	}

	logger := observability.FromContext(ctx)
	logger.Debug("echoing request", observability.Bool("continuation", prior != ""))

	words := strings.Fields(req.Prompt)
	done := len(strings.Fields(prior))
	if done > len(words) {
		done = len(words)
	}

	remaining := words[done:]
	stop := domain.StopComplete
	if len(remaining) > req.MaxTokens {
		remaining = remaining[:req.MaxTokens]
		stop = domain.StopLength
	}

	content := strings.Join(remaining, " ")
	if content == "" {
		return nil, domain.ErrNoContent
	}

	promptTokens := len(words)
	completionTokens := len(remaining)

	return &domain.CompletionResult{
		Text: content,
		Usage: domain.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		StopReason: stop,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Spec returns the declared limits for a model.
func (p *Provider) Spec(model string) (domain.ModelSpec, bool) {
	if model != modelName {
		return domain.ModelSpec{}, false
	}
	return echoSpec, true
}

// SupportedModels lists the models this provider serves.
func (p *Provider) SupportedModels(_ context.Context) []string {
	return []string{modelName}
}

// IsModelSupported checks if the provider supports the given model.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	return model == modelName
}
