// Package anthropic provides the completion facade for the Anthropic API.
// It implements the domain.Provider interface. Anthropic has no native JSON
// response mode, so structured requests rely on the caller's instruction
// text; the engine's reconciler handles the output either way.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lorebind/lorebind/internal/domain"
	"github.com/lorebind/lorebind/internal/observability"
)

const (
	providerName        = "anthropic"
	maxTokensStopReason = "max_tokens"
	endTurnStopReason   = "end_turn"
)

// Provider implements the domain.Provider interface for Anthropic.
type Provider struct {
	client *anthropic.Client
	name   string
}

// NewProvider creates a new Anthropic provider.
func NewProvider(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		// The engine owns retries; the SDK must not add its own.
		option.WithMaxRetries(0),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	client := anthropic.NewClient(opts...)

	return &Provider{
		client: &client,
		name:   providerName,
	}, nil
}

// Complete validates and builds the request, executes one messages call and
// normalizes the response.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest, prior string) (*domain.CompletionResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	params, err := p.build(req, prior)
	if err != nil {
		return nil, err
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Anthropic API",
		observability.Bool("continuation", prior != ""))

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		logger.Error("Anthropic API call failed", observability.Error(err))
		return nil, p.mapError(err)
	}

	result, err := p.normalize(msg)
	if err != nil {
		return nil, err
	}

	logger.Debug("Anthropic API call succeeded",
		observability.Int("completion_tokens", result.Usage.CompletionTokens),
		observability.String("stop_reason", string(result.StopReason)))

	return result, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Spec returns the declared limits for a model.
func (p *Provider) Spec(model string) (domain.ModelSpec, bool) {
	spec, ok := modelSpecs[model]
	return spec, ok
}

// SupportedModels lists the models this provider serves.
func (p *Provider) SupportedModels(_ context.Context) []string {
	models := make([]string, 0, len(modelSpecs))
	for model := range modelSpecs {
		models = append(models, model)
	}
	return models
}

// IsModelSupported checks if the provider supports the given model.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	_, ok := modelSpecs[model]
	return ok
}

func (p *Provider) build(req *domain.CompletionRequest, prior string) (anthropic.MessageNewParams, error) {
	if err := validate(req); err != nil {
		return anthropic.MessageNewParams{}, err
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
	}

	if prior != "" {
		messages = append(messages,
			anthropic.NewAssistantMessage(anthropic.NewTextBlock(prior)),
			anthropic.NewUserMessage(anthropic.NewTextBlock(domain.ContinueInstruction)),
		)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  messages,
		System: []anthropic.TextBlockParam{
			{Text: req.Instruction},
		},
	}

	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	return params, nil
}

func (p *Provider) normalize(msg *anthropic.Message) (*domain.CompletionResult, error) {
	if msg == nil {
		return nil, domain.ErrNoContent
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(text.Text)
		}
	}

	text := strings.TrimSpace(content.String())
	if text == "" {
		return nil, domain.ErrNoContent
	}

	input := int(msg.Usage.InputTokens)
	output := int(msg.Usage.OutputTokens)

	return &domain.CompletionResult{
		Text: text,
		Usage: domain.Usage{
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		},
		StopReason: stopReason(string(msg.StopReason)),
	}, nil
}

func (p *Provider) mapError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return &domain.ProviderError{
			Provider:   p.name,
			StatusCode: apierr.StatusCode,
			Message:    apierr.Error(),
			Kind:       kindForStatus(apierr.StatusCode),
			Err:        err,
		}
	}

	return &domain.ProviderError{
		Provider: p.name,
		Message:  err.Error(),
		Kind:     domain.KindTransport,
		Err:      err,
	}
}

func kindForStatus(status int) domain.ErrorKind {
	switch status {
	case 400, 422:
		return domain.KindMalformedRequest
	case 401:
		return domain.KindAuth
	case 403:
		return domain.KindPermissionDenied
	case 404:
		return domain.KindNotFound
	case 429:
		return domain.KindRateLimited
	default:
		return domain.KindTransport
	}
}

func stopReason(reason string) domain.StopReason {
	switch reason {
	case endTurnStopReason:
		return domain.StopComplete
	case maxTokensStopReason:
		return domain.StopLength
	default:
		return domain.StopOther
	}
}

func validate(req *domain.CompletionRequest) error {
	spec, ok := modelSpecs[req.Model]
	if !ok {
		return &domain.ValidationError{
			Field:  "model",
			Reason: fmt.Sprintf("%s is not served by the %s provider", req.Model, providerName),
		}
	}

	if req.Temperature < spec.TemperatureMin || req.Temperature > spec.TemperatureMax {
		return &domain.ValidationError{
			Field: "temperature",
			Reason: fmt.Sprintf("%g is outside [%g, %g]",
				req.Temperature, spec.TemperatureMin, spec.TemperatureMax),
		}
	}

	if req.MaxTokens <= 0 || req.MaxTokens > spec.MaxOutputTokens {
		return &domain.ValidationError{
			Field:  "max_tokens",
			Reason: fmt.Sprintf("%d is outside (0, %d]", req.MaxTokens, spec.MaxOutputTokens),
		}
	}

	return nil
}
