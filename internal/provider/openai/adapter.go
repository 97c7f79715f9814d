// Package openai provides the completion facade for the OpenAI API using
// the official SDK. It implements the domain.Provider interface: it builds
// SDK payloads from domain requests, executes the transport call, and
// normalizes heterogeneous responses and failures into the engine's common
// shapes.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/lorebind/lorebind/internal/domain"
	"github.com/lorebind/lorebind/internal/observability"
)

const providerName = "openai"

// Provider implements the domain.Provider interface for OpenAI.
type Provider struct {
	client openai.Client
	name   string
}

// NewProvider creates a new OpenAI provider.
func NewProvider(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	// The engine owns the retry state machine; the SDK must not retry
	// underneath it or the attempt budget loses its meaning.
	opts = append(opts, option.WithMaxRetries(0))

	return &Provider{
		client: openai.NewClient(opts...),
		name:   providerName,
	}, nil
}

// Complete validates and builds the request, executes one chat-completion
// call and normalizes the response. prior carries the partial output of a
// truncated earlier call in the same chain.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest, prior string) (*domain.CompletionResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	params, err := p.build(req, prior)
	if err != nil {
		return nil, err
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI API",
		observability.Bool("continuation", prior != ""),
		observability.Bool("structured", req.Structured))

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("OpenAI API call failed", observability.Error(err))
		return nil, p.mapError(err)
	}

	result, err := p.normalize(resp)
	if err != nil {
		return nil, err
	}

	logger.Debug("OpenAI API call succeeded",
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

// build converts a domain request into SDK parameters, failing with a
// ValidationError on out-of-range values before any network call.
func (p *Provider) build(req *domain.CompletionRequest, prior string) (openai.ChatCompletionNewParams, error) {
	if err := validate(req); err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(req.Instruction),
		openai.UserMessage(req.Prompt),
	}

	if prior != "" {
		messages = append(messages,
			openai.AssistantMessage(prior),
			openai.UserMessage(domain.ContinueInstruction),
		)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}

	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	if req.Structured {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	return params, nil
}

// normalize converts an SDK response into the common result shape, failing
// with domain.ErrNoContent when the provider returned no usable text.
func (p *Provider) normalize(resp *openai.ChatCompletion) (*domain.CompletionResult, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, domain.ErrNoContent
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, domain.ErrNoContent
	}

	return &domain.CompletionResult{
		Text: content,
		Usage: domain.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		StopReason: stopReason(resp.Choices[0].FinishReason),
	}, nil
}

// mapError normalizes SDK and transport failures into domain.ProviderError
// so the classifier operates on one type.
func (p *Provider) mapError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &domain.ProviderError{
			Provider:   p.name,
			StatusCode: apierr.StatusCode,
			Message:    apierr.Message,
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

func stopReason(finishReason string) domain.StopReason {
	switch finishReason {
	case "stop":
		return domain.StopComplete
	case "length":
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
