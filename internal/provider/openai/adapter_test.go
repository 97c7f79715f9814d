package openai

import (
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/require"

	"github.com/lorebind/lorebind/internal/domain"
)

func validRequest() *domain.CompletionRequest {
	return &domain.CompletionRequest{
		Model:       "gpt-4-1106-preview",
		Prompt:      "Chapter 1: It was a dark and stormy night.",
		Instruction: "Extract every named character as JSON.",
		Temperature: 0.4,
		MaxTokens:   2000,
		Structured:  true,
	}
}

func TestNewProvider(t *testing.T) {
	t.Run("should require an API key", func(t *testing.T) {
		_, err := NewProvider(Config{})
		require.Error(t, err)
	})

	t.Run("should create provider with key", func(t *testing.T) {
		p, err := NewProvider(Config{APIKey: "sk-test"})
		require.NoError(t, err)
		require.Equal(t, "openai", p.Name())
	})
}

func TestBuild(t *testing.T) {
	p := &Provider{name: providerName}

	t.Run("should reject an unknown model", func(t *testing.T) {
		req := validRequest()
		req.Model = "gpt-imaginary"

		_, err := p.build(req, "")
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "model", verr.Field)
	})

	t.Run("should reject out-of-range temperature", func(t *testing.T) {
		req := validRequest()
		req.Temperature = 2.5

		_, err := p.build(req, "")
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "temperature", verr.Field)
	})

	t.Run("should reject max tokens beyond the model limit", func(t *testing.T) {
		req := validRequest()
		req.MaxTokens = 100_000

		_, err := p.build(req, "")
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "max_tokens", verr.Field)
	})

	t.Run("should build system and user messages", func(t *testing.T) {
		params, err := p.build(validRequest(), "")
		require.NoError(t, err)
		require.Len(t, params.Messages, 2)
		require.Equal(t, openai.ChatModel("gpt-4-1106-preview"), params.Model)
	})

	t.Run("should append prior output and the continue instruction", func(t *testing.T) {
		params, err := p.build(validRequest(), `{"characters":[`)
		require.NoError(t, err)
		require.Len(t, params.Messages, 4)
	})
}

func TestNormalize(t *testing.T) {
	p := &Provider{name: providerName}

	t.Run("should map a complete response", func(t *testing.T) {
		resp := &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Content: `  {"characters":[]}  `},
				FinishReason: "stop",
			}},
			Usage: openai.CompletionUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
		}

		result, err := p.normalize(resp)
		require.NoError(t, err)
		require.Equal(t, `{"characters":[]}`, result.Text)
		require.Equal(t, domain.StopComplete, result.StopReason)
		require.Equal(t, 120, result.Usage.TotalTokens)
	})

	t.Run("should map length truncation", func(t *testing.T) {
		resp := &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Content: `{"characters":[{"name":"Ahab"`},
				FinishReason: "length",
			}},
		}

		result, err := p.normalize(resp)
		require.NoError(t, err)
		require.Equal(t, domain.StopLength, result.StopReason)
	})

	t.Run("should map filtered output to other", func(t *testing.T) {
		resp := &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Content: "partial"},
				FinishReason: "content_filter",
			}},
		}

		result, err := p.normalize(resp)
		require.NoError(t, err)
		require.Equal(t, domain.StopOther, result.StopReason)
	})

	t.Run("should fail with ErrNoContent on empty choices", func(t *testing.T) {
		_, err := p.normalize(&openai.ChatCompletion{})
		require.ErrorIs(t, err, domain.ErrNoContent)
	})

	t.Run("should fail with ErrNoContent on blank content", func(t *testing.T) {
		resp := &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Content: "   "},
				FinishReason: "stop",
			}},
		}

		_, err := p.normalize(resp)
		require.ErrorIs(t, err, domain.ErrNoContent)
	})
}

func TestMapError(t *testing.T) {
	p := &Provider{name: providerName}

	t.Run("should carry SDK status codes", func(t *testing.T) {
		mapped := p.mapError(&openai.Error{StatusCode: 401})

		var pe *domain.ProviderError
		require.ErrorAs(t, mapped, &pe)
		require.Equal(t, 401, pe.StatusCode)
		require.Equal(t, domain.KindAuth, pe.Kind)
	})

	t.Run("should label plain transport failures", func(t *testing.T) {
		mapped := p.mapError(errors.New("dial tcp: connection refused"))

		var pe *domain.ProviderError
		require.ErrorAs(t, mapped, &pe)
		require.Equal(t, domain.KindTransport, pe.Kind)
		require.Zero(t, pe.StatusCode)
	})

	t.Run("should map client errors to unretryable kinds", func(t *testing.T) {
		tests := map[int]domain.ErrorKind{
			400: domain.KindMalformedRequest,
			403: domain.KindPermissionDenied,
			404: domain.KindNotFound,
			422: domain.KindMalformedRequest,
			429: domain.KindRateLimited,
			500: domain.KindTransport,
		}
		for status, want := range tests {
			require.Equal(t, want, kindForStatus(status), "status %d", status)
		}
	})
}
