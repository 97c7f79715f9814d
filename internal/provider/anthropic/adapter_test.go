package anthropic

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lorebind/lorebind/internal/domain"
)

func validRequest() *domain.CompletionRequest {
	return &domain.CompletionRequest{
		Model:       "claude-3-5-sonnet-latest",
		Prompt:      "Chapter 1: Call me Ishmael.",
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
		p, err := NewProvider(Config{APIKey: "sk-ant-test"})
		require.NoError(t, err)
		require.Equal(t, "anthropic", p.Name())
	})
}

func TestBuild(t *testing.T) {
	p := &Provider{name: providerName}

	t.Run("should reject temperature above the anthropic cap", func(t *testing.T) {
		req := validRequest()
		req.Temperature = 1.5

		_, err := p.build(req, "")
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "temperature", verr.Field)
	})

	t.Run("should reject an unknown model", func(t *testing.T) {
		req := validRequest()
		req.Model = "claude-imaginary"

		_, err := p.build(req, "")
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("should carry the instruction as system text", func(t *testing.T) {
		params, err := p.build(validRequest(), "")
		require.NoError(t, err)
		require.Len(t, params.System, 1)
		require.Equal(t, "Extract every named character as JSON.", params.System[0].Text)
		require.Len(t, params.Messages, 1)
	})

	t.Run("should append prior output and the continue instruction", func(t *testing.T) {
		params, err := p.build(validRequest(), `{"characters":[`)
		require.NoError(t, err)
		require.Len(t, params.Messages, 3)
	})
}

func TestNormalize(t *testing.T) {
	p := &Provider{name: providerName}

	t.Run("should fail with ErrNoContent on nil message", func(t *testing.T) {
		_, err := p.normalize(nil)
		require.ErrorIs(t, err, domain.ErrNoContent)
	})
}

func TestStopReason(t *testing.T) {
	require.Equal(t, domain.StopComplete, stopReason("end_turn"))
	require.Equal(t, domain.StopLength, stopReason("max_tokens"))
	require.Equal(t, domain.StopOther, stopReason("tool_use"))
}

func TestKindForStatus(t *testing.T) {
	require.Equal(t, domain.KindAuth, kindForStatus(401))
	require.Equal(t, domain.KindMalformedRequest, kindForStatus(400))
	require.Equal(t, domain.KindRateLimited, kindForStatus(429))
	require.Equal(t, domain.KindTransport, kindForStatus(529))
}
