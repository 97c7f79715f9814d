package echo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lorebind/lorebind/internal/domain"
	"github.com/lorebind/lorebind/internal/provider/echo"
)

func TestProvider_Complete(t *testing.T) {
	ctx := context.Background()
	provider := echo.NewProvider()

	t.Run("should echo the full prompt when it fits", func(t *testing.T) {
		result, err := provider.Complete(ctx, &domain.CompletionRequest{
			Model:     "echo4",
			Prompt:    "one two three",
			MaxTokens: 10,
		}, "")
		require.NoError(t, err)
		require.Equal(t, "one two three", result.Text)
		require.Equal(t, domain.StopComplete, result.StopReason)
	})

	t.Run("should truncate and resume across continuations", func(t *testing.T) {
		req := &domain.CompletionRequest{
			Model:     "echo4",
			Prompt:    "one two three four five",
			MaxTokens: 2,
		}

		first, err := provider.Complete(ctx, req, "")
		require.NoError(t, err)
		require.Equal(t, "one two", first.Text)
		require.Equal(t, domain.StopLength, first.StopReason)

		second, err := provider.Complete(ctx, req, first.Text)
		require.NoError(t, err)
		require.Equal(t, "three four", second.Text)
		require.Equal(t, domain.StopLength, second.StopReason)

		third, err := provider.Complete(ctx, req, first.Text+" "+second.Text)
		require.NoError(t, err)
		require.Equal(t, "five", third.Text)
		require.Equal(t, domain.StopComplete, third.StopReason)
	})

	t.Run("should reject unsupported models", func(t *testing.T) {
		_, err := provider.Complete(ctx, &domain.CompletionRequest{Model: "gpt-4", Prompt: "x", MaxTokens: 5}, "")
		require.Error(t, err)
	})

	t.Run("should fail with ErrNoContent on an empty prompt", func(t *testing.T) {
		_, err := provider.Complete(ctx, &domain.CompletionRequest{Model: "echo4", Prompt: "", MaxTokens: 5}, "")
		require.ErrorIs(t, err, domain.ErrNoContent)
	})
}

func TestProvider_Spec(t *testing.T) {
	provider := echo.NewProvider()

	spec, ok := provider.Spec("echo4")
	require.True(t, ok)
	require.Positive(t, spec.RateCapacity)

	_, ok = provider.Spec("other")
	require.False(t, ok)
}
