package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lorebind/lorebind/internal/domain"
	"github.com/lorebind/lorebind/internal/provider/registry"
)

// mockProvider is a mock implementation of domain.Provider for testing.
type mockProvider struct {
	name   string
	models map[string]domain.ModelSpec
}

func newMockProvider(name string, models ...string) *mockProvider {
	specs := make(map[string]domain.ModelSpec, len(models))
	for _, model := range models {
		specs[model] = domain.ModelSpec{
			ContextWindow:   8192,
			MaxOutputTokens: 4096,
			TemperatureMax:  2,
			RateCapacity:    250_000,
		}
	}
	return &mockProvider{name: name, models: specs}
}

func (m *mockProvider) Complete(_ context.Context, _ *domain.CompletionRequest, _ string) (*domain.CompletionResult, error) {
	return &domain.CompletionResult{}, nil
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Spec(model string) (domain.ModelSpec, bool) {
	spec, ok := m.models[model]
	return spec, ok
}

func (m *mockProvider) SupportedModels(_ context.Context) []string {
	models := make([]string, 0, len(m.models))
	for model := range m.models {
		models = append(models, model)
	}
	return models
}

func (m *mockProvider) IsModelSupported(_ context.Context, model string) bool {
	_, ok := m.models[model]
	return ok
}

func TestRegistry_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("should register provider successfully", func(t *testing.T) {
		reg := registry.NewRegistry()

		err := reg.Register(ctx, newMockProvider("test-provider", "model-a"))
		require.NoError(t, err)

		registered, err := reg.Get(ctx, "test-provider")
		require.NoError(t, err)
		require.Equal(t, "test-provider", registered.Name())
	})

	t.Run("should return error when provider is nil", func(t *testing.T) {
		reg := registry.NewRegistry()

		err := reg.Register(ctx, nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "provider cannot be nil")
	})

	t.Run("should return error when provider name is empty", func(t *testing.T) {
		reg := registry.NewRegistry()

		err := reg.Register(ctx, newMockProvider(""))
		require.Error(t, err)
		require.Contains(t, err.Error(), "provider name cannot be empty")
	})

	t.Run("should return error when provider already registered", func(t *testing.T) {
		reg := registry.NewRegistry()

		require.NoError(t, reg.Register(ctx, newMockProvider("test-provider", "model-a")))

		err := reg.Register(ctx, newMockProvider("test-provider", "model-b"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "already registered")
	})

	t.Run("should reject a rate capacity that cannot absorb one call", func(t *testing.T) {
		reg := registry.NewRegistry()

		provider := newMockProvider("tiny-budget", "model-a")
		provider.models["model-a"] = domain.ModelSpec{
			ContextWindow:   8192,
			MaxOutputTokens: 4096,
			RateCapacity:    4000,
		}

		err := reg.Register(ctx, provider)
		require.Error(t, err)
		require.Contains(t, err.Error(), "cannot absorb one worst-case call")
	})

	t.Run("should reject an incomplete model spec", func(t *testing.T) {
		reg := registry.NewRegistry()

		provider := newMockProvider("no-spec", "model-a")
		provider.models["model-a"] = domain.ModelSpec{RateCapacity: 100_000}

		err := reg.Register(ctx, provider)
		require.Error(t, err)
		require.Contains(t, err.Error(), "incomplete spec")
	})
}

func TestRegistry_GetByModel(t *testing.T) {
	ctx := context.Background()

	t.Run("should route a model to its provider", func(t *testing.T) {
		reg := registry.NewRegistry()
		require.NoError(t, reg.Register(ctx, newMockProvider("openai", "gpt-4-1106-preview")))
		require.NoError(t, reg.Register(ctx, newMockProvider("anthropic", "claude-3-5-sonnet-latest")))

		provider, err := reg.GetByModel(ctx, "claude-3-5-sonnet-latest")
		require.NoError(t, err)
		require.Equal(t, "anthropic", provider.Name())
	})

	t.Run("should return error for an unknown model", func(t *testing.T) {
		reg := registry.NewRegistry()
		require.NoError(t, reg.Register(ctx, newMockProvider("openai", "gpt-4-1106-preview")))

		_, err := reg.GetByModel(ctx, "unknown-model")
		require.Error(t, err)
	})

	t.Run("should return error for empty model", func(t *testing.T) {
		reg := registry.NewRegistry()

		_, err := reg.GetByModel(ctx, "")
		require.Error(t, err)
	})
}

func TestRegistry_List(t *testing.T) {
	ctx := context.Background()

	t.Run("should return empty list when no providers registered", func(t *testing.T) {
		reg := registry.NewRegistry()

		providers, err := reg.List(ctx)
		require.NoError(t, err)
		require.NotNil(t, providers)
		require.Empty(t, providers)
	})

	t.Run("should return all registered providers", func(t *testing.T) {
		reg := registry.NewRegistry()

		for _, name := range []string{"provider1", "provider2", "provider3"} {
			require.NoError(t, reg.Register(ctx, newMockProvider(name, name+"-model")))
		}

		providers, err := reg.List(ctx)
		require.NoError(t, err)
		require.Len(t, providers, 3)
		require.Contains(t, providers, "provider1")
		require.Contains(t, providers, "provider2")
		require.Contains(t, providers, "provider3")
	})
}
