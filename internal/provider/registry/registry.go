// Package registry holds the providers the engine may dispatch to and
// routes model identifiers to the provider serving them. Registration is
// also where per-model limits are checked, so a rate budget that could
// never absorb one call fails at startup instead of blocking forever at
// runtime.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lorebind/lorebind/internal/domain"
)

// Registry implements the domain.ProviderRegistry interface.
type Registry struct {
	mu              sync.RWMutex
	providers       map[string]domain.Provider
	modelToProvider map[string]string
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:              sync.RWMutex{},
		providers:       make(map[string]domain.Provider),
		modelToProvider: make(map[string]string),
	}
}

// Register adds a provider to the registry after validating the declared
// limits of every model it serves.
func (r *Registry) Register(ctx context.Context, provider domain.Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	supportedModels := provider.SupportedModels(ctx)
	for _, model := range supportedModels {
		if err := validateSpec(provider, model); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	r.providers[name] = provider

	// Build reverse index from provider's supported models
	for _, model := range supportedModels {
		r.modelToProvider[model] = name
	}

	return nil
}

// validateSpec rejects model limits under which the rate limiter could
// never admit a maximum-size call.
func validateSpec(provider domain.Provider, model string) error {
	spec, ok := provider.Spec(model)
	if !ok {
		return fmt.Errorf("provider %s declares no spec for model %s", provider.Name(), model)
	}

	if spec.ContextWindow <= 0 || spec.MaxOutputTokens <= 0 {
		return fmt.Errorf("model %s: incomplete spec", model)
	}

	if spec.RateCapacity <= spec.MaxOutputTokens {
		return fmt.Errorf("model %s: rate capacity %d cannot absorb one worst-case call (max output %d)",
			model, spec.RateCapacity, spec.MaxOutputTokens)
	}

	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(_ context.Context, providerName string) (domain.Provider, error) {
	if providerName == "" {
		return nil, errors.New("provider name cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[providerName]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", providerName)
	}

	return provider, nil
}

// List returns all available providers.
func (r *Registry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}

	return names, nil
}

// GetByModel retrieves the provider that serves the given model.
func (r *Registry) GetByModel(ctx context.Context, model string) (domain.Provider, error) {
	if model == "" {
		return nil, errors.New("model cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Use reverse index for O(1) lookup
	providerName, exists := r.modelToProvider[model]
	if !exists {
		// Fallback to linear search for providers that accept dynamic
		// model identifiers.
		for _, provider := range r.providers {
			if provider.IsModelSupported(ctx, model) {
				return provider, nil
			}
		}
		return nil, fmt.Errorf("no provider found for model: %s", model)
	}

	provider, exists := r.providers[providerName]
	if !exists {
		// This shouldn't happen, but handle gracefully
		return nil, fmt.Errorf("provider not found: %s", providerName)
	}

	return provider, nil
}
