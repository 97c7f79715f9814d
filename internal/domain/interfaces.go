package domain

import "context"

// Provider represents one upstream completion provider. An instance is bound
// to the models it serves and holds no cross-call state beyond that binding.
type Provider interface {
	// Complete validates the request, executes one transport call and
	// normalizes the raw response. prior carries the partial output of a
	// truncated earlier call; empty for the first call of a chain.
	Complete(ctx context.Context, req *CompletionRequest, prior string) (*CompletionResult, error)

	// Name returns the provider identifier.
	Name() string

	// Spec returns the declared limits for a model, or false if the
	// provider does not serve it.
	Spec(model string) (ModelSpec, bool)

	// SupportedModels lists the models this provider serves.
	SupportedModels(ctx context.Context) []string

	// IsModelSupported checks if the provider supports the given model.
	IsModelSupported(ctx context.Context, model string) bool
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (Provider, error)

	// GetByModel retrieves the provider serving the given model.
	GetByModel(ctx context.Context, model string) (Provider, error)

	// List returns all available providers.
	List(ctx context.Context) ([]string, error)
}

// BudgetStore persists per-model rate budgets across process lifetimes.
// Update must apply fn as an atomic read-then-write; a model key that has
// never been written reads as a zero-value budget.
type BudgetStore interface {
	Read(ctx context.Context, model string) (RateBudget, error)
	Update(ctx context.Context, model string, fn func(RateBudget) RateBudget) (RateBudget, error)
}

// Notifier delivers one diagnostic string to an operator. Delivery is
// best-effort and must never block the fatal-exit path indefinitely.
type Notifier interface {
	Notify(ctx context.Context, diagnostic string)
}
