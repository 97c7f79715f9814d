package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/lorebind/lorebind/internal/config"
	"github.com/lorebind/lorebind/internal/domain"
	"github.com/lorebind/lorebind/internal/engine"
	"github.com/lorebind/lorebind/internal/httpapi"
	"github.com/lorebind/lorebind/internal/httpapi/middleware"
	"github.com/lorebind/lorebind/internal/notify"
	"github.com/lorebind/lorebind/internal/observability"
	"github.com/lorebind/lorebind/internal/provider/anthropic"
	"github.com/lorebind/lorebind/internal/provider/echo"
	"github.com/lorebind/lorebind/internal/provider/openai"
	"github.com/lorebind/lorebind/internal/provider/registry"
	"github.com/lorebind/lorebind/internal/rate"
	rateredis "github.com/lorebind/lorebind/internal/rate/redis"
	"github.com/lorebind/lorebind/internal/retry"
)

// ErrProviderNotConfigured indicates that a provider is not configured and should be skipped.
var ErrProviderNotConfigured = errors.New("provider not configured")

func main() {
	container := buildContainer()

	err := container.Invoke(func(_ *zap.Logger, server *httpapi.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	// Budget store: Redis when an address is configured, process memory
	// otherwise.
	if err := container.Provide(func(cfg *config.Config) domain.BudgetStore {
		if cfg.Redis.Addr == "" {
			return rate.NewMemoryStore()
		}

		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return rateredis.NewStore(client)
	}); err != nil {
		log.Fatalf("Failed to provide budget store: %v", err)
	}

	// Rate limiter
	if err := container.Provide(func(cfg *config.Config, store domain.BudgetStore) *rate.Limiter {
		return rate.NewLimiter(store, cfg.Engine.RateWindow(), time.Now)
	}); err != nil {
		log.Fatalf("Failed to provide rate limiter: %v", err)
	}

	// Retry controller
	if err := container.Provide(notify.NewLogNotifier); err != nil {
		log.Fatalf("Failed to provide notifier: %v", err)
	}
	if err := container.Provide(func(cfg *config.Config, notifier *notify.LogNotifier) *retry.Controller {
		return retry.NewController(retry.NewClassifier(), notifier, cfg.Engine.MaxAttempts)
	}); err != nil {
		log.Fatalf("Failed to provide retry controller: %v", err)
	}

	// Provider Registry
	if err := container.Provide(func() domain.ProviderRegistry {
		return registry.NewRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}

	// OpenAI Provider
	if err := container.Provide(func(cfg *config.Config) (*openai.Provider, error) {
		if cfg.OpenAI.APIKey == "" {
			return nil, ErrProviderNotConfigured
		}

		return openai.NewProvider(cfg.OpenAI)
	}); err != nil {
		log.Fatalf("Failed to provide OpenAI provider: %v", err)
	}

	// Anthropic Provider
	if err := container.Provide(func(cfg *config.Config) (*anthropic.Provider, error) {
		if cfg.Anthropic.APIKey == "" {
			return nil, ErrProviderNotConfigured
		}

		return anthropic.NewProvider(cfg.Anthropic)
	}); err != nil {
		log.Fatalf("Failed to provide Anthropic provider: %v", err)
	}

	// Register providers with registry (invoked for side effects)
	if err := registerProviders(container); err != nil {
		log.Fatalf("Failed to register providers: %v", err)
	}

	// Engine
	if err := container.Provide(func(
		cfg *config.Config,
		reg domain.ProviderRegistry,
		limiter *rate.Limiter,
		controller *retry.Controller,
	) *engine.Engine {
		return engine.New(reg, limiter, controller, cfg.Engine.ContinuationMaxTokens)
	}); err != nil {
		log.Fatalf("Failed to provide engine: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(func(eng *engine.Engine) *httpapi.Handler {
		return httpapi.NewHandler(eng)
	}); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(httpapi.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

// registerProviders adds every configured provider to the registry. The echo
// provider is always registered so the service answers deterministic test
// traffic even with no upstream keys.
func registerProviders(container *dig.Container) error {
	register := func(ctx context.Context, reg domain.ProviderRegistry, p domain.Provider) error {
		if err := reg.Register(ctx, p); err != nil {
			return fmt.Errorf("failed to register %s provider: %w", p.Name(), err)
		}
		return nil
	}

	if err := container.Invoke(func(reg domain.ProviderRegistry) error {
		return register(context.Background(), reg, echo.NewProvider())
	}); err != nil {
		return err
	}

	if err := container.Invoke(func(reg domain.ProviderRegistry, p *openai.Provider) error {
		return register(context.Background(), reg, p)
	}); err != nil && !errors.Is(err, ErrProviderNotConfigured) {
		return err
	}

	if err := container.Invoke(func(reg domain.ProviderRegistry, p *anthropic.Provider) error {
		return register(context.Background(), reg, p)
	}); err != nil && !errors.Is(err, ErrProviderNotConfigured) {
		return err
	}

	return nil
}
