package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/lorebind/lorebind/internal/provider/anthropic"
	"github.com/lorebind/lorebind/internal/provider/openai"
)

// Config represents the orchestration service configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Engine    EngineConfig
	Redis     RedisConfig
	OpenAI    openai.Config
	Anthropic anthropic.Config
}

// ServerConfig contains HTTP server settings. The write timeout must cover
// a full completion chain, which can block on rate-window waits and backoff
// sleeps before it answers.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"300"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// EngineConfig tunes the completion chain: retry ceiling, rate window and
// the token cap applied to continuation calls.
type EngineConfig struct {
	MaxAttempts           int `env:"ENGINE_MAX_ATTEMPTS"             envDefault:"5"`
	RateWindowSeconds     int `env:"ENGINE_RATE_WINDOW_SECONDS"      envDefault:"60"`
	ContinuationMaxTokens int `env:"ENGINE_CONTINUATION_MAX_TOKENS"  envDefault:"500"`
}

// RateWindow returns the rate-limit window as a duration.
func (c EngineConfig) RateWindow() time.Duration {
	return time.Duration(c.RateWindowSeconds) * time.Second
}

// RedisConfig selects the budget store backend. An empty Addr keeps budgets
// in process memory, which is enough for a single instance.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"     envDefault:""`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

// DepConfig is used for dependency injection with dig. The provider configs
// need named fields since both types are called Config; dig resolves Out
// members by type either way.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*EngineConfig
	*RedisConfig
	OpenAI    *openai.Config
	Anthropic *anthropic.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	// A retry ceiling below 1 would make the backoff loop unbounded;
	// reject it at startup like any other unusable limit.
	if cfg.Engine.MaxAttempts < 1 {
		panic(fmt.Sprintf("ENGINE_MAX_ATTEMPTS must be at least 1, got %d", cfg.Engine.MaxAttempts))
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		ServerConfig: &cfg.Server,
		CORSConfig:   &cfg.CORS,
		EngineConfig: &cfg.Engine,
		RedisConfig:  &cfg.Redis,
		OpenAI:       &cfg.OpenAI,
		Anthropic:    &cfg.Anthropic,
	}
}
