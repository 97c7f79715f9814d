package anthropic

// Config contains Anthropic provider configuration.
type Config struct {
	APIKey  string `env:"ANTHROPIC_API_KEY"`
	BaseURL string `env:"ANTHROPIC_BASE_URL" envDefault:""`
	Timeout int    `env:"ANTHROPIC_TIMEOUT"  envDefault:"60"`
}
