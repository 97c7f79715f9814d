package openai

import "github.com/lorebind/lorebind/internal/domain"

// Per-minute token capacities match the account tier limits: 90k for the
// 3.5 tier, 300k for the 4 tier, 250k otherwise.
const (
	gpt35RateCapacity   = 90_000
	gpt4RateCapacity    = 300_000
	defaultRateCapacity = 250_000
)

// modelSpecs declares the limits for every model this provider serves.
var modelSpecs = map[string]domain.ModelSpec{
	"gpt-3.5-turbo-1106": {
		ContextWindow:   16_385,
		MaxOutputTokens: 4_096,
		TemperatureMin:  0,
		TemperatureMax:  2,
		RateCapacity:    gpt35RateCapacity,
	},
	"gpt-3.5-turbo": {
		ContextWindow:   16_385,
		MaxOutputTokens: 4_096,
		TemperatureMin:  0,
		TemperatureMax:  2,
		RateCapacity:    gpt35RateCapacity,
	},
	"gpt-4-1106-preview": {
		ContextWindow:   128_000,
		MaxOutputTokens: 4_096,
		TemperatureMin:  0,
		TemperatureMax:  2,
		RateCapacity:    gpt4RateCapacity,
	},
	"gpt-4-turbo": {
		ContextWindow:   128_000,
		MaxOutputTokens: 4_096,
		TemperatureMin:  0,
		TemperatureMax:  2,
		RateCapacity:    gpt4RateCapacity,
	},
	"gpt-4o": {
		ContextWindow:   128_000,
		MaxOutputTokens: 16_384,
		TemperatureMin:  0,
		TemperatureMax:  2,
		RateCapacity:    defaultRateCapacity,
	},
	"gpt-4o-mini": {
		ContextWindow:   128_000,
		MaxOutputTokens: 16_384,
		TemperatureMin:  0,
		TemperatureMax:  2,
		RateCapacity:    defaultRateCapacity,
	},
}
