package anthropic

import "github.com/lorebind/lorebind/internal/domain"

const defaultRateCapacity = 250_000

// modelSpecs declares the limits for every model this provider serves.
// Anthropic caps temperature at 1.0, unlike OpenAI's 2.0.
var modelSpecs = map[string]domain.ModelSpec{
	"claude-3-5-haiku-latest": {
		ContextWindow:   200_000,
		MaxOutputTokens: 8_192,
		TemperatureMin:  0,
		TemperatureMax:  1,
		RateCapacity:    defaultRateCapacity,
	},
	"claude-3-5-sonnet-latest": {
		ContextWindow:   200_000,
		MaxOutputTokens: 8_192,
		TemperatureMin:  0,
		TemperatureMax:  1,
		RateCapacity:    defaultRateCapacity,
	},
	"claude-sonnet-4-0": {
		ContextWindow:   200_000,
		MaxOutputTokens: 64_000,
		TemperatureMin:  0,
		TemperatureMax:  1,
		RateCapacity:    defaultRateCapacity,
	},
}
