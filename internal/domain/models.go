package domain

import "time"

// ContinueInstruction is the fixed user turn appended after a truncated
// assistant message when re-issuing a continuation call.
const ContinueInstruction = "Please continue from the exact point you left off without any commentary"

// StopReason explains why a provider stopped generating output.
type StopReason string

const (
	// StopComplete means the model finished on its own.
	StopComplete StopReason = "complete"

	// StopLength means output was cut off by the max-token limit and a
	// continuation call is required.
	StopLength StopReason = "length"

	// StopOther covers every remaining provider-specific stop condition
	// (content filter, tool use, and so on).
	StopOther StopReason = "other"
)

// CompletionRequest represents one completion request to an upstream model.
// It is immutable once built; continuations derive new requests from it.
type CompletionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Instruction string  `json:"instruction"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Structured  bool    `json:"structured_output,omitempty"`
}

// CompletionResult is the normalized response shape shared by all providers.
// Never mutated after the facade creates it.
type CompletionResult struct {
	Text       string     `json:"text"`
	Usage      Usage      `json:"usage"`
	StopReason StopReason `json:"stop_reason"`
}

// Usage tracks token consumption for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelSpec declares the provider-side limits for one model. Providers own
// these values; the engine validates requests and sizes rate budgets from
// them.
type ModelSpec struct {
	ContextWindow   int     // prompt-side token capacity
	MaxOutputTokens int     // largest permitted max_tokens value
	TemperatureMin  float64 // inclusive lower bound
	TemperatureMax  float64 // inclusive upper bound
	RateCapacity    int     // tokens permitted per rate window
}

// RateBudget is the persisted per-model token allowance for the current
// window. It is the only mutable state shared across logical request chains;
// all mutation goes through a BudgetStore.
type RateBudget struct {
	WindowStart time.Time
	TokensUsed  int
}
