package framework

import "context"

// LLMOptions tunes a single generation request. Zero values mean "use the
// backend default".
type LLMOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Stop        []string
	TopP        float64
}

// LLMResponse is the normalized reply from any LanguageModel backend.
type LLMResponse struct {
	Text         string         `json:"text,omitempty"`
	FinishReason string         `json:"finish_reason,omitempty"`
	Usage        map[string]int `json:"usage,omitempty"`
}

// LanguageModel is the contract the agent core generates against. Backends
// issue exactly one blocking request per call.
type LanguageModel interface {
	Generate(ctx context.Context, prompt string, options *LLMOptions) (*LLMResponse, error)
}
