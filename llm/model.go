package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lexcodex/djangoagent/framework"
)

// Config selects and configures a generation backend.
type Config struct {
	Provider string
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
	Debug    bool
}

// NewModel builds the LanguageModel named by cfg.Provider. An empty provider
// means Ollama.
func NewModel(ctx context.Context, cfg Config, logger *zap.Logger) (framework.LanguageModel, error) {
	switch cfg.Provider {
	case "", "ollama":
		client := NewClient(cfg.Endpoint, cfg.Model)
		client.SetTimeout(cfg.Timeout)
		client.Logger = logger
		client.SetDebugLogging(cfg.Debug)
		return client, nil
	case "genai":
		return NewGenAIClient(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s (use 'ollama' or 'genai')", cfg.Provider)
	}
}
