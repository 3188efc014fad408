package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lexcodex/djangoagent/framework"
)

// InstrumentedModel wraps a LanguageModel and logs prompt size, latency and
// token usage for every call.
type InstrumentedModel struct {
	Inner  framework.LanguageModel
	Logger *zap.Logger
	Debug  bool
}

func NewInstrumentedModel(inner framework.LanguageModel, logger *zap.Logger, debug bool) *InstrumentedModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedModel{Inner: inner, Logger: logger, Debug: debug}
}

func (m *InstrumentedModel) Generate(ctx context.Context, prompt string, options *framework.LLMOptions) (*framework.LLMResponse, error) {
	fields := []zap.Field{
		zap.String("model", modelFromOptions(options)),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("prompt_tokens_est", framework.EstimateTokens(prompt)),
	}
	if m.Debug {
		fields = append(fields, zap.String("prompt_preview", clip(prompt, 1024)))
	}
	m.Logger.Debug("llm generate", fields...)
	start := time.Now()
	resp, err := m.Inner.Generate(ctx, prompt, options)
	elapsed := time.Since(start)
	if err != nil {
		m.Logger.Warn("llm generate failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return resp, err
	}
	done := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int("response_chars", len(resp.Text)),
		zap.String("finish_reason", resp.FinishReason),
	}
	for k, v := range resp.Usage {
		done = append(done, zap.Int(k, v))
	}
	m.Logger.Info("llm generate complete", done...)
	return resp, nil
}

func modelFromOptions(options *framework.LLMOptions) string {
	if options == nil {
		return ""
	}
	return options.Model
}

func clip(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
