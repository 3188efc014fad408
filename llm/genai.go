package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/lexcodex/djangoagent/framework"
)

const defaultGenAIModel = "gemini-2.0-flash"

// GenAIClient implements framework.LanguageModel over the Gemini API.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates a Gemini-backed model client.
func NewGenAIClient(ctx context.Context, apiKey, model string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = defaultGenAIModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIClient{client: client, model: model}, nil
}

// Generate sends one GenerateContent request.
func (c *GenAIClient) Generate(ctx context.Context, prompt string, options *framework.LLMOptions) (*framework.LLMResponse, error) {
	model := c.model
	if options != nil && options.Model != "" {
		model = options.Model
	}
	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), generateConfig(options))
	if err != nil {
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}
	resp := &framework.LLMResponse{Text: result.Text()}
	if len(result.Candidates) > 0 {
		resp.FinishReason = string(result.Candidates[0].FinishReason)
	}
	if result.UsageMetadata != nil {
		resp.Usage = map[string]int{
			"prompt_tokens":     int(result.UsageMetadata.PromptTokenCount),
			"completion_tokens": int(result.UsageMetadata.CandidatesTokenCount),
		}
	}
	return resp, nil
}

// Name reports the backend and model for diagnostics.
func (c *GenAIClient) Name() string {
	return "genai:" + c.model
}

func generateConfig(options *framework.LLMOptions) *genai.GenerateContentConfig {
	if options == nil {
		return nil
	}
	cfg := &genai.GenerateContentConfig{}
	if options.Temperature != 0 {
		cfg.Temperature = genai.Ptr(float32(options.Temperature))
	}
	if options.TopP != 0 {
		cfg.TopP = genai.Ptr(float32(options.TopP))
	}
	if options.MaxTokens != 0 {
		cfg.MaxOutputTokens = int32(options.MaxTokens)
	}
	if len(options.Stop) > 0 {
		cfg.StopSequences = options.Stop
	}
	return cfg
}
