package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lexcodex/djangoagent/framework"
)

const (
	defaultEndpoint = "http://localhost:11434"
	defaultModel    = "codellama:7b"
)

// Client implements framework.LanguageModel for Ollama.
type Client struct {
	Endpoint string
	Model    string
	Debug    bool
	Logger   *zap.Logger
	client   *http.Client
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason"`
	EvalCount       int    `json:"eval_count"`
	PromptEvalCount int    `json:"prompt_eval_count"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewClient builds a new Ollama client.
func NewClient(endpoint, model string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Model:    model,
		client: &http.Client{
			Timeout: 3 * time.Minute,
		},
	}
}

// SetTimeout replaces the HTTP timeout. Non-positive values are ignored.
func (c *Client) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.getHTTPClient().Timeout = d
}

// Generate implements single prompt completion.
func (c *Client) Generate(ctx context.Context, prompt string, options *framework.LLMOptions) (*framework.LLMResponse, error) {
	payload := generateRequest{
		Model:   c.model(options),
		Prompt:  prompt,
		Stream:  false,
		Options: buildOptions(options),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	c.logPayload("/api/generate", body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logResponse("/api/generate", responseBody)
	return decodeLLMResponse(bytes.NewReader(responseBody))
}

// Ping checks the server is reachable and returns the installed model names.
func (c *Client) Ping(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Name reports the backend and model for diagnostics.
func (c *Client) Name() string {
	return "ollama:" + c.model(nil)
}

// SetDebugLogging enables or disables verbose logging for requests/responses.
func (c *Client) SetDebugLogging(enabled bool) {
	c.Debug = enabled
}

func (c *Client) getHTTPClient() *http.Client {
	if c.client != nil {
		return c.client
	}
	c.client = &http.Client{Timeout: 60 * time.Second}
	return c.client
}

func (c *Client) model(options *framework.LLMOptions) string {
	if options != nil && options.Model != "" {
		return options.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return defaultModel
}

func buildOptions(options *framework.LLMOptions) map[string]interface{} {
	if options == nil {
		return nil
	}
	out := map[string]interface{}{}
	if options.Temperature != 0 {
		out["temperature"] = options.Temperature
	}
	if options.MaxTokens != 0 {
		out["num_predict"] = options.MaxTokens
	}
	if len(options.Stop) > 0 {
		out["stop"] = options.Stop
	}
	if options.TopP != 0 {
		out["top_p"] = options.TopP
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(msg))
	if detail != "" {
		return fmt.Errorf("ollama error: %s: %s", resp.Status, detail)
	}
	return fmt.Errorf("ollama error: %s", resp.Status)
}

func decodeLLMResponse(body io.Reader) (*framework.LLMResponse, error) {
	var raw ollamaResponse
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	return &framework.LLMResponse{
		Text:         strings.TrimSpace(raw.Response),
		FinishReason: raw.DoneReason,
		Usage:        normalizeUsage(raw),
	}, nil
}

func normalizeUsage(raw ollamaResponse) map[string]int {
	usage := make(map[string]int)
	if raw.EvalCount > 0 {
		usage["completion_tokens"] = raw.EvalCount
	}
	if raw.PromptEvalCount > 0 {
		usage["prompt_tokens"] = raw.PromptEvalCount
	}
	if len(usage) == 0 {
		return nil
	}
	return usage
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Client) logPayload(path string, payload []byte) {
	if !c.Debug {
		return
	}
	c.logger().Debug("ollama request", zap.String("path", path), zap.String("payload", truncate(string(payload), 2048)))
}

func (c *Client) logResponse(path string, resp []byte) {
	if !c.Debug {
		return
	}
	c.logger().Debug("ollama response", zap.String("path", path), zap.String("payload", truncate(string(resp), 2048)))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
