// Package embedding maps text to fixed-length vectors for semantic retrieval.
// Ollama (local) is the default backend; Google GenAI is available for hosts
// without a local model server.
package embedding

import (
	"context"
	"fmt"
	"math"
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of embeddings, or 0 when unknown
	// until the first call.
	Dimensions() int

	// Name returns the engine name.
	Name() string
}

// QueryEmbedder is implemented by engines that embed search queries
// differently from the documents they are matched against.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// EmbedQuery embeds a search query, preferring the engine's query-side
// embedding when it has one.
func EmbedQuery(ctx context.Context, engine Engine, text string) ([]float32, error) {
	if q, ok := engine.(QueryEmbedder); ok {
		return q.EmbedQuery(ctx, text)
	}
	return engine.Embed(ctx, text)
}

// Config holds embedding engine configuration.
type Config struct {
	Provider string `yaml:"provider"`
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key,omitempty"`
	TaskType string `yaml:"task_type,omitempty"`
}

// DefaultConfig returns the local Ollama setup with a MiniLM sentence model.
func DefaultConfig() Config {
	return Config{
		Provider: "ollama",
		Endpoint: "http://localhost:11434",
		Model:    "all-minilm",
		TaskType: "RETRIEVAL_DOCUMENT",
	}
}

// NewEngine creates an embedding engine based on configuration.
func NewEngine(ctx context.Context, cfg Config) (Engine, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaEngine(cfg.Endpoint, cfg.Model)
	case "genai":
		return NewGenAIEngine(ctx, cfg.APIKey, cfg.Model, cfg.TaskType)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'ollama' or 'genai')", cfg.Provider)
	}
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns a value between -1 and 1; zero-magnitude input yields 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}
	var dot, aMag, bMag float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		aMag += x * x
		bMag += y * y
	}
	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}
