package agents

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lexcodex/djangoagent/embedding"
	"github.com/lexcodex/djangoagent/internal/logging"
	"github.com/lexcodex/djangoagent/llm"
	"github.com/lexcodex/djangoagent/rag"
)

const configDirName = ".djangoagent"

// ConfigDir returns the workspace-local configuration directory.
func ConfigDir(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, configDirName)
}

// DefaultConfigPath returns .djangoagent/config.yaml within the workspace.
func DefaultConfigPath(workspace string) string {
	return filepath.Join(ConfigDir(workspace), "config.yaml")
}

// Config matches .djangoagent/config.yaml inside the workspace.
type Config struct {
	Version   string           `yaml:"version"`
	LLM       LLMConfig        `yaml:"llm"`
	Embedding embedding.Config `yaml:"embedding"`
	RAG       RAGConfig        `yaml:"rag"`
	Workspace WorkspaceConfig  `yaml:"workspace"`
	Logging   logging.Config   `yaml:"logging"`
}

// LLMConfig selects the generation backend.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	Timeout     string  `yaml:"timeout"`
	Debug       bool    `yaml:"debug,omitempty"`
}

// RAGConfig locates the documentation corpus and its index.
type RAGConfig struct {
	DocsDir      string `yaml:"docs_dir"`
	IndexPath    string `yaml:"index_path"`
	Collection   string `yaml:"collection"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	TopK         int    `yaml:"top_k"`
}

// WorkspaceConfig is the directory file tools are confined to.
type WorkspaceConfig struct {
	Root string `yaml:"root"`
}

// DefaultConfig returns the local Ollama setup rooted at workspace.
func DefaultConfig(workspace string) *Config {
	if workspace == "" {
		workspace = "."
	}
	return &Config{
		Version: "1.0.0",
		LLM: LLMConfig{
			Provider: "ollama",
			Endpoint: "http://localhost:11434",
			Model:    "codellama:7b",
			Timeout:  "3m",
		},
		Embedding: embedding.DefaultConfig(),
		RAG: RAGConfig{
			DocsDir:      filepath.Join("data", "django_docs"),
			IndexPath:    filepath.Join("data", "vector_db", "index.sqlite"),
			Collection:   rag.DefaultCollection,
			ChunkSize:    800,
			ChunkOverlap: 100,
			TopK:         rag.DefaultTopK,
		},
		Workspace: WorkspaceConfig{Root: workspace},
		Logging:   logging.Config{Level: "warn"},
	}
}

// Load reads the config or returns defaults when missing. Unset fields keep
// their defaults and environment overrides are applied last.
func Load(path, workspace string) (*Config, error) {
	cfg := DefaultConfig(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Workspace.Root == "" {
		cfg.Workspace.Root = workspace
	}
	cfg.applyEnv()
	return cfg, nil
}

// Save writes the config to disk.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config missing")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OLLAMA_ENDPOINT"); v != "" {
		c.LLM.Endpoint = v
		if c.Embedding.Provider == "" || c.Embedding.Provider == "ollama" {
			c.Embedding.Endpoint = v
		}
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = v
		}
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = v
		}
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "", "ollama", "genai":
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.LLM.Provider == "genai" && c.LLM.APIKey == "" {
		return errors.New("llm.api_key (or GEMINI_API_KEY) is required for the genai provider")
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, %d), got %d", c.RAG.ChunkSize, c.RAG.ChunkOverlap)
	}
	if c.RAG.TopK < 0 {
		return fmt.Errorf("rag.top_k must not be negative, got %d", c.RAG.TopK)
	}
	if strings.TrimSpace(c.RAG.IndexPath) == "" {
		return errors.New("rag.index_path is required")
	}
	return nil
}

// Timeout parses llm.timeout; empty means no override.
func (c *Config) Timeout() (time.Duration, error) {
	if strings.TrimSpace(c.LLM.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 0, fmt.Errorf("llm.timeout: %w", err)
	}
	return d, nil
}

// Resolve expands ~ and anchors relative paths at the workspace root.
func (c *Config) Resolve(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if filepath.IsAbs(path) {
		return path
	}
	root := c.Workspace.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, path)
}

// ModelConfig converts the llm section for llm.NewModel.
func (c *Config) ModelConfig() llm.Config {
	timeout, _ := c.Timeout()
	return llm.Config{
		Provider: c.LLM.Provider,
		Endpoint: c.LLM.Endpoint,
		Model:    c.LLM.Model,
		APIKey:   c.LLM.APIKey,
		Timeout:  timeout,
		Debug:    c.LLM.Debug,
	}
}
