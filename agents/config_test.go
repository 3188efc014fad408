package agents

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingConfigReturnsDefaults(t *testing.T) {
	t.Setenv("OLLAMA_ENDPOINT", "")
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("GEMINI_API_KEY", "")
	ws := t.TempDir()
	cfg, err := Load(DefaultConfigPath(ws), ws)
	require.NoError(t, err)
	assert.Equal(t, "codellama:7b", cfg.LLM.Model)
	assert.Equal(t, "django_docs", cfg.RAG.Collection)
	assert.Equal(t, 800, cfg.RAG.ChunkSize)
	assert.Equal(t, 100, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 4, cfg.RAG.TopK)
	assert.Equal(t, ws, cfg.Workspace.Root)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Setenv("OLLAMA_ENDPOINT", "")
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("GEMINI_API_KEY", "")
	ws := t.TempDir()
	path := DefaultConfigPath(ws)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: deepseek-coder\nrag:\n  top_k: 6\n"), 0o644))

	cfg, err := Load(path, ws)
	require.NoError(t, err)
	assert.Equal(t, "deepseek-coder", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.Endpoint)
	assert.Equal(t, 6, cfg.RAG.TopK)
	assert.Equal(t, 800, cfg.RAG.ChunkSize)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	ws := t.TempDir()
	path := filepath.Join(ws, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unterminated"), 0o644))
	_, err := Load(path, ws)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OLLAMA_ENDPOINT", "http://gpu-box:11434")
	t.Setenv("OLLAMA_MODEL", "codellama:13b")
	t.Setenv("GEMINI_API_KEY", "secret")
	ws := t.TempDir()
	cfg, err := Load(DefaultConfigPath(ws), ws)
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.LLM.Endpoint)
	assert.Equal(t, "http://gpu-box:11434", cfg.Embedding.Endpoint)
	assert.Equal(t, "codellama:13b", cfg.LLM.Model)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, "secret", cfg.Embedding.APIKey)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("OLLAMA_ENDPOINT", "")
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("GEMINI_API_KEY", "")
	ws := t.TempDir()
	cfg := DefaultConfig(ws)
	cfg.LLM.Provider = "genai"
	cfg.LLM.APIKey = "k"
	path := DefaultConfigPath(ws)
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path, ws)
	require.NoError(t, err)
	assert.Equal(t, "genai", loaded.LLM.Provider)
	assert.Equal(t, "k", loaded.LLM.APIKey)
	assert.Error(t, Save(path, nil))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig(".")
	cfg.RAG.ChunkOverlap = 800
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig(".")
	cfg.LLM.Provider = "openai"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig(".")
	cfg.LLM.Provider = "genai"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig(".")
	cfg.LLM.Timeout = "soon"
	assert.Error(t, cfg.Validate())
}

func TestResolveAndModelConfig(t *testing.T) {
	cfg := DefaultConfig("/srv/site")
	assert.Equal(t, filepath.Join("/srv/site", "data", "django_docs"), cfg.Resolve(cfg.RAG.DocsDir))
	assert.Equal(t, "/abs/index.sqlite", cfg.Resolve("/abs/index.sqlite"))
	assert.Equal(t, "", cfg.Resolve(""))

	mc := cfg.ModelConfig()
	assert.Equal(t, "codellama:7b", mc.Model)
	assert.Equal(t, "3m0s", mc.Timeout.String())
}
