package runtime

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lexcodex/djangoagent/agents"
	"github.com/lexcodex/djangoagent/llm"
)

// OllamaReport surfaces the health of an Ollama endpoint and whether the
// configured model is installed.
type OllamaReport struct {
	Endpoint       string
	Healthy        bool
	Models         []string
	SelectedModel  string
	ModelInstalled bool
	Error          string
}

// PathReport describes a file or directory the assistant depends on.
type PathReport struct {
	Path   string
	Exists bool
	Detail string
}

// EnvironmentReport aggregates the doctor probes.
type EnvironmentReport struct {
	Workspace string
	Provider  string
	LLM       OllamaReport
	Embedding OllamaReport
	Docs      PathReport
	Index     PathReport
	Timestamp time.Time
}

// ProbeEnvironment checks the model server, the docs directory and the index.
func ProbeEnvironment(ctx context.Context, cfg *agents.Config) EnvironmentReport {
	report := EnvironmentReport{
		Workspace: cfg.Workspace.Root,
		Provider:  cfg.LLM.Provider,
		Docs:      inspectDocs(cfg.Resolve(cfg.RAG.DocsDir)),
		Index:     inspectFile(cfg.Resolve(cfg.RAG.IndexPath)),
		Timestamp: time.Now(),
	}
	if cfg.LLM.Provider == "" || cfg.LLM.Provider == "ollama" {
		report.LLM = detectOllama(ctx, cfg.LLM.Endpoint, cfg.LLM.Model)
	} else {
		report.LLM = remoteReport(cfg.LLM.Model, cfg.LLM.APIKey)
	}
	if cfg.Embedding.Provider == "" || cfg.Embedding.Provider == "ollama" {
		report.Embedding = detectOllama(ctx, cfg.Embedding.Endpoint, cfg.Embedding.Model)
	} else {
		report.Embedding = remoteReport(cfg.Embedding.Model, cfg.Embedding.APIKey)
	}
	return report
}

// detectOllama queries the tags endpoint to confirm health and models.
func detectOllama(ctx context.Context, endpoint, model string) OllamaReport {
	client := llm.NewClient(endpoint, model)
	report := OllamaReport{Endpoint: client.Endpoint, SelectedModel: model}
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := client.Ping(cctx)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Healthy = true
	report.Models = models
	for _, name := range models {
		if modelMatches(name, model) {
			report.ModelInstalled = true
		}
	}
	return report
}

// modelMatches treats "name" and "name:latest" as the same model.
func modelMatches(installed, wanted string) bool {
	if installed == wanted {
		return true
	}
	return installed == wanted+":latest"
}

func remoteReport(model, apiKey string) OllamaReport {
	report := OllamaReport{Endpoint: "genai", SelectedModel: model, ModelInstalled: true}
	if apiKey == "" {
		report.Error = "api key missing"
		return report
	}
	report.Healthy = true
	return report
}

func inspectDocs(dir string) PathReport {
	report := PathReport{Path: dir}
	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		report.Detail = err.Error()
		return report
	}
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		report.Exists = true
	}
	report.Detail = pluralize(len(files), ".txt file")
	return report
}

func inspectFile(path string) PathReport {
	report := PathReport{Path: path}
	info, err := os.Stat(path)
	if err != nil {
		report.Detail = "missing; run djangoagent index"
		return report
	}
	report.Exists = true
	report.Detail = pluralize(int(info.Size()), "byte")
	return report
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
