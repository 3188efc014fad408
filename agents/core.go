package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lexcodex/djangoagent/framework"
	"github.com/lexcodex/djangoagent/internal/logging"
	"github.com/lexcodex/djangoagent/rag"
	"github.com/lexcodex/djangoagent/tools"
)

const (
	noCodeNote    = "No code block found; nothing was written."
	noNewCodeNote = "Everything generated already exists in the file; nothing was written."
)

// ContextRetriever looks up documentation for a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, k int) (string, []string, error)
}

// Core runs one request end to end: classify, retrieve, prompt, generate,
// extract, write, respond.
type Core struct {
	Model     framework.LanguageModel
	Retriever ContextRetriever
	Tools     *framework.ToolRegistry
	Logger    *zap.Logger
	TopK      int
	ModelName string
	// Temperature overrides the mode profile when positive.
	Temperature float64
}

// Result is the structured outcome of a request.
type Result struct {
	Mode        Mode
	Target      string
	Written     bool
	Appended    bool
	Code        string
	Explanation string
	Sources     []string
	Warning     string
	Text        string
}

// NewCore wires a core whose file work runs through the workspace tools.
func NewCore(model framework.LanguageModel, retriever ContextRetriever, ws *tools.Workspace, logger *zap.Logger) (*Core, error) {
	if model == nil {
		return nil, errors.New("language model required")
	}
	if ws == nil {
		return nil, errors.New("workspace required")
	}
	registry, err := tools.NewFileRegistry(ws)
	if err != nil {
		return nil, err
	}
	return &Core{
		Model:     model,
		Retriever: retriever,
		Tools:     registry,
		Logger:    logging.OrNop(logger).Named("agent"),
		TopK:      rag.DefaultTopK,
	}, nil
}

// Run executes input and renders the response shown to the user.
func (c *Core) Run(ctx context.Context, input string) string {
	return c.Execute(ctx, input).Render()
}

// Execute executes input. Failures of retrieval, generation and file work
// are reported inside the result, never as an error.
func (c *Core) Execute(ctx context.Context, input string) *Result {
	logger := logging.OrNop(c.Logger)
	input = strings.TrimSpace(input)
	res := &Result{Mode: DetectMode(input)}
	scope := ProfileFor(res.Mode).ToolScope
	if res.Mode == ModeAction {
		res.Target = ExtractTargetPath(input)
	}
	logger.Debug("request classified", zap.String("mode", string(res.Mode)), zap.String("target", res.Target))

	contextText := c.retrieve(ctx, input, res)

	var existing string
	exists := false
	if res.Mode == ModeAction && res.Target != "" && scope.AllowRead {
		existing, exists = c.readExisting(ctx, res.Target)
	}

	prompt := BuildPrompt(PromptInput{
		Request:     input,
		Context:     contextText,
		FilePath:    res.Target,
		FileContent: existing,
		Mode:        res.Mode,
	})
	resp, err := c.Model.Generate(ctx, prompt, &framework.LLMOptions{
		Model:       c.ModelName,
		Temperature: c.temperature(res.Mode),
	})
	if err != nil {
		logger.Warn("generation failed", zap.Error(err))
		res.Text = fmt.Sprintf("[ERROR] LLM request failed: %v", err)
		return res
	}
	text := strings.TrimSpace(resp.Text)
	if res.Mode != ModeAction || res.Target == "" {
		res.Text = text
		return res
	}

	code, explanation := ExtractCode(text)
	res.Explanation = explanation
	if code == "" {
		res.Text = joinSections(text, noCodeNote)
		return res
	}
	code = DedupeImports(existing, code)
	res.Code = code
	logger.Debug("code extracted", zap.Int("code_tokens_est", framework.EstimateCodeTokens(code)))
	if strings.TrimSpace(code) == "" {
		res.Text = joinSections(explanation, noNewCodeNote)
		return res
	}
	res.Text = joinSections(code, explanation, c.writeCode(ctx, res, exists, scope))
	return res
}

func (c *Core) retrieve(ctx context.Context, input string, res *Result) string {
	if c.Retriever == nil {
		return ""
	}
	k := c.TopK
	if k <= 0 {
		k = rag.DefaultTopK
	}
	contextText, sources, err := c.Retriever.Retrieve(ctx, input, k)
	if err != nil {
		logging.OrNop(c.Logger).Warn("context retrieval failed", zap.Error(err))
		res.Warning = fmt.Sprintf("[Warning] Context retrieval failed: %v", err)
		return ""
	}
	res.Sources = sources
	return contextText
}

// readExisting returns the target's content and whether the file exists.
// Errors other than a missing file leave exists true so the append path
// surfaces them to the user.
func (c *Core) readExisting(ctx context.Context, target string) (string, bool) {
	out, err := c.Tools.Execute(ctx, "file_read", map[string]interface{}{"path": target})
	if err != nil {
		if errors.Is(err, tools.ErrFileNotFound) {
			return "", false
		}
		logging.OrNop(c.Logger).Warn("could not read target", zap.String("path", target), zap.Error(err))
		return "", !errors.Is(err, tools.ErrOutsideWorkspace)
	}
	content, _ := out.Data["content"].(string)
	return content, true
}

func (c *Core) writeCode(ctx context.Context, res *Result, exists bool, scope ToolScope) string {
	if !scope.AllowWrite {
		return fmt.Sprintf("❌ File operation failed: %s mode may not write files", res.Mode)
	}
	tool := "file_write"
	if exists {
		tool = "file_append"
	}
	_, err := c.Tools.Execute(ctx, tool, map[string]interface{}{
		"path":    res.Target,
		"content": res.Code,
	})
	if err != nil {
		logging.OrNop(c.Logger).Warn("file operation failed", zap.String("tool", tool), zap.Error(err))
		return fmt.Sprintf("❌ File operation failed: %v", err)
	}
	res.Written = true
	if exists {
		res.Appended = true
		return fmt.Sprintf("✅ Code appended to %s", res.Target)
	}
	return fmt.Sprintf("✅ Code written to %s", res.Target)
}

func (c *Core) temperature(mode Mode) float64 {
	if c.Temperature > 0 {
		return c.Temperature
	}
	return ProfileFor(mode).Temperature
}

// Render assembles the text shown to the user: body, sources, warning.
func (r *Result) Render() string {
	var b strings.Builder
	b.WriteString(r.Text)
	if len(r.Sources) > 0 {
		b.WriteString("\n\n📚 Sources:")
		for _, src := range r.Sources {
			b.WriteString("\n- ")
			b.WriteString(src)
		}
	}
	if r.Warning != "" {
		b.WriteString("\n\n")
		b.WriteString(r.Warning)
	}
	return strings.TrimLeft(b.String(), "\n")
}

func joinSections(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
