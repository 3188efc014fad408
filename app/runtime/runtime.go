// Package runtime wires configuration into the live components the CLI
// drives: model, embedding engine, vector index, retriever and agent core.
package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexcodex/djangoagent/agents"
	"github.com/lexcodex/djangoagent/embedding"
	"github.com/lexcodex/djangoagent/framework"
	"github.com/lexcodex/djangoagent/internal/logging"
	"github.com/lexcodex/djangoagent/llm"
	"github.com/lexcodex/djangoagent/persistence"
	"github.com/lexcodex/djangoagent/rag"
	"github.com/lexcodex/djangoagent/tools"
)

// Runtime owns every component of a chat or ask session.
type Runtime struct {
	Config    *agents.Config
	Logger    *zap.Logger
	Model     framework.LanguageModel
	Engine    embedding.Engine
	Store     persistence.VectorStore
	Retriever *rag.Retriever
	Workspace *tools.Workspace
	Core      *agents.Core
}

// New builds a runtime from cfg. The caller must Close it.
func New(ctx context.Context, cfg *agents.Config, logger *zap.Logger) (*Runtime, error) {
	logger = logging.OrNop(logger)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	ws, err := tools.NewWorkspace(cfg.Workspace.Root)
	if err != nil {
		return nil, err
	}
	base, err := llm.NewModel(ctx, cfg.ModelConfig(), logger.Named("llm"))
	if err != nil {
		return nil, err
	}
	model := llm.NewInstrumentedModel(base, logger.Named("llm"), cfg.LLM.Debug)

	engine, err := embedding.Shared(ctx, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding engine: %w", err)
	}
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	retriever := &rag.Retriever{Engine: engine, Store: store, Collection: cfg.RAG.Collection}

	core, err := agents.NewCore(model, retriever, ws, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	core.TopK = cfg.RAG.TopK
	core.ModelName = cfg.LLM.Model
	core.Temperature = cfg.LLM.Temperature

	return &Runtime{
		Config:    cfg,
		Logger:    logger,
		Model:     model,
		Engine:    engine,
		Store:     store,
		Retriever: retriever,
		Workspace: ws,
		Core:      core,
	}, nil
}

// OpenStore opens the SQLite index named by rag.index_path.
func OpenStore(cfg *agents.Config) (*persistence.SQLiteVectorStore, error) {
	store, err := persistence.NewSQLiteVectorStore(cfg.Resolve(cfg.RAG.IndexPath))
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	return store, nil
}

// Close releases the vector index.
func (r *Runtime) Close() error {
	if r == nil || r.Store == nil {
		return nil
	}
	return r.Store.Close()
}
