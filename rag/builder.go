package rag

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexcodex/djangoagent/embedding"
	"github.com/lexcodex/djangoagent/persistence"
)

// DefaultCollection is the collection the documentation index lives in.
const DefaultCollection = "django_docs"

// SetupOptions configures a full index build.
type SetupOptions struct {
	DocsDir      string
	Collection   string
	ChunkSize    int
	ChunkOverlap int
	// Rebuild drops the collection before adding records.
	Rebuild bool
}

// SetupReport summarizes a completed build.
type SetupReport struct {
	BuildID    string
	Collection string
	Documents  int
	Chunks     int
	Records    int
}

// buildTagger is implemented by stores that can record a build id on the
// collection they create.
type buildTagger interface {
	EnsureCollectionWithBuild(ctx context.Context, name, buildID string) error
}

// BuildVectorStore embeds every chunk and adds it to collection with ids
// "0".."n-1" and the chunk's source as metadata. It returns the number of
// records written.
func BuildVectorStore(ctx context.Context, chunks []Chunk, engine embedding.Engine, store persistence.VectorStore, collection, buildID string) (int, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	if tagger, ok := store.(buildTagger); ok && buildID != "" {
		if err := tagger.EnsureCollectionWithBuild(ctx, collection, buildID); err != nil {
			return 0, err
		}
	} else if err := store.EnsureCollection(ctx, collection); err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := engine.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding engine returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	records := make([]persistence.Record, len(chunks))
	for i, c := range chunks {
		records[i] = persistence.Record{
			ID:        strconv.Itoa(i),
			Content:   c.Text,
			Metadata:  map[string]string{"source": c.Source},
			Embedding: vectors[i],
		}
	}
	if err := store.Add(ctx, collection, records); err != nil {
		return 0, fmt.Errorf("add records: %w", err)
	}
	return len(records), nil
}

// Setup runs load -> split -> build and reports what it did.
func Setup(ctx context.Context, opts SetupOptions, engine embedding.Engine, store persistence.VectorStore, logger *zap.Logger) (*SetupReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	collection := opts.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	splitter, err := NewSplitter(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	report := &SetupReport{BuildID: uuid.NewString(), Collection: collection}

	logger.Info("loading documents", zap.String("dir", opts.DocsDir))
	docs, err := LoadDocuments(ctx, opts.DocsDir, logger)
	if err != nil {
		return nil, err
	}
	report.Documents = len(docs)

	logger.Info("splitting documents", zap.Int("documents", len(docs)))
	chunks := splitter.SplitDocuments(docs)
	report.Chunks = len(chunks)

	if opts.Rebuild {
		logger.Info("dropping existing collection", zap.String("collection", collection))
		if err := store.DeleteCollection(ctx, collection); err != nil {
			return nil, err
		}
	}

	logger.Info("building vector store", zap.Int("chunks", len(chunks)), zap.String("engine", engine.Name()))
	n, err := BuildVectorStore(ctx, chunks, engine, store, collection, report.BuildID)
	if err != nil {
		return nil, err
	}
	report.Records = n
	logger.Info("rag setup complete", zap.String("build_id", report.BuildID), zap.Int("records", n))
	return report, nil
}
