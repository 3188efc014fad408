package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lexcodex/djangoagent/embedding"
	"github.com/lexcodex/djangoagent/persistence"
)

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = 4

// Retriever embeds a query and looks up its nearest chunks.
type Retriever struct {
	Engine     embedding.Engine
	Store      persistence.VectorStore
	Collection string
}

// Retrieve returns the top-k chunk texts joined by a blank line and the
// de-duplicated source names in first-seen order. A collection that was never
// built yields empty results, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (string, []string, error) {
	if r == nil || r.Store == nil || r.Engine == nil {
		return "", nil, errors.New("retriever is not configured")
	}
	if k <= 0 {
		k = DefaultTopK
	}
	collection := r.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	if _, err := r.Store.Count(ctx, collection); err != nil {
		if errors.Is(err, persistence.ErrCollectionNotFound) {
			return "", nil, nil
		}
		return "", nil, err
	}
	vector, err := embedding.EmbedQuery(ctx, r.Engine, query)
	if err != nil {
		return "", nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := r.Store.Query(ctx, collection, vector, k)
	if err != nil {
		return "", nil, err
	}
	contexts := make([]string, 0, len(results))
	var sources []string
	seen := make(map[string]struct{}, len(results))
	for _, res := range results {
		contexts = append(contexts, res.Record.Content)
		src := res.Record.Source()
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}
	return strings.Join(contexts, "\n\n"), sources, nil
}
