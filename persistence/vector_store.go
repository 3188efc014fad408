package persistence

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/lexcodex/djangoagent/embedding"
)

// ErrCollectionNotFound is returned when a query names a collection that was
// never built.
var ErrCollectionNotFound = errors.New("collection not found")

// Record is one stored chunk: its text, metadata and embedding.
type Record struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// Source returns the "source" metadata entry.
func (r Record) Source() string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata["source"]
}

// SearchResult contains similarity info.
type SearchResult struct {
	Record Record
	Score  float64
}

// VectorStore persists embedded chunks grouped into named collections and
// answers nearest-neighbour queries against them.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string) error
	Add(ctx context.Context, collection string, records []Record) error
	Query(ctx context.Context, collection string, vector []float32, limit int) ([]SearchResult, error)
	Count(ctx context.Context, collection string) (int, error)
	Peek(ctx context.Context, collection string, limit int) ([]Record, error)
	Collections(ctx context.Context) ([]string, error)
	DeleteCollection(ctx context.Context, name string) error
	Close() error
}

// InMemoryVectorStore implements VectorStore with maps. Nothing survives the
// process; it backs tests.
type InMemoryVectorStore struct {
	mu          sync.RWMutex
	collections map[string][]Record
}

// NewInMemoryVectorStore returns a ready-to-use store.
func NewInMemoryVectorStore() *InMemoryVectorStore {
	return &InMemoryVectorStore{
		collections: make(map[string][]Record),
	}
}

// EnsureCollection creates the collection if it is missing.
func (s *InMemoryVectorStore) EnsureCollection(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return errors.New("collection name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = nil
	}
	return nil
}

// Add stores records, replacing any with the same id.
func (s *InMemoryVectorStore) Add(ctx context.Context, collection string, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.collections[collection]
	if !ok {
		return ErrCollectionNotFound
	}
	index := make(map[string]int, len(existing))
	for i, rec := range existing {
		index[rec.ID] = i
	}
	for _, rec := range records {
		if rec.ID == "" {
			return errors.New("record id required")
		}
		if i, ok := index[rec.ID]; ok {
			existing[i] = rec
			continue
		}
		index[rec.ID] = len(existing)
		existing = append(existing, rec)
	}
	s.collections[collection] = existing
	return nil
}

// Query ranks records by cosine similarity to vector.
func (s *InMemoryVectorStore) Query(ctx context.Context, collection string, vector []float32, limit int) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.collections[collection]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	return rankRecords(records, vector, limit), nil
}

// Count reports the number of records in a collection.
func (s *InMemoryVectorStore) Count(ctx context.Context, collection string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.collections[collection]
	if !ok {
		return 0, ErrCollectionNotFound
	}
	return len(records), nil
}

// Peek returns up to limit records in insertion order.
func (s *InMemoryVectorStore) Peek(ctx context.Context, collection string, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.collections[collection]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}
	out := make([]Record, limit)
	copy(out, records[:limit])
	return out, nil
}

// Collections lists collection names in sorted order.
func (s *InMemoryVectorStore) Collections(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteCollection removes a collection and its records.
func (s *InMemoryVectorStore) DeleteCollection(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// Close is a no-op.
func (s *InMemoryVectorStore) Close() error { return nil }

// rankRecords scores every record against vector and keeps the top limit.
// Records whose dimension differs from the query are skipped.
func rankRecords(records []Record, vector []float32, limit int) []SearchResult {
	if limit <= 0 {
		limit = 4
	}
	results := make([]SearchResult, 0, len(records))
	for _, rec := range records {
		score, err := embedding.CosineSimilarity(vector, rec.Embedding)
		if err != nil {
			continue
		}
		results = append(results, SearchResult{Record: rec, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
