package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		{ID: "0", Content: "models define fields", Metadata: map[string]string{"source": "models.txt"}, Embedding: []float32{1, 0, 0}},
		{ID: "1", Content: "views return responses", Metadata: map[string]string{"source": "views.txt"}, Embedding: []float32{0, 1, 0}},
		{ID: "2", Content: "model meta options", Metadata: map[string]string{"source": "models.txt"}, Embedding: []float32{0.9, 0.1, 0}},
	}
}

// exerciseStore runs the shared contract against any VectorStore.
func exerciseStore(t *testing.T, store VectorStore) {
	ctx := context.Background()

	_, err := store.Query(ctx, "django_docs", []float32{1, 0, 0}, 2)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
	_, err = store.Count(ctx, "django_docs")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
	assert.ErrorIs(t, store.Add(ctx, "django_docs", sampleRecords()), ErrCollectionNotFound)

	require.NoError(t, store.EnsureCollection(ctx, "django_docs"))
	require.NoError(t, store.EnsureCollection(ctx, "django_docs"))
	require.NoError(t, store.Add(ctx, "django_docs", sampleRecords()))

	count, err := store.Count(ctx, "django_docs")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	results, err := store.Query(ctx, "django_docs", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "0", results[0].Record.ID)
	assert.Equal(t, "2", results[1].Record.ID)
	assert.Equal(t, "models.txt", results[0].Record.Source())
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)

	// Replace by id keeps the count stable.
	require.NoError(t, store.Add(ctx, "django_docs", []Record{
		{ID: "1", Content: "views updated", Metadata: map[string]string{"source": "views.txt"}, Embedding: []float32{0, 1, 0}},
	}))
	count, err = store.Count(ctx, "django_docs")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	peek, err := store.Peek(ctx, "django_docs", 1)
	require.NoError(t, err)
	require.Len(t, peek, 1)
	assert.Equal(t, "models.txt", peek[0].Metadata["source"])

	names, err := store.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"django_docs"}, names)

	require.NoError(t, store.DeleteCollection(ctx, "django_docs"))
	_, err = store.Count(ctx, "django_docs")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestInMemoryVectorStore(t *testing.T) {
	exerciseStore(t, NewInMemoryVectorStore())
}

func TestSQLiteVectorStore(t *testing.T) {
	store, err := NewSQLiteVectorStore(filepath.Join(t.TempDir(), "db", "index.sqlite"))
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestSQLiteVectorStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.sqlite")

	store, err := NewSQLiteVectorStore(path)
	require.NoError(t, err)
	require.NoError(t, store.EnsureCollectionWithBuild(ctx, "django_docs", "build-1"))
	require.NoError(t, store.Add(ctx, "django_docs", sampleRecords()))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteVectorStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	buildID, err := reopened.BuildID(ctx, "django_docs")
	require.NoError(t, err)
	assert.Equal(t, "build-1", buildID)

	results, err := reopened.Query(ctx, "django_docs", []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "views return responses", results[0].Record.Content)
	assert.Equal(t, []float32{0, 1, 0}, results[0].Record.Embedding)
}

func TestSQLiteVectorStoreRetagsOnBuild(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteVectorStore(filepath.Join(t.TempDir(), "index.sqlite"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.EnsureCollectionWithBuild(ctx, "django_docs", "build-1"))
	require.NoError(t, store.EnsureCollectionWithBuild(ctx, "django_docs", "build-2"))
	buildID, err := store.BuildID(ctx, "django_docs")
	require.NoError(t, err)
	assert.Equal(t, "build-2", buildID)

	require.NoError(t, store.EnsureCollection(ctx, "django_docs"))
	buildID, err = store.BuildID(ctx, "django_docs")
	require.NoError(t, err)
	assert.Equal(t, "build-2", buildID)
}

func TestSQLiteDeleteCascadesOnFreshConnections(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteVectorStore(filepath.Join(t.TempDir(), "index.sqlite"))
	require.NoError(t, err)
	defer store.Close()
	// Every statement below runs on a newly opened connection.
	store.db.SetMaxIdleConns(0)

	var enabled int
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)

	require.NoError(t, store.EnsureCollection(ctx, "django_docs"))
	require.NoError(t, store.Add(ctx, "django_docs", sampleRecords()))
	require.NoError(t, store.DeleteCollection(ctx, "django_docs"))
	require.NoError(t, store.EnsureCollection(ctx, "django_docs"))
	require.NoError(t, store.Add(ctx, "django_docs", sampleRecords()[:1]))

	n, err := store.Count(ctx, "django_docs")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVectorCodecRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3}
	decoded, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestRankRecordsSkipsDimensionMismatch(t *testing.T) {
	records := []Record{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{1, 0, 0}},
	}
	results := rankRecords(records, []float32{1, 0}, 0)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Record.ID)
}
