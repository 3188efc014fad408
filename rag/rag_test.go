package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lexcodex/djangoagent/persistence"
)

// keywordEngine embeds text as counts of a fixed vocabulary so similarity is
// predictable in tests.
type keywordEngine struct {
	vocab []string
	calls int
	err   error
}

func newKeywordEngine() *keywordEngine {
	return &keywordEngine{vocab: []string{"model", "view", "url", "form", "template"}}
}

func (e *keywordEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.vocab)+1)
	for i, w := range e.vocab {
		vec[i] = float32(strings.Count(lower, w))
	}
	vec[len(e.vocab)] = 0.01
	return vec, nil
}

func (e *keywordEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *keywordEngine) Dimensions() int { return len(e.vocab) + 1 }
func (e *keywordEngine) Name() string    { return "keyword" }

// queryKeywordEngine records the texts embedded as search queries.
type queryKeywordEngine struct {
	*keywordEngine
	queries []string
}

func (e *queryKeywordEngine) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.queries = append(e.queries, text)
	return e.keywordEngine.Embed(ctx, text)
}

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadDocumentsSkipsEmptyAndNonText(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"models.txt": "Django models map to tables.",
		"empty.txt":  "   \n",
		"notes.md":   "ignored",
		"views.txt":  "Views return responses.",
	})
	docs, err := LoadDocuments(context.Background(), dir, nil)
	require.NoError(t, err)
	want := []Document{
		{Text: "Django models map to tables.", Source: "models.txt"},
		{Text: "Views return responses.", Source: "views.txt"},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Fatalf("documents mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDocumentsErrors(t *testing.T) {
	_, err := LoadDocuments(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	assert.ErrorIs(t, err, ErrDocsNotFound)

	dir := writeDocs(t, map[string]string{"readme.md": "x"})
	_, err = LoadDocuments(context.Background(), dir, nil)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestLoadDocumentsLogsProgress(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 40; i++ {
		files[filepath.Base(t.Name())+string(rune('a'+i%26))+string(rune('a'+i/26))+".txt"] = "content"
	}
	dir := writeDocs(t, files)
	core, logs := observer.New(zap.InfoLevel)
	docs, err := LoadDocuments(context.Background(), dir, zap.New(core))
	require.NoError(t, err)
	assert.Len(t, docs, 40)
	assert.Equal(t, 2, logs.FilterMessage("loading documents").Len())
}

func TestNewSplitterValidates(t *testing.T) {
	_, err := NewSplitter(0, 0)
	assert.Error(t, err)
	_, err = NewSplitter(10, -1)
	assert.Error(t, err)
	_, err = NewSplitter(10, 10)
	assert.Error(t, err)
	s, err := NewSplitter(800, 100)
	require.NoError(t, err)
	assert.Equal(t, DefaultSeparators, s.Separators)
}

func TestSplitTextShortTextIsOneChunk(t *testing.T) {
	s, err := NewSplitter(800, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello Django."}, s.SplitText("  Hello Django.  "))
	assert.Empty(t, s.SplitText("   "))
}

func TestSplitTextPrefersParagraphs(t *testing.T) {
	s, err := NewSplitter(20, 0)
	require.NoError(t, err)
	got := s.SplitText("first para\n\nsecond para\n\nthird")
	want := []string{"first para", "second para\n\nthird"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitTextRespectsSizeAndOverlap(t *testing.T) {
	s, err := NewSplitter(10, 4)
	require.NoError(t, err)
	got := s.SplitText("aa bb cc dd ee ff")
	for _, chunk := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 10)
		assert.NotEmpty(t, chunk)
	}
	want := []string{"aa bb cc", "cc dd ee", "ee ff"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitTextFallsBackToRunes(t *testing.T) {
	s, err := NewSplitter(4, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, s.SplitText("abcdefghij"))
}

func TestSplitDocumentsKeepsSource(t *testing.T) {
	s, err := NewSplitter(800, 100)
	require.NoError(t, err)
	chunks := s.SplitDocuments([]Document{{Text: "one", Source: "a.txt"}, {Text: "two", Source: "b.txt"}})
	want := []Chunk{{Text: "one", Source: "a.txt"}, {Text: "two", Source: "b.txt"}}
	if diff := cmp.Diff(want, chunks); diff != "" {
		t.Fatalf("chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildVectorStoreAssignsIDsAndSources(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewInMemoryVectorStore()
	chunks := []Chunk{
		{Text: "model fields", Source: "models.txt"},
		{Text: "view functions", Source: "views.txt"},
	}
	n, err := BuildVectorStore(ctx, chunks, newKeywordEngine(), store, "", "build-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := store.Peek(ctx, DefaultCollection, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "0", records[0].ID)
	assert.Equal(t, "1", records[1].ID)
	assert.Equal(t, "views.txt", records[1].Source())
}

func TestBuildVectorStoreSurfacesEmbeddingErrors(t *testing.T) {
	engine := newKeywordEngine()
	engine.err = errors.New("no model")
	_, err := BuildVectorStore(context.Background(), []Chunk{{Text: "x"}}, engine, persistence.NewInMemoryVectorStore(), "c", "")
	assert.ErrorContains(t, err, "no model")
}

func TestSetupBuildsAndRebuilds(t *testing.T) {
	ctx := context.Background()
	dir := writeDocs(t, map[string]string{
		"models.txt": "A model is the single source of truth about your data.",
		"urls.txt":   "A url pattern maps a path to a view.",
	})
	store := persistence.NewInMemoryVectorStore()
	opts := SetupOptions{DocsDir: dir, ChunkSize: 800, ChunkOverlap: 100}

	report, err := Setup(ctx, opts, newKeywordEngine(), store, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, report.BuildID)
	assert.Equal(t, DefaultCollection, report.Collection)
	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, 2, report.Chunks)
	assert.Equal(t, 2, report.Records)

	opts.Rebuild = true
	again, err := Setup(ctx, opts, newKeywordEngine(), store, nil)
	require.NoError(t, err)
	assert.NotEqual(t, report.BuildID, again.BuildID)
	count, err := store.Count(ctx, DefaultCollection)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSetupWithoutRebuildRecordsReportedBuild(t *testing.T) {
	ctx := context.Background()
	dir := writeDocs(t, map[string]string{"models.txt": "A model maps to a table."})
	store, err := persistence.NewSQLiteVectorStore(filepath.Join(t.TempDir(), "index.sqlite"))
	require.NoError(t, err)
	defer store.Close()
	opts := SetupOptions{DocsDir: dir, ChunkSize: 800, ChunkOverlap: 100}

	_, err = Setup(ctx, opts, newKeywordEngine(), store, nil)
	require.NoError(t, err)
	second, err := Setup(ctx, opts, newKeywordEngine(), store, nil)
	require.NoError(t, err)

	recorded, err := store.BuildID(ctx, DefaultCollection)
	require.NoError(t, err)
	assert.Equal(t, second.BuildID, recorded)
	count, err := store.Count(ctx, DefaultCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSetupMissingDocs(t *testing.T) {
	_, err := Setup(context.Background(), SetupOptions{DocsDir: filepath.Join(t.TempDir(), "nope"), ChunkSize: 800, ChunkOverlap: 100},
		newKeywordEngine(), persistence.NewInMemoryVectorStore(), nil)
	assert.ErrorIs(t, err, ErrDocsNotFound)
}

func seededRetriever(t *testing.T) *Retriever {
	t.Helper()
	store := persistence.NewInMemoryVectorStore()
	chunks := []Chunk{
		{Text: "Define a model by subclassing models.Model.", Source: "models.txt"},
		{Text: "Model managers add table-level methods to a model.", Source: "models.txt"},
		{Text: "A view takes a request and returns a response.", Source: "views.txt"},
		{Text: "Templates render context into html.", Source: "templates.txt"},
	}
	engine := newKeywordEngine()
	_, err := BuildVectorStore(context.Background(), chunks, engine, store, DefaultCollection, "")
	require.NoError(t, err)
	return &Retriever{Engine: engine, Store: store}
}

func TestRetrieveJoinsContextAndDedupesSources(t *testing.T) {
	r := seededRetriever(t)
	ctxText, sources, err := r.Retrieve(context.Background(), "how do I write a model", 2)
	require.NoError(t, err)
	parts := strings.Split(ctxText, "\n\n")
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0], "model")
	assert.Equal(t, []string{"models.txt"}, sources)
}

func TestRetrieveEmbedsQueryAsQuery(t *testing.T) {
	r := seededRetriever(t)
	engine := &queryKeywordEngine{keywordEngine: newKeywordEngine()}
	r.Engine = engine
	_, sources, err := r.Retrieve(context.Background(), "how do I write a model", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"models.txt"}, sources)
	assert.Equal(t, []string{"how do I write a model"}, engine.queries)

	path := filepath.Join(t.TempDir(), "index.db")
	store, err := persistence.NewSQLiteVectorStore(path)
	require.NoError(t, err)
	_, err = BuildVectorStore(context.Background(), []Chunk{{Text: "model", Source: "models.txt"}}, newKeywordEngine(), store, DefaultCollection, "b1")
	require.NoError(t, err)
	require.NoError(t, store.Close())
	_, err = Verify(context.Background(), path, DefaultCollection, engine)
	require.NoError(t, err)
	assert.Equal(t, VerifyQuery, engine.queries[1])
}

func TestRetrieveDefaultsTopK(t *testing.T) {
	r := seededRetriever(t)
	ctxText, sources, err := r.Retrieve(context.Background(), "model view template", 0)
	require.NoError(t, err)
	assert.Len(t, strings.Split(ctxText, "\n\n"), DefaultTopK)
	assert.ElementsMatch(t, []string{"models.txt", "views.txt", "templates.txt"}, sources)
}

func TestRetrieveMissingCollectionIsEmpty(t *testing.T) {
	engine := newKeywordEngine()
	r := &Retriever{Engine: engine, Store: persistence.NewInMemoryVectorStore(), Collection: "absent"}
	ctxText, sources, err := r.Retrieve(context.Background(), "model", 4)
	require.NoError(t, err)
	assert.Empty(t, ctxText)
	assert.Empty(t, sources)
	assert.Zero(t, engine.calls)
}

func TestRetrieveUnconfigured(t *testing.T) {
	var r *Retriever
	_, _, err := r.Retrieve(context.Background(), "x", 1)
	assert.Error(t, err)
}

func TestVerifyMissingIndex(t *testing.T) {
	report, err := Verify(context.Background(), filepath.Join(t.TempDir(), "index.db"), "", newKeywordEngine())
	require.NoError(t, err)
	assert.False(t, report.Exists)
	assert.False(t, report.Healthy())
	assert.NotEmpty(t, report.Problems)
}

func TestVerifyHealthyIndex(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")
	store, err := persistence.NewSQLiteVectorStore(path)
	require.NoError(t, err)
	_, err = BuildVectorStore(ctx, []Chunk{
		{Text: "Create a model class for each table.", Source: "models.txt"},
		{Text: "Views handle requests.", Source: "views.txt"},
	}, newKeywordEngine(), store, DefaultCollection, "b1")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	report, err := Verify(ctx, path, DefaultCollection, newKeywordEngine())
	require.NoError(t, err)
	assert.True(t, report.Healthy(), report.Problems)
	require.Len(t, report.Collections, 1)
	assert.Equal(t, 2, report.Collections[0].Count)
	assert.Equal(t, "models.txt", report.Collections[0].SampleMetadata["source"])
	assert.Equal(t, 2, report.Retrieved)
	assert.Equal(t, "models.txt", report.PreviewSource)

	var out strings.Builder
	report.Print(&out)
	assert.Contains(t, out.String(), "working correctly")
}

func TestVerifyEmptyIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	store, err := persistence.NewSQLiteVectorStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	report, err := Verify(context.Background(), path, "", newKeywordEngine())
	require.NoError(t, err)
	assert.True(t, report.Exists)
	assert.False(t, report.Healthy())

	var out strings.Builder
	report.Print(&out)
	assert.Contains(t, out.String(), "djangoagent index --rebuild")
}
