package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lexcodex/djangoagent/embedding"
	"github.com/lexcodex/djangoagent/persistence"
)

// VerifyQuery is the probe used to check retrieval end to end.
const VerifyQuery = "How to create Django models?"

// CollectionReport describes one collection found in the index.
type CollectionReport struct {
	Name           string
	Count          int
	SampleMetadata map[string]string
}

// VerifyReport is the outcome of inspecting an on-disk index.
type VerifyReport struct {
	IndexPath     string
	Exists        bool
	SizeBytes     int64
	Collections   []CollectionReport
	Query         string
	Retrieved     int
	Preview       string
	PreviewSource string
	Problems      []string
}

// Healthy reports whether the index exists, has data and answered the probe.
func (r *VerifyReport) Healthy() bool {
	return r.Exists && len(r.Problems) == 0
}

// Verify inspects the SQLite index at path without creating it when missing,
// then runs a probe query against collection.
func Verify(ctx context.Context, path, collection string, engine embedding.Engine) (*VerifyReport, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	report := &VerifyReport{IndexPath: path, Query: VerifyQuery}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			report.Problems = append(report.Problems, "vector index does not exist")
			return report, nil
		}
		return nil, err
	}
	report.Exists = true
	report.SizeBytes = info.Size()

	store, err := persistence.NewSQLiteVectorStore(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer store.Close()
	return report, inspect(ctx, report, store, collection, engine)
}

func inspect(ctx context.Context, report *VerifyReport, store persistence.VectorStore, collection string, engine embedding.Engine) error {
	names, err := store.Collections(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		report.Problems = append(report.Problems, "no collections found; the index exists but is empty")
		return nil
	}
	for _, name := range names {
		count, err := store.Count(ctx, name)
		if err != nil {
			return err
		}
		cr := CollectionReport{Name: name, Count: count}
		if count > 0 {
			sample, err := store.Peek(ctx, name, 1)
			if err != nil {
				return err
			}
			if len(sample) > 0 {
				cr.SampleMetadata = sample[0].Metadata
			}
		}
		report.Collections = append(report.Collections, cr)
	}

	vector, err := embedding.EmbedQuery(ctx, engine, report.Query)
	if err != nil {
		report.Problems = append(report.Problems, fmt.Sprintf("embedding the probe query failed: %v", err))
		return nil
	}
	results, err := store.Query(ctx, collection, vector, 3)
	if err != nil {
		if errors.Is(err, persistence.ErrCollectionNotFound) {
			report.Problems = append(report.Problems, fmt.Sprintf("collection %q not found", collection))
			return nil
		}
		return err
	}
	report.Retrieved = len(results)
	if len(results) == 0 {
		report.Problems = append(report.Problems, fmt.Sprintf("collection %q returned no results", collection))
		return nil
	}
	report.Preview = previewText(results[0].Record.Content, 200)
	report.PreviewSource = results[0].Record.Source()
	return nil
}

// Print writes a human-readable report with suggested actions.
func (r *VerifyReport) Print(w io.Writer) {
	fmt.Fprintf(w, "Vector index: %s\n", r.IndexPath)
	fmt.Fprintf(w, "  exists: %v", r.Exists)
	if r.Exists {
		fmt.Fprintf(w, " (%d bytes)", r.SizeBytes)
	}
	fmt.Fprintln(w)
	for _, c := range r.Collections {
		fmt.Fprintf(w, "Collection %s: %d records\n", c.Name, c.Count)
		if len(c.SampleMetadata) > 0 {
			fmt.Fprintf(w, "  sample metadata: %v\n", c.SampleMetadata)
		}
	}
	if r.Retrieved > 0 {
		fmt.Fprintf(w, "Query %q retrieved %d results\n", r.Query, r.Retrieved)
		fmt.Fprintf(w, "  first result: %s...\n", r.Preview)
		fmt.Fprintf(w, "  source: %s\n", r.PreviewSource)
	}
	if r.Healthy() {
		fmt.Fprintln(w, "Vector index is working correctly.")
		return
	}
	fmt.Fprintln(w, "Vector index is NOT working:")
	for _, p := range r.Problems {
		fmt.Fprintf(w, "  - %s\n", p)
	}
	fmt.Fprintln(w, "Suggested actions:")
	fmt.Fprintln(w, "  1. Re-run: djangoagent index --rebuild")
	fmt.Fprintln(w, "  2. Check the embedding model is pulled and the server is reachable")
	fmt.Fprintln(w, "  3. Ensure the docs directory has .txt files")
}

func previewText(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max])
}
