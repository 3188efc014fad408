// Package rag turns a directory of Django documentation into an embedded,
// queryable index and retrieves context for prompts from it.
package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrDocsNotFound is returned when the documentation directory is missing.
	ErrDocsNotFound = errors.New("documentation path not found")
	// ErrNoDocuments is returned when the directory holds no .txt files.
	ErrNoDocuments = errors.New("no .txt files found")
)

// Document is one loaded documentation file.
type Document struct {
	Text   string
	Source string
}

// LoadDocuments reads every *.txt file directly inside dir. Empty files are
// skipped, unreadable ones are logged and skipped.
func LoadDocuments(ctx context.Context, dir string, logger *zap.Logger) ([]Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDocsNotFound, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDocsNotFound, dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in: %s", ErrNoDocuments, dir)
	}
	sort.Strings(files)
	logger.Info("found documentation files", zap.Int("count", len(files)), zap.String("dir", dir))

	docs := make([]Document, 0, len(files))
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("could not load document", zap.String("file", filepath.Base(path)), zap.Error(err))
			continue
		}
		text := string(data)
		if strings.TrimSpace(text) != "" {
			docs = append(docs, Document{Text: text, Source: filepath.Base(path)})
		}
		if (i+1)%20 == 0 {
			logger.Info("loading documents", zap.Int("done", i+1), zap.Int("total", len(files)))
		}
	}
	return docs, nil
}
