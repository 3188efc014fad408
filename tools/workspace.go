package tools

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

var (
	// ErrOutsideWorkspace is returned for paths that resolve outside the root.
	ErrOutsideWorkspace = errors.New("access outside workspace denied")
	// ErrFileExists is returned when a write would clobber an existing file.
	ErrFileExists = errors.New("file already exists")
	// ErrFileNotFound is returned when an operation needs an existing file.
	ErrFileNotFound = errors.New("file not found")
)

// FileToolError records which operation failed on which path. It unwraps to
// one of the sentinel errors above or to the underlying OS error.
type FileToolError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileToolError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Path)
}

func (e *FileToolError) Unwrap() error { return e.Err }

func fileErr(op, path string, err error) error {
	return &FileToolError{Op: op, Path: path, Err: err}
}

// Workspace confines file operations to a single directory tree.
type Workspace struct {
	Root string
}

// NewWorkspace resolves root to an absolute, symlink-free directory.
func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", resolved)
	}
	return &Workspace{Root: resolved}, nil
}

// Resolve maps a workspace-relative path to an absolute one, rejecting
// anything that lands outside the root, including through symlinks.
func (w *Workspace) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fileErr("resolve", path, errors.New("path required"))
	}
	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(w.Root, candidate)
	}
	candidate = filepath.Clean(candidate)
	resolved, err := evalExisting(candidate)
	if err != nil {
		return "", fileErr("resolve", path, err)
	}
	if !w.contains(resolved) {
		return "", fileErr("resolve", path, ErrOutsideWorkspace)
	}
	return resolved, nil
}

func (w *Workspace) contains(path string) bool {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// evalExisting evaluates symlinks on the longest existing prefix of path and
// re-attaches the part that does not exist yet.
func evalExisting(path string) (string, error) {
	var missing []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path, nil
		}
		missing = append(missing, filepath.Base(current))
		current = parent
	}
}

// Rel returns path relative to the root for display.
func (w *Workspace) Rel(path string) string {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil {
		return path
	}
	return rel
}

// Exists reports whether path names an existing file inside the workspace.
func (w *Workspace) Exists(path string) (bool, error) {
	full, err := w.Resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Read returns the UTF-8 content of an existing file.
func (w *Workspace) Read(path string) (string, error) {
	full, err := w.resolveExisting("read", path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fileErr("read", path, err)
	}
	if !isText(data) {
		return "", fileErr("read", path, errBinaryFile)
	}
	return string(data), nil
}

// Write creates a new file, making parent directories as needed. It never
// overwrites.
func (w *Workspace) Write(path, content string) error {
	full, err := w.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fileErr("write", path, err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fileErr("write", path, ErrFileExists)
		}
		return fileErr("write", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fileErr("write", path, err)
	}
	return f.Close()
}

// Append adds a blank line and content to the end of an existing file.
func (w *Workspace) Append(path, content string) error {
	full, err := w.resolveExisting("append", path)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fileErr("append", path, err)
	}
	if _, err := f.WriteString("\n\n" + content); err != nil {
		f.Close()
		return fileErr("append", path, err)
	}
	return f.Close()
}

// Update replaces an existing file and returns a unified diff of the change.
func (w *Workspace) Update(path, content string) (string, error) {
	full, err := w.resolveExisting("update", path)
	if err != nil {
		return "", err
	}
	old, err := os.ReadFile(full)
	if err != nil {
		return "", fileErr("update", path, err)
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(old)),
		B:        difflib.SplitLines(content),
		FromFile: "before",
		ToFile:   "after",
		Context:  3,
	})
	if err != nil {
		return "", fileErr("update", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return "", fileErr("update", path, err)
	}
	return diff, nil
}

// Delete removes an existing file.
func (w *Workspace) Delete(path string) error {
	full, err := w.resolveExisting("delete", path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return fileErr("delete", path, err)
	}
	return nil
}

func (w *Workspace) resolveExisting(op, path string) (string, error) {
	full, err := w.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fileErr(op, path, ErrFileNotFound)
		}
		return "", fileErr(op, path, err)
	}
	if info.IsDir() {
		return "", fileErr(op, path, fmt.Errorf("%s is a directory", path))
	}
	return full, nil
}
