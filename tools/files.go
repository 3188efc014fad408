package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/lexcodex/djangoagent/framework"
)

var errBinaryFile = errors.New("binary file detected")

// ReadFileTool reads files from the workspace.
type ReadFileTool struct {
	Workspace *Workspace
}

func (t *ReadFileTool) Name() string        { return "file_read" }
func (t *ReadFileTool) Description() string { return "Reads a UTF-8 file from the workspace." }
func (t *ReadFileTool) Category() string    { return "file" }
func (t *ReadFileTool) Parameters() []framework.ToolParameter {
	return []framework.ToolParameter{{Name: "path", Type: "string", Required: true}}
}
func (t *ReadFileTool) Execute(ctx context.Context, args map[string]interface{}) (*framework.ToolResult, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return nil, err
	}
	content, err := t.Workspace.Read(path)
	if err != nil {
		return nil, err
	}
	return &framework.ToolResult{
		Success: true,
		Data: map[string]interface{}{
			"path":    path,
			"content": content,
		},
	}, nil
}

// WriteFileTool creates a new file. Existing files are never overwritten.
type WriteFileTool struct {
	Workspace *Workspace
}

func (t *WriteFileTool) Name() string        { return "file_write" }
func (t *WriteFileTool) Description() string { return "Creates a new file; fails if it exists." }
func (t *WriteFileTool) Category() string    { return "file" }
func (t *WriteFileTool) Parameters() []framework.ToolParameter {
	return []framework.ToolParameter{
		{Name: "path", Type: "string", Required: true},
		{Name: "content", Type: "string", Required: true},
	}
}
func (t *WriteFileTool) Execute(ctx context.Context, args map[string]interface{}) (*framework.ToolResult, error) {
	path, content, err := pathAndContent(args)
	if err != nil {
		return nil, err
	}
	if err := t.Workspace.Write(path, content); err != nil {
		return nil, err
	}
	return &framework.ToolResult{Success: true, Data: map[string]interface{}{"path": path}}, nil
}

// AppendFileTool extends an existing file.
type AppendFileTool struct {
	Workspace *Workspace
}

func (t *AppendFileTool) Name() string        { return "file_append" }
func (t *AppendFileTool) Description() string { return "Appends content to an existing file." }
func (t *AppendFileTool) Category() string    { return "file" }
func (t *AppendFileTool) Parameters() []framework.ToolParameter {
	return []framework.ToolParameter{
		{Name: "path", Type: "string", Required: true},
		{Name: "content", Type: "string", Required: true},
	}
}
func (t *AppendFileTool) Execute(ctx context.Context, args map[string]interface{}) (*framework.ToolResult, error) {
	path, content, err := pathAndContent(args)
	if err != nil {
		return nil, err
	}
	if err := t.Workspace.Append(path, content); err != nil {
		return nil, err
	}
	return &framework.ToolResult{Success: true, Data: map[string]interface{}{"path": path}}, nil
}

// UpdateFileTool replaces a file and reports the diff.
type UpdateFileTool struct {
	Workspace *Workspace
}

func (t *UpdateFileTool) Name() string        { return "file_update" }
func (t *UpdateFileTool) Description() string { return "Replaces an existing file and returns a unified diff." }
func (t *UpdateFileTool) Category() string    { return "file" }
func (t *UpdateFileTool) Parameters() []framework.ToolParameter {
	return []framework.ToolParameter{
		{Name: "path", Type: "string", Required: true},
		{Name: "content", Type: "string", Required: true},
	}
}
func (t *UpdateFileTool) Execute(ctx context.Context, args map[string]interface{}) (*framework.ToolResult, error) {
	path, content, err := pathAndContent(args)
	if err != nil {
		return nil, err
	}
	diff, err := t.Workspace.Update(path, content)
	if err != nil {
		return nil, err
	}
	return &framework.ToolResult{Success: true, Data: map[string]interface{}{"path": path, "diff": diff}}, nil
}

// DeleteFileTool removes a file.
type DeleteFileTool struct {
	Workspace *Workspace
}

func (t *DeleteFileTool) Name() string        { return "file_delete" }
func (t *DeleteFileTool) Description() string { return "Deletes an existing file." }
func (t *DeleteFileTool) Category() string    { return "file" }
func (t *DeleteFileTool) Parameters() []framework.ToolParameter {
	return []framework.ToolParameter{{Name: "path", Type: "string", Required: true}}
}
func (t *DeleteFileTool) Execute(ctx context.Context, args map[string]interface{}) (*framework.ToolResult, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return nil, err
	}
	if err := t.Workspace.Delete(path); err != nil {
		return nil, err
	}
	return &framework.ToolResult{Success: true, Data: map[string]interface{}{"path": path}}, nil
}

// ListFilesTool lists workspace files filtered by a glob on the base name.
type ListFilesTool struct {
	Workspace *Workspace
}

func (t *ListFilesTool) Name() string        { return "file_list" }
func (t *ListFilesTool) Description() string { return "Lists files recursively using glob filtering." }
func (t *ListFilesTool) Category() string    { return "file" }
func (t *ListFilesTool) Parameters() []framework.ToolParameter {
	return []framework.ToolParameter{
		{Name: "directory", Type: "string", Required: false, Default: "."},
		{Name: "pattern", Type: "string", Required: false, Default: "*"},
	}
}
func (t *ListFilesTool) Execute(ctx context.Context, args map[string]interface{}) (*framework.ToolResult, error) {
	dir := optionalArg(args, "directory", ".")
	pattern := optionalArg(args, "pattern", "*")
	root, err := t.Workspace.Resolve(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if match, _ := filepath.Match(pattern, d.Name()); match {
			files = append(files, t.Workspace.Rel(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &framework.ToolResult{Success: true, Data: map[string]interface{}{"files": files}}, nil
}

// FileOperations returns the workspace-confined file tools.
func FileOperations(ws *Workspace) []framework.Tool {
	return []framework.Tool{
		&ReadFileTool{Workspace: ws},
		&WriteFileTool{Workspace: ws},
		&AppendFileTool{Workspace: ws},
		&UpdateFileTool{Workspace: ws},
		&DeleteFileTool{Workspace: ws},
		&ListFilesTool{Workspace: ws},
	}
}

// NewFileRegistry registers FileOperations(ws) in a fresh registry.
func NewFileRegistry(ws *Workspace) (*framework.ToolRegistry, error) {
	registry := framework.NewToolRegistry()
	for _, tool := range FileOperations(ws) {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func stringArg(args map[string]interface{}, name string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", name, raw)
	}
	return s, nil
}

func optionalArg(args map[string]interface{}, name, fallback string) string {
	if s, err := stringArg(args, name); err == nil && s != "" {
		return s
	}
	return fallback
}

func pathAndContent(args map[string]interface{}) (string, string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", "", err
	}
	content, err := stringArg(args, "content")
	if err != nil {
		return "", "", err
	}
	return path, content, nil
}

func isText(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return false
		}
	}
	return true
}

