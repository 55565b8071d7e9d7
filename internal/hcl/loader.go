package hcl

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/viewbind/internal/ctxlog"
)

// Loader reads a data context from an .hcl file made of top-level
// attributes only:
//
//	title = "Hello"
//	items = [{ text = "first" }, { text = "second", done = true }]
type Loader struct{}

// NewLoader creates a new HCL data loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses path and evaluates every attribute without variables or
// functions.
func (l *Loader) Load(ctx context.Context, path string) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL data loader started.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to read attributes of %s: %w", path, diags)
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	data := make(map[string]any, len(attrs))
	for _, name := range names {
		val, diags := attrs[name].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate attribute %q in %s: %w", name, path, diags)
		}
		v, err := FromCtyValue(val)
		if err != nil {
			return nil, fmt.Errorf("failed to convert attribute %q in %s: %w", name, path, err)
		}
		data[name] = v
	}
	logger.Debug("HCL data loading complete.", "attributes", len(data))
	return data, nil
}
