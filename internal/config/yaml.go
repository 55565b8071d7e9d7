package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/viewbind/internal/ctxlog"
	"github.com/vk/viewbind/internal/expr"
)

// YAMLLoader reads .yaml, .yml and .json data files. The document root
// must be a mapping.
type YAMLLoader struct{}

// NewYAMLLoader creates a new YAML data loader.
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

// Load decodes the first document of the file at path.
func (l *YAMLLoader) Load(ctx context.Context, path string) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML data loader started.", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file %s: %w", path, err)
	}
	defer f.Close()

	data, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data file %s: %w", path, err)
	}
	logger.Debug("YAML data loading complete.", "keys", len(data))
	return data, nil
}

// Decode reads one YAML (or JSON) document. An empty input is an empty
// map.
func Decode(r io.Reader) (map[string]any, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("document root must be a mapping, line %d", root.Line)
	}

	var raw map[string]any
	if err := root.Decode(&raw); err != nil {
		return nil, err
	}
	data, _ := expr.Normalize(raw).(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}
