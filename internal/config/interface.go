package config

import "context"

// Loader is the interface for a format-specific data file loader.
type Loader interface {
	// Load reads the file at path and returns its top-level values.
	Load(ctx context.Context, path string) (map[string]any, error)
}
