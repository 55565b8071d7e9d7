// Package fsutil provides file system utility functions.
package fsutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/viewbind/internal/ctxlog"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns their full paths, sorted.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Resolve takes a path and returns the files it names. A file path must
// carry one of the extensions; a directory is scanned recursively for them.
func Resolve(ctx context.Context, path string, extensions ...string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving path.", "path", path, "extensions", extensions)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("path not found: %s: %w", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if !info.IsDir() {
		logger.Debug("Path is a single file.", "file", path)
		if !hasExtension(path, extensions) {
			return nil, fmt.Errorf("unsupported file extension: %s", path)
		}
		return []string{path}, nil
	}

	logger.Debug("Path is a directory, scanning for files.", "directory", path)
	var files []string
	for _, ext := range extensions {
		found, err := FindFilesByExtension(path, ext)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	sort.Strings(files)
	return files, nil
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
