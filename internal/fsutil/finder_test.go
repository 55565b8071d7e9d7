package fsutil_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/viewbind/internal/fsutil"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("<p></p>"), 0o600))
	}
}

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.html", "a.html", "notes.txt", "sub/c.html")

	files, err := fsutil.FindFilesByExtension(dir, ".html")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.html"),
		filepath.Join(dir, "b.html"),
		filepath.Join(dir, "sub", "c.html"),
	}, files)

	assert.Panics(t, func() { _, _ = fsutil.FindFilesByExtension(dir, "") })
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFiles(t, dir, "index.html", "page.htm", "data.yaml")

	t.Run("directory", func(t *testing.T) {
		files, err := fsutil.Resolve(ctx, dir, ".html", ".htm")
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "index.html"), filepath.Join(dir, "page.htm")}, files)
	})

	t.Run("single file", func(t *testing.T) {
		path := filepath.Join(dir, "index.html")
		files, err := fsutil.Resolve(ctx, path, ".html")
		require.NoError(t, err)
		assert.Equal(t, []string{path}, files)
	})

	t.Run("wrong extension", func(t *testing.T) {
		_, err := fsutil.Resolve(ctx, filepath.Join(dir, "data.yaml"), ".html")
		require.ErrorContains(t, err, "unsupported file extension")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := fsutil.Resolve(ctx, filepath.Join(dir, "nope"), ".html")
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
