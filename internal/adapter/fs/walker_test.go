package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestWalker_DefaultIncludes(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	writeFile(t, filepath.Join(root, "reviews_20260102_000000.json"), base.Add(2*time.Hour))
	writeFile(t, filepath.Join(root, "cafe", "reviews_20260101_000000.json"), base.Add(time.Hour))
	writeFile(t, filepath.Join(root, "notes.json"), base)
	writeFile(t, filepath.Join(root, "reviews.csv"), base)

	files, err := NewWalker(nil, nil).Walk(root)
	require.NoError(t, err)
	require.Len(t, files, 2)

	// Oldest first.
	assert.Equal(t, filepath.Join(root, "cafe", "reviews_20260101_000000.json"), files[0].Path)
	assert.Equal(t, filepath.Join(root, "reviews_20260102_000000.json"), files[1].Path)
}

func TestWalker_Excludes(t *testing.T) {
	root := t.TempDir()
	now := time.Now()

	writeFile(t, filepath.Join(root, "keep", "a.json"), now)
	writeFile(t, filepath.Join(root, "skip", "b.json"), now)

	files, err := NewWalker([]string{"**/*.json"}, []string{"skip/"}).Walk(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(root, "keep", "a.json"), files[0].Path)
}

func TestWalker_SingleFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "anything.json")
	writeFile(t, path, time.Now())

	files, err := NewWalker(nil, nil).Walk(path)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, path, files[0].Path)
	assert.Equal(t, int64(2), files[0].Size)
}

func TestWalker_MissingRoot(t *testing.T) {
	_, err := NewWalker(nil, nil).Walk(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
