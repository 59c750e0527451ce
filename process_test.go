package entkit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("entityDef a { }\n"), 0o644))
	}
}

func TestProcessFilesWalksDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFiles(t, dir, "a.entities", "b.txt", "sub/c.entities")

	var mu sync.Mutex
	var seen []string
	failures, err := ProcessFiles(context.Background(), nil, []string{dir}, []string{".entities"}, func(path string) error {
		mu.Lock()
		seen = append(seen, filepath.Base(path))
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, failures)

	sort.Strings(seen)
	assert.Equal(t, []string{"a.entities", "c.entities"}, seen)
}

func TestProcessFilesSingleFileIgnoresExtensionFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFiles(t, dir, "map.txt")

	var seen []string
	failures, err := ProcessFiles(context.Background(), nil, []string{filepath.Join(dir, "map.txt")}, []string{".entities"}, func(path string) error {
		seen = append(seen, filepath.Base(path))
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, []string{"map.txt"}, seen)
}

func TestProcessFilesCollectsFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFiles(t, dir, "good.entities", "bad.entities")

	boom := errors.New("boom")
	failures, err := ProcessFiles(context.Background(), nil, []string{dir}, []string{".entities"}, func(path string) error {
		if filepath.Base(path) == "bad.entities" {
			return boom
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, filepath.Join(dir, "bad.entities"), failures[0].Path)
	assert.ErrorIs(t, failures[0].Err, boom)
}

func TestProcessFilesMissingPath(t *testing.T) {
	t.Parallel()

	_, err := ProcessFiles(context.Background(), nil, []string{filepath.Join(t.TempDir(), "absent")}, nil, func(string) error {
		return nil
	})
	assert.Error(t, err)
}
