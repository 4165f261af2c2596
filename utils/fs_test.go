package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransferDirIsUnique(t *testing.T) {
	fs := NewFileOperations()
	base := t.TempDir()

	first, err := fs.NewTransferDir(base)
	require.NoError(t, err)
	second, err := fs.NewTransferDir(base)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.DirExists(t, first)
	assert.DirExists(t, second)
	assert.Equal(t, base, filepath.Dir(first))
}

func TestRemoveTransferDir(t *testing.T) {
	fs := NewFileOperations()
	base := t.TempDir()

	dir, err := fs.NewTransferDir(base)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("x"), 0644))

	require.NoError(t, fs.RemoveTransferDir(dir))
	assert.NoDirExists(t, dir)

	// Removing an already-removed dir is not an error.
	assert.NoError(t, fs.RemoveTransferDir(dir))
}

func TestEnsureDir(t *testing.T) {
	fs := NewFileOperations()
	path := filepath.Join(t.TempDir(), "a", "b", "c")

	require.NoError(t, fs.EnsureDir(path))
	assert.DirExists(t, path)

	// Idempotent.
	assert.NoError(t, fs.EnsureDir(path))
}

func TestFileExistsAndSize(t *testing.T) {
	fs := NewFileOperations()
	path := filepath.Join(t.TempDir(), "clip.mp4")

	assert.False(t, fs.FileExists(path))

	require.NoError(t, os.WriteFile(path, []byte("12345"), 0644))
	assert.True(t, fs.FileExists(path))

	size, err := fs.GetFileSize(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
}
