package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileOperations provides file system utilities
type FileOperations struct{}

// NewFileOperations creates a new FileOperations instance
func NewFileOperations() *FileOperations {
	return &FileOperations{}
}

// EnsureDir creates a directory if it doesn't exist
func (f *FileOperations) EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// NewTransferDir creates a unique working subdirectory under base. Each
// in-flight transfer gets its own directory so concurrent batches cannot
// collide on resolver-provided file names.
func (f *FileOperations) NewTransferDir(base string) (string, error) {
	dir := filepath.Join(base, uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create transfer dir: %w", err)
	}
	return dir, nil
}

// RemoveTransferDir removes a transfer working directory and its contents.
func (f *FileOperations) RemoveTransferDir(dir string) error {
	return os.RemoveAll(dir)
}

// FileExists checks if a file exists
func (f *FileOperations) FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetFileSize returns the size of a file
func (f *FileOperations) GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
