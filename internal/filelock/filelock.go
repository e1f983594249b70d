// Package filelock guards an output tree against concurrent builds and writes
// destination files atomically.
package filelock

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created at the top of a locked output tree.
const LockFileName = ".xslprep.lock"

// ErrLocked is returned when another process holds the output lock.
var ErrLocked = errors.New("output directory is locked by another build")

// OutputLock is an exclusive, non-blocking lock on an output directory.
type OutputLock struct {
	flock *flock.Flock
	path  string
}

// NewOutputLock creates the output directory if needed and prepares its lock.
func NewOutputLock(outputDir string) (*OutputLock, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	path := filepath.Join(outputDir, LockFileName)
	return &OutputLock{flock: flock.New(path), path: path}, nil
}

// Path returns the lock file location.
func (l *OutputLock) Path() string { return l.path }

// Acquire takes the lock or fails with ErrLocked without waiting.
func (l *OutputLock) Acquire() error {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock on %s: %w", l.path, err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrLocked, l.path)
	}
	return nil
}

// Release drops the lock. The lock file stays so every process locks the
// same inode.
func (l *OutputLock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// AtomicWrite writes data to path through a temp file and rename, so readers
// never see a partial file.
func AtomicWrite(path string, data []byte) error {
	return AtomicWriteFunc(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// AtomicWriteFunc streams the content produced by write into path atomically.
// Parent directories are created on demand. On failure the previous file, if
// any, is left untouched.
func AtomicWriteFunc(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// same directory keeps the rename on one filesystem
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if err := write(tempFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}
