package lockedfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/oshokin/lost-alarm/internal/config"
)

// lockRetryDelay is how often a contended OS lock is retried.
const lockRetryDelay = 10 * time.Millisecond

// errNotLocked is returned when the OS lock could not be acquired before ctx ended.
var errNotLocked = errors.New("file lock not acquired")

// File is a newline-delimited text file guarded by process and OS locks.
type File struct {
	// path is the data file location.
	path string
	// osLock is the exclusive advisory lock on path + ".lock". Readers open
	// their own handle so one reader's unlock cannot drop another's lock.
	osLock *flock.Flock
	// mu serializes goroutines of this process; flock alone is per file description.
	mu sync.RWMutex
}

// New returns a File for path. Nothing is created until the first locked call.
func New(path string) *File {
	path = filepath.Clean(path)

	return &File{
		path:   path,
		osLock: flock.New(path + ".lock"),
	}
}

// Path returns the data file location.
func (f *File) Path() string {
	return f.path
}

// WithLock runs fn while holding the exclusive lock.
func (f *File) WithLock(ctx context.Context, fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.withOSLock(ctx, f.osLock, f.osLock.TryLockContext, fn)
}

// WithRLock runs fn while holding the shared lock.
func (f *File) WithRLock(ctx context.Context, fn func() error) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	shared := flock.New(f.osLock.Path())

	return f.withOSLock(ctx, shared, shared.TryRLockContext, fn)
}

// withOSLock acquires lock with the given method, runs fn and releases it.
func (f *File) withOSLock(
	ctx context.Context,
	lock *flock.Flock,
	acquire func(context.Context, time.Duration) (bool, error),
	fn func() error,
) error {
	if err := os.MkdirAll(filepath.Dir(f.path), config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create directory for %s: %w", f.path, err)
	}

	locked, err := acquire(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", f.path, err)
	}

	if !locked {
		return fmt.Errorf("lock %s: %w", f.path, errNotLocked)
	}

	defer func() {
		_ = lock.Unlock()
	}()

	return fn()
}

// Ensure creates the data file if it does not exist. Call it under a lock.
func (f *File) Ensure() error {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_RDONLY, config.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("create %s: %w", f.path, err)
	}

	return file.Close()
}

// ReadLines returns the non-blank, trimmed lines. A missing file yields os.ErrNotExist.
// Call it under a lock.
func (f *File) ReadLines() ([]string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = file.Close()
	}()

	var lines []string

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), 1<<20)

	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", f.path, err)
	}

	return lines, nil
}

// AppendLine writes line followed by a newline. Call it under the exclusive lock.
func (f *File) AppendLine(line string) error {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, config.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}

	if _, err = file.WriteString(line + "\n"); err != nil {
		_ = file.Close()

		return fmt.Errorf("append to %s: %w", f.path, err)
	}

	return file.Close()
}
