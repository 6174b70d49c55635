package lockedfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestFile_AppendAndRead verifies lines survive a roundtrip and blanks are skipped.
func TestFile_AppendAndRead(t *testing.T) {
	t.Parallel()

	f := New(filepath.Join(t.TempDir(), "nested", "lines.txt"))
	ctx := context.Background()

	require.NoError(t, f.WithLock(ctx, func() error {
		if err := f.AppendLine("one"); err != nil {
			return err
		}

		if err := f.AppendLine("  "); err != nil {
			return err
		}

		return f.AppendLine(" two ")
	}))

	var lines []string

	require.NoError(t, f.WithRLock(ctx, func() error {
		var err error

		lines, err = f.ReadLines()

		return err
	}))
	require.Equal(t, []string{"one", "two"}, lines)
}

// TestFile_ReadMissing reports os.ErrNotExist until Ensure creates the file.
func TestFile_ReadMissing(t *testing.T) {
	t.Parallel()

	f := New(filepath.Join(t.TempDir(), "missing.txt"))

	err := f.WithRLock(context.Background(), func() error {
		_, err := f.ReadLines()
		return err
	})
	require.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, f.WithLock(context.Background(), f.Ensure))

	_, err = os.Stat(f.Path())
	require.NoError(t, err)
}

// TestFile_ConcurrentAppends ensures no line is lost or torn under contention.
func TestFile_ConcurrentAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lines.txt")

	const writers = 20

	var wg sync.WaitGroup

	for i := range writers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			// Separate File values behave like separate processes.
			f := New(path)
			_ = f.WithLock(context.Background(), func() error {
				return f.AppendLine(strconv.Itoa(i))
			})
		}()
	}

	wg.Wait()

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSuffix(string(contents), "\n"), "\n"), writers)
}

// TestFile_LockRespectsContext verifies a held lock times out a second acquirer.
func TestFile_LockRespectsContext(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lines.txt")
	holder := New(path)
	waiter := New(path)

	release := make(chan struct{})
	acquired := make(chan struct{})

	go func() {
		_ = holder.WithLock(context.Background(), func() error {
			close(acquired)
			<-release

			return nil
		})
	}()

	<-acquired

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waiter.WithLock(ctx, func() error { return nil })
	require.Error(t, err)

	close(release)
}

// TestFile_SharedLockHeldUntilLastReader keeps other writers out while any reader is inside.
func TestFile_SharedLockHeldUntilLastReader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lines.txt")
	f := New(path)

	firstIn := make(chan struct{})
	firstDone := make(chan struct{})
	secondIn := make(chan struct{})
	releaseSecond := make(chan struct{})
	secondDone := make(chan struct{})

	go func() {
		defer close(firstDone)

		_ = f.WithRLock(context.Background(), func() error {
			close(firstIn)
			<-secondIn

			return nil
		})
	}()

	go func() {
		defer close(secondDone)

		<-firstIn

		_ = f.WithRLock(context.Background(), func() error {
			close(secondIn)
			<-releaseSecond

			return nil
		})
	}()

	<-firstDone

	// A separate File stands in for another process.
	writer := New(path)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.Error(t, writer.WithLock(ctx, func() error { return nil }))

	close(releaseSecond)
	<-secondDone

	require.NoError(t, writer.WithLock(context.Background(), func() error {
		return writer.AppendLine("after readers")
	}))
}
