package subscribers

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lost-alarm/internal/domain/alert"
)

// TestFileRegistry_LoadCreatesFile verifies a missing registry reads as empty and is created.
func TestFileRegistry_LoadCreatesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "personas.txt")
	reg := NewFileRegistry(path)

	ids, err := reg.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, ids)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestFileRegistry_AppendKeepsOrderAndLoadDeduplicates checks append order and legacy duplicates.
func TestFileRegistry_AppendKeepsOrderAndLoadDeduplicates(t *testing.T) {
	t.Parallel()

	reg := NewFileRegistry(filepath.Join(t.TempDir(), "personas.txt"))
	ctx := context.Background()

	for _, id := range []string{"3", "1", "3", "2"} {
		require.NoError(t, reg.Append(ctx, id))
	}

	// Append does not deduplicate on disk.
	contents, err := os.ReadFile(reg.Path())
	require.NoError(t, err)
	require.Equal(t, "3\n1\n3\n2\n", string(contents))

	ids, err := reg.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"3", "1", "2"}, ids)
}

// TestFileRegistry_RegisterIsIdempotent verifies the second registration is a no-op.
func TestFileRegistry_RegisterIsIdempotent(t *testing.T) {
	t.Parallel()

	reg := NewFileRegistry(filepath.Join(t.TempDir(), "personas.txt"))
	ctx := context.Background()

	added, err := reg.Register(ctx, "42")
	require.NoError(t, err)
	require.True(t, added)

	added, err = reg.Register(ctx, " 42 ")
	require.NoError(t, err)
	require.False(t, added)

	ids, err := reg.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"42"}, ids)
}

// TestFileRegistry_ConcurrentRegister ensures racing registrations of the same id store it once.
func TestFileRegistry_ConcurrentRegister(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "personas.txt")
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		added int
	)

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			// Separate registry values contend through the OS lock, like separate processes.
			reg := NewFileRegistry(path)
			id := "7"

			if i%2 == 0 {
				id = strconv.Itoa(100 + i)
			}

			ok, err := reg.Register(ctx, id)
			if err == nil && ok && id == "7" {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	require.Equal(t, 1, added)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	count := 0

	for _, line := range strings.Fields(string(contents)) {
		if line == "7" {
			count++
		}
	}

	require.Equal(t, 1, count)
}

// TestFileRegistry_RejectsBlankID verifies identifiers must fit on one line.
func TestFileRegistry_RejectsBlankID(t *testing.T) {
	t.Parallel()

	reg := NewFileRegistry(filepath.Join(t.TempDir(), "personas.txt"))

	require.Error(t, reg.Append(context.Background(), "  "))

	_, err := reg.Register(context.Background(), "1\n2")
	require.Error(t, err)
}

// TestFileRegistry_IOErrorIsClassified checks unreadable storage maps to ErrRegistryIO.
func TestFileRegistry_IOErrorIsClassified(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// A directory where the file should be makes every read fail.
	path := filepath.Join(dir, "personas.txt")
	require.NoError(t, os.Mkdir(path, 0o750))

	_, err := NewFileRegistry(path).Load(context.Background())
	require.ErrorIs(t, err, alert.ErrRegistryIO)
}
