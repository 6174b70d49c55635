package visitors

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestFileRepository_ListMissing verifies a missing log reads as empty.
func TestFileRepository_ListMissing(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "visitors.log"))

	entries, err := repo.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

// TestFileRepository_AppendList checks stamping and roundtrip.
func TestFileRepository_AppendList(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "visitors.log")
	repo := NewFileRepository(path)
	repo.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }

	ctx := context.Background()

	stored, err := repo.Append(ctx, Entry{
		"path":      "/routes/a",
		"userAgent": "test-agent",
		"city":      "Finestrat",
	})
	require.NoError(t, err)
	require.Equal(t, "2025-06-01T09:00:00.000Z", stored[ServerTimestampField])

	_, err = repo.Append(ctx, Entry{"path": "/"})
	require.NoError(t, err)

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "/routes/a", entries[0]["path"])
	require.Equal(t, "Finestrat", entries[0]["city"])
	require.Equal(t, "/", entries[1]["path"])
}

// TestFileRepository_SkipsMalformedLines ensures a corrupt line does not hide the rest.
func TestFileRepository_SkipsMalformedLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "visitors.log")
	require.NoError(t, os.WriteFile(path, []byte("{\"path\":\"/a\"}\nnot json\n{\"path\":\"/b\"}\n"), 0o600))

	entries, err := NewFileRepository(path).List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

// TestFileRepository_RejectsUnsupportedValues checks values JSON cannot carry.
func TestFileRepository_RejectsUnsupportedValues(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "visitors.log"))

	_, err := repo.Append(context.Background(), Entry{"bad": make(chan int)})
	require.Error(t, err)
}
