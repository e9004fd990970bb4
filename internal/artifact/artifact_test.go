package artifact

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestStoreSaveAndOpen(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	name := store.Filename("abc123", "final")
	assert.Contains(t, name, "abc123")
	assert.Contains(t, name, "final")

	path, err := store.Save(name, []byte("image-bytes"))
	require.NoError(t, err)

	got, err := store.Open(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), got)
}

func TestStoreOpenMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.Save("gone.jpg", []byte("x"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, err = store.Open(path)
	assert.ErrorIs(t, err, ErrArtifactMissing)
}

func TestStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "artifacts")
	_, err := NewStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

// ageFile rewinds a file's modification time.
func ageFile(t *testing.T, path string, age time.Duration) {
	t.Helper()
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestCleanerDeletesOnlyExpiredFiles(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	oldPath, err := store.Save("old.jpg", []byte("old"))
	require.NoError(t, err)
	ageFile(t, oldPath, 48*time.Hour)

	freshPath, err := store.Save("fresh.jpg", []byte("fresh"))
	require.NoError(t, err)

	boundaryPath, err := store.Save("boundary.jpg", []byte("boundary"))
	require.NoError(t, err)
	ageFile(t, boundaryPath, 23*time.Hour)

	cleaner := NewCleaner(store, 24*time.Hour, time.Hour, testLogger())
	deleted := cleaner.RunOnce(context.Background())

	assert.Equal(t, 1, deleted)
	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, freshPath)
	assert.FileExists(t, boundaryPath)
}

func TestCleanerSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	sub := filepath.Join(dir, "keep")
	require.NoError(t, os.Mkdir(sub, 0o755))
	ageFile(t, sub, 48*time.Hour)

	oldPath, err := store.Save("old.jpg", []byte("old"))
	require.NoError(t, err)
	ageFile(t, oldPath, 48*time.Hour)

	cleaner := NewCleaner(store, 24*time.Hour, time.Hour, testLogger())
	deleted := cleaner.RunOnce(context.Background())

	assert.Equal(t, 1, deleted)
	assert.DirExists(t, sub)
}

func TestCleanerToleratesDeletionErrors(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission-based deletion failures are not enforceable as root")
	}

	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	first, err := store.Save("first.jpg", []byte("a"))
	require.NoError(t, err)
	ageFile(t, first, 48*time.Hour)

	second, err := store.Save("second.jpg", []byte("b"))
	require.NoError(t, err)
	ageFile(t, second, 48*time.Hour)

	// A read-only directory makes every unlink fail; the run must still
	// visit every entry without aborting.
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	cleaner := NewCleaner(store, 24*time.Hour, time.Hour, testLogger())
	deleted := cleaner.RunOnce(context.Background())

	assert.Equal(t, 0, deleted)
	assert.FileExists(t, first)
	assert.FileExists(t, second)
}

func TestCleanerRunStopsOnContextCancel(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	cleaner := NewCleaner(store, time.Hour, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleaner.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleaner did not stop after context cancellation")
	}
}
