package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smelt/internal/logging"
)

func TestIsIgnored(t *testing.T) {
	w := &Watcher{config: DefaultWatchConfig()}

	assert.True(t, w.IsIgnored("/ws/.git"))
	assert.True(t, w.IsIgnored("/ws/app/__pycache__"))
	assert.True(t, w.IsIgnored("/ws/app/.models.py.swp"))
	assert.True(t, w.IsIgnored("/ws/build.tmp"))
	assert.False(t, w.IsIgnored("/ws/app/models.py"))
	assert.False(t, w.IsIgnored("/ws/app"))
}

func TestWatcherDeliversCreateAndChange(t *testing.T) {
	root := t.TempDir()

	batches := make(chan []Event, 8)
	config := DefaultWatchConfig()
	config.DebounceMs = 50

	watcher, err := NewWatcher(root, config, func(events []Event) {
		batches <- events
	}, logging.Discard())
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck // test cleanup

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	path := filepath.Join(root, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	select {
	case events := <-batches:
		require.NotEmpty(t, events)
		assert.Equal(t, path, events[0].Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered for file creation")
	}
}

func TestWatcherIgnoresStateDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".smelt"), 0o755))

	batches := make(chan []Event, 8)
	config := DefaultWatchConfig()
	config.DebounceMs = 50

	watcher, err := NewWatcher(root, config, func(events []Event) {
		batches <- events
	}, logging.Discard())
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck // test cleanup

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	// Writes inside .smelt must never surface
	require.NoError(t, os.WriteFile(filepath.Join(root, ".smelt", "smelt.db"), []byte("db"), 0o644))

	select {
	case events := <-batches:
		t.Fatalf("state dir writes should be ignored, got %v", events)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherSkipsChmodOnlyEvents(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	batches := make(chan []Event, 8)
	config := DefaultWatchConfig()
	config.DebounceMs = 50

	watcher, err := NewWatcher(root, config, func(events []Event) {
		batches <- events
	}, logging.Discard())
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck // test cleanup

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	require.NoError(t, os.Chmod(path, 0o600))

	select {
	case events := <-batches:
		t.Fatalf("chmod must not surface as a change, got %v", events)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConvertOp(t *testing.T) {
	assert.Equal(t, "create", EventCreate.String())
	assert.Equal(t, "change", EventChange.String())
	assert.Equal(t, "delete", EventDelete.String())
	assert.Equal(t, "rename", EventRename.String())
}
