package filters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smelt/internal/logging"
	"smelt/internal/smells"
	"smelt/internal/status"
	"smelt/internal/storage"
)

func setupCoordinator(t *testing.T, confirm ConfirmFunc) (*Coordinator, *Store, *storage.Results, *status.Tracker, string) {
	t.Helper()

	root := t.TempDir()
	db, err := storage.Open(root, logging.Discard())
	require.NoError(t, err)
	results, err := storage.NewResults(db, logging.Discard())
	require.NoError(t, err)
	store, err := Load(filepath.Join(root, storage.StateDirName), logging.Discard())
	require.NoError(t, err)
	tracker := status.NewTracker(logging.Discard())

	t.Cleanup(func() {
		results.Close()
		db.Close() //nolint:errcheck // test cleanup
	})

	return NewCoordinator(store, results, tracker, confirm, logging.Discard()), store, results, tracker, root
}

func seedCachedFile(t *testing.T, results *storage.Results, tracker *status.Tracker, root, name string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.WriteFile(path, []byte("x = a.b.c.d\n"), 0o644))
	findings := []smells.Smell{
		{Type: "performance", Symbol: "long-element-chain", Message: "chain too long",
			Occurrences: []smells.Occurrence{{Line: 1, Column: 0, EndLine: 1, EndColumn: 11}}},
	}
	require.NoError(t, results.Set(path, findings))
	tracker.SetSmells(path, findings)
	return path
}

func TestApplyInvalidatesCacheAndMarksOutdated(t *testing.T) {
	coordinator, store, results, tracker, root := setupCoordinator(t, nil)
	path := seedCachedFile(t, results, tracker, root, "a.py")

	paths, applied, err := coordinator.Apply(func(s *Store) error {
		return s.SetEnabled("use-a-generator", true)
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []string{path}, paths)

	// Change persisted
	assert.True(t, store.All()["use-a-generator"].Enabled)

	// Entry dropped, bookkeeping kept, path marked outdated
	_, hit, err := results.Get(path)
	require.NoError(t, err)
	assert.False(t, hit)
	known, err := results.AllKnownPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{path}, known)
	assert.True(t, tracker.IsOutdated(path))
}

func TestApplyDeclinedLeavesEverythingUntouched(t *testing.T) {
	decline := func(string) bool { return false }
	coordinator, store, results, tracker, root := setupCoordinator(t, decline)
	path := seedCachedFile(t, results, tracker, root, "a.py")

	paths, applied, err := coordinator.Apply(func(s *Store) error {
		return s.SetEnabled("use-a-generator", true)
	})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Nil(t, paths)

	assert.False(t, store.All()["use-a-generator"].Enabled)
	_, hit, err := results.Get(path)
	require.NoError(t, err)
	assert.True(t, hit, "declining must not touch the cache")
	assert.False(t, tracker.IsOutdated(path))
}

func TestSuppressSkipsConfirmation(t *testing.T) {
	asked := false
	confirm := func(string) bool {
		asked = true
		return false
	}
	coordinator, _, _, _, _ := setupCoordinator(t, confirm)
	coordinator.Suppress()

	_, applied, err := coordinator.Apply(func(s *Store) error {
		return s.SetEnabled("use-a-generator", true)
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.False(t, asked, "suppressed coordinator must not prompt")
}

func TestApplyChangeErrorAborts(t *testing.T) {
	coordinator, _, results, tracker, root := setupCoordinator(t, nil)
	path := seedCachedFile(t, results, tracker, root, "a.py")

	_, applied, err := coordinator.Apply(func(s *Store) error {
		return s.SetEnabled("no-such-smell", true)
	})
	assert.Error(t, err)
	assert.False(t, applied)

	_, hit, err := results.Get(path)
	require.NoError(t, err)
	assert.True(t, hit, "failed changes must not invalidate the cache")
}

func TestApplyInvalidationFailureLeavesFiltersUnsaved(t *testing.T) {
	root := t.TempDir()
	db, err := storage.Open(root, logging.Discard())
	require.NoError(t, err)
	results, err := storage.NewResults(db, logging.Discard())
	require.NoError(t, err)
	defer results.Close()

	stateDir := filepath.Join(root, storage.StateDirName)
	store, err := Load(stateDir, logging.Discard())
	require.NoError(t, err)
	tracker := status.NewTracker(logging.Discard())
	coordinator := NewCoordinator(store, results, tracker, nil, logging.Discard())

	// Force the sweep to fail
	require.NoError(t, db.Close())

	_, applied, err := coordinator.Apply(func(s *Store) error {
		return s.SetEnabled("use-a-generator", true)
	})
	require.Error(t, err)
	assert.False(t, applied)

	// The change must not have been persisted over a surviving cache
	reloaded, err := Load(stateDir, logging.Discard())
	require.NoError(t, err)
	assert.False(t, reloaded.All()["use-a-generator"].Enabled,
		"filters must stay unsaved when invalidation fails")
}

func TestApplyConfirmsOnlyUntilSuppressed(t *testing.T) {
	calls := 0
	confirm := func(string) bool {
		calls++
		return true
	}
	coordinator, _, _, _, _ := setupCoordinator(t, confirm)

	_, _, err := coordinator.Apply(func(s *Store) error { return nil })
	require.NoError(t, err)
	coordinator.Suppress()
	_, _, err = coordinator.Apply(func(s *Store) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}
