package filters

import (
	"smelt/internal/logging"
	"smelt/internal/status"
	"smelt/internal/storage"
)

// ConfirmFunc asks the user to confirm a bulk invalidation.
// Returning false aborts the filter change.
type ConfirmFunc func(prompt string) bool

// invalidationPrompt is shown before the first filter change of a session
const invalidationPrompt = "Changing smell filters invalidates all cached results. Continue?"

// Coordinator applies filter changes and performs the total cache
// invalidation they require.
//
// Cache entries do not record which filter configuration produced them, so
// any change conservatively invalidates every entry: partial invalidation
// could silently under-report newly enabled smell types on files the user
// believes are clean.
type Coordinator struct {
	store   *Store
	results *storage.Results
	tracker *status.Tracker
	logger  *logging.Logger

	confirm    ConfirmFunc
	suppressed bool
}

// NewCoordinator wires the coordinator to the filter store, the result
// store, and the status tracker. confirm may be nil to always proceed.
func NewCoordinator(store *Store, results *storage.Results, tracker *status.Tracker, confirm ConfirmFunc, logger *logging.Logger) *Coordinator {
	return &Coordinator{
		store:   store,
		results: results,
		tracker: tracker,
		logger:  logger,
		confirm: confirm,
	}
}

// Suppress disables the confirmation prompt for the rest of the session.
// Once suppressed, changes always proceed.
func (c *Coordinator) Suppress() {
	c.suppressed = true
}

// Apply runs a filter mutation, persists it, and invalidates the cache.
//
// Every surviving path keeps its bookkeeping (so it can be re-detected and
// enumerated) but loses its result entry and is marked outdated. Returns the
// affected paths, or (nil, false, nil) when the user declined.
func (c *Coordinator) Apply(change func(*Store) error) ([]string, bool, error) {
	if !c.suppressed && c.confirm != nil {
		if !c.confirm(invalidationPrompt) {
			c.logger.Debug("Filter change declined", nil)
			return nil, false, nil
		}
	}

	if err := change(c.store); err != nil {
		return nil, false, err
	}

	// Invalidate before persisting: if the sweep fails, the old filters stay
	// on disk and the cache is at worst over-invalidated. The reverse order
	// would leave new filters active over stale entries.
	paths, err := c.results.InvalidateEntries()
	if err != nil {
		return nil, false, err
	}
	for _, p := range paths {
		c.tracker.MarkOutdated(p)
	}

	if err := c.store.Save(); err != nil {
		return nil, false, err
	}

	c.logger.Info("Filters changed, cache invalidated", map[string]interface{}{
		"invalidatedPaths": len(paths),
	})
	return paths, true, nil
}
