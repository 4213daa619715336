package storage

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"smelt/internal/errors"
	"smelt/internal/hashing"
	"smelt/internal/logging"
	"smelt/internal/smells"
)

// ChangedAll is the notification path sentinel for whole-cache mutations
const ChangedAll = "*"

// ChangeListener receives the path whose cached results changed, or ChangedAll
type ChangeListener func(path string)

// Association is one row of the hash -> last-known-path bookkeeping table
type Association struct {
	Hash string
	Path string
}

// Stats summarizes cache contents for observability
type Stats struct {
	Entries      int   `json:"entries"`
	WithFindings int   `json:"withFindings"`
	Clean        int   `json:"clean"`
	KnownPaths   int   `json:"knownPaths"`
	PayloadBytes int64 `json:"payloadBytes"`
	Orphaned     int   `json:"orphaned"`
}

// Results is the content-addressable result store.
//
// Entries are keyed by the SHA-256 of the exact file content that was
// analyzed, never by path. All mutations of the two backing tables go through
// this type so that entries are only ever written or removed whole.
type Results struct {
	db     *DB
	logger *logging.Logger
	enc    *zstd.Encoder
	dec    *zstd.Decoder

	mu        sync.Mutex
	listeners map[int]ChangeListener
	nextID    int
}

// NewResults creates the result store over an open database
func NewResults(db *DB, logger *logging.Logger) (*Results, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.Wrap(errors.StorageFailure, "failed to create zstd encoder", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(errors.StorageFailure, "failed to create zstd decoder", err)
	}

	return &Results{
		db:        db,
		logger:    logger,
		enc:       enc,
		dec:       dec,
		listeners: make(map[int]ChangeListener),
	}, nil
}

// Subscribe registers a listener for cache-changed notifications and returns
// an unsubscribe handle
func (r *Results) Subscribe(fn ChangeListener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.listeners[id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}

func (r *Results) notify(path string) {
	r.mu.Lock()
	fns := make([]ChangeListener, 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(path)
	}
}

// Set writes the whole result set for path's current content.
// The content is hashed at write time, each smell is decorated with its
// derived ID, and both the entry and the hash->path association are written
// in one transaction. A prior entry for the same hash is overwritten.
func (r *Results) Set(path string, findings []smells.Smell) error {
	hash, err := hashing.HashFile(path)
	if err != nil {
		return err
	}

	smells.Decorate(findings)

	payload, err := json.Marshal(findings)
	if err != nil {
		return errors.Wrap(errors.StorageFailure, "failed to encode smells", err)
	}
	compressed := r.enc.EncodeAll(payload, nil)

	err = r.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO smell_cache (hash, smells, smell_count, created_at)
			VALUES (?, ?, ?, ?)
		`, hash, compressed, len(findings), time.Now().UTC().Format(time.RFC3339)); err != nil {
			return err
		}
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO hash_path (hash, path) VALUES (?, ?)
		`, hash, path)
		return err
	})
	if err != nil {
		return errors.Wrap(errors.StorageFailure, "failed to write cache entry", err)
	}

	r.logger.Debug("Cached smells", map[string]interface{}{
		"path":  path,
		"hash":  hash[:12],
		"count": len(findings),
	})

	r.notify(path)
	return nil
}

// Get returns the cached result set for path's current content.
// The second return value is false when no entry exists for the current hash;
// an empty, non-nil slice means "analyzed, no findings".
func (r *Results) Get(path string) ([]smells.Smell, bool, error) {
	hash, err := hashing.HashFile(path)
	if err != nil {
		return nil, false, err
	}
	return r.GetByHash(hash)
}

// GetByHash returns the cached result set for an exact content hash
func (r *Results) GetByHash(hash string) ([]smells.Smell, bool, error) {
	var compressed []byte
	err := r.db.QueryRow(`SELECT smells FROM smell_cache WHERE hash = ?`, hash).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.StorageFailure, "cache lookup failed", err)
	}

	payload, err := r.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, errors.Wrap(errors.StorageFailure, "failed to decompress cache entry", err)
	}

	findings := []smells.Smell{}
	if err := json.Unmarshal(payload, &findings); err != nil {
		return nil, false, errors.Wrap(errors.StorageFailure, "failed to decode cache entry", err)
	}
	return findings, true, nil
}

// Has reports whether an entry exists for path's current content
func (r *Results) Has(path string) (bool, error) {
	_, ok, err := r.Get(path)
	return ok, err
}

// KnownHash returns the hash last associated with path, if any.
// This is bookkeeping only: the association may describe a superseded
// content version.
func (r *Results) KnownHash(path string) (string, bool, error) {
	var hash string
	err := r.db.QueryRow(`SELECT hash FROM hash_path WHERE path = ? LIMIT 1`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(errors.StorageFailure, "association lookup failed", err)
	}
	return hash, true, nil
}

// ClearForPath removes the entry for path's current content hash along with
// its association. Clearing an absent entry is a no-op.
func (r *Results) ClearForPath(path string) error {
	hash, err := hashing.HashFile(path)
	if err != nil {
		return err
	}
	if err := r.forget(hash); err != nil {
		return err
	}
	r.notify(path)
	return nil
}

// ClearByKnownPath removes cache state for a path whose content can no longer
// be hashed (deleted files) or has already been superseded on disk. It scans
// the bookkeeping table for every hash last associated with the path and
// removes each entry whole. Returns whether anything was removed.
func (r *Results) ClearByKnownPath(path string) (bool, error) {
	rows, err := r.db.Query(`SELECT hash FROM hash_path WHERE path = ?`, path)
	if err != nil {
		return false, errors.Wrap(errors.StorageFailure, "association scan failed", err)
	}
	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			rows.Close() //nolint:errcheck // scan failed
			return false, errors.Wrap(errors.StorageFailure, "association scan failed", err)
		}
		hashes = append(hashes, h)
	}
	if err := rows.Close(); err != nil {
		return false, errors.Wrap(errors.StorageFailure, "association scan failed", err)
	}

	if len(hashes) == 0 {
		return false, nil
	}

	for _, h := range hashes {
		if err := r.forget(h); err != nil {
			return false, err
		}
	}

	r.notify(path)
	return true, nil
}

// ForgetHash removes the entry and association for an exact hash.
// Used by bootstrap reconciliation for paths that no longer exist.
func (r *Results) ForgetHash(hash string) error {
	return r.forget(hash)
}

func (r *Results) forget(hash string) error {
	err := r.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM smell_cache WHERE hash = ?`, hash); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM hash_path WHERE hash = ?`, hash)
		return err
	})
	if err != nil {
		return errors.Wrap(errors.StorageFailure, "failed to clear cache entry", err)
	}
	return nil
}

// ClearAll wipes both tables atomically and emits a global notification
func (r *Results) ClearAll() error {
	err := r.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM smell_cache`); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM hash_path`)
		return err
	})
	if err != nil {
		return errors.Wrap(errors.StorageFailure, "failed to clear cache", err)
	}

	r.logger.Info("Cleared all cached smells", nil)
	r.notify(ChangedAll)
	return nil
}

// InvalidateEntries drops every result entry but keeps the hash->path
// bookkeeping, so invalidated paths remain enumerable for re-detection.
// This is the filter-change sweep primitive. Returns the affected paths.
func (r *Results) InvalidateEntries() ([]string, error) {
	paths, err := r.AllKnownPaths()
	if err != nil {
		return nil, err
	}

	if _, err := r.db.Exec(`DELETE FROM smell_cache`); err != nil {
		return nil, errors.Wrap(errors.StorageFailure, "failed to invalidate cache entries", err)
	}

	r.notify(ChangedAll)
	return paths, nil
}

// AllKnownPaths returns the distinct paths currently present in the
// bookkeeping table
func (r *Results) AllKnownPaths() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT path FROM hash_path ORDER BY path`)
	if err != nil {
		return nil, errors.Wrap(errors.StorageFailure, "path enumeration failed", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errors.Wrap(errors.StorageFailure, "path enumeration failed", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Associations returns every hash -> path row, for bootstrap reconciliation
func (r *Results) Associations() ([]Association, error) {
	rows, err := r.db.Query(`SELECT hash, path FROM hash_path ORDER BY path`)
	if err != nil {
		return nil, errors.Wrap(errors.StorageFailure, "association enumeration failed", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var assocs []Association
	for rows.Next() {
		var a Association
		if err := rows.Scan(&a.Hash, &a.Path); err != nil {
			return nil, errors.Wrap(errors.StorageFailure, "association enumeration failed", err)
		}
		assocs = append(assocs, a)
	}
	return assocs, rows.Err()
}

// Reassociate points an existing hash at a new path without touching the
// result entry. Last write wins; the hash primary key guarantees a single
// claimant. Used to carry a cache entry across a rename without reanalysis.
func (r *Results) Reassociate(hash, newPath string) error {
	res, err := r.db.Exec(`UPDATE hash_path SET path = ? WHERE hash = ?`, newPath, hash)
	if err != nil {
		return errors.Wrap(errors.StorageFailure, "failed to reassociate hash", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.StorageFailure, "no association exists for hash %s", hash)
	}
	r.notify(newPath)
	return nil
}

// CacheStats reports entry and bookkeeping counts
func (r *Results) CacheStats() (*Stats, error) {
	stats := &Stats{}

	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN smell_count > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(LENGTH(smells)), 0)
		FROM smell_cache
	`).Scan(&stats.Entries, &stats.WithFindings, &stats.PayloadBytes)
	if err != nil {
		return nil, errors.Wrap(errors.StorageFailure, "failed to read cache stats", err)
	}
	stats.Clean = stats.Entries - stats.WithFindings

	err = r.db.QueryRow(`SELECT COUNT(DISTINCT path) FROM hash_path`).Scan(&stats.KnownPaths)
	if err != nil {
		return nil, errors.Wrap(errors.StorageFailure, "failed to read cache stats", err)
	}

	err = r.db.QueryRow(`
		SELECT COUNT(*) FROM smell_cache
		WHERE hash NOT IN (SELECT hash FROM hash_path)
	`).Scan(&stats.Orphaned)
	if err != nil {
		return nil, errors.Wrap(errors.StorageFailure, "failed to read cache stats", err)
	}

	return stats, nil
}

// Close releases the compression codecs
func (r *Results) Close() {
	r.enc.Close() //nolint:errcheck // stateless encoder
	r.dec.Close()
}
