package storage

import (
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createSmellCacheTable(tx); err != nil {
			return err
		}
		if err := createHashPathTable(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Cache schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})
		return nil
	})
}

// runMigrations brings an existing database up to the current schema
func (db *DB) runMigrations() error {
	version, err := db.schemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		db.logger.Debug("Cache schema is up to date", map[string]interface{}{
			"version": version,
		})
		return nil
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	// Migrations are added here as the schema evolves
	return nil
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// smell_cache holds one whole result set per content hash.
// Entries never store a path; payloads are zstd-compressed JSON.
func createSmellCacheTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS smell_cache (
			hash        TEXT PRIMARY KEY,
			smells      BLOB NOT NULL,
			smell_count INTEGER NOT NULL,
			created_at  TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create smell_cache table: %w", err)
	}
	return nil
}

// hash_path is the advisory hash -> last-known-path bookkeeping table.
// hash is the primary key, so a hash can never be claimed by two paths.
func createHashPathTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS hash_path (
			hash TEXT PRIMARY KEY,
			path TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create hash_path table: %w", err)
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_hash_path_path ON hash_path(path)`)
	if err != nil {
		return fmt.Errorf("failed to create hash_path path index: %w", err)
	}
	return nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec(`DELETE FROM schema_version`); err != nil {
		return fmt.Errorf("failed to clear schema version: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

func (db *DB) schemaVersion() (int, error) {
	var version int
	err := db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
