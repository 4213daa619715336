// Package hashing provides deterministic content fingerprinting.
//
// The content hash is the true cache key: two files with identical bytes
// share a cache entry regardless of path, mtime, or editor behavior.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"smelt/internal/errors"
)

// Hash returns the SHA-256 hex digest of the given content
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the SHA-256 hex digest of a file's current bytes.
// An unreadable file yields a ContentReadFailed error; it must never be
// silently treated as empty content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(errors.ContentReadFailed, "cannot open file for hashing", err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(errors.ContentReadFailed, "cannot read file for hashing", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
