// Package filters manages which smell types are enabled and with what
// options, persisted independently of the result cache in filters.toml.
package filters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"

	"smelt/internal/logging"
)

// FileName is the filter configuration file inside the state directory
const FileName = "filters.toml"

// Options holds smell-specific tuning values (thresholds, limits)
type Options map[string]interface{}

// Selection is the persisted state of a single smell type
type Selection struct {
	Enabled bool    `toml:"enabled" json:"enabled"`
	Options Options `toml:"options,omitempty" json:"options,omitempty"`
}

// File is the root structure of filters.toml
type File struct {
	Version int                  `toml:"version"`
	Smells  map[string]Selection `toml:"smells"`
}

// Defaults returns the default filter configuration
func Defaults() File {
	return File{
		Version: 1,
		Smells: map[string]Selection{
			"cached-repeated-calls":  {Enabled: true},
			"long-element-chain":     {Enabled: true, Options: Options{"threshold": 5}},
			"long-lambda-expression": {Enabled: true, Options: Options{"threshold": 100}},
			"long-message-chain":     {Enabled: true, Options: Options{"threshold": 3}},
			"member-ignoring-method": {Enabled: true},
			"string-concat-in-loop":  {Enabled: true},
			"use-a-generator":        {Enabled: false},
		},
	}
}

// Store loads, mutates, and saves the filter configuration
type Store struct {
	path   string
	logger *logging.Logger

	mu   sync.RWMutex
	file File
}

// Load reads the filter configuration from <stateDir>/filters.toml,
// falling back to defaults when the file does not exist yet
func Load(stateDir string, logger *logging.Logger) (*Store, error) {
	s := &Store{
		path:   filepath.Join(stateDir, FileName),
		logger: logger,
		file:   Defaults(),
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		logger.Debug("No filters file, using defaults", map[string]interface{}{
			"path": s.path,
		})
		return s, nil
	}

	var f File
	if _, err := toml.DecodeFile(s.path, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if f.Smells == nil {
		f.Smells = map[string]Selection{}
	}
	s.file = f
	return s, nil
}

// Save writes the current configuration back to filters.toml
func (s *Store) Save() error {
	s.mu.RLock()
	file := s.cloneLocked()
	s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to write filters file: %w", err)
	}
	defer f.Close() //nolint:errcheck // encode error is checked

	if err := toml.NewEncoder(f).Encode(file); err != nil {
		return fmt.Errorf("failed to encode filters file: %w", err)
	}
	return nil
}

func (s *Store) cloneLocked() File {
	out := File{Version: s.file.Version, Smells: make(map[string]Selection, len(s.file.Smells))}
	for k, sel := range s.file.Smells {
		copied := Selection{Enabled: sel.Enabled}
		if sel.Options != nil {
			copied.Options = make(Options, len(sel.Options))
			for ok, ov := range sel.Options {
				copied.Options[ok] = ov
			}
		}
		out.Smells[k] = copied
	}
	return out
}

// All returns a copy of every smell selection
func (s *Store) All() map[string]Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneLocked().Smells
}

// Enabled returns only the enabled smell selections, the payload sent to the
// analyzer with every detection request
func (s *Store) Enabled() map[string]Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Selection)
	for k, sel := range s.cloneLocked().Smells {
		if sel.Enabled {
			out[k] = sel
		}
	}
	return out
}

// Keys returns every known smell key, sorted
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.file.Smells))
	for k := range s.file.Smells {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetEnabled toggles a single smell type
func (s *Store) SetEnabled(key string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, ok := s.file.Smells[key]
	if !ok {
		return fmt.Errorf("unknown smell type %q", key)
	}
	sel.Enabled = enabled
	s.file.Smells[key] = sel
	return nil
}

// SetAll toggles every smell type at once
func (s *Store) SetAll(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, sel := range s.file.Smells {
		sel.Enabled = enabled
		s.file.Smells[k] = sel
	}
}

// SetOption updates one option value for a smell type
func (s *Store) SetOption(key, option string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, ok := s.file.Smells[key]
	if !ok {
		return fmt.Errorf("unknown smell type %q", key)
	}
	if sel.Options == nil {
		sel.Options = Options{}
	}
	sel.Options[option] = value
	s.file.Smells[key] = sel
	return nil
}

// Reset restores the default configuration
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = Defaults()
}
