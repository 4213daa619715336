// Package smells defines the code smell data model shared across smelt.
package smells

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// idLength is the number of hex characters in a derived smell ID
const idLength = 10

// Occurrence is a single location where a smell was observed
type Occurrence struct {
	Line      int `json:"line"`
	Column    int `json:"column"`
	EndLine   int `json:"endLine,omitempty"`
	EndColumn int `json:"endColumn,omitempty"`
}

// Smell is an immutable finding reported by the analyzer.
//
// ID is derived when the finding is persisted into the cache; it is a short
// deterministic digest of the finding's own content so UI actions can refer
// to a single finding. It is never used as a cache key.
type Smell struct {
	ID             string                 `json:"id,omitempty"`
	Type           string                 `json:"type"`
	Symbol         string                 `json:"symbol"`
	Message        string                 `json:"message"`
	MessageID      string                 `json:"messageId"`
	Confidence     string                 `json:"confidence,omitempty"`
	Path           string                 `json:"path"`
	Module         string                 `json:"module,omitempty"`
	Occurrences    []Occurrence           `json:"occurrences"`
	AdditionalInfo map[string]interface{} `json:"additionalInfo,omitempty"`
}

// ComputeID derives the short content digest for a smell.
// The canonical form is order-independent across map fields and stable
// across processes.
func ComputeID(s *Smell) string {
	parts := []string{
		"type:" + s.Type,
		"symbol:" + s.Symbol,
		"message:" + s.Message,
		"messageId:" + s.MessageID,
		"path:" + s.Path,
		"module:" + s.Module,
	}

	for _, occ := range s.Occurrences {
		parts = append(parts, fmt.Sprintf("occ:%d:%d:%d:%d", occ.Line, occ.Column, occ.EndLine, occ.EndColumn))
	}

	if len(s.AdditionalInfo) > 0 {
		keys := make([]string, 0, len(s.AdditionalInfo))
		for k := range s.AdditionalInfo {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("info:%s=%v", k, s.AdditionalInfo[k]))
		}
	}

	sum := blake2b.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:idLength]
}

// Decorate assigns derived IDs to every smell in the slice, in place.
// Smells that already carry an ID keep it.
func Decorate(findings []Smell) {
	for i := range findings {
		if findings[i].ID == "" {
			findings[i].ID = ComputeID(&findings[i])
		}
	}
}
