// Package vector stores chunk embeddings and answers similarity queries.
package vector

import (
	"context"
	"errors"
	"strings"
)

// ErrDimensionMismatch is returned when a vector's length differs from the
// store's configured dimensionality.
var ErrDimensionMismatch = errors.New("vector: dimension mismatch")

// Source tags where an indexed chunk came from.
const (
	SourceStartup = "startup"
	SourceReport  = "report"
)

// Record is one embedded chunk.
type Record struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Ordinal    int               `json:"ordinal"`
	Content    string            `json:"text"`
	Metadata   map[string]string `json:"metadata"`
	Values     []float32         `json:"-"`
}

// Match is a query hit.
type Match struct {
	Record
	Score float64 `json:"similarity"`
}

// Filter restricts queries to records whose metadata equals every entry.
// Keys are compared exactly; values case-insensitively.
type Filter map[string]string

// Matches reports whether metadata satisfies the filter.
func (f Filter) Matches(metadata map[string]string) bool {
	for k, want := range f {
		if !strings.EqualFold(metadata[k], want) {
			return false
		}
	}
	return true
}

// Store is a vector index.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, values []float32, topK int, filter Filter) ([]Match, error)
	// Exists reports whether any record matches filter.
	Exists(ctx context.Context, filter Filter) (bool, error)
	// DeleteDocument removes every chunk of documentID.
	DeleteDocument(ctx context.Context, documentID string) error
}
