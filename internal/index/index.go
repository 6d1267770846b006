// Package index provides candidate retrieval for search. An index answers
// one question: which documents satisfy every mandatory predicate of a
// request. Relevance scoring happens downstream and never here.
package index

import (
	"context"

	"github.com/commonweal/beacon/internal/models"
	"github.com/commonweal/beacon/internal/query"
)

// ServiceIndex defines document indexing and filtered retrieval.
type ServiceIndex interface {
	Index(ctx context.Context, doc *models.SearchDocument) error
	Delete(ctx context.Context, id string) error
	// FindMatching returns up to limit documents satisfying every predicate
	// in the filter set. Order of the returned slice is unspecified.
	FindMatching(ctx context.Context, fs query.FilterSet, limit int) ([]*models.SearchDocument, error)
	// DocCount returns the total number of documents in the index.
	DocCount() (uint64, error)
	Close() error
}
