package index

import (
	"context"
	"sort"
	"sync"

	"github.com/commonweal/beacon/internal/models"
	"github.com/commonweal/beacon/internal/query"
)

// MemoryIndex implements ServiceIndex with an in-memory document map.
// Predicates are evaluated directly against each document. It is used in
// tests and by the offline search subcommand, where the corpus is small
// enough that a full scan is fine.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]*models.SearchDocument
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[string]*models.SearchDocument)}
}

// Index stores a document, replacing any previous version.
func (m *MemoryIndex) Index(ctx context.Context, doc *models.SearchDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

// Delete removes a document. Deleting an unknown id is a no-op.
func (m *MemoryIndex) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

// FindMatching scans every document and keeps those passing the filter set.
// Documents are visited in id order so results are deterministic.
func (m *MemoryIndex) FindMatching(ctx context.Context, fs query.FilterSet, limit int) ([]*models.SearchDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*models.SearchDocument
	for _, id := range ids {
		if limit > 0 && len(out) >= limit {
			break
		}
		if doc := m.docs[id]; fs.Matches(doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// DocCount returns the number of stored documents.
func (m *MemoryIndex) DocCount() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.docs)), nil
}

// Close is a no-op.
func (m *MemoryIndex) Close() error {
	return nil
}
