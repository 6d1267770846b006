package taxonomy

import (
	"context"
	"sort"

	"github.com/commonweal/beacon/internal/models"
)

// Resolver expands category or persona slugs into the union of their
// collections' taxonomy id sets. Multiple slugs are OR'd: a document
// matching any resolved taxonomy qualifies.
type Resolver struct {
	store Store
}

// NewResolver creates a Resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve looks up each slug as a collection of the given type and returns
// the sorted union of their taxonomy ids. An unknown slug yields a
// NotFoundError from the store; slugs of the other collection type are
// never matched.
func (r *Resolver) Resolve(ctx context.Context, typ models.CollectionType, slugs []string) ([]string, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	union := make(map[string]struct{})
	for _, slug := range slugs {
		col, err := r.store.CollectionBySlug(ctx, typ, slug)
		if err != nil {
			return nil, err
		}
		for _, id := range col.TaxonomyIDs {
			union[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
