// Package taxonomy provides read access to the taxonomy tree and
// collection-to-taxonomy mappings, and resolves collection slugs into
// taxonomy id sets for filtering and scoring.
package taxonomy

import (
	"context"

	"github.com/commonweal/beacon/internal/models"
)

// Store defines read accessors for taxonomies and collections.
// Implementations are read-only from the engine's perspective.
type Store interface {
	// CollectionBySlug returns the collection of the given type with the
	// given slug. Category lookups never resolve persona collections and
	// vice versa.
	CollectionBySlug(ctx context.Context, typ models.CollectionType, slug string) (*models.Collection, error)

	// Collections lists all collections of the given type.
	Collections(ctx context.Context, typ models.CollectionType) ([]*models.Collection, error)

	// Taxonomy returns a taxonomy node by id.
	Taxonomy(ctx context.Context, id string) (*models.Taxonomy, error)

	// Closure returns ids together with every ancestor of each id,
	// deduplicated. An unknown input id is a NotFoundError. Documents
	// tagged with a taxonomy are implicitly tagged with its ancestors, so
	// indexing stores the closure per document.
	Closure(ctx context.Context, ids []string) ([]string, error)

	// Names returns the display names for the given taxonomy ids, in the
	// same order. Unknown ids are skipped.
	Names(ctx context.Context, ids []string) ([]string, error)
}
