// Package query compiles a search request into the mandatory predicate set
// applied by the index and the scoring context used for ranking. The two are
// kept as separately-typed values: a predicate decides membership, a scoring
// contributor only affects order.
package query

import (
	"github.com/commonweal/beacon/internal/geo"
	"github.com/commonweal/beacon/internal/models"
)

// Predicate is a single mandatory filter condition. A document failing any
// predicate is excluded regardless of its relevance score.
type Predicate interface {
	Match(doc *models.SearchDocument) bool
}

// FilterSet is the conjunction of mandatory predicates for a request.
type FilterSet struct {
	Predicates []Predicate
}

// Matches reports whether doc satisfies every predicate.
func (fs FilterSet) Matches(doc *models.SearchDocument) bool {
	for _, p := range fs.Predicates {
		if !p.Match(doc) {
			return false
		}
	}
	return true
}

// StatusPredicate restricts results to a single status. It is applied for
// every caller without the see-inactive capability.
type StatusPredicate struct {
	Status models.ServiceStatus
}

func (p StatusPredicate) Match(doc *models.SearchDocument) bool {
	return doc.Status == p.Status
}

// TypePredicate restricts results to a single service type.
type TypePredicate struct {
	Type models.ServiceType
}

func (p TypePredicate) Match(doc *models.SearchDocument) bool {
	return doc.Type == p.Type
}

// TaxonomyPredicate keeps documents tagged with at least one of the resolved
// taxonomy ids.
type TaxonomyPredicate struct {
	TaxonomyIDs []string
}

func (p TaxonomyPredicate) Match(doc *models.SearchDocument) bool {
	return doc.TaxonomyOverlap(p.TaxonomyIDs) > 0
}

// WaitTimePredicate keeps documents whose wait time is known and no longer
// than Max on the ordinal scale.
type WaitTimePredicate struct {
	Max models.WaitTime
}

func (p WaitTimePredicate) Match(doc *models.SearchDocument) bool {
	return doc.WaitTime.AtMost(p.Max)
}

// IsFreePredicate keeps documents whose is_free flag equals Value.
type IsFreePredicate struct {
	Value bool
}

func (p IsFreePredicate) Match(doc *models.SearchDocument) bool {
	return doc.IsFree == p.Value
}

// IsNationalPredicate keeps documents whose is_national flag equals Value.
// Geo-aware requests always carry {Value: false}: national services have no
// location and are excluded from any radius search.
type IsNationalPredicate struct {
	Value bool
}

func (p IsNationalPredicate) Match(doc *models.SearchDocument) bool {
	return doc.IsNational == p.Value
}

// RadiusPredicate keeps documents with at least one location within Miles of
// Origin.
type RadiusPredicate struct {
	Origin geo.Coordinate
	Miles  float64
}

func (p RadiusPredicate) Match(doc *models.SearchDocument) bool {
	dist, ok := doc.NearestDistanceMiles(p.Origin)
	return ok && dist <= p.Miles
}
