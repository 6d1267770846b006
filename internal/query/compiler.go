package query

import (
	"context"

	"github.com/commonweal/beacon/internal/apierr"
	"github.com/commonweal/beacon/internal/models"
	"github.com/commonweal/beacon/internal/ranking"
	"github.com/commonweal/beacon/internal/taxonomy"
)

// Compiler turns a validated search request into a FilterSet and a
// ScoringContext. The free-text query is never compiled into the filter
// set: a non-matching query narrows ranking, not membership.
type Compiler struct {
	resolver           *taxonomy.Resolver
	defaultRadiusMiles float64
}

// NewCompiler creates a Compiler. defaultRadiusMiles is used when a request
// supplies a location but no explicit radius.
func NewCompiler(resolver *taxonomy.Resolver, defaultRadiusMiles float64) *Compiler {
	if defaultRadiusMiles <= 0 {
		defaultRadiusMiles = 15
	}
	return &Compiler{resolver: resolver, defaultRadiusMiles: defaultRadiusMiles}
}

// Compile validates req and produces the mandatory predicate set plus the
// scoring context. canSeeInactive lifts the active-only visibility filter
// for privileged callers.
func (c *Compiler) Compile(ctx context.Context, req *models.SearchRequest, canSeeInactive bool) (FilterSet, ranking.ScoringContext, error) {
	var (
		fs   FilterSet
		sctx = ranking.ScoringContext{Query: req.Query}
	)
	if err := req.Validate(); err != nil {
		return fs, sctx, err
	}

	if !canSeeInactive {
		fs.Predicates = append(fs.Predicates, StatusPredicate{Status: models.StatusActive})
	}
	if req.Type != "" {
		fs.Predicates = append(fs.Predicates, TypePredicate{Type: req.Type})
	}

	taxonomyIDs, err := c.resolveCollections(ctx, req)
	if err != nil {
		return fs, sctx, err
	}
	if len(taxonomyIDs) > 0 {
		fs.Predicates = append(fs.Predicates, TaxonomyPredicate{TaxonomyIDs: taxonomyIDs})
		sctx.TaxonomyIDs = taxonomyIDs
	}

	if req.WaitTime != "" {
		fs.Predicates = append(fs.Predicates, WaitTimePredicate{Max: req.WaitTime})
	}
	if req.IsFree != nil {
		fs.Predicates = append(fs.Predicates, IsFreePredicate{Value: *req.IsFree})
	}

	switch {
	case req.Location != nil:
		// Location takes precedence: national documents are excluded and an
		// explicit is_national filter is ignored.
		radius := c.defaultRadiusMiles
		if req.Radius != nil {
			radius = *req.Radius
		}
		fs.Predicates = append(fs.Predicates,
			IsNationalPredicate{Value: false},
			RadiusPredicate{Origin: *req.Location, Miles: radius},
		)
		origin := *req.Location
		sctx.Origin = &origin
	case req.IsNational != nil:
		fs.Predicates = append(fs.Predicates, IsNationalPredicate{Value: *req.IsNational})
	}

	return fs, sctx, nil
}

func (c *Compiler) resolveCollections(ctx context.Context, req *models.SearchRequest) ([]string, error) {
	if slugs := req.CategorySlugs(); len(slugs) > 0 {
		ids, err := c.resolver.Resolve(ctx, models.CollectionCategory, slugs)
		return ids, slugErr("category", err)
	}
	if slugs := req.PersonaSlugs(); len(slugs) > 0 {
		ids, err := c.resolver.Resolve(ctx, models.CollectionPersona, slugs)
		return ids, slugErr("persona", err)
	}
	return nil, nil
}

// slugErr maps an unresolvable slug to a validation failure on the filter
// field that carried it. NotFound stays reserved for resource lookups.
func slugErr(field string, err error) error {
	if apierr.IsNotFound(err) {
		return apierr.NewValidation(field, err.Error())
	}
	return err
}
