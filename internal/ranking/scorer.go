package ranking

import (
	"strings"

	"github.com/commonweal/beacon/internal/geo"
	"github.com/commonweal/beacon/internal/models"
)

// ScoringContext carries the optional scoring contributors of a request:
// the free-text query, the taxonomy ids resolved from an active
// category/persona filter, and the request origin for distance metadata.
// It never affects which documents are included, only how they rank.
type ScoringContext struct {
	Query       string
	TaxonomyIDs []string
	Origin      *geo.Coordinate
}

// Scorer computes the relevance score of a document for a request.
type Scorer struct {
	config *RankingConfig
}

// NewScorer creates a Scorer with the given configuration.
func NewScorer(config *RankingConfig) *Scorer {
	if config == nil {
		config = DefaultRankingConfig()
	}
	config.ApplyDefaults()
	return &Scorer{config: config}
}

// Score returns the combined relevance score: the weighted text-match boost
// plus the taxonomy-overlap boost. A zero score keeps the document eligible;
// inclusion is decided by the mandatory filters alone.
func (s *Scorer) Score(doc *models.SearchDocument, ctx ScoringContext) float64 {
	return s.textBoost(doc, ctx.Query) + s.overlapBoost(doc, ctx.TaxonomyIDs)
}

// textBoost scores each field independently against the query terms and sums
// the weighted contributions. A field contributes its weight scaled by the
// fraction of query terms it contains, so a full name match always outranks
// a full organisation-name match.
func (s *Scorer) textBoost(doc *models.SearchDocument, query string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}

	boost := 0.0
	boost += s.config.NameWeight * termFraction(terms, doc.Name)
	boost += s.config.IntroWeight * termFraction(terms, doc.Intro)
	boost += s.config.DescriptionWeight * termFraction(terms, doc.Description)
	boost += s.config.TaxonomyNameWeight * termFraction(terms, strings.Join(doc.TaxonomyNames, " "))
	boost += s.config.OrganisationNameWeight * termFraction(terms, doc.OrganisationName)
	return boost
}

// overlapBoost grows monotonically with the number of filtered taxonomies
// the document is tagged with. Empty ids means no collection filter is
// active and the boost is zero.
func (s *Scorer) overlapBoost(doc *models.SearchDocument, ids []string) float64 {
	if len(ids) == 0 {
		return 0
	}
	return s.config.TaxonomyOverlapBoost * float64(doc.TaxonomyOverlap(ids))
}

// termFraction returns the fraction of terms found in text, case-insensitive.
// Terms are matched as substrings, order-independent.
func termFraction(terms []string, text string) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
