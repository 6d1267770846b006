package ranking

import (
	"sort"

	"github.com/commonweal/beacon/internal/apierr"
	"github.com/commonweal/beacon/internal/models"
)

// RankedService holds a document with its computed score and, for geo-aware
// requests, the distance from the request origin to its nearest location.
type RankedService struct {
	Document      *models.SearchDocument
	Score         float64
	DistanceMiles *float64
}

// Ranker orders filtered documents by relevance score or by distance.
type Ranker struct {
	scorer *Scorer
}

// NewRanker creates a Ranker using the given scorer.
func NewRanker(scorer *Scorer) *Ranker {
	return &Ranker{scorer: scorer}
}

// Rank scores docs against ctx and returns them in the order requested.
// Relevance ordering sorts by score descending; distance ordering sorts
// ascending by each document's nearest location. Ties break on document id
// so identical requests always produce identical orderings.
func (r *Ranker) Rank(docs []*models.SearchDocument, order models.SortOrder, ctx ScoringContext) ([]RankedService, error) {
	if order == models.OrderDistance && ctx.Origin == nil {
		return nil, apierr.NewValidation("order", "distance ordering requires a location")
	}

	ranked := make([]RankedService, 0, len(docs))
	for _, doc := range docs {
		ranked = append(ranked, r.rankOne(doc, ctx))
	}
	sortRanked(ranked, order)
	return ranked, nil
}

// RankPrescored orders documents whose scores were already computed (e.g.
// in parallel by the engine). The slice is sorted in place.
func (r *Ranker) RankPrescored(ranked []RankedService, order models.SortOrder, ctx ScoringContext) ([]RankedService, error) {
	if order == models.OrderDistance && ctx.Origin == nil {
		return nil, apierr.NewValidation("order", "distance ordering requires a location")
	}
	sortRanked(ranked, order)
	return ranked, nil
}

// ScoreOne computes the score and distance metadata for a single document.
func (r *Ranker) ScoreOne(doc *models.SearchDocument, ctx ScoringContext) RankedService {
	return r.rankOne(doc, ctx)
}

func (r *Ranker) rankOne(doc *models.SearchDocument, ctx ScoringContext) RankedService {
	rs := RankedService{Document: doc, Score: r.scorer.Score(doc, ctx)}
	if ctx.Origin != nil {
		if dist, ok := doc.NearestDistanceMiles(*ctx.Origin); ok {
			d := dist
			rs.DistanceMiles = &d
		}
	}
	return rs
}

func sortRanked(ranked []RankedService, order models.SortOrder) {
	if order == models.OrderDistance {
		sort.Slice(ranked, func(i, j int) bool {
			di, dj := ranked[i].DistanceMiles, ranked[j].DistanceMiles
			// Documents without locations cannot reach distance ordering
			// through the filters, but guard the comparator anyway.
			if di == nil || dj == nil {
				if di == nil && dj == nil {
					return ranked[i].Document.ID < ranked[j].Document.ID
				}
				return dj == nil
			}
			if *di != *dj {
				return *di < *dj
			}
			return ranked[i].Document.ID < ranked[j].Document.ID
		})
		return
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Document.ID < ranked[j].Document.ID
	})
}
