package ranking

import (
	"errors"
	"testing"

	"github.com/commonweal/beacon/internal/apierr"
	"github.com/commonweal/beacon/internal/geo"
	"github.com/commonweal/beacon/internal/models"
)

func TestRanker_RankByRelevance(t *testing.T) {
	ranker := NewRanker(NewScorer(nil))
	ctx := ScoringContext{Query: "Test Name"}

	docs := []*models.SearchDocument{
		{ID: "org-match", Name: "Unrelated", OrganisationName: "Test Name"},
		{ID: "name-match", Name: "Test Name"},
		{ID: "no-match", Name: "Something else"},
	}

	ranked, err := ranker.Rank(docs, models.OrderRelevance, ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := ids(ranked)
	want := []string{"name-match", "org-match", "no-match"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRanker_ZeroScoreStillIncluded(t *testing.T) {
	ranker := NewRanker(NewScorer(nil))
	docs := []*models.SearchDocument{
		{ID: "a", Name: "Foo"},
		{ID: "b", Name: "Bar"},
	}
	ranked, err := ranker.Rank(docs, models.OrderRelevance, ScoringContext{Query: "zzzz"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected both zero-score documents kept, got %d", len(ranked))
	}
}

func TestRanker_StableTieBreakOnID(t *testing.T) {
	ranker := NewRanker(NewScorer(nil))
	docs := []*models.SearchDocument{
		{ID: "c"}, {ID: "a"}, {ID: "b"},
	}
	ranked, err := ranker.Rank(docs, models.OrderRelevance, ScoringContext{})
	if err != nil {
		t.Fatal(err)
	}
	got := ids(ranked)
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tie-break order = %v, want %v", got, want)
		}
	}
}

func TestRanker_RankByDistance(t *testing.T) {
	ranker := NewRanker(NewScorer(nil))
	origin := geo.Coordinate{Lat: 20, Lon: 20}
	ctx := ScoringContext{Origin: &origin}

	docs := []*models.SearchDocument{
		{ID: "far", Locations: []geo.Coordinate{{Lat: 20.15, Lon: 20.15}}},
		{ID: "exact", Locations: []geo.Coordinate{{Lat: 20, Lon: 20}}},
		{ID: "near", Locations: []geo.Coordinate{{Lat: 19.9, Lon: 19.9}}},
	}

	ranked, err := ranker.Rank(docs, models.OrderDistance, ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := ids(ranked)
	want := []string{"exact", "near", "far"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if ranked[0].DistanceMiles == nil || *ranked[0].DistanceMiles > 0.01 {
		t.Errorf("expected zero distance for exact match, got %v", ranked[0].DistanceMiles)
	}
}

func TestRanker_NearestLocationWins(t *testing.T) {
	ranker := NewRanker(NewScorer(nil))
	origin := geo.Coordinate{Lat: 0, Lon: 0}
	ctx := ScoringContext{Origin: &origin}

	// Multi-site service whose second location is nearest.
	multi := &models.SearchDocument{ID: "multi", Locations: []geo.Coordinate{
		{Lat: 10, Lon: 10},
		{Lat: 0.1, Lon: 0.1},
	}}
	single := &models.SearchDocument{ID: "single", Locations: []geo.Coordinate{{Lat: 1, Lon: 1}}}

	ranked, err := ranker.Rank([]*models.SearchDocument{single, multi}, models.OrderDistance, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ranked[0].Document.ID != "multi" {
		t.Errorf("expected nearest location of multi-site service to win, got %v", ids(ranked))
	}
}

func TestRanker_DistanceWithoutOrigin(t *testing.T) {
	ranker := NewRanker(NewScorer(nil))
	_, err := ranker.Rank(nil, models.OrderDistance, ScoringContext{})
	var verr *apierr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRanker_DistanceMetadataOnRelevanceOrder(t *testing.T) {
	ranker := NewRanker(NewScorer(nil))
	origin := geo.Coordinate{Lat: 45, Lon: 90}
	ctx := ScoringContext{Query: "Test Name", Origin: &origin}

	docs := []*models.SearchDocument{
		{ID: "a", Name: "Test Name", Locations: []geo.Coordinate{{Lat: 45.01, Lon: 90.01}}},
	}
	ranked, err := ranker.Rank(docs, models.OrderRelevance, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ranked[0].DistanceMiles == nil {
		t.Error("expected distance metadata on relevance-ordered geo request")
	}
}

func ids(ranked []RankedService) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Document.ID
	}
	return out
}
