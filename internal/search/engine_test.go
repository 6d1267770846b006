package search

import (
	"context"
	"errors"
	"testing"

	"github.com/commonweal/beacon/internal/apierr"
	"github.com/commonweal/beacon/internal/config"
	"github.com/commonweal/beacon/internal/geo"
	"github.com/commonweal/beacon/internal/index"
	"github.com/commonweal/beacon/internal/models"
	"github.com/commonweal/beacon/internal/query"
	"github.com/commonweal/beacon/internal/ranking"
	"github.com/commonweal/beacon/internal/taxonomy"
)

type fixtureStore struct {
	collections map[models.CollectionType]map[string]*models.Collection
}

func (s *fixtureStore) CollectionBySlug(_ context.Context, typ models.CollectionType, slug string) (*models.Collection, error) {
	if col, ok := s.collections[typ][slug]; ok {
		return col, nil
	}
	return nil, apierr.NewNotFound(string(typ)+" collection", slug)
}

func (s *fixtureStore) Collections(_ context.Context, typ models.CollectionType) ([]*models.Collection, error) {
	out := make([]*models.Collection, 0)
	for _, col := range s.collections[typ] {
		out = append(out, col)
	}
	return out, nil
}

func (s *fixtureStore) Taxonomy(_ context.Context, id string) (*models.Taxonomy, error) {
	return nil, apierr.NewNotFound("taxonomy", id)
}

func (s *fixtureStore) Closure(_ context.Context, ids []string) ([]string, error) { return ids, nil }

func (s *fixtureStore) Names(_ context.Context, ids []string) ([]string, error) { return nil, nil }

func newTestEngine(t *testing.T, docs []*models.SearchDocument) *Engine {
	t.Helper()

	idx := index.NewMemoryIndex()
	ctx := context.Background()
	for _, d := range docs {
		if err := idx.Index(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	return newTestEngineWithIndex(t, idx)
}

func newTestEngineWithIndex(t *testing.T, idx index.ServiceIndex) *Engine {
	t.Helper()

	store := &fixtureStore{collections: map[models.CollectionType]map[string]*models.Collection{
		models.CollectionCategory: {
			"housing":   {ID: "c1", Type: models.CollectionCategory, Slug: "housing", TaxonomyIDs: []string{"tx-housing", "tx-homeless"}},
			"addiction": {ID: "c2", Type: models.CollectionCategory, Slug: "addiction", TaxonomyIDs: []string{"tx-addiction"}},
		},
		models.CollectionPersona: {},
	}}

	full := &config.Config{}
	config.ApplyDefaults(full)

	compiler := query.NewCompiler(taxonomy.NewResolver(store), full.Search.DefaultRadiusMiles)
	ranker := ranking.NewRanker(ranking.NewScorer(ranking.DefaultRankingConfig()))

	engine, err := NewEngine(compiler, idx, ranker, &full.Search, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func activeDoc(id, name string) *models.SearchDocument {
	return &models.SearchDocument{
		ID: id, Name: name, Type: models.TypeService, Status: models.StatusActive,
	}
}

func intp(n int) *int { return &n }

func TestEngine_QueryNeverFilters(t *testing.T) {
	docs := []*models.SearchDocument{
		activeDoc("a", "Food Bank"),
		activeDoc("b", "Night Shelter"),
	}
	engine := newTestEngine(t, docs)

	result, err := engine.Search(context.Background(), &models.SearchRequest{
		Query: "entirely unrelated words",
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Meta.Total != 2 {
		t.Errorf("a non-matching query must not shrink the result set: total = %d", result.Meta.Total)
	}
	for _, r := range result.Data {
		if r.Score != 0 {
			t.Errorf("expected zero score for non-matching query, got %f for %s", r.Score, r.ID)
		}
	}
}

func TestEngine_NameMatchOutranks(t *testing.T) {
	nameHit := activeDoc("name-hit", "Counselling Service")
	descHit := activeDoc("desc-hit", "Community Hub")
	descHit.Description = "Offers counselling to local residents"

	engine := newTestEngine(t, []*models.SearchDocument{descHit, nameHit})

	result, err := engine.Search(context.Background(), &models.SearchRequest{Query: "counselling"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Data) != 2 {
		t.Fatalf("expected 2 results, got %d", len(result.Data))
	}
	if result.Data[0].ID != "name-hit" {
		t.Errorf("name match must outrank description match, got %s first", result.Data[0].ID)
	}
}

func TestEngine_TaxonomyOverlapBoost(t *testing.T) {
	both := activeDoc("both", "Service A")
	both.TaxonomyIDs = []string{"tx-housing", "tx-homeless"}
	one := activeDoc("one", "Service B")
	one.TaxonomyIDs = []string{"tx-housing"}

	engine := newTestEngine(t, []*models.SearchDocument{one, both})

	result, err := engine.Search(context.Background(), &models.SearchRequest{Category: "housing"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Data) != 2 {
		t.Fatalf("expected 2 results, got %d", len(result.Data))
	}
	if result.Data[0].ID != "both" {
		t.Errorf("stronger taxonomy overlap must rank first, got %s", result.Data[0].ID)
	}
	if result.Data[0].Score <= result.Data[1].Score {
		t.Errorf("expected strictly higher score for stronger overlap: %f vs %f",
			result.Data[0].Score, result.Data[1].Score)
	}
}

func TestEngine_CategoryFiltersMembership(t *testing.T) {
	tagged := activeDoc("tagged", "Addiction Support")
	tagged.TaxonomyIDs = []string{"tx-addiction"}
	untagged := activeDoc("untagged", "Gardening Club")

	engine := newTestEngine(t, []*models.SearchDocument{tagged, untagged})

	result, err := engine.Search(context.Background(), &models.SearchRequest{Category: "addiction"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Meta.Total != 1 || result.Data[0].ID != "tagged" {
		t.Errorf("category filter must exclude untagged documents: %+v", result.Data)
	}
}

func TestEngine_DistanceOrdering(t *testing.T) {
	near := activeDoc("near", "Near Service")
	near.Locations = []geo.Coordinate{{Lat: 51.51, Lon: -0.12}}
	far := activeDoc("far", "Far Service")
	far.Locations = []geo.Coordinate{{Lat: 51.6, Lon: -0.12}}
	national := activeDoc("national", "National Helpline")
	national.IsNational = true

	engine := newTestEngine(t, []*models.SearchDocument{far, near, national})

	loc := &geo.Coordinate{Lat: 51.5, Lon: -0.12}
	result, err := engine.Search(context.Background(), &models.SearchRequest{
		Location: loc,
		Order:    models.OrderDistance,
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Meta.Total != 2 {
		t.Fatalf("geo search must exclude national documents: total = %d", result.Meta.Total)
	}
	if result.Data[0].ID != "near" || result.Data[1].ID != "far" {
		t.Errorf("expected near,far ordering, got %s,%s", result.Data[0].ID, result.Data[1].ID)
	}
	if result.Data[0].DistanceMiles == nil {
		t.Error("expected distance metadata on geo results")
	}
}

func TestEngine_DistanceOrderWithoutLocation(t *testing.T) {
	engine := newTestEngine(t, nil)
	_, err := engine.Search(context.Background(), &models.SearchRequest{
		Order: models.OrderDistance,
	}, false)
	var verr *apierr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestEngine_Visibility(t *testing.T) {
	active := activeDoc("active", "Open Service")
	inactive := activeDoc("inactive", "Closed Service")
	inactive.Status = models.StatusInactive

	engine := newTestEngine(t, []*models.SearchDocument{active, inactive})
	ctx := context.Background()

	result, err := engine.Search(ctx, &models.SearchRequest{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Meta.Total != 1 {
		t.Errorf("unprivileged search must only see active services, got %d", result.Meta.Total)
	}

	result, err = engine.Search(ctx, &models.SearchRequest{}, true)
	if err != nil {
		t.Fatal(err)
	}
	if result.Meta.Total != 2 {
		t.Errorf("privileged search must see inactive services, got %d", result.Meta.Total)
	}
}

func TestEngine_Pagination(t *testing.T) {
	var docs []*models.SearchDocument
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		docs = append(docs, activeDoc(id, "Service "+id))
	}
	engine := newTestEngine(t, docs)
	ctx := context.Background()

	page1, err := engine.Search(ctx, &models.SearchRequest{Page: intp(1), PerPage: 2}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(page1.Data) != 2 || page1.Meta.LastPage != 3 || page1.Meta.Total != 5 {
		t.Errorf("page 1: %+v", page1.Meta)
	}
	if page1.Links.Next == nil {
		t.Error("expected next link on page 1")
	}

	page3, err := engine.Search(ctx, &models.SearchRequest{Page: intp(3), PerPage: 2}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(page3.Data) != 1 {
		t.Errorf("expected 1 result on the last page, got %d", len(page3.Data))
	}
	if page3.Links.Next != nil {
		t.Error("expected no next link on the last page")
	}

	past, err := engine.Search(ctx, &models.SearchRequest{Page: intp(9), PerPage: 2}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(past.Data) != 0 || past.Meta.Total != 5 {
		t.Errorf("page past the end must be empty with intact meta: %+v", past.Meta)
	}

	_, err = engine.Search(ctx, &models.SearchRequest{Page: intp(0), PerPage: 2}, false)
	var verr *apierr.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("explicit page 0 must fail validation, got %v", err)
	}
}

// unreachableIndex fails every retrieval.
type unreachableIndex struct {
	index.ServiceIndex
}

func (unreachableIndex) FindMatching(context.Context, query.FilterSet, int) ([]*models.SearchDocument, error) {
	return nil, errors.New("index unreachable")
}

func TestEngine_IndexFailureIsUpstream(t *testing.T) {
	engine := newTestEngineWithIndex(t, unreachableIndex{index.NewMemoryIndex()})

	_, err := engine.Search(context.Background(), &models.SearchRequest{}, false)
	var up *apierr.UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("expected UpstreamError for a failing index, got %T: %v", err, err)
	}
}

// Identical requests must return identical orderings, and paging through the
// set must partition it: every id exactly once, none skipped. Scoring runs on
// a worker pool, so this also guards the per-slot writes in scoreAll.
func TestEngine_RepeatedSearchStablePages(t *testing.T) {
	var docs []*models.SearchDocument
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		d := activeDoc(id, "Service "+id)
		if id == "c" || id == "f" {
			d.Description = "support with housing issues"
		}
		if id == "e" {
			d.Name = "Housing First"
		}
		docs = append(docs, d)
	}
	engine := newTestEngine(t, docs)
	ctx := context.Background()
	req := func(page int) *models.SearchRequest {
		return &models.SearchRequest{Query: "housing", Page: intp(page), PerPage: 3}
	}

	collect := func() []string {
		var ids []string
		for page := 1; ; page++ {
			result, err := engine.Search(ctx, req(page), false)
			if err != nil {
				t.Fatal(err)
			}
			if result.Meta.Total != len(docs) {
				t.Fatalf("query must not filter membership: total = %d", result.Meta.Total)
			}
			if len(result.Data) == 0 {
				return ids
			}
			for _, r := range result.Data {
				ids = append(ids, r.ID)
			}
			if page == result.Meta.LastPage {
				return ids
			}
		}
	}

	first := collect()
	if len(first) != len(docs) {
		t.Fatalf("paging skipped or duplicated documents: got %d ids %v", len(first), first)
	}
	seen := make(map[string]bool, len(first))
	for _, id := range first {
		if seen[id] {
			t.Fatalf("id %s appears on more than one page: %v", id, first)
		}
		seen[id] = true
	}
	for _, d := range docs {
		if !seen[d.ID] {
			t.Errorf("id %s missing from the paged set: %v", d.ID, first)
		}
	}

	for run := 0; run < 5; run++ {
		again := collect()
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("run %d: ordering diverged at %d: %v vs %v", run, i, again, first)
			}
		}
	}
}
