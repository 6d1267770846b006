// Package e2e provides end-to-end tests that run the full HTTP API over the
// bleve-backed index with a fixed service corpus.
package e2e

import (
	"github.com/commonweal/beacon/internal/geo"
	"github.com/commonweal/beacon/internal/models"
)

// CollectionsSeed is the taxonomy tree and collections used by the corpus.
// The homelessness collection includes a mid-level taxonomy (t-homeless) so
// that services tagged with leaves only match through ancestor closure.
const CollectionsSeed = `
taxonomies:
  - id: t-support
    name: Support
    slug: support
  - id: t-homeless
    parent_id: t-support
    name: Homelessness
    slug: homelessness
  - id: t-shelter
    parent_id: t-homeless
    name: Night Shelters
    slug: night-shelters
  - id: t-outreach
    parent_id: t-homeless
    name: Street Outreach
    slug: street-outreach
  - id: t-advice
    parent_id: t-homeless
    name: Housing Advice
    slug: housing-advice
  - id: t-addiction
    parent_id: t-support
    name: Addiction
    slug: addiction
  - id: t-refugee
    parent_id: t-support
    name: Refugee Support
    slug: refugee-support
collections:
  - id: c-homeless
    type: category
    slug: homelessness
    name: Homelessness
    taxonomy_ids: [t-homeless, t-shelter, t-outreach]
  - id: c-addiction
    type: category
    slug: addiction
    name: Addiction
    taxonomy_ids: [t-addiction]
  - id: p-refugees
    type: persona
    slug: refugees
    name: Refugees
    taxonomy_ids: [t-refugee]
`

// Services returns the corpus. Taxonomy tags are leaves; the indexer expands
// them to their ancestor closure before the documents reach the index, which
// is what gives shelter-3 > shelter-2 > shelter-1 their overlap ordering
// against the homelessness collection.
func Services() []*models.SearchDocument {
	return []*models.SearchDocument{
		{
			ID:          "shelter-3",
			Name:        "City Night Shelter",
			TaxonomyIDs: []string{"t-shelter", "t-outreach"},
		},
		{
			ID:          "shelter-2",
			Name:        "Riverside Shelter",
			TaxonomyIDs: []string{"t-shelter"},
		},
		{
			ID:          "shelter-1",
			Name:        "Tenancy Advice Desk",
			TaxonomyIDs: []string{"t-advice"},
		},
		{
			ID:               "crisis-name",
			Name:             "Crisis Counselling",
			OrganisationName: "Helping Hands",
		},
		{
			ID:               "crisis-org",
			Name:             "Community Space",
			OrganisationName: "Crisis Counselling",
		},
		{
			ID:       "fast-help",
			Name:     "Rapid Support Line",
			WaitTime: models.WaitTimeOneWeek,
		},
		{
			ID:       "slow-help",
			Name:     "Long Term Therapy",
			WaitTime: models.WaitTimeMonth,
		},
		{
			ID:        "near-45",
			Name:      "Mountain Outpost",
			Locations: []geo.Coordinate{{Lat: 45.001, Lon: 90.001}},
		},
		{
			ID:        "origin-0",
			Name:      "Meridian Centre",
			Locations: []geo.Coordinate{{Lat: 0, Lon: 0}},
		},
		{
			ID:        "far-corner",
			Name:      "Polar Station",
			Locations: []geo.Coordinate{{Lat: 90, Lon: 180}},
		},
		{
			ID:         "national-line",
			Name:       "National Helpline",
			Type:       models.TypeHelpline,
			IsNational: true,
		},
		{
			ID:          "addiction-1",
			Name:        "Recovery Group",
			Type:        models.TypeGroup,
			IsFree:      true,
			TaxonomyIDs: []string{"t-addiction"},
		},
	}
}

// SearchScenario is one search request with its expected outcome.
// WantOrder, when set, is the expected prefix of result ids in order;
// WantTotal of -1 means the total is not asserted.
type SearchScenario struct {
	Description string
	Request     map[string]any
	WantTotal   int
	WantOrder   []string
}

// Scenarios returns the behavioral test cases run against the corpus.
func Scenarios() []SearchScenario {
	return []SearchScenario{
		{
			Description: "nonsense query keeps category membership",
			Request:     map[string]any{"query": "zzqqxx", "category": "homelessness"},
			WantTotal:   3,
		},
		{
			Description: "taxonomy overlap orders category results",
			Request:     map[string]any{"category": "homelessness"},
			WantTotal:   3,
			WantOrder:   []string{"shelter-3", "shelter-2", "shelter-1"},
		},
		{
			Description: "name match outranks organisation name match",
			Request:     map[string]any{"query": "crisis counselling"},
			WantTotal:   -1,
			WantOrder:   []string{"crisis-name", "crisis-org"},
		},
		{
			Description: "wait time filter is an upper bound",
			Request:     map[string]any{"wait_time": "two_weeks"},
			WantTotal:   1,
			WantOrder:   []string{"fast-help"},
		},
		{
			Description: "national filter keeps only national services",
			Request:     map[string]any{"is_national": true},
			WantTotal:   1,
			WantOrder:   []string{"national-line"},
		},
		{
			Description: "default radius keeps only nearby located services",
			Request:     map[string]any{"location": map[string]float64{"lat": 45, "lon": 90}},
			WantTotal:   1,
			WantOrder:   []string{"near-45"},
		},
		{
			Description: "wide radius orders by distance",
			Request: map[string]any{
				"location": map[string]float64{"lat": 45, "lon": 90},
				"radius":   20000.0,
				"order":    "distance",
			},
			WantTotal: 3,
			WantOrder: []string{"near-45"},
		},
		{
			Description: "free filter keeps only free services",
			Request:     map[string]any{"is_free": true},
			WantTotal:   1,
			WantOrder:   []string{"addiction-1"},
		},
		{
			Description: "persona filter resolves its own collection",
			Request:     map[string]any{"persona": "refugees"},
			WantTotal:   0,
		},
	}
}
