package models

// ResultSummary is a single search hit in the response envelope.
// Distance is only set for geo-aware requests.
type ResultSummary struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Intro            string      `json:"intro,omitempty"`
	OrganisationName string      `json:"organisation_name,omitempty"`
	Type             ServiceType `json:"type"`
	IsFree           bool        `json:"is_free"`
	IsNational       bool        `json:"is_national"`
	Score            float64     `json:"score"`
	DistanceMiles    *float64    `json:"distance_miles,omitempty"`
}

// PageMeta is the pagination metadata of a result envelope.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}

// PageLinks holds relative page pointers. Prev and Next are nil at the edges.
type PageLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// SearchResult is the paginated response envelope for a search request.
type SearchResult struct {
	Data  []ResultSummary `json:"data"`
	Meta  PageMeta        `json:"meta"`
	Links PageLinks       `json:"links"`
}
