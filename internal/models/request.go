package models

import (
	"strings"

	"github.com/commonweal/beacon/internal/apierr"
	"github.com/commonweal/beacon/internal/geo"
)

// SortOrder selects how matching documents are ordered.
type SortOrder string

const (
	OrderRelevance SortOrder = "relevance"
	OrderDistance  SortOrder = "distance"
)

// SearchRequest is the caller's search input, immutable per call.
// Category and Persona are comma-separated slug lists and are mutually
// exclusive. Radius is in miles and only meaningful with Location.
type SearchRequest struct {
	Query      string          `json:"query,omitempty"`
	Type       ServiceType     `json:"type,omitempty"`
	Category   string          `json:"category,omitempty"`
	Persona    string          `json:"persona,omitempty"`
	WaitTime   WaitTime        `json:"wait_time,omitempty"`
	IsFree     *bool           `json:"is_free,omitempty"`
	IsNational *bool           `json:"is_national,omitempty"`
	Location   *geo.Coordinate `json:"location,omitempty"`
	Radius     *float64        `json:"radius,omitempty"`
	Order      SortOrder       `json:"order,omitempty"`
	Page       *int            `json:"page,omitempty"`
	PerPage    int             `json:"per_page,omitempty"`
}

// PageOrDefault returns the requested page, or 1 when absent.
func (r *SearchRequest) PageOrDefault() int {
	if r.Page == nil {
		return 1
	}
	return *r.Page
}

// CategorySlugs returns the category slugs, split and trimmed.
func (r *SearchRequest) CategorySlugs() []string {
	return splitSlugs(r.Category)
}

// PersonaSlugs returns the persona slugs, split and trimmed.
func (r *SearchRequest) PersonaSlugs() []string {
	return splitSlugs(r.Persona)
}

func splitSlugs(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	slugs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			slugs = append(slugs, p)
		}
	}
	return slugs
}

// Validate checks the structural validity of the request and applies the
// relevance default for order. It does not resolve slugs; unknown slugs are
// reported by the taxonomy resolver.
func (r *SearchRequest) Validate() error {
	verr := &ValidationBuilder{}

	if r.Order == "" {
		r.Order = OrderRelevance
	}
	if r.Order != OrderRelevance && r.Order != OrderDistance {
		verr.Add("order", "must be relevance or distance")
	}
	if r.Order == OrderDistance && r.Location == nil {
		verr.Add("order", "distance ordering requires a location")
	}
	if r.Type != "" && !r.Type.Valid() {
		verr.Add("type", "unknown service type")
	}
	if r.WaitTime != "" && !r.WaitTime.Valid() {
		verr.Add("wait_time", "unknown wait time")
	}
	if len(r.CategorySlugs()) > 0 && len(r.PersonaSlugs()) > 0 {
		verr.Add("persona", "category and persona filters are mutually exclusive")
	}
	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			verr.Merge(err)
		}
	}
	// Page is a pointer so an explicit zero is distinguishable from absent.
	if r.Page != nil && *r.Page < 1 {
		verr.Add("page", "must be at least 1")
	}
	if r.Radius != nil {
		if r.Location == nil {
			verr.Add("radius", "radius requires a location")
		}
		if *r.Radius <= 0 {
			verr.Add("radius", "must be greater than zero")
		}
	}
	return verr.Err()
}

// ValidationBuilder accumulates field errors while a request is checked.
type ValidationBuilder struct {
	err *apierr.ValidationError
}

// Add records a field error.
func (b *ValidationBuilder) Add(field, message string) {
	if b.err == nil {
		b.err = &apierr.ValidationError{}
	}
	b.err.Add(field, message)
}

// Merge folds field details from another ValidationError into the builder.
// Non-validation errors are recorded under a generic field.
func (b *ValidationBuilder) Merge(err error) {
	if verr, ok := err.(*apierr.ValidationError); ok {
		for f, m := range verr.Fields {
			b.Add(f, m)
		}
		return
	}
	b.Add("request", err.Error())
}

// Err returns the accumulated ValidationError, or nil when no field failed.
func (b *ValidationBuilder) Err() error {
	if b.err == nil {
		return nil
	}
	return b.err
}
