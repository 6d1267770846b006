// Package models defines core data structures for service documents,
// taxonomies, collections, and search requests and results.
package models

import (
	"time"

	"github.com/commonweal/beacon/internal/geo"
)

// ServiceType enumerates the kinds of entries in the directory.
type ServiceType string

const (
	TypeService     ServiceType = "service"
	TypeActivity    ServiceType = "activity"
	TypeClub        ServiceType = "club"
	TypeGroup       ServiceType = "group"
	TypeHelpline    ServiceType = "helpline"
	TypeInformation ServiceType = "information"
	TypeApp         ServiceType = "app"
	TypeAdvice      ServiceType = "advice"
)

// Valid reports whether t is a known service type.
func (t ServiceType) Valid() bool {
	switch t {
	case TypeService, TypeActivity, TypeClub, TypeGroup, TypeHelpline, TypeInformation, TypeApp, TypeAdvice:
		return true
	}
	return false
}

// ServiceStatus enumerates the visibility states of a service.
type ServiceStatus string

const (
	StatusActive   ServiceStatus = "active"
	StatusInactive ServiceStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s ServiceStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// WaitTime is the ordinal wait-time classification of a service.
// The empty value means the wait time is unknown.
type WaitTime string

const (
	WaitTimeOneWeek    WaitTime = "one_week"
	WaitTimeTwoWeeks   WaitTime = "two_weeks"
	WaitTimeThreeWeeks WaitTime = "three_weeks"
	WaitTimeMonth      WaitTime = "month"
	WaitTimeLonger     WaitTime = "longer"
)

// waitTimeOrdinals maps each wait time to its position on the ordinal scale.
var waitTimeOrdinals = map[WaitTime]int{
	WaitTimeOneWeek:    1,
	WaitTimeTwoWeeks:   2,
	WaitTimeThreeWeeks: 3,
	WaitTimeMonth:      4,
	WaitTimeLonger:     5,
}

// Valid reports whether w is a known wait time.
func (w WaitTime) Valid() bool {
	_, ok := waitTimeOrdinals[w]
	return ok
}

// Ordinal returns the position of w on the ordinal scale, or 0 when unknown.
func (w WaitTime) Ordinal() int {
	return waitTimeOrdinals[w]
}

// AtMost reports whether w is known and no longer than limit on the
// ordinal scale. "two_weeks".AtMost("two_weeks") is true; "month" is not.
func (w WaitTime) AtMost(limit WaitTime) bool {
	wo, lo := w.Ordinal(), limit.Ordinal()
	return wo > 0 && lo > 0 && wo <= lo
}

// SearchDocument is the read-only searchable projection of a service.
// Documents are produced by the indexer; the search engine never mutates them.
type SearchDocument struct {
	ID               string           `json:"id" yaml:"id" db:"id"`
	Name             string           `json:"name" yaml:"name" db:"name"`
	Intro            string           `json:"intro" yaml:"intro" db:"intro"`
	Description      string           `json:"description" yaml:"description" db:"description"`
	OrganisationName string           `json:"organisation_name" yaml:"organisation_name" db:"organisation_name"`
	TaxonomyNames    []string         `json:"taxonomy_names" yaml:"taxonomy_names"`
	TaxonomyIDs      []string         `json:"taxonomy_ids" yaml:"taxonomy_ids"`
	Type             ServiceType      `json:"type" yaml:"type" db:"type"`
	Status           ServiceStatus    `json:"status" yaml:"status" db:"status"`
	IsFree           bool             `json:"is_free" yaml:"is_free" db:"is_free"`
	IsNational       bool             `json:"is_national" yaml:"is_national" db:"is_national"`
	WaitTime         WaitTime         `json:"wait_time,omitempty" yaml:"wait_time,omitempty" db:"wait_time"`
	Locations        []geo.Coordinate `json:"locations" yaml:"locations"`
	UpdatedAt        time.Time        `json:"updated_at" yaml:"-" db:"updated_at"`
}

// HasTaxonomy reports whether the document is tagged with the given taxonomy id.
func (d *SearchDocument) HasTaxonomy(id string) bool {
	for _, t := range d.TaxonomyIDs {
		if t == id {
			return true
		}
	}
	return false
}

// TaxonomyOverlap counts how many of the given taxonomy ids the document
// is tagged with.
func (d *SearchDocument) TaxonomyOverlap(ids []string) int {
	overlap := 0
	for _, id := range ids {
		if d.HasTaxonomy(id) {
			overlap++
		}
	}
	return overlap
}

// NearestDistanceMiles returns the distance from origin to the document's
// nearest location. The second return is false when the document has no
// locations (e.g. national services).
func (d *SearchDocument) NearestDistanceMiles(origin geo.Coordinate) (float64, bool) {
	if len(d.Locations) == 0 {
		return 0, false
	}
	nearest := d.Locations[0].DistanceMiles(origin)
	for _, loc := range d.Locations[1:] {
		if dist := loc.DistanceMiles(origin); dist < nearest {
			nearest = dist
		}
	}
	return nearest, true
}

// Taxonomy is a node in the hierarchical classification tree.
// ParentID is empty for root taxonomies.
type Taxonomy struct {
	ID       string `json:"id" yaml:"id"`
	ParentID string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Name     string `json:"name" yaml:"name"`
	Slug     string `json:"slug" yaml:"slug"`
}

// CollectionType distinguishes category collections from persona collections.
type CollectionType string

const (
	CollectionCategory CollectionType = "category"
	CollectionPersona  CollectionType = "persona"
)

// Collection is a named grouping of taxonomies used as a filter dimension.
type Collection struct {
	ID          string         `json:"id" yaml:"id"`
	Type        CollectionType `json:"type" yaml:"type"`
	Slug        string         `json:"slug" yaml:"slug"`
	Name        string         `json:"name" yaml:"name"`
	TaxonomyIDs []string       `json:"taxonomy_ids" yaml:"taxonomy_ids"`
}
