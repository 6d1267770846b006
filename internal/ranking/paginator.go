package ranking

import (
	"fmt"

	"github.com/commonweal/beacon/internal/apierr"
	"github.com/commonweal/beacon/internal/models"
)

// Paginator slices an ordered result set into 1-indexed pages.
type Paginator struct {
	defaultPerPage int
	maxPerPage     int
}

// NewPaginator creates a Paginator with the given page-size bounds.
func NewPaginator(defaultPerPage, maxPerPage int) *Paginator {
	if defaultPerPage <= 0 {
		defaultPerPage = 25
	}
	if maxPerPage <= 0 {
		maxPerPage = 100
	}
	return &Paginator{defaultPerPage: defaultPerPage, maxPerPage: maxPerPage}
}

// Paginate returns the requested page of ranked as a result envelope.
// page 0 means the first page; a negative page is a validation error.
// perPage is clamped to the configured maximum, with the default used when
// absent or invalid. Pages past the end return an empty data slice.
func (p *Paginator) Paginate(ranked []RankedService, page, perPage int) (*models.SearchResult, error) {
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, apierr.NewValidation("page", "must be at least 1")
	}
	if perPage <= 0 {
		perPage = p.defaultPerPage
	}
	if perPage > p.maxPerPage {
		perPage = p.maxPerPage
	}

	total := len(ranked)
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	data := make([]models.ResultSummary, 0, end-start)
	for _, rs := range ranked[start:end] {
		data = append(data, summarise(rs))
	}

	result := &models.SearchResult{
		Data: data,
		Meta: models.PageMeta{
			CurrentPage: page,
			PerPage:     perPage,
			Total:       total,
			LastPage:    lastPage,
		},
		Links: models.PageLinks{
			First: pageLink(1),
			Last:  pageLink(lastPage),
		},
	}
	if page > 1 && page <= lastPage {
		prev := pageLink(page - 1)
		result.Links.Prev = &prev
	}
	if page < lastPage {
		next := pageLink(page + 1)
		result.Links.Next = &next
	}
	return result, nil
}

func pageLink(page int) string {
	return fmt.Sprintf("?page=%d", page)
}

func summarise(rs RankedService) models.ResultSummary {
	doc := rs.Document
	return models.ResultSummary{
		ID:               doc.ID,
		Name:             doc.Name,
		Intro:            doc.Intro,
		OrganisationName: doc.OrganisationName,
		Type:             doc.Type,
		IsFree:           doc.IsFree,
		IsNational:       doc.IsNational,
		Score:            rs.Score,
		DistanceMiles:    rs.DistanceMiles,
	}
}
