package index

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/commonweal/beacon/internal/models"
	"github.com/commonweal/beacon/internal/query"
	"github.com/commonweal/beacon/internal/storage"
)

// BleveIndex implements ServiceIndex using Bleve for predicate retrieval and
// the storage layer for document hydration. Scalar predicates (status, type,
// taxonomy, wait time, flags) are pushed down into a Bleve conjunction query;
// the radius predicate is re-evaluated in Go against hydrated documents
// because a service can have several locations and Bleve geo fields hold one
// point per field.
type BleveIndex struct {
	index bleve.Index
	store storage.Storage
}

// bleveDoc is the indexable projection of a SearchDocument. Wait time is
// flattened to its ordinal so an upper-bound filter becomes a numeric range.
type bleveDoc struct {
	Name             string   `json:"name"`
	Intro            string   `json:"intro"`
	Description      string   `json:"description"`
	OrganisationName string   `json:"organisation_name"`
	TaxonomyNames    []string `json:"taxonomy_names"`
	TaxonomyIDs      []string `json:"taxonomy_ids"`
	Type             string   `json:"type"`
	Status           string   `json:"status"`
	IsFree           bool     `json:"is_free"`
	IsNational       bool     `json:"is_national"`
	WaitOrdinal      float64  `json:"wait_ordinal"`
}

// NewBleveIndex creates or opens a Bleve index at path. Documents returned
// from FindMatching are hydrated from store, so the index only carries the
// filterable projection.
func NewBleveIndex(path string, store storage.Storage) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	for _, f := range []string{"name", "intro", "description", "organisation_name", "taxonomy_names"} {
		docMapping.AddFieldMappingsAt(f, textField)
	}

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name
	for _, f := range []string{"type", "status", "taxonomy_ids"} {
		docMapping.AddFieldMappingsAt(f, keywordField)
	}

	boolField := bleve.NewBooleanFieldMapping()
	docMapping.AddFieldMappingsAt("is_free", boolField)
	docMapping.AddFieldMappingsAt("is_national", boolField)

	numericField := bleve.NewNumericFieldMapping()
	docMapping.AddFieldMappingsAt("wait_ordinal", numericField)

	im.AddDocumentMapping("service", docMapping)
	im.DefaultType = "service"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		idx, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: idx, store: store}, nil
	}

	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: idx, store: store}, nil
}

// Index indexes the filterable projection of a document.
func (b *BleveIndex) Index(ctx context.Context, doc *models.SearchDocument) error {
	return b.index.Index(doc.ID, bleveDoc{
		Name:             doc.Name,
		Intro:            doc.Intro,
		Description:      doc.Description,
		OrganisationName: doc.OrganisationName,
		TaxonomyNames:    doc.TaxonomyNames,
		TaxonomyIDs:      doc.TaxonomyIDs,
		Type:             string(doc.Type),
		Status:           string(doc.Status),
		IsFree:           doc.IsFree,
		IsNational:       doc.IsNational,
		WaitOrdinal:      float64(doc.WaitTime.Ordinal()),
	})
}

// Delete removes a document from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// FindMatching translates the filter set into a Bleve conjunction, hydrates
// each hit from storage, and re-checks the full predicate set. The re-check
// applies the predicates Bleve cannot express, the radius predicate above
// all.
func (b *BleveIndex) FindMatching(ctx context.Context, fs query.FilterSet, limit int) ([]*models.SearchDocument, error) {
	req := bleve.NewSearchRequest(compileBleveQuery(fs))
	req.Size = limit
	if req.Size <= 0 {
		req.Size = 1000
	}

	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]*models.SearchDocument, 0, len(results.Hits))
	for _, hit := range results.Hits {
		doc, err := b.store.GetService(ctx, hit.ID)
		if err != nil {
			// Index and storage can briefly disagree after a delete.
			continue
		}
		if fs.Matches(doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// compileBleveQuery maps every pushdown-capable predicate to a sub-query and
// joins them as a conjunction. An empty filter set becomes match-all.
func compileBleveQuery(fs query.FilterSet) blevequery.Query {
	var parts []blevequery.Query
	for _, p := range fs.Predicates {
		switch pred := p.(type) {
		case query.StatusPredicate:
			tq := bleve.NewTermQuery(string(pred.Status))
			tq.SetField("status")
			parts = append(parts, tq)
		case query.TypePredicate:
			tq := bleve.NewTermQuery(string(pred.Type))
			tq.SetField("type")
			parts = append(parts, tq)
		case query.TaxonomyPredicate:
			terms := make([]blevequery.Query, 0, len(pred.TaxonomyIDs))
			for _, id := range pred.TaxonomyIDs {
				tq := bleve.NewTermQuery(id)
				tq.SetField("taxonomy_ids")
				terms = append(terms, tq)
			}
			parts = append(parts, bleve.NewDisjunctionQuery(terms...))
		case query.WaitTimePredicate:
			min, max := 1.0, float64(pred.Max.Ordinal())
			incl := true
			nrq := bleve.NewNumericRangeInclusiveQuery(&min, &max, &incl, &incl)
			nrq.SetField("wait_ordinal")
			parts = append(parts, nrq)
		case query.IsFreePredicate:
			bq := bleve.NewBoolFieldQuery(pred.Value)
			bq.SetField("is_free")
			parts = append(parts, bq)
		case query.IsNationalPredicate:
			bq := bleve.NewBoolFieldQuery(pred.Value)
			bq.SetField("is_national")
			parts = append(parts, bq)
		}
		// RadiusPredicate is handled by the post-hydration re-check.
	}
	if len(parts) == 0 {
		return bleve.NewMatchAllQuery()
	}
	return bleve.NewConjunctionQuery(parts...)
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
