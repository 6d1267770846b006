// Package indexer builds search documents and writes them into storage and
// the search index.
package indexer

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/commonweal/beacon/internal/apierr"
	"github.com/commonweal/beacon/internal/index"
	"github.com/commonweal/beacon/internal/models"
	"github.com/commonweal/beacon/internal/storage"
	"github.com/commonweal/beacon/internal/taxonomy"
)

// Indexer upserts and deletes service documents across storage and the
// search index. Taxonomy tags are expanded to their ancestor closure and
// taxonomy names are denormalised onto the document before writing, so the
// search side never needs a taxonomy lookup.
type Indexer struct {
	storage  storage.Storage
	index    index.ServiceIndex
	taxonomy taxonomy.Store
	logger   *zap.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(store storage.Storage, idx index.ServiceIndex, tax taxonomy.Store, opts ...Option) *Indexer {
	in := &Indexer{storage: store, index: idx, taxonomy: tax, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// UpsertService validates, enriches, and writes a service document. A
// missing id is generated; a missing status defaults to active. The input
// document is modified in place with the expanded taxonomy closure and
// denormalised names.
func (in *Indexer) UpsertService(ctx context.Context, doc *models.SearchDocument) error {
	if err := in.prepare(ctx, doc); err != nil {
		return err
	}
	if err := in.storage.UpsertService(ctx, doc); err != nil {
		return fmt.Errorf("failed to store service: %w", err)
	}
	if err := in.index.Index(ctx, doc); err != nil {
		return fmt.Errorf("failed to index service: %w", err)
	}
	in.logger.Debug("service indexed", zap.String("id", doc.ID), zap.String("name", doc.Name))
	return nil
}

// DeleteService removes a service from the index and storage.
func (in *Indexer) DeleteService(ctx context.Context, id string) error {
	if err := in.index.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from index: %w", err)
	}
	if err := in.storage.DeleteService(ctx, id); err != nil {
		return err
	}
	in.logger.Debug("service deleted", zap.String("id", id))
	return nil
}

// SeedFromFile reads a YAML list of service documents from path and upserts
// each. Returns the number of documents written and the first error.
func (in *Indexer) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed struct {
		Services []*models.SearchDocument `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("failed to parse seed file: %w", err)
	}

	n := 0
	for _, doc := range seed.Services {
		if err := in.UpsertService(ctx, doc); err != nil {
			return n, fmt.Errorf("seed service %q: %w", doc.Name, err)
		}
		n++
	}
	in.logger.Info("seed complete", zap.String("path", path), zap.Int("services", n))
	return n, nil
}

// prepare validates the document and fills in generated and derived fields.
func (in *Indexer) prepare(ctx context.Context, doc *models.SearchDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Status == "" {
		doc.Status = models.StatusActive
	}
	if doc.Type == "" {
		doc.Type = models.TypeService
	}

	verr := &models.ValidationBuilder{}
	if doc.Name == "" {
		verr.Add("name", "must not be empty")
	}
	if !doc.Type.Valid() {
		verr.Add("type", "unknown service type")
	}
	if !doc.Status.Valid() {
		verr.Add("status", "unknown status")
	}
	if doc.WaitTime != "" && !doc.WaitTime.Valid() {
		verr.Add("wait_time", "unknown wait time")
	}
	for _, loc := range doc.Locations {
		if err := loc.Validate(); err != nil {
			verr.Merge(err)
		}
	}
	if err := verr.Err(); err != nil {
		return err
	}

	if len(doc.TaxonomyIDs) > 0 {
		closure, err := in.taxonomy.Closure(ctx, doc.TaxonomyIDs)
		if err != nil {
			return in.taxonomyErr(err)
		}
		doc.TaxonomyIDs = closure

		names, err := in.taxonomy.Names(ctx, closure)
		if err != nil {
			return in.taxonomyErr(err)
		}
		doc.TaxonomyNames = names
	}
	return nil
}

// taxonomyErr maps an unknown taxonomy id on an incoming document to a
// validation error; the caller sent a tag the directory does not know.
func (in *Indexer) taxonomyErr(err error) error {
	if apierr.IsNotFound(err) {
		return apierr.NewValidation("taxonomy_ids", err.Error())
	}
	return err
}
