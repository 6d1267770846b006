// Package storage defines the persistence interface for service documents.
package storage

import (
	"context"

	"github.com/commonweal/beacon/internal/models"
)

// Storage defines service document persistence operations.
type Storage interface {
	UpsertService(ctx context.Context, doc *models.SearchDocument) error
	GetService(ctx context.Context, id string) (*models.SearchDocument, error)
	DeleteService(ctx context.Context, id string) error
	ListServices(ctx context.Context, offset, limit int) ([]*models.SearchDocument, error)

	// Batch operations
	BatchUpsertServices(ctx context.Context, docs []*models.SearchDocument) error

	// Stats
	CountServices(ctx context.Context) (int64, error)

	Close() error
}
