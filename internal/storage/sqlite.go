// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/commonweal/beacon/internal/apierr"
	"github.com/commonweal/beacon/internal/geo"
	"github.com/commonweal/beacon/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS services (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		intro TEXT,
		description TEXT,
		organisation_name TEXT,
		taxonomy_names TEXT,
		taxonomy_ids TEXT,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		is_free INTEGER NOT NULL DEFAULT 0,
		is_national INTEGER NOT NULL DEFAULT 0,
		wait_time TEXT,
		locations TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_services_status ON services(status);
	CREATE INDEX IF NOT EXISTS idx_services_type ON services(type);
	CREATE INDEX IF NOT EXISTS idx_services_updated_at ON services(updated_at);
	`
	_, err := db.Exec(schema)
	return err
}

const serviceColumns = `id, name, intro, description, organisation_name,
	 taxonomy_names, taxonomy_ids, type, status, is_free, is_national,
	 wait_time, locations, updated_at`

// UpsertService inserts a service document or replaces the existing row.
func (s *SQLiteStorage) UpsertService(ctx context.Context, doc *models.SearchDocument) error {
	names, ids, locs, err := marshalDocLists(doc)
	if err != nil {
		return err
	}

	doc.UpdatedAt = time.Now()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO services (`+serviceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			intro = excluded.intro,
			description = excluded.description,
			organisation_name = excluded.organisation_name,
			taxonomy_names = excluded.taxonomy_names,
			taxonomy_ids = excluded.taxonomy_ids,
			type = excluded.type,
			status = excluded.status,
			is_free = excluded.is_free,
			is_national = excluded.is_national,
			wait_time = excluded.wait_time,
			locations = excluded.locations,
			updated_at = excluded.updated_at`,
		doc.ID, doc.Name, doc.Intro, doc.Description, doc.OrganisationName,
		names, ids, string(doc.Type), string(doc.Status), doc.IsFree, doc.IsNational,
		string(doc.WaitTime), locs, doc.UpdatedAt,
	)
	return err
}

// GetService returns a service document by ID.
func (s *SQLiteStorage) GetService(ctx context.Context, id string) (*models.SearchDocument, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = ?`, id)

	doc, err := scanService(row)
	if err == sql.ErrNoRows {
		return nil, apierr.NewNotFound("service", id)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteService removes a service by ID.
func (s *SQLiteStorage) DeleteService(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apierr.NewNotFound("service", id)
	}
	return nil
}

// ListServices returns service documents with offset and limit, most recently
// updated first.
func (s *SQLiteStorage) ListServices(ctx context.Context, offset, limit int) ([]*models.SearchDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services
		 ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.SearchDocument
	for rows.Next() {
		doc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// BatchUpsertServices upserts multiple documents in a transaction.
func (s *SQLiteStorage) BatchUpsertServices(ctx context.Context, docs []*models.SearchDocument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO services (`+serviceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			intro = excluded.intro,
			description = excluded.description,
			organisation_name = excluded.organisation_name,
			taxonomy_names = excluded.taxonomy_names,
			taxonomy_ids = excluded.taxonomy_ids,
			type = excluded.type,
			status = excluded.status,
			is_free = excluded.is_free,
			is_national = excluded.is_national,
			wait_time = excluded.wait_time,
			locations = excluded.locations,
			updated_at = excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, doc := range docs {
		names, ids, locs, err := marshalDocLists(doc)
		if err != nil {
			return err
		}
		doc.UpdatedAt = now
		if _, err := stmt.ExecContext(ctx,
			doc.ID, doc.Name, doc.Intro, doc.Description, doc.OrganisationName,
			names, ids, string(doc.Type), string(doc.Status), doc.IsFree, doc.IsNational,
			string(doc.WaitTime), locs, doc.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountServices returns the total number of services.
func (s *SQLiteStorage) CountServices(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM services`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func marshalDocLists(doc *models.SearchDocument) (names, ids, locs string, err error) {
	b, err := json.Marshal(doc.TaxonomyNames)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal taxonomy names: %w", err)
	}
	names = string(b)

	b, err = json.Marshal(doc.TaxonomyIDs)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal taxonomy ids: %w", err)
	}
	ids = string(b)

	b, err = json.Marshal(doc.Locations)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal locations: %w", err)
	}
	locs = string(b)
	return names, ids, locs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (*models.SearchDocument, error) {
	var (
		doc                   models.SearchDocument
		typ, status, waitTime string
		names, ids, locations string
	)
	err := row.Scan(
		&doc.ID, &doc.Name, &doc.Intro, &doc.Description, &doc.OrganisationName,
		&names, &ids, &typ, &status, &doc.IsFree, &doc.IsNational,
		&waitTime, &locations, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Type = models.ServiceType(typ)
	doc.Status = models.ServiceStatus(status)
	doc.WaitTime = models.WaitTime(waitTime)

	if names != "" {
		if err := json.Unmarshal([]byte(names), &doc.TaxonomyNames); err != nil {
			return nil, fmt.Errorf("failed to unmarshal taxonomy names: %w", err)
		}
	}
	if ids != "" {
		if err := json.Unmarshal([]byte(ids), &doc.TaxonomyIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal taxonomy ids: %w", err)
		}
	}
	if locations != "" {
		var coords []geo.Coordinate
		if err := json.Unmarshal([]byte(locations), &coords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal locations: %w", err)
		}
		doc.Locations = coords
	}
	return &doc, nil
}
