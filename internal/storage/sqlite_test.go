package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/commonweal/beacon/internal/apierr"
	"github.com/commonweal/beacon/internal/geo"
	"github.com/commonweal/beacon/internal/models"
)

func TestSQLiteStorage_CRUD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	doc := &models.SearchDocument{
		ID:               "svc1",
		Name:             "Night Shelter",
		Intro:            "Emergency beds",
		Description:      "Emergency accommodation for rough sleepers",
		OrganisationName: "St Mungos",
		TaxonomyNames:    []string{"Housing", "Homelessness"},
		TaxonomyIDs:      []string{"t1", "t2"},
		Type:             models.TypeService,
		Status:           models.StatusActive,
		IsFree:           true,
		WaitTime:         models.WaitTimeOneWeek,
		Locations:        []geo.Coordinate{{Lat: 51.5, Lon: -0.12}},
	}
	if err := store.UpsertService(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if doc.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}

	got, err := store.GetService(ctx, "svc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Night Shelter" || got.OrganisationName != "St Mungos" {
		t.Errorf("got %+v", got)
	}
	if len(got.TaxonomyIDs) != 2 || got.TaxonomyIDs[0] != "t1" {
		t.Errorf("taxonomy ids not round-tripped: %v", got.TaxonomyIDs)
	}
	if len(got.Locations) != 1 || got.Locations[0].Lat != 51.5 {
		t.Errorf("locations not round-tripped: %v", got.Locations)
	}
	if got.WaitTime != models.WaitTimeOneWeek {
		t.Errorf("expected one_week, got %s", got.WaitTime)
	}

	doc.Name = "Updated Shelter"
	doc.Status = models.StatusInactive
	if err := store.UpsertService(ctx, doc); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetService(ctx, "svc1")
	if got.Name != "Updated Shelter" || got.Status != models.StatusInactive {
		t.Errorf("upsert did not replace: %+v", got)
	}

	list, err := store.ListServices(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 service, got %d", len(list))
	}

	if err := store.DeleteService(ctx, "svc1"); err != nil {
		t.Fatal(err)
	}
	_, err = store.GetService(ctx, "svc1")
	var nf *apierr.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError after delete, got %v", err)
	}
}

func TestSQLiteStorage_DeleteMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "del.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	err = store.DeleteService(context.Background(), "nope")
	var nf *apierr.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestSQLiteStorage_Batch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	docs := []*models.SearchDocument{
		{ID: "a", Name: "Alpha", Type: models.TypeService, Status: models.StatusActive},
		{ID: "b", Name: "Beta", Type: models.TypeHelpline, Status: models.StatusActive},
		{ID: "c", Name: "Gamma", Type: models.TypeApp, Status: models.StatusInactive},
	}
	if err := store.BatchUpsertServices(ctx, docs); err != nil {
		t.Fatal(err)
	}

	n, err := store.CountServices(ctx)
	if err != nil || n != 3 {
		t.Errorf("CountServices: %v, %d", err, n)
	}

	// Re-upserting the same batch must not duplicate rows.
	if err := store.BatchUpsertServices(ctx, docs); err != nil {
		t.Fatal(err)
	}
	n, _ = store.CountServices(ctx)
	if n != 3 {
		t.Errorf("expected 3 services after re-upsert, got %d", n)
	}
}
