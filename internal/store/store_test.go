package store

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lox/airguard/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// every new connection to :memory: is a fresh database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := New(db, nil)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := setupTestStore(t)

	if err := store.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	version, err := store.MigrationVersion()
	if err != nil {
		t.Fatalf("MigrationVersion: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("version = %d, want %d", version, len(migrations))
	}

	recs, err := store.ListRecommendations(context.Background())
	if err != nil {
		t.Fatalf("ListRecommendations: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("len(recs) = %d, want 3 (seed runs once)", len(recs))
	}
}

func TestPing(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestInsertAndListReadings(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	readings := []models.Reading{
		{City: "Quito", Country: "Ecuador", PM25: 10, PM10: 20, CO: 0.5, O3: 30, NO2: 15, Date: "2024-01-01"},
		{City: "Lima", Country: "Peru", PM25: 25, PM10: 40, CO: 0.8, O3: 20, NO2: 22},
	}
	n, err := store.InsertReadings(ctx, readings)
	if err != nil {
		t.Fatalf("InsertReadings: %v", err)
	}
	if n != 2 {
		t.Errorf("InsertReadings = %d, want 2", n)
	}

	got, err := store.ListReadings(ctx)
	if err != nil {
		t.Fatalf("ListReadings: %v", err)
	}
	if !reflect.DeepEqual(got, readings) {
		t.Errorf("ListReadings = %+v, want %+v", got, readings)
	}

	count, err := store.CountReadings(ctx)
	if err != nil {
		t.Fatalf("CountReadings: %v", err)
	}
	if count != 2 {
		t.Errorf("CountReadings = %d, want 2", count)
	}
}

func TestListReadingsEmpty(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.ListReadings(context.Background())
	if err != nil {
		t.Fatalf("ListReadings: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListReadings = %#v, want empty non-nil slice", got)
	}
}

func TestReplaceReadings(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.InsertReadings(ctx, []models.Reading{{City: "Quito", PM25: 1}}); err != nil {
		t.Fatalf("InsertReadings: %v", err)
	}

	replacement := []models.Reading{{City: "Cuenca", Country: "Ecuador", PM25: 7}}
	if err := store.ReplaceReadings(ctx, replacement); err != nil {
		t.Fatalf("ReplaceReadings: %v", err)
	}

	got, err := store.ListReadings(ctx)
	if err != nil {
		t.Fatalf("ListReadings: %v", err)
	}
	if !reflect.DeepEqual(got, replacement) {
		t.Errorf("ListReadings = %+v, want %+v", got, replacement)
	}
}

func TestRecommendationCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	created, err := store.CreateRecommendation(ctx, "  Use an air purifier indoors  ")
	if err != nil {
		t.Fatalf("CreateRecommendation: %v", err)
	}
	if created.Text != "Use an air purifier indoors" {
		t.Errorf("Text = %q, want trimmed text", created.Text)
	}
	if created.ID == 0 {
		t.Error("ID = 0, want assigned id")
	}

	got, err := store.GetRecommendation(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetRecommendation: %v", err)
	}
	if got.Text != created.Text {
		t.Errorf("Text = %q, want %q", got.Text, created.Text)
	}

	updated, err := store.UpdateRecommendation(ctx, created.ID, "Check the forecast before running")
	if err != nil {
		t.Fatalf("UpdateRecommendation: %v", err)
	}
	if updated.Text != "Check the forecast before running" {
		t.Errorf("Text = %q, want updated text", updated.Text)
	}

	if err := store.DeleteRecommendation(ctx, created.ID); err != nil {
		t.Fatalf("DeleteRecommendation: %v", err)
	}
	if _, err := store.GetRecommendation(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecommendation after delete err = %v, want ErrNotFound", err)
	}

	recs, err := store.ListRecommendations(ctx)
	if err != nil {
		t.Fatalf("ListRecommendations: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("len(recs) = %d, want 3", len(recs))
	}
}

func TestRecommendationRejectsBlankText(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.CreateRecommendation(ctx, "   "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("CreateRecommendation err = %v, want ErrEmptyText", err)
	}
	if _, err := store.UpdateRecommendation(ctx, 1, ""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("UpdateRecommendation err = %v, want ErrEmptyText", err)
	}

	recs, err := store.ListRecommendations(ctx)
	if err != nil {
		t.Fatalf("ListRecommendations: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("len(recs) = %d, want 3", len(recs))
	}
}

func TestRecommendationMissingID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.UpdateRecommendation(ctx, 999, "anything"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateRecommendation err = %v, want ErrNotFound", err)
	}
	if err := store.DeleteRecommendation(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteRecommendation err = %v, want ErrNotFound", err)
	}
}

func TestUpsertAndListLocations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	loc := models.Location{LocationID: "quito", Name: "Quito", Country: "Ecuador", Latitude: -0.18, Longitude: -78.47, Active: true}
	if err := store.UpsertLocation(ctx, loc); err != nil {
		t.Fatalf("UpsertLocation: %v", err)
	}
	if err := store.UpsertLocation(ctx, models.Location{LocationID: "lima", Name: "Lima", Active: false}); err != nil {
		t.Fatalf("UpsertLocation: %v", err)
	}

	loc.Name = "Quito DM"
	if err := store.UpsertLocation(ctx, loc); err != nil {
		t.Fatalf("UpsertLocation: %v", err)
	}

	locs, err := store.ActiveLocations(ctx)
	if err != nil {
		t.Fatalf("ActiveLocations: %v", err)
	}
	if len(locs) != 1 {
		t.Fatalf("len(locs) = %d, want 1", len(locs))
	}
	if locs[0].Name != "Quito DM" {
		t.Errorf("Name = %q, want Quito DM", locs[0].Name)
	}
	if locs[0].Longitude != -78.47 {
		t.Errorf("Longitude = %v, want -78.47", locs[0].Longitude)
	}
}

func TestRawPayloadDedupe(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := models.RawPayload{
		LocationID:  "quito",
		RunID:       "run-1",
		HTTPStatus:  200,
		ContentType: "application/json",
		Body:        []byte(`{"results":[]}`),
	}
	tests := []struct {
		name     string
		mutate   func(*models.RawPayload)
		inserted bool
	}{
		{"first payload", func(*models.RawPayload) {}, true},
		{"identical body", func(p *models.RawPayload) { p.RunID = "run-2" }, false},
		{"same body other location", func(p *models.RawPayload) { p.LocationID = "cuenca" }, true},
	}
	for _, tt := range tests {
		tt.mutate(&p)
		inserted, err := store.StoreRawPayload(ctx, p)
		if err != nil {
			t.Fatalf("%s: StoreRawPayload: %v", tt.name, err)
		}
		if inserted != tt.inserted {
			t.Errorf("%s: inserted = %v, want %v", tt.name, inserted, tt.inserted)
		}
	}

	latest, err := store.LatestRawPayload(ctx, "quito")
	if err != nil {
		t.Fatalf("LatestRawPayload: %v", err)
	}
	if latest == nil {
		t.Fatal("LatestRawPayload = nil, want payload")
	}
	if latest.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", latest.RunID)
	}
	if string(latest.Body) != `{"results":[]}` {
		t.Errorf("Body = %q, want decompressed payload", latest.Body)
	}
	if latest.ContentType != "application/json" {
		t.Errorf("ContentType = %q, want application/json", latest.ContentType)
	}
}

func TestLatestRawPayloadNone(t *testing.T) {
	store := setupTestStore(t)

	latest, err := store.LatestRawPayload(context.Background(), "nowhere")
	if err != nil {
		t.Fatalf("LatestRawPayload: %v", err)
	}
	if latest != nil {
		t.Errorf("LatestRawPayload = %+v, want nil", latest)
	}
}

func TestCleanupOldRawPayloads(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.StoreRawPayload(ctx, models.RawPayload{
		LocationID: "quito", RunID: "old", HTTPStatus: 200,
		FetchedAt: time.Now().UTC().AddDate(0, 0, -60), Body: []byte("old"),
	}); err != nil {
		t.Fatalf("StoreRawPayload old: %v", err)
	}
	if _, err := store.StoreRawPayload(ctx, models.RawPayload{
		LocationID: "quito", RunID: "new", HTTPStatus: 200, Body: []byte("new"),
	}); err != nil {
		t.Fatalf("StoreRawPayload new: %v", err)
	}

	deleted, err := store.CleanupOldRawPayloads(ctx, 30)
	if err != nil {
		t.Fatalf("CleanupOldRawPayloads: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	latest, err := store.LatestRawPayload(ctx, "quito")
	if err != nil {
		t.Fatalf("LatestRawPayload: %v", err)
	}
	if latest == nil || latest.RunID != "new" {
		t.Errorf("LatestRawPayload = %+v, want run new", latest)
	}
}
