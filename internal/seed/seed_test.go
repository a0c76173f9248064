package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Simplici0/meshquote/internal/db"
	"github.com/Simplici0/meshquote/internal/estimate"
	"github.com/Simplici0/meshquote/internal/migrations"
	"github.com/Simplici0/meshquote/internal/pricing"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(ctx, database, nil); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func TestRunIsIdempotent(t *testing.T) {
	database := openMigrated(t)
	ctx := context.Background()

	want := len(pricing.Materials) + len(estimate.QualityPresets)
	for i := 0; i < 10; i++ {
		stats, err := Run(ctx, database)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != want {
				t.Fatalf("expected %d inserts in first run, got %d", want, stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 || stats.Updates != 0 {
			t.Fatalf("expected no changes in iteration %d, got %+v", i, stats)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM materials WHERE key = ?`, "pla", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM materials`, nil, len(pricing.Materials))
	assertCount(t, database, `SELECT COUNT(*) FROM quality_presets`, nil, len(estimate.QualityPresets))
}

func TestRunRepairsDriftedRows(t *testing.T) {
	database := openMigrated(t)
	ctx := context.Background()

	if _, err := Run(ctx, database); err != nil {
		t.Fatalf("initial seed: %v", err)
	}
	if _, err := database.Exec(`UPDATE materials SET cost_per_gram = 99 WHERE key = 'petg'`); err != nil {
		t.Fatalf("drift material: %v", err)
	}
	if _, err := database.Exec(`UPDATE quality_presets SET travel_speed = 1 WHERE key = 'high'`); err != nil {
		t.Fatalf("drift quality preset: %v", err)
	}

	stats, err := Run(ctx, database)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if stats.Inserts != 0 || stats.Updates != 2 {
		t.Fatalf("expected 0 inserts and 2 updates, got %+v", stats)
	}

	var cost float64
	if err := database.QueryRow(`SELECT cost_per_gram FROM materials WHERE key = 'petg'`).Scan(&cost); err != nil {
		t.Fatalf("query petg: %v", err)
	}
	if cost != pricing.CostPerGram(pricing.PETG) {
		t.Fatalf("expected petg cost %v, got %v", pricing.CostPerGram(pricing.PETG), cost)
	}
}

func TestLoadCatalog(t *testing.T) {
	database := openMigrated(t)
	ctx := context.Background()

	if _, err := Run(ctx, database); err != nil {
		t.Fatalf("seed: %v", err)
	}

	catalog, err := LoadCatalog(ctx, database)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(catalog.Materials) != len(pricing.Materials) {
		t.Fatalf("expected %d materials, got %d", len(pricing.Materials), len(catalog.Materials))
	}
	if catalog.Materials[0].Key != "pla" {
		t.Fatalf("expected cheapest material first, got %q", catalog.Materials[0].Key)
	}
	if len(catalog.Qualities) != len(estimate.QualityPresets) {
		t.Fatalf("expected %d quality presets, got %d", len(estimate.QualityPresets), len(catalog.Qualities))
	}
	if catalog.Qualities[0].Key != "draft" || catalog.Qualities[0].Speeds != estimate.SpeedsFor(estimate.Draft) {
		t.Fatalf("unexpected first quality preset: %+v", catalog.Qualities[0])
	}
}

func TestLoadCatalogEmpty(t *testing.T) {
	database := openMigrated(t)

	catalog, err := LoadCatalog(context.Background(), database)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if catalog.Materials == nil || len(catalog.Materials) != 0 {
		t.Fatalf("expected empty non-nil materials, got %#v", catalog.Materials)
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
