package quotes

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Simplici0/meshquote/internal/db"
	"github.com/Simplici0/meshquote/internal/estimate"
	"github.com/Simplici0/meshquote/internal/mesh"
	"github.com/Simplici0/meshquote/internal/migrations"
	"github.com/Simplici0/meshquote/internal/pricing"
)

func TestSaveAndGetReadsSnapshotWithoutRecalculation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, Quote{
		FileName:      "bracket.stl",
		Notes:         "two copies",
		Material:      pricing.PETG,
		QualityPreset: estimate.High,
		Price:         999.999,
		Currency:      pricing.Currency,
		Config:        estimate.DefaultConfig(),
		Mesh:          mesh.Summary{TriangleCount: 12, Volume: 8000, SurfaceArea: 2400},
		Estimate:      estimate.PrintEstimate{PrintTimeMinutes: 120, MaterialUsageGrams: 4.2, LayerCount: 100},
		Breakdown:     pricing.Breakdown{MaterialCost: 123.45, SetupFee: pricing.SetupFee, QualityFactor: 1.2},
	})
	if err != nil {
		t.Fatalf("save returned error: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected generated id")
	}
	if saved.CreatedAt.IsZero() {
		t.Fatalf("expected creation time to be set")
	}

	got, err := store.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}

	if got.Price != 999.999 {
		t.Fatalf("expected snapshot price 999.999, got %v", got.Price)
	}
	if got.Breakdown.MaterialCost != 123.45 {
		t.Fatalf("expected snapshot material cost 123.45, got %v", got.Breakdown.MaterialCost)
	}
	if got.Material != pricing.PETG || got.QualityPreset != estimate.High {
		t.Fatalf("unexpected keys: %q %q", got.Material, got.QualityPreset)
	}
	if got.Config != estimate.DefaultConfig() {
		t.Fatalf("unexpected config: %+v", got.Config)
	}
	if got.Mesh.TriangleCount != 12 || got.Estimate.LayerCount != 100 {
		t.Fatalf("unexpected mesh/estimate: %+v %+v", got.Mesh, got.Estimate)
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Fatalf("expected created_at %v, got %v", saved.CreatedAt, got.CreatedAt)
	}
}

func TestGetUnknownIDReturnsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrdersByDateDesc(t *testing.T) {
	store := newTestStore(t)

	seedQuote(t, store, "2024-01-01T10:00:00Z", "primera.stl", "nota uno", 100.5)
	seedQuote(t, store, "2024-01-03T12:00:00Z", "tercera.stl", "nota tres", 300)
	seedQuote(t, store, "2024-01-02T11:00:00Z", "segunda.stl", "nota dos", 200.25)

	quotes, err := store.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}

	if len(quotes) != 3 {
		t.Fatalf("expected 3 quotes, got %d", len(quotes))
	}

	if quotes[0].FileName != "tercera.stl" || quotes[1].FileName != "segunda.stl" || quotes[2].FileName != "primera.stl" {
		t.Fatalf("quotes are not sorted desc by created_at: %+v", quotes)
	}

	if quotes[0].Price != 300 || quotes[1].Price != 200.25 || quotes[2].Price != 100.5 {
		t.Fatalf("unexpected prices: %+v", quotes)
	}
}

func TestListFiltersByFileNameAndNotes(t *testing.T) {
	store := newTestStore(t)

	seedQuote(t, store, "2024-01-01T10:00:00Z", "casa.stl", "impresion roja", 80)
	seedQuote(t, store, "2024-01-02T10:00:00Z", "llaveros.stl", "cliente vip", 120)
	seedQuote(t, store, "2024-01-03T10:00:00Z", "prototipo.stl", "urgente para CASA", 160)

	byName, err := store.List(context.Background(), "llave")
	if err != nil {
		t.Fatalf("list by file name returned error: %v", err)
	}
	if len(byName) != 1 || byName[0].FileName != "llaveros.stl" {
		t.Fatalf("expected 1 quote filtered by file name, got %+v", byName)
	}

	byNotes, err := store.List(context.Background(), "  casa ")
	if err != nil {
		t.Fatalf("list by notes returned error: %v", err)
	}
	if len(byNotes) != 2 {
		t.Fatalf("expected 2 quotes filtered by notes/file name, got %+v", byNotes)
	}

	none, err := store.List(context.Background(), "nothing matches")
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", none)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "quotes-test.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if err := migrations.Up(ctx, database, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return NewStore(database)
}

func seedQuote(t *testing.T, store *Store, createdAt, fileName, notes string, price float64) {
	t.Helper()

	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		t.Fatalf("bad fixture time %q: %v", createdAt, err)
	}

	_, err = store.Save(context.Background(), Quote{
		CreatedAt:     ts,
		FileName:      fileName,
		Notes:         notes,
		Material:      pricing.PLA,
		QualityPreset: estimate.Standard,
		Price:         price,
		Currency:      pricing.Currency,
		Config:        estimate.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("failed to seed quote: %v", err)
	}
}
