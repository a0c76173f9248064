package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/meshquote/internal/estimate"
	"github.com/Simplici0/meshquote/internal/pricing"
)

var materialNames = map[pricing.Material]string{
	pricing.PLA:  "PLA",
	pricing.ABS:  "ABS",
	pricing.PETG: "PETG",
	pricing.TPU:  "TPU",
	pricing.PA:   "PA (Nylon)",
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run mirrors the material and quality tables into the catalog tables. It is
// idempotent: rows already matching the tables are left untouched.
func Run(ctx context.Context, db *sql.DB) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	for _, m := range pricing.Materials {
		if err := syncMaterial(ctx, tx, m, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}
	for _, q := range estimate.QualityPresets {
		if err := syncQualityPreset(ctx, tx, q, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func syncMaterial(ctx context.Context, tx *sql.Tx, m pricing.Material, stats *Stats) error {
	name := materialNames[m]
	cost := pricing.CostPerGram(m)

	var (
		storedName string
		storedCost float64
	)
	err := tx.QueryRowContext(ctx, `SELECT name, cost_per_gram FROM materials WHERE key = ?`, string(m)).Scan(&storedName, &storedCost)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO materials (key, name, cost_per_gram)
			VALUES (?, ?, ?)
		`, string(m), name, cost); err != nil {
			return fmt.Errorf("insert material %s: %w", m, err)
		}
		stats.Inserts++
		return nil
	case err != nil:
		return fmt.Errorf("query material %s: %w", m, err)
	}

	if storedName == name && storedCost == cost {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE materials
		SET name = ?, cost_per_gram = ?, updated_at = CURRENT_TIMESTAMP
		WHERE key = ?
	`, name, cost, string(m)); err != nil {
		return fmt.Errorf("update material %s: %w", m, err)
	}
	stats.Updates++
	return nil
}

func syncQualityPreset(ctx context.Context, tx *sql.Tx, q estimate.QualityPreset, stats *Stats) error {
	factor := pricing.QualityFactor(q)
	s := estimate.SpeedsFor(q)

	var (
		storedFactor float64
		stored       estimate.Speeds
	)
	err := tx.QueryRowContext(ctx, `
		SELECT price_factor, perimeter_speed, infill_speed, support_speed, travel_speed, first_layer_speed
		FROM quality_presets
		WHERE key = ?
	`, string(q)).Scan(&storedFactor, &stored.Perimeter, &stored.Infill, &stored.Support, &stored.Travel, &stored.FirstLayer)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO quality_presets (key, price_factor, perimeter_speed, infill_speed, support_speed, travel_speed, first_layer_speed)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, string(q), factor, s.Perimeter, s.Infill, s.Support, s.Travel, s.FirstLayer); err != nil {
			return fmt.Errorf("insert quality preset %s: %w", q, err)
		}
		stats.Inserts++
		return nil
	case err != nil:
		return fmt.Errorf("query quality preset %s: %w", q, err)
	}

	if storedFactor == factor && stored == s {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE quality_presets
		SET
			price_factor = ?,
			perimeter_speed = ?,
			infill_speed = ?,
			support_speed = ?,
			travel_speed = ?,
			first_layer_speed = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE key = ?
	`, factor, s.Perimeter, s.Infill, s.Support, s.Travel, s.FirstLayer, string(q)); err != nil {
		return fmt.Errorf("update quality preset %s: %w", q, err)
	}
	stats.Updates++
	return nil
}

// MaterialRow is a catalog entry as stored.
type MaterialRow struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	CostPerGram float64 `json:"costPerGram"`
}

// QualityRow is a quality preset as stored.
type QualityRow struct {
	Key         string          `json:"key"`
	PriceFactor float64         `json:"priceFactor"`
	Speeds      estimate.Speeds `json:"speeds"`
}

// Catalog is the read-only view of both catalog tables.
type Catalog struct {
	Materials []MaterialRow `json:"materials"`
	Qualities []QualityRow  `json:"qualityPresets"`
}

// LoadCatalog reads the seeded catalog tables.
func LoadCatalog(ctx context.Context, db *sql.DB) (Catalog, error) {
	catalog := Catalog{
		Materials: make([]MaterialRow, 0),
		Qualities: make([]QualityRow, 0),
	}

	rows, err := db.QueryContext(ctx, `SELECT key, name, cost_per_gram FROM materials ORDER BY cost_per_gram, key`)
	if err != nil {
		return Catalog{}, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m MaterialRow
		if err := rows.Scan(&m.Key, &m.Name, &m.CostPerGram); err != nil {
			return Catalog{}, fmt.Errorf("scan material: %w", err)
		}
		catalog.Materials = append(catalog.Materials, m)
	}
	if err := rows.Err(); err != nil {
		return Catalog{}, fmt.Errorf("iterate materials: %w", err)
	}

	qrows, err := db.QueryContext(ctx, `
		SELECT key, price_factor, perimeter_speed, infill_speed, support_speed, travel_speed, first_layer_speed
		FROM quality_presets
		ORDER BY price_factor, key
	`)
	if err != nil {
		return Catalog{}, fmt.Errorf("query quality presets: %w", err)
	}
	defer qrows.Close()
	for qrows.Next() {
		var q QualityRow
		if err := qrows.Scan(&q.Key, &q.PriceFactor, &q.Speeds.Perimeter, &q.Speeds.Infill, &q.Speeds.Support, &q.Speeds.Travel, &q.Speeds.FirstLayer); err != nil {
			return Catalog{}, fmt.Errorf("scan quality preset: %w", err)
		}
		catalog.Qualities = append(catalog.Qualities, q)
	}
	if err := qrows.Err(); err != nil {
		return Catalog{}, fmt.Errorf("iterate quality presets: %w", err)
	}

	return catalog, nil
}
