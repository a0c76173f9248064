// Package quotes persists priced estimates so they can be looked up later
// without recalculation.
package quotes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/meshquote/internal/estimate"
	"github.com/Simplici0/meshquote/internal/mesh"
	"github.com/Simplici0/meshquote/internal/pricing"
)

// ErrNotFound is returned by Get when no quote has the requested id.
var ErrNotFound = errors.New("quote not found")

const (
	storedTimeLayout = "2006-01-02 15:04:05.000"
	readTimeLayout   = "2006-01-02T15:04:05.000Z"
)

// Quote is a snapshot of one priced estimate.
type Quote struct {
	ID            string                 `json:"id"`
	CreatedAt     time.Time              `json:"createdAt"`
	FileName      string                 `json:"fileName"`
	Notes         string                 `json:"notes"`
	Material      pricing.Material       `json:"material"`
	QualityPreset estimate.QualityPreset `json:"qualityPreset"`
	Price         float64                `json:"price"`
	Currency      string                 `json:"currency"`
	Config        estimate.PrintConfig   `json:"config"`
	Mesh          mesh.Summary           `json:"mesh"`
	Estimate      estimate.PrintEstimate `json:"estimate"`
	Breakdown     pricing.Breakdown      `json:"breakdown"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Save stores q and returns it with its id and creation time filled in. An
// empty ID gets a random UUID and a zero CreatedAt gets the current time.
func (s *Store) Save(ctx context.Context, q Quote) (Quote, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.now()
	}
	q.CreatedAt = q.CreatedAt.UTC().Truncate(time.Millisecond)

	configJSON, err := json.Marshal(q.Config)
	if err != nil {
		return Quote{}, fmt.Errorf("encode quote config: %w", err)
	}
	meshJSON, err := json.Marshal(q.Mesh)
	if err != nil {
		return Quote{}, fmt.Errorf("encode quote mesh: %w", err)
	}
	estimateJSON, err := json.Marshal(q.Estimate)
	if err != nil {
		return Quote{}, fmt.Errorf("encode quote estimate: %w", err)
	}
	breakdownJSON, err := json.Marshal(q.Breakdown)
	if err != nil {
		return Quote{}, fmt.Errorf("encode quote breakdown: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quotes (
			id, created_at, file_name, notes, material, quality_preset,
			price, currency, config_json, mesh_json, estimate_json, breakdown_json
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		q.ID, q.CreatedAt.Format(storedTimeLayout), q.FileName, q.Notes, string(q.Material), string(q.QualityPreset),
		q.Price, q.Currency, string(configJSON), string(meshJSON), string(estimateJSON), string(breakdownJSON),
	)
	if err != nil {
		return Quote{}, fmt.Errorf("insert quote: %w", err)
	}

	return q, nil
}

const selectColumns = `
	SELECT
		id,
		strftime('%Y-%m-%dT%H:%M:%fZ', created_at),
		file_name,
		COALESCE(notes, ''),
		material,
		quality_preset,
		price,
		currency,
		config_json,
		mesh_json,
		estimate_json,
		breakdown_json
	FROM quotes
`

// List returns quotes newest first. A non-empty query keeps only quotes whose
// file name or notes contain it, case-insensitively.
func (s *Store) List(ctx context.Context, query string) ([]Quote, error) {
	query = strings.TrimSpace(query)
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE (? = '' OR file_name LIKE ? OR COALESCE(notes, '') LIKE ?)
		ORDER BY created_at DESC, rowid DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return quotes, nil
}

// Get returns the stored snapshot with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Quote, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+`WHERE id = ?`, id)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, ErrNotFound
	}
	return q, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(row scanner) (Quote, error) {
	var (
		q                            Quote
		createdAt, material, quality string
		configJSON, meshJSON         string
		estimateJSON, breakdownJSON  string
	)
	err := row.Scan(
		&q.ID, &createdAt, &q.FileName, &q.Notes, &material, &quality,
		&q.Price, &q.Currency, &configJSON, &meshJSON, &estimateJSON, &breakdownJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, err
	}
	if err != nil {
		return Quote{}, fmt.Errorf("scan quote: %w", err)
	}

	q.Material = pricing.Material(material)
	q.QualityPreset = estimate.QualityPreset(quality)

	q.CreatedAt, err = time.Parse(readTimeLayout, createdAt)
	if err != nil {
		return Quote{}, fmt.Errorf("parse quote %s created_at: %w", q.ID, err)
	}

	for _, field := range []struct {
		name string
		raw  string
		dst  any
	}{
		{"config", configJSON, &q.Config},
		{"mesh", meshJSON, &q.Mesh},
		{"estimate", estimateJSON, &q.Estimate},
		{"breakdown", breakdownJSON, &q.Breakdown},
	} {
		if err := json.Unmarshal([]byte(field.raw), field.dst); err != nil {
			return Quote{}, fmt.Errorf("decode quote %s %s: %w", q.ID, field.name, err)
		}
	}

	return q, nil
}
