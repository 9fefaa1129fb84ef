package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// GazetteerRepo implements ports.GazetteerRepository on the places table.
type GazetteerRepo struct {
	db *DB
}

func NewGazetteerRepo(db *DB) *GazetteerRepo {
	return &GazetteerRepo{db: db}
}

// List returns every place in insertion order, which is the order offline
// search results are reported in.
func (r *GazetteerRepo) List(ctx context.Context) ([]domain.GazetteerEntry, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, description, lat, lon
		FROM places ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.GazetteerEntry, error) {
		var e domain.GazetteerEntry
		err := row.Scan(&e.ID, &e.Description, &e.Coordinate.Lat, &e.Coordinate.Lon)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan places: %w", err)
	}
	return entries, nil
}

func (r *GazetteerRepo) Upsert(ctx context.Context, e *domain.GazetteerEntry) error {
	if err := e.Coordinate.Validate(); err != nil {
		return fmt.Errorf("place %s: %w", e.ID, err)
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO places (id, description, lat, lon)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET description = EXCLUDED.description, lat = EXCLUDED.lat, lon = EXCLUDED.lon, updated_at = now()
	`, e.ID, e.Description, e.Coordinate.Lat, e.Coordinate.Lon)
	return err
}

// UpsertBatch writes entries in one transaction.
func (r *GazetteerRepo) UpsertBatch(ctx context.Context, entries []domain.GazetteerEntry) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, e := range entries {
			if err := e.Coordinate.Validate(); err != nil {
				return fmt.Errorf("place %s: %w", e.ID, err)
			}
			batch.Queue(`
				INSERT INTO places (id, description, lat, lon)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE
				SET description = EXCLUDED.description, lat = EXCLUDED.lat, lon = EXCLUDED.lon, updated_at = now()
			`, e.ID, e.Description, e.Coordinate.Lat, e.Coordinate.Lon)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}
