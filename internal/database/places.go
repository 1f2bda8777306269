package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPlaceNotFound is returned when no place row exists for an address.
var ErrPlaceNotFound = errors.New("place not found")

// PlaceStore persists geocoded addresses.
// One row per address, enforced by a unique constraint; concurrent
// resolutions of the same new address converge on a single row.
type PlaceStore struct {
	pool *pgxpool.Pool
}

// NewPlaceStore creates a place store backed by the given pool.
func NewPlaceStore(pool *pgxpool.Pool) *PlaceStore {
	return &PlaceStore{pool: pool}
}

// Get returns the stored coordinates for an address (exact string match).
// Returns ErrPlaceNotFound if the address has never been resolved.
func (s *PlaceStore) Get(ctx context.Context, address string) (*Place, error) {
	var place Place
	err := s.pool.QueryRow(ctx, `
		SELECT address, latitude, longitude, resolved_at
		FROM places
		WHERE address = $1
	`, address).Scan(&place.Address, &place.Latitude, &place.Longitude, &place.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlaceNotFound
		}
		return nil, fmt.Errorf("failed to query place: %w", err)
	}
	return &place, nil
}

// Upsert stores coordinates for an address with get-or-create semantics.
// The insert is a no-op when a row already exists, so the address keeps the
// coordinates of whichever resolution won; the returned place reflects the
// stored row, not necessarily the arguments.
func (s *PlaceStore) Upsert(ctx context.Context, address string, latitude, longitude float64) (*Place, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO places (address, latitude, longitude, resolved_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (address) DO NOTHING
	`, address, latitude, longitude)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert place: %w", err)
	}

	return s.Get(ctx, address)
}

// Delete removes the stored place for an address. Used by the admin
// re-resolve path; the core ranking flow never deletes places.
func (s *PlaceStore) Delete(ctx context.Context, address string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM places WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("failed to delete place: %w", err)
	}
	return nil
}
