package geocoder

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/starburger/order-service/internal/database"
)

// ErrUnresolved is returned when coordinates could not be obtained for an
// address, for either reason: the provider found nothing, or the provider
// was unreachable. Downstream a ranking simply shows the distance as unknown.
var ErrUnresolved = errors.New("geocoder: coordinates unresolved")

// PlaceStore is the persistence the resolver needs.
// *database.PlaceStore satisfies it; tests supply in-memory fakes.
type PlaceStore interface {
	Get(ctx context.Context, address string) (*database.Place, error)
	Upsert(ctx context.Context, address string, latitude, longitude float64) (*database.Place, error)
	Delete(ctx context.Context, address string) error
}

// Geocoding is the provider call the resolver needs. *Client satisfies it.
type Geocoding interface {
	Geocode(ctx context.Context, address string) (Point, error)
}

// Resolver orchestrates cache-then-geocode lookup for a single address.
// Once an address resolves successfully its coordinates are stored
// permanently and the provider is never called for it again.
type Resolver struct {
	store  PlaceStore
	client Geocoding
	logger zerolog.Logger
}

// NewResolver creates a resolver over the given store and geocoder.
func NewResolver(store PlaceStore, client Geocoding) *Resolver {
	return &Resolver{
		store:  store,
		client: client,
		logger: log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve returns coordinates for an address.
// Store hit: returns stored coordinates with no network call.
// Store miss: geocodes, persists with get-or-create semantics, and returns
// the stored row's coordinates (so concurrent resolutions agree).
// Geocoding failures come back as ErrUnresolved; store failures propagate.
func (r *Resolver) Resolve(ctx context.Context, address string) (Point, error) {
	place, err := r.store.Get(ctx, address)
	if err == nil {
		placeLookups.WithLabelValues("hit").Inc()
		return Point{Latitude: place.Latitude, Longitude: place.Longitude}, nil
	}
	if !errors.Is(err, database.ErrPlaceNotFound) {
		return Point{}, fmt.Errorf("place store lookup: %w", err)
	}

	placeLookups.WithLabelValues("miss").Inc()

	point, err := r.client.Geocode(ctx, address)
	if err != nil {
		var transient *TransientError
		switch {
		case errors.Is(err, ErrNotFound):
			r.logger.Info().Str("address", address).Msg("Address could not be resolved: no matches")
		case errors.As(err, &transient):
			r.logger.Warn().Err(transient.Err).Str("address", address).
				Msg("Address could not be resolved: provider failure")
		default:
			r.logger.Warn().Err(err).Str("address", address).Msg("Address could not be resolved")
		}
		return Point{}, ErrUnresolved
	}

	stored, err := r.store.Upsert(ctx, address, point.Latitude, point.Longitude)
	if err != nil {
		return Point{}, fmt.Errorf("place store upsert: %w", err)
	}

	return Point{Latitude: stored.Latitude, Longitude: stored.Longitude}, nil
}

// ForceResolve drops any stored coordinates for the address and resolves it
// afresh. The regular read path never expires places; this is the explicit
// escape hatch for operators when a stored geocode is wrong.
func (r *Resolver) ForceResolve(ctx context.Context, address string) (Point, error) {
	if err := r.store.Delete(ctx, address); err != nil {
		return Point{}, fmt.Errorf("place store delete: %w", err)
	}
	return r.Resolve(ctx, address)
}
