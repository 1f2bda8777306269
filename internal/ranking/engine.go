// Package ranking turns an order into a list of restaurants sorted by how
// far each one is from the delivery address. It filters restaurants by menu
// availability, resolves both addresses through the coordinate resolver, and
// memoizes the per-pair distance for a week, failed resolutions included.
package ranking

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/starburger/order-service/internal/database"
	"github.com/starburger/order-service/internal/geocoder"
)

// Resolver is the coordinate resolution the engine needs.
// *geocoder.Resolver satisfies it; tests supply fakes.
type Resolver interface {
	Resolve(ctx context.Context, address string) (geocoder.Point, error)
}

// RestaurantSource provides the read-only restaurant and menu data.
// *database.RestaurantStore satisfies it.
type RestaurantSource interface {
	List(ctx context.Context) ([]database.Restaurant, error)
	UnavailablePairs(ctx context.Context) (map[database.MenuItemKey]struct{}, error)
}

// RankedRestaurant is one entry of a ranking: a restaurant and its distance
// to the order address in kilometers. DistanceKm is nil when either address
// could not be resolved; such entries sort after all known distances.
type RankedRestaurant struct {
	Restaurant database.Restaurant `json:"restaurant"`
	DistanceKm *float64            `json:"distanceKm"`
}

// Engine ranks eligible restaurants for orders.
// A ranking is a pure read path: it never mutates orders, restaurants, or
// products, and a geocoding failure only degrades the result.
type Engine struct {
	restaurants RestaurantSource
	resolver    Resolver
	cache       *DistanceCache
	logger      zerolog.Logger
}

// NewEngine creates a ranking engine.
func NewEngine(restaurants RestaurantSource, resolver Resolver, cache *DistanceCache) *Engine {
	return &Engine{
		restaurants: restaurants,
		resolver:    resolver,
		cache:       cache,
		logger:      log.With().Str("component", "ranking_engine").Logger(),
	}
}

// Rank returns the restaurants able to fulfill the order, sorted by distance
// from the order address. Known distances come first in ascending order;
// entries with unknown distance follow in unspecified relative order.
func (e *Engine) Rank(ctx context.Context, order *database.Order) ([]RankedRestaurant, error) {
	start := time.Now()

	restaurants, err := e.restaurants.List(ctx)
	if err != nil {
		return nil, err
	}
	unavailable, err := e.restaurants.UnavailablePairs(ctx)
	if err != nil {
		return nil, err
	}

	eligible := EligibleRestaurants(order, restaurants, unavailable)
	defer observeRanking(start, len(eligible))

	ranked := make([]RankedRestaurant, 0, len(eligible))
	for _, restaurant := range eligible {
		distance, err := e.distanceFor(ctx, restaurant.Address, order.Address)
		if err != nil {
			return nil, err
		}
		if distance == nil {
			unknownDistances.Inc()
		}
		ranked = append(ranked, RankedRestaurant{
			Restaurant: restaurant,
			DistanceKm: distance,
		})
	}

	// Two-key sort: unknown distances last, known ones ascending.
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].DistanceKm, ranked[j].DistanceKm
		if (a == nil) != (b == nil) {
			return a != nil
		}
		if a == nil {
			return false
		}
		return *a < *b
	})

	return ranked, nil
}

// RankAll ranks every order in the slice. A failure for one order aborts the
// batch; geocoding trouble does not count as failure, only store errors do.
func (e *Engine) RankAll(ctx context.Context, orders []*database.Order) (map[int64][]RankedRestaurant, error) {
	results := make(map[int64][]RankedRestaurant, len(orders))
	for _, order := range orders {
		ranked, err := e.Rank(ctx, order)
		if err != nil {
			return nil, err
		}
		results[order.ID] = ranked
	}
	return results, nil
}

// distanceFor returns the memoized distance between two addresses, computing
// and caching it on a miss. Unresolved addresses are cached as nil for the
// full TTL so a dead address pair does not hammer the provider. Store errors
// propagate without touching the cache: a failed database read must not pin
// the pair as unknown for a week.
func (e *Engine) distanceFor(ctx context.Context, restaurantAddress, orderAddress string) (*float64, error) {
	key := CacheKey(restaurantAddress, orderAddress)
	if distance, ok := e.cache.Get(key); ok {
		return distance, nil
	}

	distance, err := e.computeDistance(ctx, restaurantAddress, orderAddress)
	if err != nil {
		return nil, err
	}
	e.cache.Set(key, distance)
	return distance, nil
}

func (e *Engine) computeDistance(ctx context.Context, restaurantAddress, orderAddress string) (*float64, error) {
	restaurantPoint, err := e.resolver.Resolve(ctx, restaurantAddress)
	if err != nil {
		if errors.Is(err, geocoder.ErrUnresolved) {
			e.logger.Debug().Str("address", restaurantAddress).Msg("Restaurant address unresolved")
			return nil, nil
		}
		return nil, err
	}

	orderPoint, err := e.resolver.Resolve(ctx, orderAddress)
	if err != nil {
		if errors.Is(err, geocoder.ErrUnresolved) {
			e.logger.Debug().Str("address", orderAddress).Msg("Order address unresolved")
			return nil, nil
		}
		return nil, err
	}

	km := RoundKm(HaversineKm(
		restaurantPoint.Latitude, restaurantPoint.Longitude,
		orderPoint.Latitude, orderPoint.Longitude,
	))
	return &km, nil
}
