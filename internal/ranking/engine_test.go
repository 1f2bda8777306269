package ranking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starburger/order-service/internal/database"
	"github.com/starburger/order-service/internal/geocoder"
)

// mockResolver resolves from a fixed address table and counts calls,
// so tests can assert how often the engine actually hits it.
type mockResolver struct {
	points   map[string]geocoder.Point
	calls    map[string]int
	failures map[string]error
}

func newMockResolver() *mockResolver {
	return &mockResolver{
		points:   make(map[string]geocoder.Point),
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
}

func (m *mockResolver) Resolve(ctx context.Context, address string) (geocoder.Point, error) {
	m.calls[address]++
	if err, ok := m.failures[address]; ok {
		delete(m.failures, address)
		return geocoder.Point{}, err
	}
	point, ok := m.points[address]
	if !ok {
		return geocoder.Point{}, geocoder.ErrUnresolved
	}
	return point, nil
}

func (m *mockResolver) setPoint(address string, lat, lon float64) {
	m.points[address] = geocoder.Point{Latitude: lat, Longitude: lon}
}

// failOnce makes the next resolution of the address return the given error.
func (m *mockResolver) failOnce(address string, err error) {
	m.failures[address] = err
}

// mockRestaurantSource serves a fixed restaurant list and unavailability set.
type mockRestaurantSource struct {
	restaurants []database.Restaurant
	unavailable map[database.MenuItemKey]struct{}
}

func newMockRestaurantSource() *mockRestaurantSource {
	return &mockRestaurantSource{
		unavailable: make(map[database.MenuItemKey]struct{}),
	}
}

func (m *mockRestaurantSource) List(ctx context.Context) ([]database.Restaurant, error) {
	return m.restaurants, nil
}

func (m *mockRestaurantSource) UnavailablePairs(ctx context.Context) (map[database.MenuItemKey]struct{}, error) {
	return m.unavailable, nil
}

func (m *mockRestaurantSource) addRestaurant(id int64, name, address string) {
	m.restaurants = append(m.restaurants, database.Restaurant{ID: id, Name: name, Address: address})
}

func (m *mockRestaurantSource) markUnavailable(restaurantID, productID int64) {
	m.unavailable[database.MenuItemKey{RestaurantID: restaurantID, ProductID: productID}] = struct{}{}
}

func newTestEngine(source *mockRestaurantSource, resolver *mockResolver) *Engine {
	return NewEngine(source, resolver, NewDistanceCache(time.Hour))
}

func TestRankFiltersUnavailableRestaurant(t *testing.T) {
	// Order address geocodes to Moscow center; R1 is nearby, R2 cannot
	// sell the ordered product and must not appear at all.
	source := newMockRestaurantSource()
	source.addRestaurant(1, "R1", "Moscow, Arbat 10")
	source.addRestaurant(2, "R2", "Moscow, Lenina 5")
	source.markUnavailable(2, 10)

	resolver := newMockResolver()
	resolver.setPoint("Moscow, Tverskaya 1", 55.76, 37.61)
	resolver.setPoint("Moscow, Arbat 10", 55.75, 37.59)

	engine := newTestEngine(source, resolver)

	ranked, err := engine.Rank(context.Background(), makeOrder(10))
	require.NoError(t, err)

	require.Len(t, ranked, 1)
	assert.Equal(t, "R1", ranked[0].Restaurant.Name)
	require.NotNil(t, ranked[0].DistanceKm)

	want := RoundKm(HaversineKm(55.75, 37.59, 55.76, 37.61))
	assert.Equal(t, want, *ranked[0].DistanceKm)
}

func TestRankSortsKnownAscendingUnknownLast(t *testing.T) {
	source := newMockRestaurantSource()
	source.addRestaurant(1, "Far", "Far Addr")
	source.addRestaurant(2, "Unresolvable", "Unknown Place 999")
	source.addRestaurant(3, "Near", "Near Addr")

	resolver := newMockResolver()
	resolver.setPoint("Order Addr", 55.76, 37.61)
	resolver.setPoint("Near Addr", 55.77, 37.62)
	resolver.setPoint("Far Addr", 56.5, 38.5)
	// "Unknown Place 999" resolves to nothing.

	engine := newTestEngine(source, resolver)

	order := makeOrder(10)
	order.Address = "Order Addr"
	ranked, err := engine.Rank(context.Background(), order)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "Near", ranked[0].Restaurant.Name)
	assert.Equal(t, "Far", ranked[1].Restaurant.Name)
	assert.Equal(t, "Unresolvable", ranked[2].Restaurant.Name)

	require.NotNil(t, ranked[0].DistanceKm)
	require.NotNil(t, ranked[1].DistanceKm)
	assert.Nil(t, ranked[2].DistanceKm)
	assert.LessOrEqual(t, *ranked[0].DistanceKm, *ranked[1].DistanceKm)
}

func TestRankTiedDistancesBothBeforeUnknown(t *testing.T) {
	source := newMockRestaurantSource()
	source.addRestaurant(1, "A", "Same Addr A")
	source.addRestaurant(2, "B", "Same Addr B")
	source.addRestaurant(3, "C", "No Coords")

	resolver := newMockResolver()
	resolver.setPoint("Order Addr", 55.76, 37.61)
	// Both restaurants sit on the identical point: exact distance tie.
	resolver.setPoint("Same Addr A", 55.80, 37.70)
	resolver.setPoint("Same Addr B", 55.80, 37.70)

	engine := newTestEngine(source, resolver)

	order := makeOrder(10)
	order.Address = "Order Addr"
	ranked, err := engine.Rank(context.Background(), order)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	require.NotNil(t, ranked[0].DistanceKm)
	require.NotNil(t, ranked[1].DistanceKm)
	assert.Equal(t, *ranked[0].DistanceKm, *ranked[1].DistanceKm)
	assert.Nil(t, ranked[2].DistanceKm)
	assert.Equal(t, "C", ranked[2].Restaurant.Name)
}

func TestRankMemoizesDistances(t *testing.T) {
	source := newMockRestaurantSource()
	source.addRestaurant(1, "R1", "Rest Addr")

	resolver := newMockResolver()
	resolver.setPoint("Order Addr", 55.76, 37.61)
	resolver.setPoint("Rest Addr", 55.75, 37.59)

	engine := newTestEngine(source, resolver)

	order := makeOrder(10)
	order.Address = "Order Addr"

	_, err := engine.Rank(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls["Rest Addr"])
	assert.Equal(t, 1, resolver.calls["Order Addr"])

	// Second render hits the distance cache, no more resolver traffic.
	_, err = engine.Rank(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls["Rest Addr"])
	assert.Equal(t, 1, resolver.calls["Order Addr"])
}

func TestRankMemoizesFailedResolutions(t *testing.T) {
	source := newMockRestaurantSource()
	source.addRestaurant(1, "R1", "Dead Addr")

	resolver := newMockResolver()
	resolver.setPoint("Order Addr", 55.76, 37.61)
	// "Dead Addr" never resolves.

	engine := newTestEngine(source, resolver)

	order := makeOrder(10)
	order.Address = "Order Addr"

	ranked, err := engine.Rank(context.Background(), order)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Nil(t, ranked[0].DistanceKm)
	firstCalls := resolver.calls["Dead Addr"]

	// The failure is cached for the TTL: no second attempt.
	_, err = engine.Rank(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, firstCalls, resolver.calls["Dead Addr"])
}

func TestRankPropagatesStoreErrorsWithoutCaching(t *testing.T) {
	// A database blip is not an unresolved address. It must fail the
	// render and leave the distance cache untouched, so the pair is
	// recomputed once the store recovers.
	source := newMockRestaurantSource()
	source.addRestaurant(1, "R1", "Rest Addr")

	resolver := newMockResolver()
	resolver.setPoint("Order Addr", 55.76, 37.61)
	resolver.setPoint("Rest Addr", 55.75, 37.59)
	resolver.failOnce("Rest Addr", errors.New("place store lookup: pool closed"))

	engine := newTestEngine(source, resolver)

	order := makeOrder(10)
	order.Address = "Order Addr"

	_, err := engine.Rank(context.Background(), order)
	require.Error(t, err)
	assert.Equal(t, 0, engine.cache.Len())

	// Store recovered: the distance comes back on the next render.
	ranked, err := engine.Rank(context.Background(), order)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	require.NotNil(t, ranked[0].DistanceKm)
	assert.Equal(t, 2, resolver.calls["Rest Addr"])
}

func TestRankAll(t *testing.T) {
	source := newMockRestaurantSource()
	source.addRestaurant(1, "R1", "Rest Addr")

	resolver := newMockResolver()
	resolver.setPoint("Rest Addr", 55.75, 37.59)
	resolver.setPoint("Addr A", 55.76, 37.61)
	resolver.setPoint("Addr B", 55.70, 37.50)

	engine := newTestEngine(source, resolver)

	orderA := makeOrder(10)
	orderA.ID = 1
	orderA.Address = "Addr A"
	orderB := makeOrder(10)
	orderB.ID = 2
	orderB.Address = "Addr B"

	results, err := engine.RankAll(context.Background(), []*database.Order{orderA, orderB})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, results[1], 1)
	assert.Len(t, results[2], 1)

	// The restaurant address is shared between orders and resolved once.
	assert.Equal(t, 1, resolver.calls["Rest Addr"])
}
