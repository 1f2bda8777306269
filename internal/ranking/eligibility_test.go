package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starburger/order-service/internal/database"
)

func makeOrder(productIDs ...int64) *database.Order {
	order := &database.Order{ID: 1, Address: "Moscow, Tverskaya 1"}
	for _, id := range productIDs {
		order.Items = append(order.Items, database.OrderItem{ProductID: id, Quantity: 1})
	}
	return order
}

func TestEligibilityExcludesExplicitUnavailability(t *testing.T) {
	restaurants := []database.Restaurant{
		{ID: 1, Name: "R1", Address: "Addr 1"},
		{ID: 2, Name: "R2", Address: "Addr 2"},
	}
	unavailable := map[database.MenuItemKey]struct{}{
		{RestaurantID: 2, ProductID: 10}: {},
	}

	eligible := EligibleRestaurants(makeOrder(10), restaurants, unavailable)

	assert.Len(t, eligible, 1)
	assert.Equal(t, int64(1), eligible[0].ID)
}

func TestEligibilityAbsenceCountsAsAvailable(t *testing.T) {
	// No menu item rows at all: every restaurant can sell every product.
	restaurants := []database.Restaurant{
		{ID: 1, Name: "R1"},
		{ID: 2, Name: "R2"},
	}

	eligible := EligibleRestaurants(makeOrder(10, 20), restaurants, map[database.MenuItemKey]struct{}{})

	assert.Len(t, eligible, 2)
}

func TestEligibilityRequiresAllProducts(t *testing.T) {
	restaurants := []database.Restaurant{
		{ID: 1, Name: "R1"},
		{ID: 2, Name: "R2"},
	}
	// R1 misses product 20, R2 misses nothing.
	unavailable := map[database.MenuItemKey]struct{}{
		{RestaurantID: 1, ProductID: 20}: {},
	}

	eligible := EligibleRestaurants(makeOrder(10, 20), restaurants, unavailable)

	assert.Len(t, eligible, 1)
	assert.Equal(t, int64(2), eligible[0].ID)
}

func TestEligibilityUnavailabilityForOtherProductIgnored(t *testing.T) {
	restaurants := []database.Restaurant{
		{ID: 1, Name: "R1"},
	}
	// R1 cannot sell product 99, but the order doesn't contain it.
	unavailable := map[database.MenuItemKey]struct{}{
		{RestaurantID: 1, ProductID: 99}: {},
	}

	eligible := EligibleRestaurants(makeOrder(10), restaurants, unavailable)

	assert.Len(t, eligible, 1)
}

func TestEligibilityDuplicateOrderLines(t *testing.T) {
	restaurants := []database.Restaurant{
		{ID: 1, Name: "R1"},
		{ID: 2, Name: "R2"},
	}
	unavailable := map[database.MenuItemKey]struct{}{
		{RestaurantID: 1, ProductID: 10}: {},
	}

	// Same product twice in the order changes nothing.
	eligible := EligibleRestaurants(makeOrder(10, 10), restaurants, unavailable)

	assert.Len(t, eligible, 1)
	assert.Equal(t, int64(2), eligible[0].ID)
}
