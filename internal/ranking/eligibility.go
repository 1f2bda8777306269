package ranking

import "github.com/starburger/order-service/internal/database"

// EligibleRestaurants returns the restaurants that can fulfill the order:
// those with no explicit unavailability record for any ordered product.
// A restaurant that has no menu item row at all for a product counts as
// able to sell it; only availability=false excludes.
func EligibleRestaurants(order *database.Order, restaurants []database.Restaurant, unavailable map[database.MenuItemKey]struct{}) []database.Restaurant {
	productIDs := order.ProductIDs()

	eligible := make([]database.Restaurant, 0, len(restaurants))
	for _, restaurant := range restaurants {
		ok := true
		for _, productID := range productIDs {
			key := database.MenuItemKey{RestaurantID: restaurant.ID, ProductID: productID}
			if _, unavail := unavailable[key]; unavail {
				ok = false
				break
			}
		}
		if ok {
			eligible = append(eligible, restaurant)
		}
	}
	return eligible
}
