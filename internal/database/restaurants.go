package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RestaurantStore reads restaurants and menu availability.
// The ranking engine treats all of this as read-only input.
type RestaurantStore struct {
	pool *pgxpool.Pool
}

// NewRestaurantStore creates a restaurant store backed by the given pool.
func NewRestaurantStore(pool *pgxpool.Pool) *RestaurantStore {
	return &RestaurantStore{pool: pool}
}

// List returns all restaurants ordered by name.
func (s *RestaurantStore) List(ctx context.Context) ([]Restaurant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, address, contact_phone
		FROM restaurants
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query restaurants: %w", err)
	}
	defer rows.Close()

	var restaurants []Restaurant
	for rows.Next() {
		var r Restaurant
		if err := rows.Scan(&r.ID, &r.Name, &r.Address, &r.ContactPhone); err != nil {
			return nil, fmt.Errorf("failed to scan restaurant: %w", err)
		}
		restaurants = append(restaurants, r)
	}
	return restaurants, rows.Err()
}

// UnavailablePairs returns the set of (restaurant, product) pairs whose menu
// item row explicitly marks the product as not for sale. Pairs with no row
// are absent from the set and therefore count as available.
func (s *RestaurantStore) UnavailablePairs(ctx context.Context) (map[MenuItemKey]struct{}, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT restaurant_id, product_id
		FROM restaurant_menu_items
		WHERE availability = false
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu unavailability: %w", err)
	}
	defer rows.Close()

	pairs := make(map[MenuItemKey]struct{})
	for rows.Next() {
		var key MenuItemKey
		if err := rows.Scan(&key.RestaurantID, &key.ProductID); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		pairs[key] = struct{}{}
	}
	return pairs, rows.Err()
}

// AvailableProducts returns products on sale in at least one restaurant.
func (s *RestaurantStore) AvailableProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT p.id, p.name, p.price, p.description, p.special_status
		FROM products p
		JOIN restaurant_menu_items mi ON mi.product_id = p.id
		WHERE mi.availability = true
		ORDER BY p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.SpecialStatus); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
