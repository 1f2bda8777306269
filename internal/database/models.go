package database

import "time"

// Restaurant is a row in the restaurants table.
type Restaurant struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	ContactPhone string `json:"contactPhone"`
}

// Product is a row in the products table.
// Price is in minor currency units.
type Product struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	Description   string `json:"description"`
	SpecialStatus bool   `json:"specialStatus"`
}

// MenuItemKey identifies a (restaurant, product) pair in restaurant_menu_items.
// The table carries an explicit availability flag; a pair with no row at all
// is treated as available by the eligibility filter.
type MenuItemKey struct {
	RestaurantID int64
	ProductID    int64
}

// Order statuses.
const (
	OrderStatusNew       = "NEW"
	OrderStatusCompleted = "COMPLETED"
)

// Order is a row in the orders table together with its line items.
type Order struct {
	ID           int64       `json:"id"`
	Firstname    string      `json:"firstname"`
	Lastname     string      `json:"lastname"`
	Phonenumber  string      `json:"phonenumber"`
	Address      string      `json:"address"`
	Status       string      `json:"status"`
	RegisteredAt time.Time   `json:"registeredAt"`
	Items        []OrderItem `json:"items"`
}

// OrderItem is a row in the order_items table.
// Price is the line total captured at submission time
// (product price at that moment times quantity), in minor units.
type OrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
	Price     int64 `json:"price"`
}

// Total returns the order price as the sum of captured line totals.
func (o *Order) Total() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Price
	}
	return total
}

// ProductIDs returns the distinct product ids referenced by the order's items.
func (o *Order) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(o.Items))
	ids := make([]int64, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Place is a row in the places table: a geocoded address.
// Rows are created on first successful geocode and never mutated afterwards;
// the address uniquely determines one coordinate pair.
type Place struct {
	Address    string    `json:"address"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ResolvedAt time.Time `json:"resolvedAt"`
}
