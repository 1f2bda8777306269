package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrProductNotFound is returned when an order references an unknown product.
var ErrProductNotFound = errors.New("product not found")

// NewOrder carries the fields of an order submission.
type NewOrder struct {
	Firstname   string
	Lastname    string
	Phonenumber string
	Address     string
	Items       []NewOrderItem
}

// NewOrderItem is a single line of an order submission.
type NewOrderItem struct {
	ProductID int64
	Quantity  int
}

// OrderStore persists and reads orders.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore creates an order store backed by the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Create inserts an order and its line items in a single transaction.
// Each line captures price = current product price * quantity, so later
// price changes do not affect existing orders.
func (s *OrderStore) Create(ctx context.Context, newOrder NewOrder) (*Order, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order := &Order{
		Firstname:   newOrder.Firstname,
		Lastname:    newOrder.Lastname,
		Phonenumber: newOrder.Phonenumber,
		Address:     newOrder.Address,
		Status:      OrderStatusNew,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (firstname, lastname, phonenumber, address, status, registered_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, registered_at
	`, order.Firstname, order.Lastname, order.Phonenumber, order.Address, order.Status).
		Scan(&order.ID, &order.RegisteredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range newOrder.Items {
		var unitPrice int64
		err := tx.QueryRow(ctx, `
			SELECT price FROM products WHERE id = $1
		`, item.ProductID).Scan(&unitPrice)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("product %d: %w", item.ProductID, ErrProductNotFound)
			}
			return nil, fmt.Errorf("failed to query product price: %w", err)
		}

		linePrice := unitPrice * int64(item.Quantity)
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4)
		`, order.ID, item.ProductID, item.Quantity, linePrice)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}

		order.Items = append(order.Items, OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     linePrice,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}

// List returns all orders with their line items, newest first.
func (s *OrderStore) List(ctx context.Context) ([]*Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, firstname, lastname, phonenumber, address, status, registered_at
		FROM orders
		ORDER BY registered_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	byID := make(map[int64]*Order)
	for rows.Next() {
		var order Order
		if err := rows.Scan(&order.ID, &order.Firstname, &order.Lastname,
			&order.Phonenumber, &order.Address, &order.Status, &order.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &order)
		byID[order.ID] = &order
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := s.pool.Query(ctx, `
		SELECT order_id, product_id, quantity, price
		FROM order_items
		ORDER BY order_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID int64
		var item OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := byID[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return orders, nil
}
