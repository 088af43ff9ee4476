package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

// Store reads the order ledger for non-checkout callers (order lookup,
// admin listing). Checkout writes go through the transaction-scoped
// store in internal/postgres.
type Store struct{ DB *pgxpool.Pool }

func (s *Store) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := s.DB.QueryRow(ctx, `
		SELECT id, customer_name, address, total_amount, status, created_at
		FROM orders WHERE id=$1`, id,
	).Scan(&o.ID, &o.CustomerName, &o.Address, &o.TotalAmount, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) ListOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, order_id, product_id, qty, price_at_time
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceAtTime); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
