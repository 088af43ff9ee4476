package postgres

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/checkout"
	"github.com/ariefcatur/go-storefront.git/internal/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CheckoutStore implements checkout.Store on top of a pgx pool. Stock
// reads use SELECT ... FOR UPDATE, so two checkouts racing on the same
// product serialize on the row and the loser re-reads the decremented
// stock before its own check.
type CheckoutStore struct{ DB *pgxpool.Pool }

func (s *CheckoutStore) InTx(ctx context.Context, fn func(tx checkout.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return &checkout.TxError{Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&checkoutTx{tx: tx}); err != nil {
		if checkout.IsBusinessError(err) {
			return err
		}
		return &checkout.TxError{Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return &checkout.TxError{Err: err}
	}
	return nil
}

type checkoutTx struct{ tx pgx.Tx }

func (t *checkoutTx) GetProductForUpdate(ctx context.Context, id int64) (*catalog.Product, error) {
	var p catalog.Product
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, price, stock, category_id, image_url, created_at, updated_at
		FROM products WHERE id=$1 FOR UPDATE`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CategoryID, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *checkoutTx) UpdateStock(ctx context.Context, id int64, stock int) error {
	ct, err := t.tx.Exec(ctx, `UPDATE products SET stock=$2, updated_at=now() WHERE id=$1`, id, stock)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return catalog.ErrNotFound
	}
	return nil
}

func (t *checkoutTx) InsertOrder(ctx context.Context, o *ledger.Order) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders(customer_name, address, total_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		o.CustomerName, o.Address, o.TotalAmount, string(o.Status), o.CreatedAt,
	).Scan(&id)
	return id, err
}

func (t *checkoutTx) InsertOrderItem(ctx context.Context, it *ledger.OrderItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_items(order_id, product_id, qty, price_at_time)
		VALUES ($1, $2, $3, $4)`,
		it.OrderID, it.ProductID, it.Quantity, it.PriceAtTime,
	)
	return err
}

func (t *checkoutTx) UpdateOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, `UPDATE orders SET total_amount=$2 WHERE id=$1`, orderID, total)
	return err
}
