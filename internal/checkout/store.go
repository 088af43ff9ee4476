package checkout

import (
	"context"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/ledger"
	"github.com/shopspring/decimal"
)

// Tx is the transaction-scoped view of the catalog and the order ledger.
// Every call sees the same database transaction; GetProductForUpdate must
// lock the row so that a concurrent checkout touching the same product
// blocks until this transaction commits or rolls back.
type Tx interface {
	GetProductForUpdate(ctx context.Context, id int64) (*catalog.Product, error)
	UpdateStock(ctx context.Context, id int64, stock int) error
	InsertOrder(ctx context.Context, o *ledger.Order) (int64, error)
	InsertOrderItem(ctx context.Context, it *ledger.OrderItem) error
	UpdateOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error
}

// Store runs fn inside a single transaction. If fn returns nil the
// transaction commits; otherwise everything rolls back and the error is
// returned — business errors as-is, storage faults wrapped in TxError.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
