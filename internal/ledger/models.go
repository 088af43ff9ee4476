package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

// Orders are created pending; later transitions belong to fulfilment,
// which this service does not own.
const StatusPending Status = "pending"

type Order struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"customer_name"`
	Address      string          `json:"address"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// OrderItem is the audit record of a purchase line: PriceAtTime snapshots
// the product's unit price at checkout and never changes afterwards.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
}
