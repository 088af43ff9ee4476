package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/ledger"
	"github.com/shopspring/decimal"
)

type Item struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type Request struct {
	CustomerName string `json:"customer_name"`
	Address      string `json:"address"`
	Items        []Item `json:"items"`
}

type Receipt struct {
	OrderID int64           `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

// Engine places orders. It is stateless; all state lives behind Store.
type Engine struct {
	Store Store
}

// PlaceOrder validates the request, then runs the checkout transaction:
// create the order, walk the items re-reading each product under a row
// lock, snapshot price-at-time, decrement stock, and finally set the
// order total. Any failure rolls the whole unit back.
func (e *Engine) PlaceOrder(ctx context.Context, req Request) (*Receipt, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var rec Receipt
	err := e.Store.InTx(ctx, func(tx Tx) error {
		orderID, err := tx.InsertOrder(ctx, &ledger.Order{
			CustomerName: req.CustomerName,
			Address:      req.Address,
			TotalAmount:  decimal.Zero,
			Status:       ledger.StatusPending,
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, it := range req.Items {
			// Re-read under lock every time: a product appearing twice in
			// the request must see its own earlier decrement.
			p, err := tx.GetProductForUpdate(ctx, it.ProductID)
			if errors.Is(err, catalog.ErrNotFound) {
				return &ProductNotFoundError{ID: it.ProductID}
			}
			if err != nil {
				return err
			}
			if p.Stock < it.Quantity {
				return &InsufficientStockError{
					Product:   productLabel(p),
					Required:  it.Quantity,
					Available: p.Stock,
				}
			}

			// Price comes from the row, never from the client.
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))

			if err := tx.InsertOrderItem(ctx, &ledger.OrderItem{
				OrderID:     orderID,
				ProductID:   p.ID,
				Quantity:    it.Quantity,
				PriceAtTime: p.Price,
			}); err != nil {
				return err
			}
			if err := tx.UpdateStock(ctx, p.ID, p.Stock-it.Quantity); err != nil {
				return err
			}
		}

		if err := tx.UpdateOrderTotal(ctx, orderID, total); err != nil {
			return err
		}
		rec = Receipt{OrderID: orderID, Total: total}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func validate(req Request) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return &ValidationError{Reason: "customer name is required"}
	}
	if strings.TrimSpace(req.Address) == "" {
		return &ValidationError{Reason: "address is required"}
	}
	if len(req.Items) == 0 {
		return &ValidationError{Reason: "order has no items"}
	}
	for _, it := range req.Items {
		if it.ProductID <= 0 {
			return &ValidationError{Reason: "missing product id"}
		}
		if it.Quantity <= 0 {
			return &ValidationError{Reason: fmt.Sprintf("invalid quantity %d for product %d", it.Quantity, it.ProductID)}
		}
	}
	return nil
}

func productLabel(p *catalog.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("product %d", p.ID)
}
