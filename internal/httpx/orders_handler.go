package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/checkout"
	"github.com/ariefcatur/go-storefront.git/internal/events"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-storefront.git/internal/ledger"
	"github.com/ariefcatur/go-storefront.git/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// OrderPlacer is satisfied by *checkout.Engine.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req checkout.Request) (*checkout.Receipt, error)
}

// OrderReader is satisfied by *ledger.Store.
type OrderReader interface {
	GetOrder(ctx context.Context, id int64) (*ledger.Order, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]ledger.OrderItem, error)
}

// EventPublisher is satisfied by *kafkax.Producer.
type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Engine   OrderPlacer
	Ledger   OrderReader
	Producer EventPublisher // nil disables event publishing
	Metrics  *metrics.ServerMetrics
	Service  string
}

type orderItemReq struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type placeOrderReq struct {
	CustomerName string         `json:"customerName"`
	Address      string         `json:"address"`
	Items        []orderItemReq `json:"items"`
}

type placeOrderResp struct {
	Success bool            `json:"success"`
	OrderID int64           `json:"orderId"`
	Total   decimal.Decimal `json:"total"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/api/orders", h.placeOrder)
	r.Get("/api/orders/{id}", h.getOrder)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeFailure(w, http.StatusBadRequest, "invalid order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Ledger.GetOrder(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		writeFailure(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "order lookup failed")
		return
	}
	items, err := h.Ledger.ListOrderItems(ctx, id)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "order lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": o, "items": items})
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.countCheckout("validation")
		writeFailure(w, http.StatusBadRequest, "invalid json")
		return
	}

	items := make([]checkout.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, checkout.Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rec, err := h.Engine.PlaceOrder(ctx, checkout.Request{
		CustomerName: req.CustomerName,
		Address:      req.Address,
		Items:        items,
	})
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	h.countCheckout("ok")
	h.publishPlaced(rec, req)
	writeJSON(w, http.StatusOK, placeOrderResp{Success: true, OrderID: rec.OrderID, Total: rec.Total})
}

// Business-rule failures are 400s with the engine's message; storage
// faults become an opaque 500.
func (h *OrdersHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	if checkout.IsBusinessError(err) {
		var ise *checkout.InsufficientStockError
		var nfe *checkout.ProductNotFoundError
		switch {
		case errors.As(err, &ise):
			h.countCheckout("insufficient_stock")
		case errors.As(err, &nfe):
			h.countCheckout("not_found")
		default:
			h.countCheckout("validation")
		}
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	h.countCheckout("error")
	writeFailure(w, http.StatusInternalServerError, "checkout failed")
}

func (h *OrdersHandler) publishPlaced(rec *checkout.Receipt, req placeOrderReq) {
	if h.Producer == nil {
		return
	}
	placed := make([]events.PlacedItem, 0, len(req.Items))
	for _, it := range req.Items {
		placed = append(placed, events.PlacedItem{ProductID: it.ProductID, Qty: it.Quantity})
	}
	ev := events.Envelope{
		EventID:       uuid.NewString(),
		EventType:     events.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		CorrelationID: strconv.FormatInt(rec.OrderID, 10),
		Payload: kafkax.MustMarshal(events.OrderPlacedPayload{
			OrderID:      rec.OrderID,
			CustomerName: req.CustomerName,
			Items:        placed,
			Total:        rec.Total,
		}),
	}
	h.Producer.Publish(
		events.PartitionKey(rec.OrderID),
		kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) countCheckout(outcome string) {
	if h.Metrics == nil {
		return
	}
	h.Metrics.Checkouts.WithLabelValues(outcome).Inc()
}
