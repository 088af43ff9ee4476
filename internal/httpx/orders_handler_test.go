package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ariefcatur/go-storefront.git/internal/checkout"
	"github.com/ariefcatur/go-storefront.git/internal/events"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-storefront.git/internal/ledger"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	got checkout.Request
	rec *checkout.Receipt
	err error
}

func (f *fakeEngine) PlaceOrder(ctx context.Context, req checkout.Request) (*checkout.Receipt, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

type fakePublisher struct{ envelopes []events.Envelope }

func (f *fakePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	var env events.Envelope
	if err := kafkax.UnmarshalEnvelope(value, &env); err == nil {
		f.envelopes = append(f.envelopes, env)
	}
}

func postOrders(t *testing.T, h *OrdersHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := NewRouter(nil)
	h.Register(r)
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestPlaceOrder_OK(t *testing.T) {
	eng := &fakeEngine{rec: &checkout.Receipt{OrderID: 7, Total: decimal.RequireFromString("30.00")}}
	pub := &fakePublisher{}
	h := &OrdersHandler{Engine: eng, Producer: pub, Service: "storefront-api"}

	rr := postOrders(t, h, `{"customerName":"Ana","address":"1 Main St","items":[{"productId":1,"quantity":3}]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool   `json:"success"`
		OrderID int64  `json:"orderId"`
		Total   string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), resp.OrderID)
	assert.Equal(t, "30.00", resp.Total)

	require.Equal(t, "Ana", eng.got.CustomerName)
	require.Len(t, eng.got.Items, 1)
	assert.Equal(t, int64(1), eng.got.Items[0].ProductID)

	require.Len(t, pub.envelopes, 1)
	assert.Equal(t, events.EventOrderPlaced, pub.envelopes[0].EventType)
	assert.Equal(t, "7", pub.envelopes[0].CorrelationID)
}

func TestPlaceOrder_ClientPriceIsIgnored(t *testing.T) {
	eng := &fakeEngine{rec: &checkout.Receipt{OrderID: 1, Total: decimal.RequireFromString("30.00")}}
	h := &OrdersHandler{Engine: eng}

	// A forged price field decodes into nothing; the engine only ever
	// sees product id and quantity.
	rr := postOrders(t, h, `{"customerName":"Ana","address":"1 Main St","items":[{"productId":1,"quantity":3,"price":"0.01"}],"total":"0.03"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, eng.got.Items, 1)
	assert.Equal(t, checkout.Item{ProductID: 1, Quantity: 3}, eng.got.Items[0])
	assert.Contains(t, rr.Body.String(), `"total":"30.00"`)
}

func TestPlaceOrder_BusinessFailuresAre400(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		message string
	}{
		{"insufficient stock", &checkout.InsufficientStockError{Product: "Mug", Required: 3, Available: 2}, "insufficient stock for Mug"},
		{"unknown product", &checkout.ProductNotFoundError{ID: 99}, "product 99 does not exist"},
		{"validation", &checkout.ValidationError{Reason: "order has no items"}, "order has no items"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pub := &fakePublisher{}
			h := &OrdersHandler{Engine: &fakeEngine{err: tc.err}, Producer: pub}
			rr := postOrders(t, h, `{"customerName":"Ana","address":"1 Main St","items":[{"productId":1,"quantity":3}]}`)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), `"success":false`)
			assert.Contains(t, rr.Body.String(), tc.message)
			assert.Empty(t, pub.envelopes, "no event for a failed checkout")
		})
	}
}

func TestPlaceOrder_StorageFailureIs500(t *testing.T) {
	h := &OrdersHandler{Engine: &fakeEngine{err: &checkout.TxError{Err: context.DeadlineExceeded}}}
	rr := postOrders(t, h, `{"customerName":"Ana","address":"1 Main St","items":[{"productId":1,"quantity":3}]}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "checkout failed")
	// The underlying cause never reaches the client.
	assert.NotContains(t, rr.Body.String(), "deadline")
}

type fakeLedger struct {
	order *ledger.Order
	items []ledger.OrderItem
}

func (f *fakeLedger) GetOrder(ctx context.Context, id int64) (*ledger.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, ledger.ErrNotFound
	}
	return f.order, nil
}

func (f *fakeLedger) ListOrderItems(ctx context.Context, orderID int64) ([]ledger.OrderItem, error) {
	return f.items, nil
}

func TestGetOrder(t *testing.T) {
	led := &fakeLedger{
		order: &ledger.Order{ID: 7, CustomerName: "Ana", Address: "1 Main St",
			TotalAmount: decimal.RequireFromString("30.00"), Status: ledger.StatusPending},
		items: []ledger.OrderItem{{ID: 1, OrderID: 7, ProductID: 1, Quantity: 3,
			PriceAtTime: decimal.RequireFromString("10.00")}},
	}
	h := &OrdersHandler{Engine: &fakeEngine{}, Ledger: led}
	r := NewRouter(nil)
	h.Register(r)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/7", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"Ana"`)
	assert.Contains(t, rr.Body.String(), `"price_at_time":"10.00"`)

	req = httptest.NewRequest(http.MethodGet, "/api/orders/99", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/orders/abc", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPlaceOrder_BadJSON(t *testing.T) {
	h := &OrdersHandler{Engine: &fakeEngine{}}
	rr := postOrders(t, h, `{"customerName":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
