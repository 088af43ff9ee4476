package stockwatch

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/events"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct{ products map[int64]catalog.Product }

func (f *fakeCatalog) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

type capturePublisher struct{ published []events.Envelope }

func (c *capturePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	var env events.Envelope
	if err := kafkax.UnmarshalEnvelope(value, &env); err == nil {
		c.published = append(c.published, env)
	}
}

func orderPlacedMessage(t *testing.T, items []events.PlacedItem) kafkago.Message {
	t.Helper()
	env := events.Envelope{
		EventID:      "evt-1",
		EventType:    events.EventOrderPlaced,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "storefront-api",
		Payload: kafkax.MustMarshal(events.OrderPlacedPayload{
			OrderID: 7, CustomerName: "Ana", Items: items,
			Total: decimal.RequireFromString("10.00"),
		}),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func TestHandleOrderPlaced_PublishesStockLow(t *testing.T) {
	cat := &fakeCatalog{products: map[int64]catalog.Product{
		1: {ID: 1, Name: "Mug", Stock: 2},
		2: {ID: 2, Name: "Shirt", Stock: 50},
	}}
	pub := &capturePublisher{}
	svc := &Service{Catalog: cat, Producer: pub, Threshold: 3, ServiceName: "stockwatch"}

	msg := orderPlacedMessage(t, []events.PlacedItem{
		{ProductID: 1, Qty: 1},
		{ProductID: 2, Qty: 1},
		{ProductID: 1, Qty: 2}, // duplicate line, reported once
	})
	require.NoError(t, svc.HandleOrderPlaced(context.Background(), msg))

	require.Len(t, pub.published, 1)
	assert.Equal(t, events.EventStockLow, pub.published[0].EventType)
	p, err := kafkax.UnwrapPayload[events.StockLowPayload](pub.published[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ProductID)
	assert.Equal(t, 2, p.Stock)
	assert.Equal(t, 3, p.Threshold)
}

func TestHandleOrderPlaced_IgnoresOtherEventTypes(t *testing.T) {
	pub := &capturePublisher{}
	svc := &Service{Catalog: &fakeCatalog{}, Producer: pub, Threshold: 3}

	env := events.Envelope{EventID: "x", EventType: events.EventStockLow, Payload: []byte(`{}`)}
	err := svc.HandleOrderPlaced(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)})
	require.NoError(t, err)
	assert.Empty(t, pub.published)
}

func TestHandleOrderPlaced_SkipsDeletedProducts(t *testing.T) {
	pub := &capturePublisher{}
	svc := &Service{Catalog: &fakeCatalog{products: map[int64]catalog.Product{}}, Producer: pub, Threshold: 3}

	msg := orderPlacedMessage(t, []events.PlacedItem{{ProductID: 9, Qty: 1}})
	require.NoError(t, svc.HandleOrderPlaced(context.Background(), msg))
	assert.Empty(t, pub.published)
}
