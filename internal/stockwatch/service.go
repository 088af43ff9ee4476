// Package stockwatch consumes placed-order events and raises stock.low
// events for products whose remaining stock is at or under a threshold.
package stockwatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/events"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-storefront.git/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// StockReader is the slice of the catalog this service needs; *catalog.Store
// satisfies it.
type StockReader interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

// Publisher is satisfied by *kafkax.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Catalog     StockReader
	Redis       *redis.Client
	Producer    Publisher
	Threshold   int
	ServiceName string
}

// HandleOrderPlaced is installed as the consumer handler.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != events.EventOrderPlaced {
		return nil
	}

	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "stockwatch", env.EventID)
		exists, _ := redisx.Exists(ctx, s.Redis, dkey)
		if exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[events.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	seen := map[int64]bool{}
	for _, it := range p.Items {
		if seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true

		prod, err := s.Catalog.GetProduct(ctx, it.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			continue // deleted since the order, nothing to watch
		}
		if err != nil {
			return err
		}
		if prod.Stock > s.Threshold {
			continue
		}
		log.Printf("low stock: product=%d name=%q stock=%d threshold=%d", prod.ID, prod.Name, prod.Stock, s.Threshold)
		s.publishStockLow(prod)
	}
	return nil
}

func (s *Service) publishStockLow(p *catalog.Product) {
	ev := events.Envelope{
		EventID:      uuid.NewString(),
		EventType:    events.EventStockLow,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     s.ServiceName,
		Payload: kafkax.MustMarshal(events.StockLowPayload{
			ProductID: p.ID,
			Name:      p.Name,
			Stock:     p.Stock,
			Threshold: s.Threshold,
		}),
	}
	s.Producer.Publish(
		[]byte(fmt.Sprintf("%d", p.ID)),
		kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.EventStockLow)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
