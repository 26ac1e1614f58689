package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/sander-0/sanberbe59-sander/internal/kafka"
)

type OrderStore interface {
	CreateOrderTx(ctx context.Context, userID string, items []OrderItem) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}

type NameResolver interface {
	DisplayName(ctx context.Context, userID string) string
}

type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// PlacedOrder = order tersimpan + nama pembuatnya (utk response).
type PlacedOrder struct {
	Order
	CreatedByName string `json:"createdByName"`
}

// Service adalah workflow engine pembuatan order: guard autentikasi,
// reservasi stok + simpan order (transaksional di store), resolve nama user,
// publish event OrderCreated.
type Service struct {
	Orders      OrderStore
	Names       NameResolver
	Events      EventPublisher // opsional
	Log         *slog.Logger
	ServiceName string
}

func (s *Service) PlaceOrder(ctx context.Context, userID string, items []OrderItem) (PlacedOrder, error) {
	if userID == "" {
		return PlacedOrder{}, ErrUnauthenticated
	}

	o, err := s.Orders.CreateOrderTx(ctx, userID, items)
	if err != nil {
		return PlacedOrder{}, err
	}

	name := UnknownUserName
	if s.Names != nil {
		name = s.Names.DisplayName(ctx, userID)
	}

	s.publishCreated(o)

	if s.Log != nil {
		s.Log.Info("order created", "order_id", o.ID, "user_id", userID, "grand_total", o.GrandTotal)
	}
	return PlacedOrder{Order: o, CreatedByName: name}, nil
}

func (s *Service) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	return s.Orders.ListByUser(ctx, userID)
}

func (s *Service) publishCreated(o Order) {
	if s.Events == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderCreatedPayload{
			OrderID:    o.ID,
			UserID:     o.CreatedBy,
			Items:      o.Items,
			GrandTotal: o.GrandTotal,
		}),
	}
	s.Events.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
