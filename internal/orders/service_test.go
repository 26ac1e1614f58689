package orders

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/sander-0/sanberbe59-sander/internal/kafka"
)

// fakeStore meniru kontrak CreateOrderTx: item diproses urut, gagal di item
// manapun berarti tidak ada perubahan sama sekali, dan mutasi stok
// diserialisasi (mutex menggantikan row lock).
type fakeStore struct {
	mu       sync.Mutex
	products map[string]*Product
	orders   []Order
}

func newFakeStore(products ...Product) *fakeStore {
	f := &fakeStore{products: map[string]*Product{}}
	for _, p := range products {
		cp := p
		f.products[p.ID] = &cp
	}
	return f
}

func (f *fakeStore) CreateOrderTx(ctx context.Context, userID string, items []OrderItem) (Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, it := range items {
		if it.Qty <= 0 {
			return Order{}, &InvalidQtyError{ProductID: it.ProductID, Qty: it.Qty}
		}
		p, ok := f.products[it.ProductID]
		if !ok {
			return Order{}, &ProductNotFoundError{ProductID: it.ProductID}
		}
		if it.Qty > p.Qty {
			return Order{}, &InsufficientStockError{ProductID: it.ProductID, Requested: it.Qty, Available: p.Qty}
		}
		total += it.Price * it.Qty
	}
	for _, it := range items {
		f.products[it.ProductID].Qty -= it.Qty
	}
	o := Order{
		ID:         uuid.NewString(),
		CreatedBy:  userID,
		Status:     StatusPending,
		GrandTotal: total,
		Items:      items,
		CreatedAt:  time.Now().UTC(),
	}
	f.orders = append(f.orders, o)
	return o, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Order{}
	for _, o := range f.orders {
		if o.CreatedBy == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) qty(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Qty
}

type staticNames map[string]string

func (n staticNames) DisplayName(ctx context.Context, userID string) string {
	if name, ok := n[userID]; ok {
		return name
	}
	return UnknownUserName
}

type capturePublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

func (c *capturePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, value)
}

func TestPlaceOrderUnauthenticated(t *testing.T) {
	svc := &Service{Orders: newFakeStore()}

	_, err := svc.PlaceOrder(context.Background(), "", []OrderItem{{ProductID: "p1", Qty: 1, Price: 10}})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestPlaceOrderComputesTotalAndDecrementsStock(t *testing.T) {
	store := newFakeStore(Product{ID: "p1", Name: "Kopi", Qty: 5, Price: 10})
	svc := &Service{Orders: store, Names: staticNames{"u1": "Sander"}}

	placed, err := svc.PlaceOrder(context.Background(), "u1", []OrderItem{{ProductID: "p1", Qty: 3, Price: 10}})
	require.NoError(t, err)

	assert.Equal(t, 30, placed.GrandTotal)
	assert.Equal(t, StatusPending, placed.Status)
	assert.Equal(t, "u1", placed.CreatedBy)
	assert.Equal(t, "Sander", placed.CreatedByName)
	assert.NotEmpty(t, placed.ID)
	assert.Equal(t, 2, store.qty("p1"))

	// sisa stok 2, minta 3 lagi harus gagal
	_, err = svc.PlaceOrder(context.Background(), "u1", []OrderItem{{ProductID: "p1", Qty: 3, Price: 10}})
	var noStock *InsufficientStockError
	require.ErrorAs(t, err, &noStock)
	assert.Equal(t, "p1", noStock.ProductID)
	assert.Equal(t, 3, noStock.Requested)
	assert.Equal(t, 2, noStock.Available)
	assert.Equal(t, 2, store.qty("p1"))
}

func TestPlaceOrderTotalOverMultipleItems(t *testing.T) {
	store := newFakeStore(
		Product{ID: "p1", Qty: 10, Price: 10},
		Product{ID: "p2", Qty: 10, Price: 25},
	)
	svc := &Service{Orders: store}

	placed, err := svc.PlaceOrder(context.Background(), "u1", []OrderItem{
		{ProductID: "p1", Qty: 2, Price: 10},
		{ProductID: "p2", Qty: 4, Price: 25},
	})
	require.NoError(t, err)
	assert.Equal(t, 2*10+4*25, placed.GrandTotal)
	assert.Equal(t, 8, store.qty("p1"))
	assert.Equal(t, 6, store.qty("p2"))
}

func TestPlaceOrderProductNotFound(t *testing.T) {
	store := newFakeStore(Product{ID: "p1", Qty: 5, Price: 10})
	svc := &Service{Orders: store}

	_, err := svc.PlaceOrder(context.Background(), "u1", []OrderItem{
		{ProductID: "p1", Qty: 1, Price: 10},
		{ProductID: "ghost", Qty: 1, Price: 10},
	})
	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.ProductID)

	// tidak ada order dan stok item pertama tidak berubah
	list, _ := store.ListByUser(context.Background(), "u1")
	assert.Empty(t, list)
	assert.Equal(t, 5, store.qty("p1"))
}

func TestPlaceOrderInsufficientStockRollsBackEarlierItems(t *testing.T) {
	store := newFakeStore(
		Product{ID: "p1", Qty: 5, Price: 10},
		Product{ID: "p2", Qty: 1, Price: 50},
	)
	svc := &Service{Orders: store}

	_, err := svc.PlaceOrder(context.Background(), "u1", []OrderItem{
		{ProductID: "p1", Qty: 2, Price: 10},
		{ProductID: "p2", Qty: 3, Price: 50},
	})
	var noStock *InsufficientStockError
	require.ErrorAs(t, err, &noStock)
	assert.Equal(t, "p2", noStock.ProductID)

	assert.Equal(t, 5, store.qty("p1"))
	assert.Equal(t, 1, store.qty("p2"))
	list, _ := store.ListByUser(context.Background(), "u1")
	assert.Empty(t, list)
}

func TestPlaceOrderRejectsNonPositiveQty(t *testing.T) {
	store := newFakeStore(Product{ID: "p1", Qty: 5, Price: 10})
	svc := &Service{Orders: store}

	_, err := svc.PlaceOrder(context.Background(), "u1", []OrderItem{{ProductID: "p1", Qty: 0, Price: 10}})
	var badQty *InvalidQtyError
	require.ErrorAs(t, err, &badQty)
	assert.Equal(t, 5, store.qty("p1"))
}

func TestPlaceOrderUnknownUserName(t *testing.T) {
	store := newFakeStore(Product{ID: "p1", Qty: 5, Price: 10})
	svc := &Service{Orders: store, Names: staticNames{}}

	placed, err := svc.PlaceOrder(context.Background(), "missing-user", []OrderItem{{ProductID: "p1", Qty: 1, Price: 10}})
	require.NoError(t, err)
	assert.Equal(t, UnknownUserName, placed.CreatedByName)
}

func TestPlaceOrderPublishesOrderCreated(t *testing.T) {
	store := newFakeStore(Product{ID: "p1", Qty: 5, Price: 10})
	pub := &capturePublisher{}
	svc := &Service{Orders: store, Events: pub, ServiceName: "order-api"}

	placed, err := svc.PlaceOrder(context.Background(), "u1", []OrderItem{{ProductID: "p1", Qty: 2, Price: 10}})
	require.NoError(t, err)
	require.Len(t, pub.messages, 1)

	var env Envelope
	require.NoError(t, json.Unmarshal(pub.messages[0], &env))
	assert.Equal(t, EventOrderCreated, env.EventType)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "order-api", env.Producer)
	assert.Equal(t, placed.ID, env.CorrelationID)

	payload, err := kafkax.UnwrapPayload[OrderCreatedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, payload.OrderID)
	assert.Equal(t, "u1", payload.UserID)
	assert.Equal(t, 20, payload.GrandTotal)
}

func TestPlaceOrderFailureDoesNotPublish(t *testing.T) {
	store := newFakeStore(Product{ID: "p1", Qty: 1, Price: 10})
	pub := &capturePublisher{}
	svc := &Service{Orders: store, Events: pub}

	_, err := svc.PlaceOrder(context.Background(), "u1", []OrderItem{{ProductID: "p1", Qty: 2, Price: 10}})
	require.Error(t, err)
	assert.Empty(t, pub.messages)
}

func TestListOrders(t *testing.T) {
	store := newFakeStore(Product{ID: "p1", Qty: 10, Price: 10})
	svc := &Service{Orders: store}

	_, err := svc.ListOrders(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	list, err := svc.ListOrders(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, list) // kosong, bukan error

	for i := 0; i < 3; i++ {
		_, err := svc.PlaceOrder(context.Background(), "u1", []OrderItem{{ProductID: "p1", Qty: 1, Price: 10}})
		require.NoError(t, err)
	}
	_, err = svc.PlaceOrder(context.Background(), "u2", []OrderItem{{ProductID: "p1", Qty: 1, Price: 10}})
	require.NoError(t, err)

	list, err = svc.ListOrders(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, o := range list {
		assert.Equal(t, "u1", o.CreatedBy)
		assert.Equal(t, 10, o.GrandTotal)
	}
}

// Dua request berebut unit terakhir: tepat satu sukses, stok akhir 0.
func TestPlaceOrderConcurrentLastUnit(t *testing.T) {
	store := newFakeStore(Product{ID: "p1", Qty: 1, Price: 10})
	svc := &Service{Orders: store}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(context.Background(), "u1", []OrderItem{{ProductID: "p1", Qty: 1, Price: 10}})
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		var noStock *InsufficientStockError
		switch {
		case err == nil:
			ok++
		case errors.As(err, &noStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0, store.qty("p1"))
}
