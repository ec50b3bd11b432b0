package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkurnia/pos-orders/internal/catalog"
	kafkax "github.com/mkurnia/pos-orders/internal/kafka"
	"github.com/mkurnia/pos-orders/internal/orders"
	"github.com/mkurnia/pos-orders/internal/redisx"
)

type fakeCache struct {
	keys    map[string]bool
	dropped []string
}

func (c *fakeCache) SetOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}

func (c *fakeCache) Drop(_ context.Context, key string) error {
	c.dropped = append(c.dropped, key)
	return nil
}

type recordingNotifier struct {
	completed []orders.OrderCompletedPayload
	expired   []orders.OrderExpiredPayload
	expiring  []catalog.ItemExpiringPayload
}

func (n *recordingNotifier) OrderCompleted(_ context.Context, p orders.OrderCompletedPayload) {
	n.completed = append(n.completed, p)
}

func (n *recordingNotifier) OrderExpired(_ context.Context, p orders.OrderExpiredPayload) {
	n.expired = append(n.expired, p)
}

func (n *recordingNotifier) ItemExpiring(_ context.Context, p catalog.ItemExpiringPayload) {
	n.expiring = append(n.expiring, p)
}

func newTestService() (*Service, *fakeCache, *recordingNotifier) {
	cache := &fakeCache{keys: make(map[string]bool)}
	rec := &recordingNotifier{}
	svc := &Service{Cache: cache, Notifier: rec, Log: zap.NewNop(), Name: "grp"}
	return svc, cache, rec
}

func message(t *testing.T, eventID, eventType string, payload any) kafkago.Message {
	t.Helper()
	env := kafkax.Envelope{
		EventID:      eventID,
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "test",
		Payload:      kafkax.MustMarshal(payload),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func TestHandle_OrderExpiredDropsCache(t *testing.T) {
	svc, cache, rec := newTestService()

	m := message(t, "evt-1", orders.EventOrderExpired, orders.OrderExpiredPayload{OrderID: "o-1"})
	require.NoError(t, svc.Handle(context.Background(), m))

	require.Len(t, rec.expired, 1)
	require.Equal(t, "o-1", rec.expired[0].OrderID)
	require.Equal(t, []string{fmt.Sprintf(redisx.KeyOrderCache, "o-1")}, cache.dropped)
}

func TestHandle_DuplicateDeliveryNotifiesOnce(t *testing.T) {
	svc, _, rec := newTestService()

	m := message(t, "evt-1", orders.EventOrderCompleted, orders.OrderCompletedPayload{OrderID: "o-1", TotalCost: "12.00"})
	require.NoError(t, svc.Handle(context.Background(), m))
	require.NoError(t, svc.Handle(context.Background(), m))

	require.Len(t, rec.completed, 1)
}

func TestHandle_ItemExpiring(t *testing.T) {
	svc, _, rec := newTestService()

	m := message(t, "evt-2", catalog.EventItemExpiring, catalog.ItemExpiringPayload{
		ItemID: "i-1", Name: "Milk", ExpiryDate: "2026-09-05", StockQty: 3, DaysLeft: 5,
	})
	require.NoError(t, svc.Handle(context.Background(), m))
	require.Len(t, rec.expiring, 1)
	require.Equal(t, "Milk", rec.expiring[0].Name)
}

func TestHandle_UnknownEventIgnored(t *testing.T) {
	svc, cache, rec := newTestService()

	m := message(t, "evt-3", orders.EventOrderCreated, orders.OrderCreatedPayload{OrderID: "o-9"})
	require.NoError(t, svc.Handle(context.Background(), m))

	require.Empty(t, rec.completed)
	require.Empty(t, rec.expired)
	require.Empty(t, rec.expiring)
	require.Empty(t, cache.dropped)
}
