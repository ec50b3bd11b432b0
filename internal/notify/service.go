// Package notify consumes lifecycle events and hands them to a Notifier.
// Actual delivery (email, push) is a collaborator concern; the reference
// Notifier just writes structured log lines.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mkurnia/pos-orders/internal/catalog"
	kafkax "github.com/mkurnia/pos-orders/internal/kafka"
	"github.com/mkurnia/pos-orders/internal/orders"
	"github.com/mkurnia/pos-orders/internal/redisx"
)

// Cache is the slice of redis the service needs: event dedup and dropping
// cached order documents. *redisx.Client satisfies it.
type Cache interface {
	SetOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Drop(ctx context.Context, key string) error
}

type Notifier interface {
	OrderCompleted(ctx context.Context, p orders.OrderCompletedPayload)
	OrderExpired(ctx context.Context, p orders.OrderExpiredPayload)
	ItemExpiring(ctx context.Context, p catalog.ItemExpiringPayload)
}

// LogNotifier is the default sink when no delivery channel is configured.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) OrderCompleted(_ context.Context, p orders.OrderCompletedPayload) {
	n.Log.Info("order completed", zap.String("order_id", p.OrderID), zap.String("total", p.TotalCost))
}

func (n LogNotifier) OrderExpired(_ context.Context, p orders.OrderExpiredPayload) {
	n.Log.Info("order expired", zap.String("order_id", p.OrderID))
}

func (n LogNotifier) ItemExpiring(_ context.Context, p catalog.ItemExpiringPayload) {
	n.Log.Info("item expiring",
		zap.String("item_id", p.ItemID),
		zap.String("name", p.Name),
		zap.String("expiry_date", p.ExpiryDate),
		zap.Int("days_left", p.DaysLeft))
}

type Service struct {
	Cache    Cache
	Notifier Notifier
	Log      *zap.Logger
	Name     string // dedup namespace, usually the consumer group
}

// Handle is installed as the consumer handler for both event topics.
// Events are deduplicated by event id so a redelivered message does not
// notify twice.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env kafkax.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.Name, env.EventID)
	first, err := s.Cache.SetOnce(ctx, dkey, redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	switch env.EventType {
	case orders.EventOrderCompleted:
		p, err := kafkax.UnwrapPayload[orders.OrderCompletedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.Notifier.OrderCompleted(ctx, p)
	case orders.EventOrderExpired:
		p, err := kafkax.UnwrapPayload[orders.OrderExpiredPayload](env.Payload)
		if err != nil {
			return err
		}
		// The sweep runs in another process and cannot reach the API's
		// order cache, so the stale pending document is dropped here.
		if err := s.Cache.Drop(ctx, fmt.Sprintf(redisx.KeyOrderCache, p.OrderID)); err != nil {
			s.Log.Warn("drop order cache", zap.String("order_id", p.OrderID), zap.Error(err))
		}
		s.Notifier.OrderExpired(ctx, p)
	case catalog.EventItemExpiring:
		p, err := kafkax.UnwrapPayload[catalog.ItemExpiringPayload](env.Payload)
		if err != nil {
			return err
		}
		s.Notifier.ItemExpiring(ctx, p)
	default:
		// OrderCreated and anything newer than this build: ignore.
	}
	return nil
}
