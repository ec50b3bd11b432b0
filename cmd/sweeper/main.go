// The sweeper is the scheduler collaborator: it expires stale pending
// orders every hour and runs the daily item-expiry check, publishing
// events for the notifier.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mkurnia/pos-orders/internal/catalog"
	"github.com/mkurnia/pos-orders/internal/config"
	kafkax "github.com/mkurnia/pos-orders/internal/kafka"
	"github.com/mkurnia/pos-orders/internal/orders"
	"github.com/mkurnia/pos-orders/internal/postgres"
	"github.com/mkurnia/pos-orders/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	orderProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderEvents, 256, log)
	orderProd.Start(ctx)
	itemProd := kafkax.NewProducer(cfg.KafkaBrokers, catalog.TopicItemEvents, 256, log)
	itemProd.Start(ctx)

	engine := orders.NewEngine(db, catalog.NewStore(), orders.NewStore(), users.NewStore(), orderProd, log, cfg.ServiceName+"-sweeper")
	engine.OrderTTL = cfg.OrderTTL

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return every(ctx, cfg.SweepInterval, func(ctx context.Context) {
			n, err := engine.ExpireStale(ctx)
			if err != nil {
				log.Error("expiry sweep failed", zap.Error(err))
				return
			}
			log.Info("expiry sweep done", zap.Int("expired", n))
		})
	})

	g.Go(func() error {
		return every(ctx, 24*time.Hour, func(ctx context.Context) {
			checkExpiringItems(ctx, db, itemProd, cfg, log)
		})
	})

	log.Info("sweeper started",
		zap.Duration("sweep_interval", cfg.SweepInterval),
		zap.Duration("order_ttl", cfg.OrderTTL))

	_ = g.Wait()
	orderProd.Close()
	itemProd.Close()
	orderProd.WaitClosed()
	itemProd.WaitClosed()
	log.Info("sweeper stopped")
}

// every runs fn immediately and then on each tick until ctx is done.
func every(ctx context.Context, d time.Duration, fn func(context.Context)) error {
	fn(ctx)
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			fn(ctx)
		}
	}
}

func checkExpiringItems(ctx context.Context, db *postgres.DB, prod *kafkax.Producer, cfg config.Config, log *zap.Logger) {
	store := catalog.NewStore()
	for _, days := range []int{cfg.ExpiryWarnDays, 0} {
		items, err := store.FindExpiring(ctx, db, days)
		if err != nil {
			log.Error("expiring items check failed", zap.Int("days", days), zap.Error(err))
			continue
		}
		for _, it := range items {
			env := kafkax.Envelope{
				EventID:      uuid.NewString(),
				EventType:    catalog.EventItemExpiring,
				EventVersion: 1,
				OccurredAt:   time.Now().UTC(),
				Producer:     cfg.ServiceName + "-sweeper",
				Payload: kafkax.MustMarshal(catalog.ItemExpiringPayload{
					ItemID:     it.ID,
					Name:       it.Name,
					ExpiryDate: catalog.DateOnly(it.ExpiryDate),
					StockQty:   it.StockQty,
					DaysLeft:   days,
				}),
			}
			prod.Publish([]byte(it.ID), kafkax.MustMarshal(env),
				kafkago.Header{Key: "x-event-type", Value: []byte(catalog.EventItemExpiring)},
				kafkago.Header{Key: "x-event-version", Value: []byte("1")},
			)
		}
		if len(items) > 0 {
			log.Info("expiring items reported", zap.Int("days", days), zap.Int("count", len(items)))
		}
	}
}
