package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mkurnia/pos-orders/internal/catalog"
	"github.com/mkurnia/pos-orders/internal/config"
	kafkax "github.com/mkurnia/pos-orders/internal/kafka"
	"github.com/mkurnia/pos-orders/internal/notify"
	"github.com/mkurnia/pos-orders/internal/orders"
	"github.com/mkurnia/pos-orders/internal/redisx"
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

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	group := getenv("NOTIFIER_GROUP", "pos-notifier")
	workers := atoiOr(os.Getenv("NOTIFIER_WORKERS"), 4)

	svc := &notify.Service{
		Cache:    rdb,
		Notifier: notify.LogNotifier{Log: log},
		Log:      log,
		Name:     group,
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, topic := range []string{orders.TopicOrderEvents, catalog.TopicItemEvents} {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers, log)
		g.Go(func() error {
			log.Info("consumer started", zap.String("topic", topic), zap.String("group", group))
			return cons.Start(ctx, svc.Handle)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("consumer exit", zap.Error(err))
	}
	log.Info("notifier stopped")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
