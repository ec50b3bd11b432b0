package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mkurnia/pos-orders/internal/catalog"
	"github.com/mkurnia/pos-orders/internal/commission"
	"github.com/mkurnia/pos-orders/internal/config"
	"github.com/mkurnia/pos-orders/internal/httpx"
	kafkax "github.com/mkurnia/pos-orders/internal/kafka"
	"github.com/mkurnia/pos-orders/internal/orders"
	"github.com/mkurnia/pos-orders/internal/postgres"
	"github.com/mkurnia/pos-orders/internal/redisx"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderEvents, 1024, log)
	prod.Start(ctx)

	engine := orders.NewEngine(db, catalog.NewStore(), orders.NewStore(), users.NewStore(), prod, log, cfg.ServiceName)
	engine.OrderTTL = cfg.OrderTTL

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Engine: engine, Redis: rdb, Log: log}).Register(router)
	(&httpx.ItemsHandler{DB: db, Store: catalog.NewStore(), Log: log}).Register(router)
	(&httpx.CommissionHandler{Aggregator: commission.NewAggregator(db), Log: log}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	cancel()
	prod.WaitClosed()
}
