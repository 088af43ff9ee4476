package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/auth"
	"github.com/ariefcatur/go-storefront.git/internal/blob"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/checkout"
	"github.com/ariefcatur/go-storefront.git/internal/config"
	"github.com/ariefcatur/go-storefront.git/internal/events"
	"github.com/ariefcatur/go-storefront.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-storefront.git/internal/ledger"
	"github.com/ariefcatur/go-storefront.git/internal/metrics"
	"github.com/ariefcatur/go-storefront.git/internal/postgres"
	"github.com/ariefcatur/go-storefront.git/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer for placed-order events
	prod := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicOrderPlaced, 1024)
	prod.Start(ctx)

	// Image storage under the served asset dir
	images, err := blob.NewStore(filepath.Join(cfg.AssetDir, "uploads"))
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	m := metrics.NewServerMetrics("api")
	sessions := &auth.Sessions{Redis: rdb}

	router := httpx.NewRouter(m)
	router.Handle("/metrics", metrics.Handler())
	httpx.StaticFiles(router, "/static", cfg.AssetDir)

	(&httpx.AuthHandler{
		Auth: &auth.Service{Users: &auth.Users{DB: db}, Sessions: sessions},
	}).Register(router)

	(&httpx.ProductsHandler{
		Catalog:  &catalog.Store{DB: db},
		Images:   images,
		Redis:    rdb,
		Sessions: sessions,
	}).Register(router)

	(&httpx.OrdersHandler{
		Engine:   &checkout.Engine{Store: &postgres.CheckoutStore{DB: db}},
		Ledger:   &ledger.Store{DB: db},
		Producer: prod,
		Metrics:  m,
		Service:  cfg.ServiceName,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // stop accepting, flush buffered events
	prod.WaitClosed()
}
