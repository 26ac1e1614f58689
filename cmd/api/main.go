package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/sander-0/sanberbe59-sander/internal/auth"
	"github.com/sander-0/sanberbe59-sander/internal/config"
	"github.com/sander-0/sanberbe59-sander/internal/httpx"
	kafkax "github.com/sander-0/sanberbe59-sander/internal/kafka"
	"github.com/sander-0/sanberbe59-sander/internal/logging"
	"github.com/sander-0/sanberbe59-sander/internal/orders"
	"github.com/sander-0/sanberbe59-sander/internal/postgres"
	"github.com/sander-0/sanberbe59-sander/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.ServiceName)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer (lifecycle via Close/WaitClosed, bukan ctx)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, log)
	prod.Start(context.Background())

	// Repos & service
	repo := &orders.Repo{DB: db}
	users := &orders.UserRepo{DB: db}
	names := &orders.NameCache{Users: users, Redis: rdb}
	svc := &orders.Service{
		Orders:      repo,
		Names:       names,
		Events:      prod,
		Log:         log,
		ServiceName: cfg.ServiceName,
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	// Router & handlers
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{Service: svc, Log: log}
	ph := &httpx.ProductsHandler{Repo: repo, Log: log}
	ah := &httpx.AuthHandler{Users: users, Tokens: tokens, Log: log}
	router.Route("/api", func(r chi.Router) {
		ah.Register(r)
		ph.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(httpx.RequireAuth(tokens))
			oh.Register(r)
		})
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // tutup inbox -> flush & close writer
	prod.WaitClosed()
}
