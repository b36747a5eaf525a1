package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/accounthub/internal/auth"
	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/db"
	httpx "github.com/geocoder89/accounthub/internal/http"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/geocoder89/accounthub/internal/repo"
	"github.com/geocoder89/accounthub/internal/repo/memory"
	mongorepo "github.com/geocoder89/accounthub/internal/repo/mongo"
	pgrepo "github.com/geocoder89/accounthub/internal/repo/postgres"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()

	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	// tracing is opt-in via OTEL_EXPORTER_OTLP_ENDPOINT
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "accounthub", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	store, ping, closeStore, err := openStore(cfg)

	if err != nil {
		log.Error("store setup failed", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}

	defer closeStore()

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL())

	router := httpx.NewRouter(log, store, jwtManager, cfg, ping)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreBackend)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// openStore builds the configured user store plus its readiness probe and
// a close func for shutdown.
func openStore(cfg config.Config) (repo.UserStore, func() error, func(), error) {
	switch cfg.StoreBackend {
	case "mongo":
		ctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()

		client, users, err := db.NewMongo(ctx, cfg.MongoURL)

		if err != nil {
			return nil, nil, nil, err
		}

		ping := func() error {
			pctx, pcancel := config.WithTimeout(1 * time.Second)
			defer pcancel()

			return client.Ping(pctx, readpref.Primary())
		}

		closeStore := func() {
			cctx, ccancel := config.WithTimeout(3 * time.Second)
			defer ccancel()

			_ = client.Disconnect(cctx)
		}

		return mongorepo.NewUsersRepo(users), ping, closeStore, nil

	case "postgres":
		pool, err := db.NewPool(cfg.DBURL)

		if err != nil {
			return nil, nil, nil, err
		}

		ctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()

		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}

		ping := func() error {
			pctx, pcancel := config.WithTimeout(1 * time.Second)
			defer pcancel()

			return pool.Ping(pctx)
		}

		return pgrepo.NewUsersRepo(pool), ping, pool.Close, nil

	default: // memory, for local dev and tests
		return memory.NewUsersRepo(), nil, func() {}, nil
	}
}
