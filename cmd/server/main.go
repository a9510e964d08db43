package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	relay "github.com/vncsmyrnk/pollstr/internal/adapters/pubsub/redis"
	"github.com/vncsmyrnk/pollstr/internal/app"
	"github.com/vncsmyrnk/pollstr/internal/config"
	"github.com/vncsmyrnk/pollstr/internal/logging"
)

func main() {
	cfg, err := config.Load("server", os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if err := logging.Configure(cfg.LogLevel); err != nil {
		log.WithError(err).Warn("Unknown log level, keeping default")
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal(err)
	}

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = relay.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal(err)
		}
		defer redisClient.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "pollstr"),
	)

	a := app.New(app.Options{
		Config:   cfg,
		DB:       db,
		Redis:    redisClient,
		Registry: registry,
		Logger:   log.StandardLogger(),
	})
	a.Start(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler:           otelhttp.NewHandler(a.Handler, "pollstr"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("Listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Info("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
