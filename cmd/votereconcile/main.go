package main

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/pollstr/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/pollstr/internal/config"
	"github.com/vncsmyrnk/pollstr/internal/core/services"
	"github.com/vncsmyrnk/pollstr/internal/logging"
)

// votereconcile recomputes every poll option's vote count from the vote rows.
// The insert trigger keeps them in step; this is the repair job for when they
// drift.
func main() {
	cfg, err := config.Load("votereconcile", os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if err := logging.Configure(cfg.LogLevel); err != nil {
		log.WithError(err).Warn("Unknown log level, keeping default")
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	limit := cfg.ReconcileConcurrency
	if limit < 1 {
		limit = services.DefaultReconcileConcurrency
	}
	db.SetMaxOpenConns(limit)
	db.SetMaxIdleConns(limit)

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	// Initialize Repositories
	pollRepo := postgres.NewPollRepository(db)
	tallyRepo := postgres.NewTallyRepository(db)

	// Initialize Service
	tallyService := services.NewTallyService(pollRepo, tallyRepo, limit)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ReconcileTimeout)
	defer cancel()

	log.Info("Starting vote reconcile job...")

	if err := tallyService.ReconcileAll(ctx); err != nil {
		log.Fatalf("Error reconciling votes: %v", err)
	}

	log.Info("Vote reconcile completed successfully.")
}
