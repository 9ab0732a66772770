// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"combatrix/internal/members"
	"combatrix/internal/platform/config"
	"combatrix/internal/platform/logger"
	"combatrix/internal/platform/tracing"
	"combatrix/internal/reporting"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	ctx := context.Background()

	shutdown, err := tracing.Init(ctx, cfg.OTLPEndpoint, "combatrix-server")
	if err != nil {
		lg.Fatal("failed to init tracing", "error", err)
	}
	defer shutdown(ctx)

	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		lg.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := members.Migrate(ctx, db); err != nil {
		lg.Fatal("failed to migrate schema", "error", err)
	}

	store := members.NewPostgresStore(db)
	memberService := members.NewService(store, time.Now, lg)
	reportService := reporting.NewService(store, time.Now, lg)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Route("/api", func(r chi.Router) {
		members.NewHandler(memberService).Routes(r)
		reporting.NewHandler(reportService).Routes(r)
	})

	lg.Info("starting server", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		lg.Fatal("server stopped", "error", err)
	}
}
