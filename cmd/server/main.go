package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"retail-insights/internal/api"
	"retail-insights/internal/assistant"
	"retail-insights/internal/config"
	internaldb "retail-insights/internal/db"
	"retail-insights/internal/db/repository"
	"retail-insights/internal/domain"
	"retail-insights/internal/middleware"
	"retail-insights/internal/oracle"
	"retail-insights/internal/store"
)

func main() {
	ctx := context.Background()

	// Load .env file (if present)
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	// Analytical store (in-memory DuckDB)
	analytics, err := store.Open("", logger)
	if err != nil {
		log.Fatalf("open analytical store: %v", err)
	}
	defer analytics.Close()

	// SQLite metastore: single-connection write pool, 4-connection read pool.
	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, 4)
	if err != nil {
		log.Fatalf("open metastore: %v", err)
	}
	defer writeDB.Close()
	defer readDB.Close()

	if err := internaldb.RunMigrations(writeDB); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	sessionRepo := repository.NewSessionRepo(writeDB)
	historyRepo := repository.NewHistoryRepo(writeDB)
	queryLogRepo := repository.NewQueryLogRepo(writeDB)

	// Optional dataset auto-load at startup.
	if cfg.DatasetPath != "" {
		if _, err := analytics.LoadCSV(ctx, cfg.DatasetPath, cfg.DatasetTable); err != nil {
			log.Fatalf("load dataset %s: %v", cfg.DatasetPath, err)
		}
		session := &domain.Session{DatasetPath: cfg.DatasetPath, DatasetTable: cfg.DatasetTable}
		if err := sessionRepo.Create(ctx, session); err != nil {
			log.Fatalf("create startup session: %v", err)
		}
		logger.Info("startup session created", "session_id", session.ID)
	}

	// Oracle is optional; without it the API degrades to 503 on ask/summary.
	var completer oracle.Completer
	if cfg.Oracle.Enabled() {
		client, err := oracle.NewOpenAIClient(ctx, oracle.OpenAIConfig{
			APIKey:      cfg.Oracle.APIKey,
			BaseURL:     cfg.Oracle.BaseURL,
			Model:       cfg.Oracle.Model,
			Temperature: float32(cfg.Oracle.Temperature),
			Timeout:     cfg.Oracle.Timeout,
		})
		if err != nil {
			log.Fatalf("create oracle client: %v", err)
		}
		completer = client
	}

	prompts, err := assistant.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		log.Fatalf("load prompts: %v", err)
	}

	asst := assistant.NewService(analytics, completer, prompts, historyRepo, queryLogRepo, logger, assistant.Options{
		MaxRows:           cfg.MaxRows,
		PlannerMaxTokens:  cfg.PlannerMaxTokens,
		NarratorMaxTokens: cfg.NarratorMaxTokens,
	})

	handler := api.NewHandler(analytics, asst, sessionRepo, historyRepo, queryLogRepo, logger, cfg.DatasetTable)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))
	r.Mount("/", handler.Routes())

	logger.Info("HTTP API listening", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
