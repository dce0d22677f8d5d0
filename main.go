package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Tejas-dj/OneStopMed-v1/auth"
	"github.com/Tejas-dj/OneStopMed-v1/config"
	"github.com/Tejas-dj/OneStopMed-v1/data"
	"github.com/Tejas-dj/OneStopMed-v1/drugparser"
	"github.com/Tejas-dj/OneStopMed-v1/handlers"
	"github.com/Tejas-dj/OneStopMed-v1/health"
	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
	"github.com/Tejas-dj/OneStopMed-v1/prescription/pdf"
	"github.com/Tejas-dj/OneStopMed-v1/records"
	"github.com/Tejas-dj/OneStopMed-v1/scheduler"
	"github.com/Tejas-dj/OneStopMed-v1/search"
	"github.com/Tejas-dj/OneStopMed-v1/server"
	"github.com/Tejas-dj/OneStopMed-v1/store/sqlite"
	"github.com/Tejas-dj/OneStopMed-v1/validation"
)

func init() {
	// Get the working directory and read the env variables
	if err := godotenv.Load(); err != nil {
		// If failed, try loading from executable directory
		ex, err := os.Executable()
		if err != nil {
			logging.Error("Failed to get executable path", "error", err)
			os.Exit(1)
		}

		if err := os.Chdir(filepath.Dir(ex)); err != nil {
			logging.Error("Failed to change directory", "error", err)
			os.Exit(1)
		}
		_ = godotenv.Load()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLoggerWithOptions(logging.Options{
		Dir:            "logs",
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
		Level:          logging.ParseLevel(cfg.LogLevel),
	})
	defer logging.Close()

	logging.Info("Starting OneStopMed API",
		"env", cfg.Env.String(),
		"search_strategy", cfg.SearchStrategy,
		"catalog", cfg.CatalogPath)

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	validator := validation.NewDataValidator()
	parser := drugparser.NewCatalogParser(cfg.CatalogPath, cfg.CatalogURL, cfg.CatalogEncoding)

	var index interfaces.SearchIndex
	if cfg.SearchStrategy == search.StrategyFullText {
		store, err := sqlite.Open(context.Background(), cfg.SearchDBPath)
		if err != nil {
			logging.Error("Failed to open search index", "path", cfg.SearchDBPath, "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logging.Warn("Failed to close search index", "error", err)
			}
		}()
		index = store
	}

	searcher, err := search.New(cfg.SearchStrategy, dataContainer, index, validator)
	if err != nil {
		logging.Error("Failed to create searcher", "error", err)
		os.Exit(1)
	}

	recordStore := openRecordStore(cfg)
	defer recordStore.Close()

	healthChecker := health.NewHealthChecker(dataContainer, index, cfg.ReloadTimes())

	sched := scheduler.NewScheduler(dataContainer, parser, validator, index, cfg.ReloadTimes())
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	authMiddleware, err := newAuthMiddleware(cfg)
	if err != nil {
		logging.Error("Failed to configure authentication", "error", err)
		os.Exit(1)
	}

	httpHandler := handlers.NewHTTPHandler(
		dataContainer,
		searcher,
		validator,
		healthChecker,
		recordStore,
		pdf.NewRenderer(cfg.ClinicName),
		cfg.PersistTimeout,
	)

	srv := server.NewServer(cfg, httpHandler, authMiddleware)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logging.Info("Received signal", "signal", sig.String())
	case err := <-serverErr:
		logging.Error("Server failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
	}
}

// openRecordStore connects to DATABASE_URL, or persists nothing when it is unset
// or unreachable. Prescriptions are served either way.
func openRecordStore(cfg *config.Config) interfaces.RecordStore {
	if cfg.DatabaseURL == "" {
		logging.Info("DATABASE_URL not set, visit summaries will not be persisted")
		return records.NoopStore{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := records.NewPool(ctx, cfg.DatabaseURL, 5, 1)
	if err != nil {
		logging.Error("Record store unavailable, visit summaries will not be persisted", "error", err)
		return records.NoopStore{}
	}

	store := records.NewPGStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logging.Error("Failed to prepare record store schema", "error", err)
		store.Close()
		return records.NoopStore{}
	}

	logging.Info("Record store connected")
	return store
}

// newAuthMiddleware verifies bearer tokens when a secret is configured.
// Configuration only allows a missing secret in development.
func newAuthMiddleware(cfg *config.Config) (func(http.Handler) http.Handler, error) {
	if cfg.JWTSecret == "" {
		logging.Warn("JWT_SECRET not set, prescription endpoint is unauthenticated", "env", cfg.Env.String())
		return auth.DevAuthMiddleware(), nil
	}

	verifier, err := auth.NewVerifier(auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Leeway:   30 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return auth.Middleware(verifier), nil
}
