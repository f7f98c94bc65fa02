// Command server runs the lost and found matching API.
//
// @title        Lost & Found Matching API
// @version      1.0
// @description  Reports lost and found items, matches them with a language model and notifies both owners.
// @BasePath     /api/v1
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/config"
	"github.com/tbourn/go-lostfound-backend/internal/extraction"
	httpapi "github.com/tbourn/go-lostfound-backend/internal/http"
	"github.com/tbourn/go-lostfound-backend/internal/llm"
	"github.com/tbourn/go-lostfound-backend/internal/matching"
	"github.com/tbourn/go-lostfound-backend/internal/observability"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
	"github.com/tbourn/go-lostfound-backend/internal/services"
	"github.com/tbourn/go-lostfound-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := bootLogger(os.Stderr)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := sysutil.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, sysutil.FirstNonEmpty(version, "dev"), log)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database setup failed")
	}

	deps, sweeps, err := wire(cfg, db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("service wiring failed")
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	if cfg.Match.SweepInterval > 0 {
		go sweeps.Every(ctx, cfg.Match.SweepInterval)
		log.Info().Dur("interval", cfg.Match.SweepInterval).Msg("periodic matching sweep enabled")
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server forced to shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	dsn := cfg.DBDSN
	if cfg.DBDriver == "" || cfg.DBDriver == "sqlite" {
		dsn = cfg.DBPath
	}
	db, err := repo.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, err
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			return nil, err
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// wire builds the matching engine and the services on top of db.
// bootLogger is used before the configured logger exists.
func bootLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("phase", "boot").Logger()
}

func wire(cfg config.Config, db *gorm.DB, log zerolog.Logger) (httpapi.Deps, *services.SweepService, error) {
	client, err := llm.New(cfg.LLM, log)
	if err != nil {
		return httpapi.Deps{}, nil, err
	}
	rubric, err := matching.LookupRubric(cfg.Match.RubricVersion)
	if err != nil {
		return httpapi.Deps{}, nil, err
	}
	policy := matching.Policy{High: cfg.Match.HighThreshold, Possible: cfg.Match.PossibleThreshold}
	if err := policy.Validate(); err != nil {
		return httpapi.Deps{}, nil, err
	}

	orch := matching.NewOrchestrator(
		matching.DBPool{DB: db},
		matching.NewLedger(db, cfg.Match.WriteRetries, log),
		matching.NewRubricScorer(client, rubric, log),
		matching.NewNotifier(db, cfg.Match.WriteRetries, log),
		matching.Options{
			Workers:  cfg.Match.Workers,
			TopN:     cfg.Match.TopN,
			Selector: matching.Selector{WindowDays: cfg.Match.WindowDays},
			Policy:   policy,
		},
		log,
	)

	items := services.NewItemService(db,
		extraction.NewExtractor(client, log),
		extraction.NewCategorizer(client, extraction.DefaultTaxonomy(), cfg.LLM.CacheTTL, log),
		orch, log)
	items.TopN = cfg.Match.TopN
	items.IdempotencyTTL = cfg.IdempotencyTTL

	sweeps := services.NewSweepService(db, orch, cfg.Match.SweepLeaseTTL, cfg.Match.SweepBatchSize, log)
	sweeps.TopN = cfg.Match.TopN

	return httpapi.Deps{
		DB:            db,
		Items:         items,
		Notifications: services.NewNotificationService(db),
		Matches:       services.NewMatchService(db),
		Sweeps:        sweeps,
	}, sweeps, nil
}
