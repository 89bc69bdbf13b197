// Command server runs the document indexing API: it owns process wiring
// (config, logging, tracing), opens the database and update-file store,
// recovers interrupted tasks into the scheduler, and serves the HTTP API
// until signalled to stop.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-index-backend/docs" // swagger spec, served when enabled
	"github.com/tbourn/go-index-backend/internal/blobstore"
	"github.com/tbourn/go-index-backend/internal/config"
	"github.com/tbourn/go-index-backend/internal/events"
	httpapi "github.com/tbourn/go-index-backend/internal/http"
	"github.com/tbourn/go-index-backend/internal/maintenance"
	"github.com/tbourn/go-index-backend/internal/observability"
	"github.com/tbourn/go-index-backend/internal/repo"
	"github.com/tbourn/go-index-backend/internal/scheduler"
	"github.com/tbourn/go-index-backend/internal/search"
	"github.com/tbourn/go-index-backend/internal/services"
	"github.com/tbourn/go-index-backend/internal/sysutil"
)

// @title           Go Index Backend API
// @version         1.0
// @description     Document indexing service: indexes, asynchronous tasks, document storage and ranked search.
// @BasePath        /api/v1
func main() {
	// Env files are a local development convenience; absence is fine.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), "dev")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing first so the startup path is already observable.
	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema failed")
	}

	store, err := blobstore.New(cfg.StoreDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.StoreDir).Msg("open update store failed")
	}

	// Rebuild the in-memory search registry from persisted documents.
	reg := search.NewRegistry()
	docs, err := services.LoadSearchRegistry(ctx, db, reg)
	if err != nil {
		log.Fatal().Err(err).Msg("load search registry failed")
	}
	log.Info().Int64("documents", docs).Msg("search registry loaded")

	// Optional task lifecycle events over NATS.
	var pub *events.Publisher
	schedOpts := scheduler.Options{
		Workers:   cfg.Scheduler.Workers,
		QueueSize: cfg.Scheduler.QueueSize,
	}
	if cfg.Events.Enabled {
		pub, err = events.NewPublisher(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.Events.NATSURL).Msg("connect event publisher failed")
		}
		schedOpts.Notifier = pub
	}

	exec := &services.TaskExecutor{DB: db, Store: store, Search: reg}
	queue := scheduler.New(db, exec, store, schedOpts)

	// Tasks interrupted by the previous shutdown re-enter the queue before
	// the API starts accepting new ones.
	recovered, err := queue.Recover(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("task recovery failed")
	}
	if recovered > 0 {
		log.Info().Int("tasks", recovered).Msg("recovered interrupted tasks")
	}
	queue.Start()

	sweeper, err := maintenance.NewSweeper(db, store, maintenance.Options{
		TaskRetention: cfg.Maintenance.TaskRetention,
		SweepInterval: cfg.Maintenance.SweepInterval,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("maintenance setup failed")
	}
	sweeper.Start()

	r := gin.New()
	httpapi.RegisterRoutes(r, db, store, reg, queue, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}

	// Stop accepting requests, then drain the task queue so running tasks
	// finish and enqueued ones are left recoverable.
	shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
		_ = srv.Close()
	}
	if err := queue.Stop(shCtx); err != nil {
		log.Error().Err(err).Msg("scheduler drain failed")
	}
	if err := sweeper.Stop(); err != nil {
		log.Error().Err(err).Msg("maintenance stop failed")
	}
	if pub != nil {
		pub.Close()
	}
	if err := otelShutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("server stopped")
}
