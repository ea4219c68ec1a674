package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"roster/internal/config"
	"roster/internal/httpapi"
	"roster/internal/httpmiddleware"
	"roster/internal/logger"
	"roster/internal/persist"
	"roster/internal/queue"
	"roster/internal/roster"
	"roster/internal/sheets"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, "rosterd")

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg config.App, log zerolog.Logger) error {
	ctx := context.Background()

	persister, healthy, closer, err := buildPersister(cfg)
	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}
	if closer != nil {
		defer closer()
	}

	store := roster.NewStore(persister)
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	stats := roster.NewAggregator(store)

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		q = queue.NewRedisQueue(persist.NewRedis(cfg.RedisAddr).Client, cfg.QueueKey)
	} else {
		q = queue.NewInMemory(64)
	}

	var adapter *sheets.Adapter
	if cfg.SheetsEndpoint != "" {
		client := sheets.NewClient(cfg.SheetsEndpoint, cfg.SyncTimeout, log)
		adapter = sheets.NewAdapter(client, store, log)
	} else {
		log.Info().Msg("SHEETS_ENDPOINT not set, remote sync disabled")
	}

	if adapter != nil && cfg.AutoPush {
		store.OnMutate(func() {
			job := queue.Job{Op: queue.OpPush, RequestedAt: time.Now().UTC()}
			if err := q.Publish(context.Background(), job); err != nil {
				log.Warn().Err(err).Msg("enqueue push failed")
			}
		})
	}

	// With the in-memory queue there is no separate worker process, so the
	// push loop runs inside this one.
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if adapter != nil && cfg.QueueBackend != "redis" {
		jobs, err := q.Consume(workerCtx)
		if err != nil {
			return fmt.Errorf("queue consume init: %w", err)
		}
		go adapter.Run(workerCtx, jobs, cfg.PushDebounce)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		storageOK := healthy(c.Request.Context())
		if !storageOK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":  "ok",
			"storage": storageOK,
			"backend": cfg.StorageBackend,
			"sync":    adapter != nil,
		})
	})

	api := httpapi.New(store, stats, adapter, q, log)
	api.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("backend", cfg.StorageBackend).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
	return nil
}

// buildPersister selects the snapshot backend and returns it together with a
// health probe and an optional closer.
func buildPersister(cfg config.App) (roster.Persister, func(context.Context) bool, func(), error) {
	switch cfg.StorageBackend {
	case "redis":
		rs := persist.NewRedis(cfg.RedisAddr)
		return rs, rs.Healthy, nil, nil
	case "postgres":
		pg, err := persist.NewDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return pg, func(context.Context) bool { return true }, func() { _ = pg.Close() }, nil
	default:
		fs := persist.NewFileStore(cfg.DataFile)
		return fs, func(context.Context) bool { return true }, nil, nil
	}
}
