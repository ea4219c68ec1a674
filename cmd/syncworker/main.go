package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"roster/internal/config"
	"roster/internal/logger"
	"roster/internal/persist"
	"roster/internal/queue"
	"roster/internal/roster"
	"roster/internal/sheets"
)

// The worker consumes sync jobs from the Redis queue and pushes snapshots to
// the remote sheet, so rosterd replicas can run with QUEUE_BACKEND=redis and
// never touch the remote themselves. It reads state from the shared storage
// backend; the file backend is not shareable across processes and is
// rejected here.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, "syncworker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	if cfg.SheetsEndpoint == "" {
		log.Fatal().Msg("SHEETS_ENDPOINT not set, nothing to do")
	}

	var persister roster.Persister
	switch cfg.StorageBackend {
	case "redis":
		persister = persist.NewRedis(cfg.RedisAddr)
	case "postgres":
		pg, err := persist.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("db connect failed")
		}
		defer pg.Close()
		persister = pg
	default:
		log.Fatal().Str("backend", cfg.StorageBackend).Msg("worker requires a shared storage backend (redis or postgres)")
	}

	store := roster.NewStore(persister)
	if err := store.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("load snapshot failed")
	}

	q := queue.NewRedisQueue(persist.NewRedis(cfg.RedisAddr).Client, cfg.QueueKey)
	jobs, err := q.Consume(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("queue consume init failed")
	}

	client := sheets.NewClient(cfg.SheetsEndpoint, cfg.SyncTimeout, log)
	adapter := sheets.NewAdapter(client, store, log)
	adapter.OnBeforePush(store.Load)

	log.Info().Str("queue", cfg.QueueKey).Msg("worker started, waiting for jobs")
	adapter.Run(ctx, jobs, cfg.PushDebounce)
	log.Info().Msg("worker stopped")
}
