package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"

	"docflow-backend/internal/bootstrap"
	"docflow-backend/internal/queue"
	"docflow-backend/internal/ratelimit"
	"docflow-backend/internal/shared/config"
	"docflow-backend/internal/shared/storage/db"
	"docflow-backend/internal/shared/telemetry"
	"docflow-backend/internal/workerproc"
)

const (
	defaultWorkerConcurrency = 4
	purgeSpec                = "@every 1h"
)

// scheduleRegistrar is the subset of *asynq.Scheduler used to install periodic jobs.
type scheduleRegistrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

func main() {
	cfg := config.Load()
	if err := telemetry.Init(cfg.LogLevel); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer telemetry.Sync()

	if strings.TrimSpace(cfg.RedisAddr) == "" {
		log.Fatal("REDIS_ADDR is required")
	}

	app, err := bootstrap.Build(cfg, bootstrap.WithDBOptions(db.DefaultWorkerOptions()))
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	proc := &workerproc.Processor{Docs: app.DocumentsService}
	if p, ok := app.Counter.(ratelimit.Purger); ok {
		proc.Purger = p
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	concurrency := envInt("DOCFLOW_WORKER_CONCURRENCY", defaultWorkerConcurrency)

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if proc.Purger != nil {
		if err := registerSchedules(scheduler); err != nil {
			log.Fatalf("register schedules: %v", err)
		}
		if err := scheduler.Start(); err != nil {
			log.Fatalf("start scheduler: %v", err)
		}
		defer scheduler.Shutdown()
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{Concurrency: concurrency})
	telemetry.Info("worker.started", map[string]any{"redis": cfg.RedisAddr, "concurrency": concurrency, "purge": proc.Purger != nil})

	// Run blocks until SIGTERM or SIGINT, then drains in-flight tasks.
	if err := srv.Run(proc.Handler()); err != nil {
		log.Fatalf("worker error: %v", err)
	}
}

func registerSchedules(s scheduleRegistrar) error {
	_, err := s.Register(purgeSpec, queue.NewPurgeTask())
	return err
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
