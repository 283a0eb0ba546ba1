package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/standup/common/id"
	"basegraph.app/standup/common/logger"
	"basegraph.app/standup/common/otel"
	"basegraph.app/standup/core/config"
	"basegraph.app/standup/core/db"
	"basegraph.app/standup/internal/activity"
	"basegraph.app/standup/internal/metrics"
	"basegraph.app/standup/internal/queue"
	"basegraph.app/standup/internal/store"
	"basegraph.app/standup/internal/worker"
)

const maxAttempts = 5

func main() {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "standup worker starting",
		"env", cfg.Env,
		"stream", cfg.Activity.Stream,
		"consumer_group", cfg.Activity.ConsumerGroup,
		"consumer_name", cfg.Activity.ConsumerName)

	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to apply schema", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Activity.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Activity.Stream)

	consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
		Stream:       cfg.Activity.Stream,
		Group:        cfg.Activity.ConsumerGroup,
		Consumer:     cfg.Activity.ConsumerName,
		DLQStream:    cfg.Activity.DLQStream,
		BatchSize:    50,
		Block:        5 * time.Second,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	stores := store.NewStores(database.Querier())

	w := worker.New(consumer, activity.NewStoreSink(stores.ActivityLogs()), worker.Config{
		MaxAttempts: maxAttempts,
	})

	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.Activity.Stream,
		Group:     cfg.Activity.ConsumerGroup,
		Consumer:  cfg.Activity.ConsumerName + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  time.Minute,
		BatchSize: 10,
	}, consumer, w)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled() {
		metricsServer = metrics.NewServer(cfg.Metrics.Port)
		go func() {
			slog.InfoContext(ctx, "metrics server starting", "port", cfg.Metrics.Port)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.ErrorContext(ctx, "metrics server error", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go reclaimer.Run(ctx)

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Cancelling unblocks a pending XREADGROUP; Stop then waits for the loops.
	stop()
	reclaimer.Stop()
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(shutdownCtx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.ErrorContext(shutdownCtx, "worker error during shutdown", "error", err)
		}
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "metrics server shutdown error", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "worker shutdown complete")
}

const banner = `
 ____  _                  _                                 _
/ ___|| |_ __ _ _ __   __| |_   _ _ __   __      _____  _ __| | _____ _ __
\___ \| __/ _' | '_ \ / _' | | | | '_ \  \ \ /\ / / _ \| '__| |/ / _ \ '__|
 ___) | || (_| | | | | (_| | |_| | |_) |  \ V  V / (_) | |  |   <  __/ |
|____/ \__\__,_|_| |_|\__,_|\__,_| .__/    \_/\_/ \___/|_|  |_|\_\___|_|
                                 |_|
`
