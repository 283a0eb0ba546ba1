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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"basegraph.app/standup/common/id"
	"basegraph.app/standup/common/logger"
	"basegraph.app/standup/common/otel"
	"basegraph.app/standup/core/config"
	"basegraph.app/standup/core/db"
	"basegraph.app/standup/internal/activity"
	"basegraph.app/standup/internal/command"
	"basegraph.app/standup/internal/http/handler"
	"basegraph.app/standup/internal/http/middleware"
	httprouter "basegraph.app/standup/internal/http/router"
	"basegraph.app/standup/internal/metrics"
	"basegraph.app/standup/internal/pipeline"
	"basegraph.app/standup/internal/queue"
	"basegraph.app/standup/internal/service"
	"basegraph.app/standup/internal/slack"
	"basegraph.app/standup/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "standup server starting",
		"env", cfg.Env,
		"service", cfg.OTel.ServiceName,
		"command", cfg.Slack.Command,
		"activity_sink", cfg.Activity.Sink)

	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
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

	sink, closeSink, err := setupActivitySink(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up activity sink", "error", err)
		os.Exit(1)
	}
	defer closeSink()

	stores := store.NewStores(database.Querier())
	services := service.NewServices(stores)

	commands := command.NewRouter(cfg.Slack.Command)
	slackHandler := handler.NewSlackHandler(
		pipeline.Default(sink, services.Auth()),
		commands.Handle,
		command.Acknowledge,
		slack.NewResponseClient(nil),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, slackHandler)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
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

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// setupActivitySink returns the sink the log stage records to. In stream
// mode entries also go to Redis for the worker to persist.
func setupActivitySink(ctx context.Context, cfg config.Config) (activity.Sink, func(), error) {
	logSink := activity.NewLogSink(slog.Default())
	if !cfg.Activity.StreamEnabled() {
		return logSink, func() {}, nil
	}

	redisOpts, err := redis.ParseURL(cfg.Activity.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis url: %w", err)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Activity.Stream)

	producer := queue.NewRedisProducer(redisClient, cfg.Activity.Stream, slog.Default())
	closeFn := func() { _ = producer.Close() }
	return activity.Fanout(logSink, activity.NewStreamSink(producer)), closeFn, nil
}

func setupRouter(cfg config.Config, slackHandler *handler.SlackHandler) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, slackHandler, httprouter.RouterConfig{
		SigningSecret: cfg.Slack.SigningSecret,
	})

	return router
}

const banner = `
 ____  _                  _
/ ___|| |_ __ _ _ __   __| |_   _ _ __
\___ \| __/ _' | '_ \ / _' | | | | '_ \
 ___) | || (_| | | | | (_| | |_| | |_) |
|____/ \__\__,_|_| |_|\__,_|\__,_| .__/
                                 |_|
`
