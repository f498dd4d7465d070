package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/covid-data-etl/internal/adapter/csvparse"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/feed"
	httpadapter "github.com/couchcryptid/covid-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/covid-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg)
	metrics := observability.NewMetrics()

	fetcher := feed.NewClient(cfg.FetchTimeout, logger)
	collector := pipeline.NewCollector(fetcher, csvparse.New(), cfg.Feeds, logger, metrics)

	// Publishing is feature-flagged via KAFKA_BROKERS.
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	runner := pipeline.NewRunner(collector, publisher, logger, metrics, cfg.Schedule, cfg.CollectOnStart)

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, runner, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start collection schedule.
	go func() {
		if err := runner.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
