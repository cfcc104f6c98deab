package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/civic-report-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/civic-report-service/internal/adapter/kafka"
	"github.com/couchcryptid/civic-report-service/internal/adapter/mapview"
	"github.com/couchcryptid/civic-report-service/internal/adapter/viacep"
	"github.com/couchcryptid/civic-report-service/internal/config"
	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/couchcryptid/civic-report-service/internal/media"
	"github.com/couchcryptid/civic-report-service/internal/observability"
	"github.com/couchcryptid/civic-report-service/internal/sink"
	"github.com/couchcryptid/civic-report-service/internal/store"
	"github.com/couchcryptid/civic-report-service/internal/wizard"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Event publication is feature-flagged via KAFKA_ENABLED.
	var publisher sink.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaReportsTopic, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportsTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	var resolver domain.AddressResolver = viacep.NewClient(cfg.ViaCEPBaseURL, cfg.ViaCEPTimeout, cfg.ViaCEPRateLimit, metrics, logger)
	if cfg.ViaCEPCacheSize > 0 {
		resolver = viacep.NewCachedResolver(resolver, cfg.ViaCEPCacheSize, metrics)
	}
	logger.Info("viacep lookups configured", "base_url", cfg.ViaCEPBaseURL, "cache_size", cfg.ViaCEPCacheSize, "rate_limit", cfg.ViaCEPRateLimit)

	registry := wizard.NewRegistry(wizard.Deps{
		Resolver:   resolver,
		Sink:       sink.New(db, publisher, logger, metrics),
		Uploader:   media.NewDiskUploader(cfg.MediaDir, logger),
		NewSurface: func() wizard.MapSurface { return mapview.NewSurface() },
	}, cfg.DraftTTL, nil, logger, metrics)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:           cfg.HTTPAddr,
		JWTSecret:      []byte(cfg.AuthJWTSecret),
		AdminRole:      cfg.AuthAdminRole,
		MaxUploadBytes: cfg.MediaMaxUploadBytes,
	}, registry, db, db, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return registry.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}

	registry.Close()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
