package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/aqi-predictor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/aqi-predictor/internal/adapter/kafka"
	"github.com/couchcryptid/aqi-predictor/internal/adapter/waqi"
	"github.com/couchcryptid/aqi-predictor/internal/config"
	"github.com/couchcryptid/aqi-predictor/internal/domain"
	"github.com/couchcryptid/aqi-predictor/internal/model"
	"github.com/couchcryptid/aqi-predictor/internal/observability"
	"github.com/couchcryptid/aqi-predictor/internal/service"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Artifacts are optional at startup; /predict_aqi reports them missing.
	var scaler domain.Scaler
	if s, err := model.LoadScaler(cfg.ScalerPath); err != nil {
		logger.Warn("scaler not loaded", "path", cfg.ScalerPath, "error", err)
	} else {
		scaler = s
		logger.Info("scaler loaded", "path", cfg.ScalerPath)
	}
	var regressor domain.Regressor
	if e, err := model.LoadEnsemble(cfg.ModelPath); err != nil {
		logger.Warn("model not loaded", "path", cfg.ModelPath, "error", err)
	} else {
		regressor = e
		logger.Info("model loaded", "path", cfg.ModelPath, "trees", len(e.Trees))
	}

	if !cfg.APIConfigured() {
		logger.Warn("WAQI_TOKEN not set; air quality lookups will be rejected by the provider")
	}

	var fetcher domain.Fetcher = waqi.NewClient(cfg.WAQIBaseURL, cfg.WAQIToken, cfg.WAQITimeout, metrics, logger)
	if cfg.CacheEnabled() {
		fetcher = waqi.NewCachedFetcher(fetcher, cfg.WAQICacheSize, cfg.WAQICacheTTL, clockwork.NewRealClock(), metrics)
		logger.Info("waqi cache enabled", "size", cfg.WAQICacheSize, "ttl", cfg.WAQICacheTTL)
	}

	// Event publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher service.EventPublisher = service.NopPublisher{}
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, metrics, logger)
		publisher = kafkaPublisher
		logger.Info("kafka event publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka event publishing disabled")
	}

	predictor := service.NewPredictor(scaler, regressor, publisher, metrics, logger)
	airQuality := service.NewAirQuality(fetcher, publisher, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, airQuality, predictor, cfg.APIConfigured(), metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
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
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
