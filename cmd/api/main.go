package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	httpapi "github.com/wms-platform/fulfillment-service/internal/api/http"
	"github.com/wms-platform/fulfillment-service/internal/application"
	mongoRepo "github.com/wms-platform/fulfillment-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/fulfillment-service/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-service/pkg/idempotency"
	"github.com/wms-platform/fulfillment-service/pkg/kafka"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
	"github.com/wms-platform/fulfillment-service/pkg/middleware"
	"github.com/wms-platform/fulfillment-service/pkg/mongodb"
	"github.com/wms-platform/fulfillment-service/pkg/outbox"
	"github.com/wms-platform/fulfillment-service/pkg/resilience"
	"github.com/wms-platform/fulfillment-service/pkg/tracing"
)

const serviceName = "fulfillment-service"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting fulfillment-service API")

	config := loadConfig(logger)
	ctx := context.Background()

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = config.OTLPEndpoint
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.ServiceVersion = getEnv("VERSION", tracingConfig.ServiceVersion)
	tracingConfig.Enabled = config.TracingEnabled

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		// Tracing is optional; keep serving without it.
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(context.Background())
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	store := mongoRepo.NewStore(mongoClient.Database(), mongodb.NewInstrumentation(m, logger), config.SnapshotRetention)
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Error("Failed to create indexes")
		os.Exit(1)
	}

	if err := idempotency.InitializeIndexes(ctx, mongoClient.Database()); err != nil {
		logger.WithError(err).Warn("Failed to initialize idempotency indexes")
	} else {
		logger.Info("Idempotency indexes initialized")
	}

	repos := store.Repositories()
	repos.MasterData = mongoRepo.NewGuardedMasterData(store.MasterData, masterDataBreaker(logger, m))

	services := application.NewServices(
		mongoClient,
		repos,
		cloudevents.NewEventFactory(cloudevents.SourceFulfillment),
		logger,
		m,
	)

	producer := kafka.NewProducer(config.Kafka, logger, m)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	outboxPublisher := outbox.NewPublisher(store.Outbox, producer, logger, m, outbox.DefaultPublisherConfig())
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()

	router := gin.New()
	middlewareConfig := middleware.DefaultConfig(serviceName, logger, m)
	middlewareConfig.EnableTracing = config.TracingEnabled
	idempotencyConfig := idempotency.DefaultConfig(serviceName, idempotency.NewMongoKeyRepository(mongoClient.Database()))
	idempotencyConfig.Logger = logger
	idempotencyConfig.Metrics = m
	middlewareConfig.IdempotencyConfig = idempotencyConfig
	middleware.Setup(router, middlewareConfig)

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, mongoClient.HealthCheck))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	httpapi.SetupRoutes(router, httpapi.NewHandlers(services, logger))

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

func masterDataBreaker(logger *logging.Logger, m *metrics.Metrics) *resilience.CircuitBreaker {
	cfg := resilience.DefaultCircuitBreakerConfig("master-data")
	cfg.OnStateChange = m.SetCircuitBreakerState
	return resilience.NewCircuitBreaker(cfg, logger.Logger)
}

// Config holds application configuration
type Config struct {
	ServerAddr        string
	OTLPEndpoint      string
	TracingEnabled    bool
	SnapshotRetention time.Duration
	MongoDB           *mongodb.Config
	Kafka             *kafka.Config
}

func loadConfig(logger *logging.Logger) *Config {
	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", mongoConfig.Database)

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "localhost:9092"))

	return &Config{
		ServerAddr:        getEnv("SERVER_ADDR", ":8080"),
		OTLPEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled:    getEnv("TRACING_ENABLED", "true") == "true",
		SnapshotRetention: durationEnv(logger, "SNAPSHOT_RETENTION", defaultSnapshotRetention),
		MongoDB:           mongoConfig,
		Kafka:             kafkaConfig,
	}
}

const defaultSnapshotRetention = 720 * time.Hour

// durationEnv parses key as a non-negative duration, falling back to
// defaultValue when it is unset or malformed. "0" is kept: it disables expiry.
func durationEnv(logger *logging.Logger, key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		logger.Warn("Invalid duration, using default", "key", key, "value", raw, "default", defaultValue.String())
		return defaultValue
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
