package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wms-platform/fulfillment-service/internal/application"
	mongoRepo "github.com/wms-platform/fulfillment-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/fulfillment-service/internal/workflows"
	"github.com/wms-platform/fulfillment-service/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
	"github.com/wms-platform/fulfillment-service/pkg/mongodb"
	"github.com/wms-platform/fulfillment-service/pkg/temporal"
)

const (
	serviceName        = "fulfillment-worker"
	snapshotWorkflowID = "fulfillment-location-snapshot"
)

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting fulfillment worker")

	config := loadConfig(logger)
	ctx := context.Background()

	m := metrics.New(metrics.DefaultConfig(serviceName))

	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(context.Background())

	store := mongoRepo.NewStore(mongoClient.Database(), mongodb.NewInstrumentation(m, logger), config.SnapshotRetention)
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Error("Failed to create indexes")
		os.Exit(1)
	}
	services := application.NewServices(
		mongoClient,
		store.Repositories(),
		cloudevents.NewEventFactory(cloudevents.SourceSnapshot),
		logger,
		m,
	)

	temporalClient, err := temporal.NewClient(ctx, config.Temporal)
	if err != nil {
		logger.WithError(err).Error("Failed to create Temporal client")
		os.Exit(1)
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", "hostPort", config.Temporal.HostPort, "namespace", config.Temporal.Namespace)

	w := temporalClient.NewWorker(temporal.DefaultWorkerOptions(temporal.TaskQueues.Snapshot))
	w.RegisterWorkflow(workflows.LocationSnapshotWorkflow)
	w.RegisterActivity(workflows.NewSnapshotActivities(services.Snapshots, logger, m))

	go func() {
		if err := w.Run(nil); err != nil {
			logger.Error("Worker failed", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("Worker started", "taskQueue", temporal.TaskQueues.Snapshot)

	if _, err := temporalClient.StartCronWorkflow(ctx,
		snapshotWorkflowID,
		temporal.TaskQueues.Snapshot,
		config.SnapshotCron,
		temporal.WorkflowNames.LocationSnapshot,
	); err != nil {
		logger.WithError(err).Warn("Failed to schedule location snapshot workflow")
	} else {
		logger.Info("Location snapshot scheduled", "cron", config.SnapshotCron)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down worker...")

	w.Stop()
	logger.Info("Worker stopped")
}

// Config holds worker configuration
type Config struct {
	Temporal          *temporal.Config
	MongoDB           *mongodb.Config
	SnapshotCron      string
	SnapshotRetention time.Duration
}

func loadConfig(logger *logging.Logger) *Config {
	temporalConfig := temporal.DefaultConfig()
	temporalConfig.HostPort = getEnv("TEMPORAL_HOST", temporalConfig.HostPort)
	temporalConfig.Namespace = getEnv("TEMPORAL_NAMESPACE", temporalConfig.Namespace)

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", mongoConfig.Database)

	return &Config{
		Temporal:          temporalConfig,
		MongoDB:           mongoConfig,
		SnapshotCron:      getEnv("SNAPSHOT_CRON", "0 0 * * *"),
		SnapshotRetention: durationEnv(logger, "SNAPSHOT_RETENTION", defaultSnapshotRetention),
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
