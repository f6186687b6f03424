package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/socialfi-labs/token-worker/internal/chain"
	"github.com/socialfi-labs/token-worker/internal/config"
	"github.com/socialfi-labs/token-worker/internal/signer"
	"github.com/socialfi-labs/token-worker/internal/status"
	"github.com/socialfi-labs/token-worker/internal/submit"
	"github.com/socialfi-labs/token-worker/internal/worker"
	"github.com/socialfi-labs/token-worker/shared/logger"
	"github.com/socialfi-labs/token-worker/shared/postgresql"
	"github.com/socialfi-labs/token-worker/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("network", cfg.Chain.Network),
	)

	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	appLogger.Info("Database connection established")

	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}

	appLogger.Info("RabbitMQ connection established")

	chainClient, err := chain.NewHTTPClient(&chain.Config{
		BaseURL:        cfg.Chain.AccessNodeURL,
		RequestTimeout: cfg.Chain.RequestTimeout,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize chain client: %w", err)
	}

	sgn, err := signer.New(&signer.Config{
		Address:       cfg.Signer.Address,
		KeyIndex:      cfg.Signer.KeyIndex,
		PrivateKeyHex: cfg.Signer.PrivateKey(),
	}, chainClient, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize signer: %w", err)
	}

	// Pre-flight key check: catches a mismatched credential before any job
	// is consumed.
	verifyCtx, verifyCancel := context.WithTimeout(context.Background(), 15*time.Second)
	err = sgn.VerifyKey(verifyCtx)
	verifyCancel()
	if err != nil {
		return fmt.Errorf("signer key verification failed: %w", err)
	}

	appLogger.Info("Signer key verified against chain state",
		slog.String("address", cfg.Signer.Address),
		slog.Uint64("key_index", uint64(cfg.Signer.KeyIndex)),
	)

	submitter := submit.New(&submit.Config{
		GasLimit:     cfg.Chain.GasLimit,
		PollInterval: cfg.Chain.SealPollInterval,
		SealTimeout:  cfg.Chain.SealTimeout,
	}, chainClient, sgn, appLogger.Logger)

	reporter := status.NewStore(dbClient.GetDB(), appLogger.Logger)
	router := worker.NewRouter(submitter, cfg.Chain.Network, appLogger.Logger)

	workerInstance := worker.NewWorker(&worker.Config{
		Logger:               appLogger.Logger,
		RabbitClient:         rabbitClient,
		Reporter:             reporter,
		Dispatcher:           router,
		Concurrency:          cfg.Worker.Concurrency,
		PrefetchCount:        cfg.RabbitMQ.Consumer.PrefetchCount,
		JobTimeout:           cfg.Worker.JobTimeout,
		QueueName:            cfg.RabbitMQ.Queue.Name,
		DeadLetterExchange:   cfg.RabbitMQ.DeadLetter.Exchange,
		DeadLetterRoutingKey: cfg.RabbitMQ.DeadLetter.RoutingKey,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		if err := workerInstance.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	appLogger.Info("Worker service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		appLogger.Error("Worker error",
			slog.Any("error", err),
		)
		return err
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		workerInstance.Stop()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Worker stopped gracefully")
	case <-shutdownCtx.Done():
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit")
	}

	if dbClient != nil {
		dbClient.Close()
	}
	if rabbitClient != nil {
		rabbitClient.Close()
	}

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		DeadLetterExchange: cfg.DeadLetter.Exchange,
		DeadLetterQueue:    cfg.DeadLetter.Queue,
		DeadLetterKey:      cfg.DeadLetter.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}, logger)
}
