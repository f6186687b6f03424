package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/socialfi-labs/token-worker/internal/api/handler"
	"github.com/socialfi-labs/token-worker/internal/api/router"
	"github.com/socialfi-labs/token-worker/internal/config"
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

	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := logger.New(&logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cfg.Logging.Output,
		EnableSource: cfg.Logging.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	dbClient, err := postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	appLogger.Info("Database connection established")

	rabbitClient, err := rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.RabbitMQ.Host,
		Port:               cfg.RabbitMQ.Port,
		User:               cfg.RabbitMQ.User,
		Password:           cfg.RabbitMQ.Password,
		VHost:              cfg.RabbitMQ.VHost,
		ExchangeName:       cfg.RabbitMQ.Exchange.Name,
		ExchangeType:       cfg.RabbitMQ.Exchange.Type,
		ExchangeDurable:    cfg.RabbitMQ.Exchange.Durable,
		ExchangeAutoDelete: cfg.RabbitMQ.Exchange.AutoDelete,
		QueueName:          cfg.RabbitMQ.Queue.Name,
		QueueDurable:       cfg.RabbitMQ.Queue.Durable,
		QueueAutoDelete:    cfg.RabbitMQ.Queue.AutoDelete,
		QueueExclusive:     cfg.RabbitMQ.Queue.Exclusive,
		RoutingKey:         cfg.RabbitMQ.RoutingKey,
		DeadLetterExchange: cfg.RabbitMQ.DeadLetter.Exchange,
		DeadLetterQueue:    cfg.RabbitMQ.DeadLetter.Queue,
		DeadLetterKey:      cfg.RabbitMQ.DeadLetter.RoutingKey,
		RetryAttempts:      cfg.RabbitMQ.Connection.RetryAttempts,
		RetryInterval:      cfg.RabbitMQ.Connection.RetryInterval,
		Heartbeat:          cfg.RabbitMQ.Connection.Heartbeat,
		ConnectionTimeout:  cfg.RabbitMQ.Connection.ConnectionTimeout,
		PublishRetries:     cfg.RabbitMQ.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.RabbitMQ.Publish.RetryInterval,
		PublishBackoffMult: cfg.RabbitMQ.Publish.BackoffMultiplier,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}

	appLogger.Info("RabbitMQ connection established")

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.SetupRouter(&handler.Dependencies{
		Logger:       appLogger.Logger,
		DBClient:     dbClient,
		RabbitClient: rabbitClient,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		appLogger.Info("HTTP server listening",
			slog.Int("port", cfg.Server.Port),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		appLogger.Error("HTTP server error",
			slog.Any("error", err),
		)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
	}

	if dbClient != nil {
		dbClient.Close()
	}
	if rabbitClient != nil {
		rabbitClient.Close()
	}

	appLogger.Info("API service shutdown complete")
	return nil
}
