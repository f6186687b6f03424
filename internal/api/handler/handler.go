package handler

import (
	"log/slog"

	"github.com/socialfi-labs/token-worker/internal/api/storage"
	"github.com/socialfi-labs/token-worker/shared/postgresql"
	"github.com/socialfi-labs/token-worker/shared/rabbitmq"
)

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Logger       *slog.Logger
	DBClient     *postgresql.Client
	RabbitClient *rabbitmq.Client
}

// TransactionHandler serves the transaction-job endpoints.
type TransactionHandler struct {
	logger    *slog.Logger
	storage   *storage.Storage
	publisher *rabbitmq.Client
}

// NewTransactionHandler creates the handler with its storage layer.
func NewTransactionHandler(deps *Dependencies) *TransactionHandler {
	return &TransactionHandler{
		logger:    deps.Logger,
		storage:   storage.NewStorage(deps.DBClient),
		publisher: deps.RabbitClient,
	}
}
