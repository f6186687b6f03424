package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/socialfi-labs/token-worker/internal/api/dto"
	"github.com/socialfi-labs/token-worker/internal/api/model"
	"github.com/socialfi-labs/token-worker/internal/api/storage"
	"github.com/socialfi-labs/token-worker/internal/job"
)

const defaultMaxRetries = 5

// CreateTransaction handles POST /api/v1/transactions.
// Records the job and publishes its queue message for the worker.
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	// The type set is closed; rejecting here keeps unknown types from ever
	// reaching the queue.
	if _, err := job.ParseType(req.Type); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	params := req.Params
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}

	now := time.Now().UTC()
	record := model.TransactionJob{
		JobID:       uuid.New().String(),
		JobType:     req.Type,
		UserAddress: sql.NullString{String: req.UserAddress, Valid: true},
		Params:      sql.NullString{String: string(params), Valid: true},
		Status:      "pending",
		MaxRetries:  maxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.storage.CreateJob(c.Request.Context(), &record); err != nil {
		h.logger.Error("Failed to create transaction job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create transaction job",
		})
		return
	}

	msg := job.Message{
		JobID:       record.JobID,
		Type:        req.Type,
		UserAddress: req.UserAddress,
		Params:      params,
		MessageID:   uuid.New().String(),
		MaxRetries:  maxRetries,
	}
	body, err := json.Marshal(&msg)
	if err != nil {
		h.logger.Error("Failed to encode queue message", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue transaction job",
		})
		return
	}

	if err := h.publisher.PublishWithRetry(c.Request.Context(), body, "application/json"); err != nil {
		h.logger.Error("Failed to publish queue message",
			slog.String("job_id", record.JobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue transaction job",
		})
		return
	}

	h.logger.Info("Transaction job enqueued",
		slog.String("job_id", record.JobID),
		slog.String("type", req.Type),
	)

	c.JSON(http.StatusAccepted, toDTO(&record))
}

// GetTransaction handles GET /api/v1/transactions/:job_id.
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	record, err := h.storage.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Transaction job not found",
			})
			return
		}
		h.logger.Error("Failed to get transaction job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get transaction job",
		})
		return
	}

	c.JSON(http.StatusOK, toDTO(record))
}

// ListTransactions handles GET /api/v1/transactions with filtering and
// keyset pagination.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var req dto.ListTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := storage.JobFilter{
		UserAddress: req.UserAddress,
		JobType:     req.Type,
		Status:      req.Status,
		PageSize:    req.PageSize,
		Cursor:      cursor,
	}

	jobs, err := h.storage.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list transaction jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list transaction jobs",
		})
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	items := make([]dto.TransactionDTO, len(jobs))
	for i := range jobs {
		items[i] = *toDTO(&jobs[i])
	}

	var nextCursor string
	if hasMore {
		last := jobs[len(jobs)-1]
		nextCursor, err = EncodeJobCursor(&storage.JobCursor{
			CreatedAt: last.CreatedAt,
			JobID:     last.JobID,
		})
		if err != nil {
			h.logger.Error("Failed to encode next cursor", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to encode next cursor",
			})
			return
		}
	}

	c.JSON(http.StatusOK, dto.ListTransactionsResponse{
		Transactions: items,
		NextCursor:   nextCursor,
	})
}

func toDTO(m *model.TransactionJob) *dto.TransactionDTO {
	d := &dto.TransactionDTO{
		JobID:     m.JobID,
		Type:      m.JobType,
		Status:    m.Status,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
		UpdatedAt: m.UpdatedAt.Format(time.RFC3339),
	}
	if m.UserAddress.Valid {
		d.UserAddress = m.UserAddress.String
	}
	if m.Params.Valid {
		d.Params = json.RawMessage(m.Params.String)
	}
	if m.TxID.Valid {
		d.TxID = m.TxID.String
	}
	if m.BlockHeight.Valid {
		d.BlockHeight = m.BlockHeight.Int64
	}
	if m.ErrorMessage.Valid {
		d.Error = m.ErrorMessage.String
	}
	if m.CompletedAt.Valid {
		d.CompletedAt = m.CompletedAt.Time.Format(time.RFC3339)
	}
	return d
}
