package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Status values a job can report. Every job reports processing right after
// dequeue and then exactly one terminal status.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Detail is the terminal payload: the sealed transaction for completed jobs,
// the classified error for failed ones. Empty for processing reports.
type Detail struct {
	TxID           string
	BlockHeight    uint64
	Error          string
	CompletionTime time.Time
}

// Reporter accepts (jobId, status, detail) reports. The core only requires
// that it not block indefinitely; persistence is the implementation's
// business.
type Reporter interface {
	Report(ctx context.Context, jobID string, st Status, detail *Detail) error
}

// Store reports job status to the transaction_jobs table. The producer
// inserts the row at enqueue time; the upsert keeps reporting working even
// for jobs enqueued outside the API.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Postgres-backed reporter.
func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// Report upserts the job's status row. Terminal statuses also record the
// detail payload and completion timestamp.
func (s *Store) Report(ctx context.Context, jobID string, st Status, detail *Detail) error {
	query := `
		INSERT INTO transaction_jobs (job_id, status, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (job_id) DO UPDATE
		SET status = EXCLUDED.status,
		    tx_id = $3,
		    block_height = $4,
		    error_message = $5,
		    completed_at = $6,
		    updated_at = NOW()
	`

	var (
		txID        *string
		blockHeight *int64
		errMsg      *string
		completedAt *time.Time
	)
	if detail != nil {
		if detail.TxID != "" {
			txID = &detail.TxID
		}
		if detail.BlockHeight > 0 {
			h := int64(detail.BlockHeight)
			blockHeight = &h
		}
		if detail.Error != "" {
			errMsg = &detail.Error
		}
		if !detail.CompletionTime.IsZero() {
			completedAt = &detail.CompletionTime
		}
	}

	if _, err := s.db.ExecContext(ctx, query, jobID, string(st), txID, blockHeight, errMsg, completedAt); err != nil {
		return fmt.Errorf("report job status: %w", err)
	}

	s.logger.Info("Job status reported",
		slog.String("job_id", jobID),
		slog.String("status", string(st)),
	)
	return nil
}
