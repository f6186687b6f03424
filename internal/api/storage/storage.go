package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/socialfi-labs/token-worker/internal/api/model"
	"github.com/socialfi-labs/token-worker/shared/postgresql"
)

// ErrJobNotFound is returned when a transaction job does not exist.
var ErrJobNotFound = errors.New("transaction job not found")

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// CreateJob inserts the enqueue record for a new transaction job.
func (s *Storage) CreateJob(ctx context.Context, job *model.TransactionJob) error {
	query := `
		INSERT INTO transaction_jobs (
			job_id, job_type, user_address, params,
			status, max_retries, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.JobType,
		job.UserAddress,
		job.Params,
		job.Status,
		job.MaxRetries,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create transaction job: %w", err)
	}

	return nil
}

// GetJobByID fetches one transaction job with its reported status detail.
func (s *Storage) GetJobByID(ctx context.Context, jobID string) (*model.TransactionJob, error) {
	var job model.TransactionJob
	query := `
		SELECT
			job_id, job_type, user_address, params,
			status, max_retries, tx_id, block_height,
			error_message, completed_at, created_at, updated_at
		FROM transaction_jobs
		WHERE job_id = $1
	`

	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get transaction job: %w", err)
	}

	return &job, nil
}

// JobCursor is the keyset pagination cursor.
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

// JobFilter narrows and paginates ListJobs.
type JobFilter struct {
	UserAddress string
	JobType     string
	Status      string
	PageSize    int
	Cursor      *JobCursor
}

// ListJobs returns up to PageSize+1 jobs so the handler can detect whether a
// next page exists.
func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]model.TransactionJob, error) {
	query := `
		SELECT
			job_id, job_type, user_address, params,
			status, max_retries, tx_id, block_height,
			error_message, completed_at, created_at, updated_at
		FROM transaction_jobs
		WHERE 1=1
	`

	args := []interface{}{}
	argNum := 1

	if filter.UserAddress != "" {
		query += fmt.Sprintf(" AND user_address = $%d", argNum)
		args = append(args, filter.UserAddress)
		argNum++
	}

	if filter.JobType != "" {
		query += fmt.Sprintf(" AND job_type = $%d", argNum)
		args = append(args, filter.JobType)
		argNum++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filter.Status)
		argNum++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argNum, argNum+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argNum += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, job_id DESC LIMIT $%d", argNum)
	args = append(args, filter.PageSize+1)

	var jobs []model.TransactionJob
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list transaction jobs: %w", err)
	}

	return jobs, nil
}
