package model

import (
	"database/sql"
	"time"
)

// TransactionJob is one row of the transaction_jobs table: the enqueue
// record plus whatever status detail the worker has reported so far.
type TransactionJob struct {
	JobID        string         `db:"job_id"`
	JobType      string         `db:"job_type"`
	UserAddress  sql.NullString `db:"user_address"`
	Params       sql.NullString `db:"params"`
	Status       string         `db:"status"`
	MaxRetries   int            `db:"max_retries"`
	TxID         sql.NullString `db:"tx_id"`
	BlockHeight  sql.NullInt64  `db:"block_height"`
	ErrorMessage sql.NullString `db:"error_message"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}
