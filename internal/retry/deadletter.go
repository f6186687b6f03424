package retry

import (
	"time"

	"github.com/socialfi-labs/token-worker/internal/job"
)

// DeadLetter is the record emitted for manual review when a job is terminal:
// either non-retryable, or retryable with its ceiling exhausted. It carries
// the full classification and non-secret job context only; private keys and
// stack traces never appear here.
type DeadLetter struct {
	JobID       string    `json:"job_id"`
	JobType     string    `json:"job_type"`
	UserAddress string    `json:"user_address"`
	MessageID   string    `json:"message_id"`
	Code        string    `json:"code"`
	Category    string    `json:"category"`
	Retryable   bool      `json:"retryable"`
	RetryCount  int       `json:"retry_count"`
	MaxRetries  int       `json:"max_retries"`
	Error       string    `json:"error"`
	FailedAt    time.Time `json:"failed_at"`
}

// NewDeadLetter builds the record for a terminally failed job.
func NewDeadLetter(j *job.TransactionJob, cls Classification, err error) *DeadLetter {
	return &DeadLetter{
		JobID:       j.JobID,
		JobType:     string(j.Type),
		UserAddress: j.UserAddress,
		MessageID:   j.MessageID,
		Code:        cls.Code,
		Category:    string(cls.Category),
		Retryable:   cls.Retryable,
		RetryCount:  j.RetryCount,
		MaxRetries:  cls.MaxRetries,
		Error:       err.Error(),
		FailedAt:    time.Now().UTC(),
	}
}
