package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/socialfi-labs/token-worker/internal/job"
	"github.com/socialfi-labs/token-worker/internal/retry"
	"github.com/socialfi-labs/token-worker/internal/status"
)

// Result is the terminal outcome of dispatching one job. Err nil means the
// transaction sealed successfully.
type Result struct {
	TxID        string
	BlockHeight uint64
	Err         error
}

// processDelivery runs one queue message through the pipeline: parse, report
// processing, dispatch, then report the terminal outcome. A returned error
// means the failure was recorded but must be re-raised to the delivery
// infrastructure; nil means the delivery is fully handled.
func (w *Worker) processDelivery(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	var msg job.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		// No job id could be extracted; record the failure under a
		// placeholder so it is visible, then re-raise for redelivery policy.
		placeholder := "unparsed-" + uuid.New().String()
		w.logger.Error("Failed to parse message body",
			slog.String("placeholder_job_id", placeholder),
			slog.String("error", err.Error()),
		)
		w.report(ctx, placeholder, status.StatusFailed, &status.Detail{
			Error:          fmt.Sprintf("malformed message body: %s", err.Error()),
			CompletionTime: time.Now().UTC(),
		})
		return fmt.Errorf("malformed message body: %w", err)
	}

	j := job.FromMessage(&msg)
	w.logger.Info("Processing job",
		slog.String("job_id", j.JobID),
		slog.String("job_type", string(j.Type)),
		slog.Int("retry_count", j.RetryCount),
	)

	w.report(ctx, j.JobID, status.StatusProcessing, nil)

	result := w.dispatcher.Dispatch(ctx, j)
	if result.Err == nil {
		w.report(ctx, j.JobID, status.StatusCompleted, &status.Detail{
			TxID:           result.TxID,
			BlockHeight:    result.BlockHeight,
			CompletionTime: time.Now().UTC(),
		})
		w.logger.Info("Job completed",
			slog.String("job_id", j.JobID),
			slog.String("tx_id", result.TxID),
		)
		return nil
	}

	cls := retry.Classify(result.Err)
	ceiling := cls.MaxRetries
	if j.MaxRetries > 0 && j.MaxRetries < ceiling {
		ceiling = j.MaxRetries
	}

	if cls.Retryable && j.RetryCount < ceiling {
		w.scheduleRetry(j, cls)
		return nil
	}

	w.report(ctx, j.JobID, status.StatusFailed, &status.Detail{
		Error:          result.Err.Error(),
		CompletionTime: time.Now().UTC(),
	})
	w.publishDeadLetter(ctx, j, cls, result.Err)

	w.logger.Error("Job failed terminally",
		slog.String("job_id", j.JobID),
		slog.String("category", string(cls.Category)),
		slog.String("code", cls.Code),
		slog.Bool("retryable", cls.Retryable),
		slog.Int("retry_count", j.RetryCount),
		slog.String("error", result.Err.Error()),
	)
	return nil
}

// scheduleRetry republishes the job with an incremented retry count after
// the backoff delay. The original delivery is ACKed by the caller; the
// rescheduled message is a fresh delivery.
func (w *Worker) scheduleRetry(j *job.TransactionJob, cls retry.Classification) {
	delay := retry.DelayWithJitter(j.RetryCount)

	w.logger.Info("Scheduling retry",
		slog.String("job_id", j.JobID),
		slog.String("category", string(cls.Category)),
		slog.Int("retry_count", j.RetryCount),
		slog.Int("max_retries", cls.MaxRetries),
		slog.Duration("delay", delay),
	)

	msg := j.ToMessage()
	msg.RetryCount = j.RetryCount + 1

	w.retryWG.Add(1)
	go func() {
		defer w.retryWG.Done()

		select {
		case <-time.After(delay):
		case <-w.stopChan:
			// Shutting down: republish immediately so the retry is not lost.
		}

		body, err := json.Marshal(msg)
		if err != nil {
			w.logger.Error("Failed to encode retry message",
				slog.String("job_id", msg.JobID),
				slog.String("error", err.Error()),
			)
			return
		}

		pubCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := w.publisher.PublishWithRetry(pubCtx, body, "application/json"); err != nil {
			w.logger.Error("Failed to republish retry",
				slog.String("job_id", msg.JobID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// publishDeadLetter emits the classification record for manual review.
func (w *Worker) publishDeadLetter(ctx context.Context, j *job.TransactionJob, cls retry.Classification, cause error) {
	record := retry.NewDeadLetter(j, cls, cause)
	body, err := json.Marshal(record)
	if err != nil {
		w.logger.Error("Failed to encode dead-letter record",
			slog.String("job_id", j.JobID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := w.publisher.PublishTo(ctx, w.dlxExchange, w.dlxRoutingKey, body, "application/json"); err != nil {
		w.logger.Error("Failed to publish dead-letter record",
			slog.String("job_id", j.JobID),
			slog.String("error", err.Error()),
		)
		return
	}

	w.logger.Info("Dead-letter record published",
		slog.String("job_id", j.JobID),
		slog.String("code", cls.Code),
	)
}

// report sends a status update. Reporting failures are logged, never fatal:
// the job outcome is already decided.
func (w *Worker) report(ctx context.Context, jobID string, st status.Status, detail *status.Detail) {
	if err := w.reporter.Report(ctx, jobID, st, detail); err != nil {
		w.logger.Error("Failed to report job status",
			slog.String("job_id", jobID),
			slog.String("status", string(st)),
			slog.String("error", err.Error()),
		)
	}
}
