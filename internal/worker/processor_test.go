package worker

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialfi-labs/token-worker/internal/fault"
	"github.com/socialfi-labs/token-worker/internal/job"
	"github.com/socialfi-labs/token-worker/internal/retry"
	"github.com/socialfi-labs/token-worker/internal/status"
	"github.com/socialfi-labs/token-worker/shared/logger"
)

// report is one captured status report.
type report struct {
	jobID  string
	status status.Status
	detail *status.Detail
}

type fakeReporter struct {
	reports []report
}

func (f *fakeReporter) Report(ctx context.Context, jobID string, st status.Status, detail *status.Detail) error {
	f.reports = append(f.reports, report{jobID: jobID, status: st, detail: detail})
	return nil
}

// published is one captured queue publish.
type published struct {
	exchange   string
	routingKey string
	body       []byte
}

type fakePublisher struct {
	jobQueue   []published
	deadLetter []published
}

func (f *fakePublisher) PublishWithRetry(ctx context.Context, body []byte, contentType string) error {
	f.jobQueue = append(f.jobQueue, published{body: body})
	return nil
}

func (f *fakePublisher) PublishTo(ctx context.Context, exchange, routingKey string, body []byte, contentType string) error {
	f.deadLetter = append(f.deadLetter, published{exchange: exchange, routingKey: routingKey, body: body})
	return nil
}

type fakeDispatcher struct {
	result *Result
	calls  int
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, j *job.TransactionJob) *Result {
	f.calls++
	return f.result
}

func testWorker(dispatcher Dispatcher) (*Worker, *fakeReporter, *fakePublisher) {
	reporter := &fakeReporter{}
	publisher := &fakePublisher{}

	w := NewWorker(&Config{
		Logger:               logger.NewDefault().Logger,
		Reporter:             reporter,
		Dispatcher:           dispatcher,
		Concurrency:          1,
		JobTimeout:           time.Minute,
		QueueName:            "token.tx.jobs",
		DeadLetterExchange:   "token.tx.dlx",
		DeadLetterRoutingKey: "token.tx.dead",
	})
	w.publisher = publisher
	return w, reporter, publisher
}

func messageBody(t *testing.T, msg *job.Message) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func TestProcessDelivery_Success(t *testing.T) {
	dispatcher := &fakeDispatcher{result: &Result{TxID: "tx-ok", BlockHeight: 123}}
	w, reporter, publisher := testWorker(dispatcher)

	body := messageBody(t, &job.Message{
		JobID: "job-1", Type: "mint", MessageID: "msg-1", MaxRetries: 5,
	})

	err := w.processDelivery(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, 1, dispatcher.calls)

	// Exactly processing then completed, nothing else.
	require.Len(t, reporter.reports, 2)
	assert.Equal(t, status.StatusProcessing, reporter.reports[0].status)
	assert.Equal(t, "job-1", reporter.reports[0].jobID)

	assert.Equal(t, status.StatusCompleted, reporter.reports[1].status)
	require.NotNil(t, reporter.reports[1].detail)
	assert.Equal(t, "tx-ok", reporter.reports[1].detail.TxID)
	assert.Equal(t, uint64(123), reporter.reports[1].detail.BlockHeight)
	assert.False(t, reporter.reports[1].detail.CompletionTime.IsZero())

	assert.Empty(t, publisher.jobQueue)
	assert.Empty(t, publisher.deadLetter)
}

func TestProcessDelivery_MalformedBody(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	w, reporter, publisher := testWorker(dispatcher)

	err := w.processDelivery(context.Background(), []byte("{not json"))

	// Recorded, then re-raised: the failure is reported under a placeholder
	// id AND returned so the delivery layer applies its redelivery policy.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed message body")

	require.Len(t, reporter.reports, 1)
	assert.Equal(t, status.StatusFailed, reporter.reports[0].status)
	assert.True(t, strings.HasPrefix(reporter.reports[0].jobID, "unparsed-"))
	require.NotNil(t, reporter.reports[0].detail)
	assert.Contains(t, reporter.reports[0].detail.Error, "malformed message body")

	assert.Zero(t, dispatcher.calls)
	assert.Empty(t, publisher.jobQueue)
}

func TestProcessDelivery_ValidationFailureIsTerminal(t *testing.T) {
	dispatcher := &fakeDispatcher{
		result: &Result{Err: fault.Validation("mint job missing required field: amount")},
	}
	w, reporter, publisher := testWorker(dispatcher)

	body := messageBody(t, &job.Message{
		JobID: "job-2", Type: "mint", UserAddress: "0x1234567890abcdef",
		MessageID: "msg-2", MaxRetries: 5,
	})

	err := w.processDelivery(context.Background(), body)
	require.NoError(t, err, "terminal failures are fully handled")

	require.Len(t, reporter.reports, 2)
	assert.Equal(t, status.StatusProcessing, reporter.reports[0].status)
	assert.Equal(t, status.StatusFailed, reporter.reports[1].status)
	assert.Contains(t, reporter.reports[1].detail.Error, "missing required field")

	// Zero retries: nothing republished, one dead-letter record.
	assert.Empty(t, publisher.jobQueue)
	require.Len(t, publisher.deadLetter, 1)
	assert.Equal(t, "token.tx.dlx", publisher.deadLetter[0].exchange)
	assert.Equal(t, "token.tx.dead", publisher.deadLetter[0].routingKey)

	var dl retry.DeadLetter
	require.NoError(t, json.Unmarshal(publisher.deadLetter[0].body, &dl))
	assert.Equal(t, "job-2", dl.JobID)
	assert.Equal(t, "VALIDATION_ERROR", dl.Code)
	assert.False(t, dl.Retryable)
	assert.Equal(t, 0, dl.RetryCount)
}

func TestProcessDelivery_RetryableFailureReschedules(t *testing.T) {
	dispatcher := &fakeDispatcher{
		result: &Result{Err: fault.Network(nil, "access node request timed out")},
	}
	w, reporter, publisher := testWorker(dispatcher)

	body := messageBody(t, &job.Message{
		JobID: "job-3", Type: "transfer", MessageID: "msg-3",
		RetryCount: 1, MaxRetries: 5,
	})

	err := w.processDelivery(context.Background(), body)
	require.NoError(t, err)

	// Shutdown flushes the pending retry immediately instead of waiting out
	// the backoff delay.
	close(w.stopChan)
	w.retryWG.Wait()

	// Only the processing report: the terminal status belongs to a later
	// attempt.
	require.Len(t, reporter.reports, 1)
	assert.Equal(t, status.StatusProcessing, reporter.reports[0].status)

	require.Len(t, publisher.jobQueue, 1)
	var msg job.Message
	require.NoError(t, json.Unmarshal(publisher.jobQueue[0].body, &msg))
	assert.Equal(t, "job-3", msg.JobID)
	assert.Equal(t, 2, msg.RetryCount, "republished with incremented retry count")
	assert.Equal(t, 5, msg.MaxRetries)

	assert.Empty(t, publisher.deadLetter)
}

func TestProcessDelivery_RetryExhaustionDeadLetters(t *testing.T) {
	dispatcher := &fakeDispatcher{
		result: &Result{Err: fault.Network(nil, "access node request timed out")},
	}
	w, reporter, publisher := testWorker(dispatcher)

	// Network ceiling is 5; this delivery is already the fifth retry.
	body := messageBody(t, &job.Message{
		JobID: "job-4", Type: "transfer", MessageID: "msg-4",
		RetryCount: 5, MaxRetries: 5,
	})

	err := w.processDelivery(context.Background(), body)
	require.NoError(t, err)

	require.Len(t, reporter.reports, 2)
	assert.Equal(t, status.StatusProcessing, reporter.reports[0].status)
	assert.Equal(t, status.StatusFailed, reporter.reports[1].status)

	assert.Empty(t, publisher.jobQueue, "exhausted jobs are not rescheduled")
	require.Len(t, publisher.deadLetter, 1)

	var dl retry.DeadLetter
	require.NoError(t, json.Unmarshal(publisher.deadLetter[0].body, &dl))
	assert.Equal(t, "NETWORK_ERROR", dl.Code)
	assert.True(t, dl.Retryable)
	assert.Equal(t, 5, dl.RetryCount)
}

func TestProcessDelivery_JobCeilingTightensClassCeiling(t *testing.T) {
	dispatcher := &fakeDispatcher{
		result: &Result{Err: fault.Network(nil, "connection refused")},
	}
	w, _, publisher := testWorker(dispatcher)

	// The job caps retries at 2 even though network errors allow 5.
	body := messageBody(t, &job.Message{
		JobID: "job-5", Type: "burn", MessageID: "msg-5",
		RetryCount: 2, MaxRetries: 2,
	})

	err := w.processDelivery(context.Background(), body)
	require.NoError(t, err)

	assert.Empty(t, publisher.jobQueue)
	require.Len(t, publisher.deadLetter, 1)
}

func TestProcessDelivery_ChainRejectionNotRetried(t *testing.T) {
	dispatcher := &fakeDispatcher{
		result: &Result{Err: fault.ChainRejection("transaction tx-9 rejected: signing account lacks the required role: unauthorized")},
	}
	w, reporter, publisher := testWorker(dispatcher)

	body := messageBody(t, &job.Message{
		JobID: "job-6", Type: "mint", MessageID: "msg-6", MaxRetries: 5,
	})

	err := w.processDelivery(context.Background(), body)
	require.NoError(t, err)

	require.Len(t, reporter.reports, 2)
	assert.Equal(t, status.StatusFailed, reporter.reports[1].status)
	assert.Empty(t, publisher.jobQueue, "resubmitting a rejected transaction fails identically")
	assert.Len(t, publisher.deadLetter, 1)
}
