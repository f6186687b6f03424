package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/socialfi-labs/token-worker/internal/cadence"
	"github.com/socialfi-labs/token-worker/internal/fault"
	"github.com/socialfi-labs/token-worker/internal/job"
	"github.com/socialfi-labs/token-worker/internal/submit"
)

// ChainSubmitter is the submission surface the router drives.
// *submit.Submitter implements it; tests substitute fakes.
type ChainSubmitter interface {
	SubmitAndWait(ctx context.Context, script string, args []json.RawMessage) (*submit.Receipt, error)
}

// Router maps a job's type to exactly one handler. The type set is closed:
// adding an operation means adding a constant in internal/job and a case in
// Dispatch, which the compiler then checks.
type Router struct {
	submitter ChainSubmitter
	network   string
	logger    *slog.Logger
}

// NewRouter creates the job router.
func NewRouter(submitter ChainSubmitter, network string, logger *slog.Logger) *Router {
	return &Router{
		submitter: submitter,
		network:   network,
		logger:    logger,
	}
}

// Dispatch validates the job type against the closed set and invokes its
// handler. An unrecognized type is a structured, terminal, non-retryable
// failure, not an exception path.
func (r *Router) Dispatch(ctx context.Context, j *job.TransactionJob) *Result {
	t, err := job.ParseType(string(j.Type))
	if err != nil {
		r.logger.Warn("Unknown job type",
			slog.String("job_id", j.JobID),
			slog.String("job_type", string(j.Type)),
		)
		return &Result{Err: fault.Validation("Unknown job type: %s", j.Type)}
	}

	switch t {
	case job.TypeSetup:
		return r.handleSetup(ctx, j)
	case job.TypeMint:
		return r.handleMint(ctx, j)
	case job.TypeTransfer:
		return r.handleTransfer(ctx, j)
	case job.TypeBurn:
		return r.handleBurn(ctx, j)
	case job.TypePause:
		return r.handlePause(ctx, j)
	case job.TypeUnpause:
		return r.handleUnpause(ctx, j)
	case job.TypeSetTaxRate:
		return r.handleSetTaxRate(ctx, j)
	case job.TypeSetTreasury:
		return r.handleSetTreasury(ctx, j)
	case job.TypeBatchTransfer:
		return r.handleBatchTransfer(ctx, j)
	}

	// Unreachable: ParseType already rejected anything outside the set.
	return &Result{Err: fault.Validation("Unknown job type: %s", j.Type)}
}

// execute resolves the template for a job type, encodes the arguments, and
// submits the transaction. Validation failures here never touch the network.
func (r *Router) execute(ctx context.Context, t job.Type, args ...cadence.Argument) *Result {
	tmpl, ok := cadence.TemplateFor(t)
	if !ok {
		return &Result{Err: fault.Validation("no transaction template for job type %s", t)}
	}

	script, err := tmpl.Resolve(r.network)
	if err != nil {
		return &Result{Err: fault.Config("resolve template %s: %v", tmpl.Name, err)}
	}

	encoded, err := cadence.EncodeArguments(tmpl, args)
	if err != nil {
		return &Result{Err: fault.Validation("encode arguments for %s: %v", tmpl.Name, err)}
	}

	receipt, err := r.submitter.SubmitAndWait(ctx, script, encoded)
	if err != nil {
		return &Result{Err: err}
	}

	return &Result{TxID: receipt.TxID, BlockHeight: receipt.BlockHeight}
}
