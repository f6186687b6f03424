package worker

import (
	"context"
	"encoding/json"

	"github.com/socialfi-labs/token-worker/internal/cadence"
	"github.com/socialfi-labs/token-worker/internal/fault"
	"github.com/socialfi-labs/token-worker/internal/job"
)

// Each handler validates its own parameter contract before any network call:
// a missing or malformed field fails the job without contacting the chain.

func decodeParams(j *job.TransactionJob, out any) error {
	if len(j.Params) == 0 {
		j.Params = []byte("{}")
	}
	if err := json.Unmarshal(j.Params, out); err != nil {
		return fault.Validation("malformed params for %s job: %v", j.Type, err)
	}
	return nil
}

type setupParams struct {
	Address string `json:"address"`
}

func (r *Router) handleSetup(ctx context.Context, j *job.TransactionJob) *Result {
	var p setupParams
	if err := decodeParams(j, &p); err != nil {
		return &Result{Err: err}
	}
	if p.Address == "" {
		return &Result{Err: fault.Validation("setup job missing required field: address")}
	}

	addr, err := cadence.NewAddress(p.Address)
	if err != nil {
		return &Result{Err: fault.Validation("setup job: %v", err)}
	}
	return r.execute(ctx, job.TypeSetup, addr)
}

type mintParams struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

func (r *Router) handleMint(ctx context.Context, j *job.TransactionJob) *Result {
	var p mintParams
	if err := decodeParams(j, &p); err != nil {
		return &Result{Err: err}
	}
	if p.Recipient == "" {
		return &Result{Err: fault.Validation("mint job missing required field: recipient")}
	}
	if p.Amount == "" {
		return &Result{Err: fault.Validation("mint job missing required field: amount")}
	}

	recipient, err := cadence.NewAddress(p.Recipient)
	if err != nil {
		return &Result{Err: fault.Validation("mint job: %v", err)}
	}
	amount, err := cadence.NewAmount(p.Amount)
	if err != nil {
		return &Result{Err: fault.Validation("mint job: %v", err)}
	}
	return r.execute(ctx, job.TypeMint, recipient, amount)
}

type transferParams struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

func (r *Router) handleTransfer(ctx context.Context, j *job.TransactionJob) *Result {
	var p transferParams
	if err := decodeParams(j, &p); err != nil {
		return &Result{Err: err}
	}
	if p.Sender == "" {
		return &Result{Err: fault.Validation("transfer job missing required field: sender")}
	}
	if p.Recipient == "" {
		return &Result{Err: fault.Validation("transfer job missing required field: recipient")}
	}
	if p.Amount == "" {
		return &Result{Err: fault.Validation("transfer job missing required field: amount")}
	}

	sender, err := cadence.NewAddress(p.Sender)
	if err != nil {
		return &Result{Err: fault.Validation("transfer job: %v", err)}
	}
	recipient, err := cadence.NewAddress(p.Recipient)
	if err != nil {
		return &Result{Err: fault.Validation("transfer job: %v", err)}
	}
	amount, err := cadence.NewAmount(p.Amount)
	if err != nil {
		return &Result{Err: fault.Validation("transfer job: %v", err)}
	}
	return r.execute(ctx, job.TypeTransfer, sender, recipient, amount)
}

type burnParams struct {
	Amount string `json:"amount"`
}

func (r *Router) handleBurn(ctx context.Context, j *job.TransactionJob) *Result {
	var p burnParams
	if err := decodeParams(j, &p); err != nil {
		return &Result{Err: err}
	}
	if p.Amount == "" {
		return &Result{Err: fault.Validation("burn job missing required field: amount")}
	}

	amount, err := cadence.NewAmount(p.Amount)
	if err != nil {
		return &Result{Err: fault.Validation("burn job: %v", err)}
	}
	return r.execute(ctx, job.TypeBurn, amount)
}

func (r *Router) handlePause(ctx context.Context, j *job.TransactionJob) *Result {
	return r.execute(ctx, job.TypePause)
}

func (r *Router) handleUnpause(ctx context.Context, j *job.TransactionJob) *Result {
	return r.execute(ctx, job.TypeUnpause)
}

type setTaxRateParams struct {
	NewTaxRate string `json:"newTaxRate"`
}

func (r *Router) handleSetTaxRate(ctx context.Context, j *job.TransactionJob) *Result {
	var p setTaxRateParams
	if err := decodeParams(j, &p); err != nil {
		return &Result{Err: err}
	}
	if p.NewTaxRate == "" {
		return &Result{Err: fault.Validation("setTaxRate job missing required field: newTaxRate")}
	}

	// Zero is a legal tax rate, so this is NewUFix64 rather than NewAmount.
	rate, err := cadence.NewUFix64(p.NewTaxRate)
	if err != nil {
		return &Result{Err: fault.Validation("setTaxRate job: %v", err)}
	}
	return r.execute(ctx, job.TypeSetTaxRate, rate)
}

type setTreasuryParams struct {
	NewTreasuryAccount string `json:"newTreasuryAccount"`
}

func (r *Router) handleSetTreasury(ctx context.Context, j *job.TransactionJob) *Result {
	var p setTreasuryParams
	if err := decodeParams(j, &p); err != nil {
		return &Result{Err: err}
	}
	if p.NewTreasuryAccount == "" {
		return &Result{Err: fault.Validation("setTreasury job missing required field: newTreasuryAccount")}
	}

	treasury, err := cadence.NewAddress(p.NewTreasuryAccount)
	if err != nil {
		return &Result{Err: fault.Validation("setTreasury job: %v", err)}
	}
	return r.execute(ctx, job.TypeSetTreasury, treasury)
}

type batchTransferParams struct {
	Sender    string `json:"sender"`
	Transfers []struct {
		Recipient string `json:"recipient"`
		Amount    string `json:"amount"`
	} `json:"transfers"`
}

func (r *Router) handleBatchTransfer(ctx context.Context, j *job.TransactionJob) *Result {
	var p batchTransferParams
	if err := decodeParams(j, &p); err != nil {
		return &Result{Err: err}
	}
	if p.Sender == "" {
		return &Result{Err: fault.Validation("batchTransfer job missing required field: sender")}
	}
	if len(p.Transfers) == 0 {
		return &Result{Err: fault.Validation("batchTransfer job missing required field: transfers")}
	}

	sender, err := cadence.NewAddress(p.Sender)
	if err != nil {
		return &Result{Err: fault.Validation("batchTransfer job: %v", err)}
	}

	recipients := make([]string, len(p.Transfers))
	amounts := make([]string, len(p.Transfers))
	for i, t := range p.Transfers {
		if t.Recipient == "" {
			return &Result{Err: fault.Validation("batchTransfer job transfer %d missing required field: recipient", i)}
		}
		if t.Amount == "" {
			return &Result{Err: fault.Validation("batchTransfer job transfer %d missing required field: amount", i)}
		}
		recipients[i] = t.Recipient
		amounts[i] = t.Amount
	}

	recipientArgs, err := cadence.NewAddressArray(recipients)
	if err != nil {
		return &Result{Err: fault.Validation("batchTransfer job recipients: %v", err)}
	}
	amountArgs, err := cadence.NewAmountArray(amounts)
	if err != nil {
		return &Result{Err: fault.Validation("batchTransfer job amounts: %v", err)}
	}

	return r.execute(ctx, job.TypeBatchTransfer, sender, recipientArgs, amountArgs)
}
