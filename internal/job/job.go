package job

import (
	"encoding/json"
	"fmt"
)

// Type is the closed set of transaction job types. Adding a new operation
// means adding a constant here, a template in internal/cadence, and a case in
// the worker router.
type Type string

const (
	TypeSetup         Type = "setup"
	TypeMint          Type = "mint"
	TypeTransfer      Type = "transfer"
	TypeBurn          Type = "burn"
	TypePause         Type = "pause"
	TypeUnpause       Type = "unpause"
	TypeSetTaxRate    Type = "setTaxRate"
	TypeSetTreasury   Type = "setTreasury"
	TypeBatchTransfer Type = "batchTransfer"
)

// Types lists every known job type, in dispatch order.
var Types = []Type{
	TypeSetup,
	TypeMint,
	TypeTransfer,
	TypeBurn,
	TypePause,
	TypeUnpause,
	TypeSetTaxRate,
	TypeSetTreasury,
	TypeBatchTransfer,
}

// ParseType validates a raw job type string against the closed set.
func ParseType(raw string) (Type, error) {
	for _, t := range Types {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown job type: %s", raw)
}

// Message is the queue message envelope published by the producer and
// consumed by the worker. Params stays raw JSON; each handler decodes and
// validates its own parameter contract.
type Message struct {
	JobID       string          `json:"job_id"`
	Type        string          `json:"type"`
	UserAddress string          `json:"user_address"`
	Params      json.RawMessage `json:"params"`
	MessageID   string          `json:"message_id"`
	RetryCount  int             `json:"retry_count"`
	MaxRetries  int             `json:"max_retries"`
}

// TransactionJob is one delivery attempt of a job, with its type already
// validated against the closed set.
type TransactionJob struct {
	JobID       string
	Type        Type
	UserAddress string
	Params      json.RawMessage
	MessageID   string
	RetryCount  int
	MaxRetries  int
}

// FromMessage builds a TransactionJob from a parsed queue message. The type
// is left unvalidated here on purpose: the router owns the unknown-type
// failure so it can report it as a terminal, non-retryable result.
func FromMessage(msg *Message) *TransactionJob {
	return &TransactionJob{
		JobID:       msg.JobID,
		Type:        Type(msg.Type),
		UserAddress: msg.UserAddress,
		Params:      msg.Params,
		MessageID:   msg.MessageID,
		RetryCount:  msg.RetryCount,
		MaxRetries:  msg.MaxRetries,
	}
}

// ToMessage rebuilds the queue envelope, used when rescheduling a retry.
func (j *TransactionJob) ToMessage() *Message {
	return &Message{
		JobID:       j.JobID,
		Type:        string(j.Type),
		UserAddress: j.UserAddress,
		Params:      j.Params,
		MessageID:   j.MessageID,
		RetryCount:  j.RetryCount,
		MaxRetries:  j.MaxRetries,
	}
}
