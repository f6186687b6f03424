package chain

import "encoding/json"

// AccountKey is one key registered on an account.
type AccountKey struct {
	Index          uint32 `json:"index"`
	PublicKey      string `json:"public_key"`
	SequenceNumber uint64 `json:"sequence_number"`
	Weight         int    `json:"weight"`
	Revoked        bool   `json:"revoked"`
}

// Account is the on-chain record for an address.
type Account struct {
	Address string       `json:"address"`
	Balance uint64       `json:"balance"`
	Keys    []AccountKey `json:"keys"`
}

// Key returns the account key at the given index.
func (a *Account) Key(index uint32) (*AccountKey, bool) {
	for i := range a.Keys {
		if a.Keys[i].Index == index {
			return &a.Keys[i], true
		}
	}
	return nil, false
}

// Block identifies a reference block for a transaction's validity window.
type Block struct {
	ID     string `json:"id"`
	Height uint64 `json:"height"`
}

// ProposalKey names the proposer key and the sequence number the transaction
// was built against.
type ProposalKey struct {
	Address        string `json:"address"`
	KeyIndex       uint32 `json:"key_index"`
	SequenceNumber uint64 `json:"sequence_number"`
}

// TransactionSignature is one envelope signature in the network's raw
// fixed-width format (128 hex characters, r‖s).
type TransactionSignature struct {
	Address   string `json:"address"`
	KeyIndex  uint32 `json:"key_index"`
	Signature string `json:"signature"`
}

// Transaction is the full submission envelope.
type Transaction struct {
	Script             string                 `json:"script"`
	Arguments          []json.RawMessage      `json:"arguments"`
	ReferenceBlockID   string                 `json:"reference_block_id"`
	GasLimit           uint64                 `json:"gas_limit"`
	ProposalKey        ProposalKey            `json:"proposal_key"`
	Payer              string                 `json:"payer"`
	Authorizers        []string               `json:"authorizers"`
	EnvelopeSignatures []TransactionSignature `json:"envelope_signatures"`
}

// Transaction result statuses reported by the access node.
const (
	TxStatusPending   = "PENDING"
	TxStatusFinalized = "FINALIZED"
	TxStatusExecuted  = "EXECUTED"
	TxStatusSealed    = "SEALED"
	TxStatusExpired   = "EXPIRED"
)

// Event is one event emitted during transaction execution.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// TxResult is the execution result of a submitted transaction. StatusCode is
// zero on success; a non-zero code carries the ledger's error message.
type TxResult struct {
	Status       string  `json:"status"`
	StatusCode   int     `json:"status_code"`
	ErrorMessage string  `json:"error_message"`
	BlockID      string  `json:"block_id"`
	BlockHeight  uint64  `json:"block_height"`
	Events       []Event `json:"events"`
}

// Sealed reports whether the result is terminal.
func (r *TxResult) Sealed() bool {
	return r.Status == TxStatusSealed || r.Status == TxStatusExpired
}

// Authorization is the per-submission signing capability used in the
// proposer, payer, and authorizer roles. SequenceNumber is freshly fetched;
// Sign receives the canonical payload as hex and returns the raw signature.
type Authorization struct {
	Address        string
	KeyIndex       uint32
	SequenceNumber uint64
	Sign           func(payloadHex string) (string, error)
}
