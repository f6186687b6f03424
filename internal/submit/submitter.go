package submit

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/socialfi-labs/token-worker/internal/chain"
	"github.com/socialfi-labs/token-worker/internal/fault"
	"github.com/socialfi-labs/token-worker/internal/signer"
)

// Config holds submission settings.
type Config struct {
	GasLimit     uint64
	PollInterval time.Duration
	SealTimeout  time.Duration
}

// Submitter assembles transaction envelopes, signs them, submits them, and
// waits for the sealed result.
type Submitter struct {
	client       chain.Client
	signer       *signer.Signer
	gasLimit     uint64
	pollInterval time.Duration
	sealTimeout  time.Duration
	logger       *slog.Logger
}

// Receipt is the terminal outcome of a sealed transaction.
type Receipt struct {
	TxID        string
	BlockID     string
	BlockHeight uint64
}

// New creates a Submitter.
func New(cfg *Config, client chain.Client, sgn *signer.Signer, logger *slog.Logger) *Submitter {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	sealTimeout := cfg.SealTimeout
	if sealTimeout <= 0 {
		sealTimeout = 2 * time.Minute
	}
	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = 1000
	}
	return &Submitter{
		client:       client,
		signer:       sgn,
		gasLimit:     gasLimit,
		pollInterval: pollInterval,
		sealTimeout:  sealTimeout,
		logger:       logger,
	}
}

// SubmitAndWait builds the envelope for a resolved script and its encoded
// arguments, signs it under a signer lease, submits it, and blocks until the
// transaction seals. The proposer, payer, and authorizer roles are all filled
// by the signing account.
func (s *Submitter) SubmitAndWait(ctx context.Context, script string, args []json.RawMessage) (*Receipt, error) {
	auth, release, err := s.signer.Lease(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	block, err := s.client.GetLatestBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch reference block: %w", err)
	}

	tx := &chain.Transaction{
		Script:           script,
		Arguments:        args,
		ReferenceBlockID: block.ID,
		GasLimit:         s.gasLimit,
		ProposalKey: chain.ProposalKey{
			Address:        auth.Address,
			KeyIndex:       auth.KeyIndex,
			SequenceNumber: auth.SequenceNumber,
		},
		Payer:       auth.Address,
		Authorizers: []string{auth.Address},
	}

	sig, err := auth.Sign(canonicalPayload(tx))
	if err != nil {
		return nil, err
	}
	tx.EnvelopeSignatures = []chain.TransactionSignature{{
		Address:   auth.Address,
		KeyIndex:  auth.KeyIndex,
		Signature: sig,
	}}

	txID, err := s.client.SendTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("submit transaction: %w", err)
	}
	if txID == "" {
		return nil, fault.Submission("network accepted submission but returned no transaction id")
	}

	s.logger.Info("Transaction submitted",
		slog.String("tx_id", txID),
		slog.String("reference_block", block.ID),
		slog.Uint64("sequence_number", auth.SequenceNumber),
	)

	result, err := s.waitForSeal(ctx, txID)
	if err != nil {
		return nil, err
	}

	if result.Status == chain.TxStatusExpired {
		return nil, fault.Processing(nil, "transaction %s expired before sealing", txID)
	}
	if result.StatusCode != 0 {
		return nil, rejectionError(txID, result.ErrorMessage)
	}

	return &Receipt{
		TxID:        txID,
		BlockID:     result.BlockID,
		BlockHeight: result.BlockHeight,
	}, nil
}

// waitForSeal polls the transaction result until it reaches a terminal
// status. The poll is bounded by the seal timeout and the caller's context.
func (s *Submitter) waitForSeal(ctx context.Context, txID string) (*chain.TxResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.sealTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		result, err := s.client.GetTransactionResult(ctx, txID)
		if err != nil {
			return nil, fmt.Errorf("poll transaction %s: %w", txID, err)
		}
		if result.Sealed() {
			s.logger.Info("Transaction sealed",
				slog.String("tx_id", txID),
				slog.String("status", result.Status),
				slog.Uint64("block_height", result.BlockHeight),
			)
			return result, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fault.Network(ctx.Err(), "timed out waiting for transaction %s to seal", txID)
		}
	}
}

// rejectionError wraps an on-chain failure message. Known conditions get a
// hint prefix for downstream classification; anything unmatched is surfaced
// verbatim.
func rejectionError(txID, message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "does not have permission"),
		strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "access denied"):
		return fault.ChainRejection("transaction %s rejected: signing account lacks the required role: %s", txID, message)
	case strings.Contains(lower, "could not borrow"),
		strings.Contains(lower, "capability"):
		return fault.ChainRejection("transaction %s rejected: required resource or capability is missing: %s", txID, message)
	case strings.Contains(lower, "invalid signature"),
		strings.Contains(lower, "signature is not valid"):
		return fault.ChainRejection("transaction %s rejected: signature was not accepted, check key index and sequence number: %s", txID, message)
	default:
		return fault.ChainRejection("transaction %s failed on-chain: %s", txID, message)
	}
}

// canonicalPayload produces the deterministic byte encoding of the envelope
// that gets signed: every field length-prefixed so no two distinct envelopes
// share an encoding. Returned as hex, the form the signing protocol expects.
func canonicalPayload(tx *chain.Transaction) string {
	var buf []byte
	appendField := func(data []byte) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(data)))
		buf = append(buf, n[:]...)
		buf = append(buf, data...)
	}

	appendField([]byte(tx.Script))
	for _, arg := range tx.Arguments {
		appendField(arg)
	}
	appendField([]byte(tx.ReferenceBlockID))

	var num [8]byte
	binary.BigEndian.PutUint64(num[:], tx.GasLimit)
	appendField(num[:])

	appendField([]byte(tx.ProposalKey.Address))
	binary.BigEndian.PutUint64(num[:], uint64(tx.ProposalKey.KeyIndex))
	appendField(num[:])
	binary.BigEndian.PutUint64(num[:], tx.ProposalKey.SequenceNumber)
	appendField(num[:])

	appendField([]byte(tx.Payer))
	for _, a := range tx.Authorizers {
		appendField([]byte(a))
	}

	return hex.EncodeToString(buf)
}
