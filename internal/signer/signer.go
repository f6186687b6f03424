package signer

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/socialfi-labs/token-worker/internal/chain"
	"github.com/socialfi-labs/token-worker/internal/fault"
)

// rawSignatureHexLen is the exact length of an encoded raw signature:
// 32 bytes of r plus 32 bytes of s, hex encoded. Anything else is a bug and
// must never reach the network.
const rawSignatureHexLen = 128

// Config holds the signing account settings. PrivateKeyHex is the P-256
// scalar as 64 hex characters, sourced from the environment; it is never
// logged or persisted.
type Config struct {
	Address       string
	KeyIndex      uint32
	PrivateKeyHex string
}

// Signer produces per-submission authorizations for one account key. The
// sequence number is external shared state owned by the ledger, so Lease
// serializes the fetch-then-sign window per signer: two concurrent
// submissions against the same key would otherwise observe the same sequence
// number and one would be rejected on-chain.
type Signer struct {
	address  string
	keyIndex uint32
	priv     *ecdsa.PrivateKey
	client   chain.Client
	logger   *slog.Logger

	sem chan struct{}
	mu  sync.Mutex
}

// New loads the signing key and validates it against the P-256 curve.
func New(cfg *Config, client chain.Client, logger *slog.Logger) (*Signer, error) {
	if cfg.Address == "" {
		return nil, fault.Config("signer address is required")
	}
	if cfg.PrivateKeyHex == "" {
		return nil, fault.Config("signer private key is not configured")
	}

	raw, err := hex.DecodeString(cfg.PrivateKeyHex)
	if err != nil {
		return nil, fault.Config("signer private key is not valid hex")
	}
	if len(raw) != 32 {
		return nil, fault.Config("signer private key must be 32 bytes, got %d", len(raw))
	}

	curve := elliptic.P256()
	d := new(big.Int).SetBytes(raw)
	if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, fault.Config("signer private key is out of range for P-256")
	}

	priv := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve},
		D:         d,
	}
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(raw)

	return &Signer{
		address:  cfg.Address,
		keyIndex: cfg.KeyIndex,
		priv:     priv,
		client:   client,
		logger:   logger,
		sem:      make(chan struct{}, 1),
	}, nil
}

// Address returns the signing account address.
func (s *Signer) Address() string {
	return s.address
}

// Lease fetches a fresh sequence number for the account key and returns the
// authorization built against it, plus a release function the caller must
// invoke once the submission is done. The lease is held for the whole
// fetch-sign-submit window; a cached sequence number is never reused across
// transactions.
func (s *Signer) Lease(ctx context.Context) (*chain.Authorization, func(), error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	release := func() { <-s.sem }

	account, err := s.client.GetAccount(ctx, s.address)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("fetch signer account %s: %w", s.address, err)
	}

	key, ok := account.Key(s.keyIndex)
	if !ok {
		release()
		return nil, nil, fault.Config("account %s has no key at index %d", s.address, s.keyIndex)
	}
	if key.Revoked {
		release()
		return nil, nil, fault.Config("account %s key %d is revoked", s.address, s.keyIndex)
	}

	s.logger.Debug("Signing authorization prepared",
		slog.String("address", s.address),
		slog.Uint64("key_index", uint64(s.keyIndex)),
		slog.Uint64("sequence_number", key.SequenceNumber),
	)

	return &chain.Authorization{
		Address:        s.address,
		KeyIndex:       s.keyIndex,
		SequenceNumber: key.SequenceNumber,
		Sign:           s.signPayload,
	}, release, nil
}

// signPayload hashes the canonical payload with SHA3-256 and signs the
// digest with ECDSA over P-256, returning the fixed-width raw signature.
func (s *Signer) signPayload(payloadHex string) (string, error) {
	payload, err := hex.DecodeString(payloadHex)
	if err != nil {
		return "", fault.Signing(err, "canonical payload is not valid hex")
	}

	digest := sha3.Sum256(payload)

	s.mu.Lock()
	r, sv, err := ecdsa.Sign(rand.Reader, s.priv, digest[:])
	s.mu.Unlock()
	if err != nil {
		return "", fault.Signing(err, "ECDSA signing failed")
	}

	sig := rawSignature(r, sv)
	if len(sig) != rawSignatureHexLen {
		return "", fault.Signing(nil, "raw signature is %d hex characters, want %d", len(sig), rawSignatureHexLen)
	}
	return sig, nil
}

// rawSignature encodes r and s as the network's raw wire format: each
// component independently left-zero-padded to 32 bytes, concatenated r‖s,
// no DER wrapping.
func rawSignature(r, s *big.Int) string {
	var buf [64]byte
	r.FillBytes(buf[:32])
	s.FillBytes(buf[32:])
	return hex.EncodeToString(buf[:])
}
