package signer

import (
	"context"
	"crypto/elliptic"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/socialfi-labs/token-worker/internal/fault"
)

// VerifyKey is a pre-flight diagnostic: it derives the public key from the
// configured private key, normalizes it to compressed form, and compares it
// against the key registered on chain at the configured index. It runs at
// startup, never on the signing hot path.
func (s *Signer) VerifyKey(ctx context.Context) error {
	account, err := s.client.GetAccount(ctx, s.address)
	if err != nil {
		return fmt.Errorf("fetch account for key verification: %w", err)
	}

	key, ok := account.Key(s.keyIndex)
	if !ok {
		return fault.Config("account %s has no key at index %d", s.address, s.keyIndex)
	}

	expected, err := compressPublicKey(key.PublicKey)
	if err != nil {
		return fault.Config("on-chain public key for %s key %d: %v", s.address, s.keyIndex, err)
	}

	derived := hex.EncodeToString(elliptic.MarshalCompressed(
		s.priv.Curve, s.priv.PublicKey.X, s.priv.PublicKey.Y))

	if !strings.EqualFold(derived, expected) {
		return fault.Config("configured private key does not match on-chain key %d of %s", s.keyIndex, s.address)
	}
	return nil
}

// compressPublicKey normalizes a hex public key to its 33-byte compressed
// form. Accepts compressed input, uncompressed X‖Y, and uncompressed with
// the 0x04 prefix.
func compressPublicKey(pubHex string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(pubHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("not valid hex: %w", err)
	}

	curve := elliptic.P256()
	var x, y *big.Int

	switch len(raw) {
	case 33:
		x, y = elliptic.UnmarshalCompressed(curve, raw)
		if x == nil {
			return "", fmt.Errorf("invalid compressed point")
		}
	case 65:
		if raw[0] != 0x04 {
			return "", fmt.Errorf("invalid uncompressed point prefix 0x%02x", raw[0])
		}
		raw = raw[1:]
		fallthrough
	case 64:
		x = new(big.Int).SetBytes(raw[:32])
		y = new(big.Int).SetBytes(raw[32:])
		if !curve.IsOnCurve(x, y) {
			return "", fmt.Errorf("point is not on P-256")
		}
	default:
		return "", fmt.Errorf("unexpected public key length %d", len(raw))
	}

	return hex.EncodeToString(elliptic.MarshalCompressed(curve, x, y)), nil
}
