package cadence

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UFix64 is the ledger's unsigned fixed-point amount type: a uint64 scaled by
// 10^8, giving exactly 8 decimal digits of precision. Amounts travel as
// decimal strings end to end; binary floating point never touches them.
type UFix64 uint64

// FractionalDigits is the fixed scale of UFix64.
const FractionalDigits = 8

const scale = 100_000_000

// ParseUFix64 parses a decimal string with at most 8 fractional digits.
// Exponents, signs, infinities and NaN spellings are all rejected: the input
// must already be a plain finite decimal.
func ParseUFix64(s string) (UFix64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.ContainsAny(s, "+-eE") {
		return 0, fmt.Errorf("amount %q is not a plain decimal string", s)
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		return 0, fmt.Errorf("amount %q is missing an integer part", s)
	}
	if len(frac) > FractionalDigits {
		return 0, fmt.Errorf("amount %q has more than %d fractional digits", s, FractionalDigits)
	}

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	var f uint64
	if frac != "" {
		f, err = strconv.ParseUint(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		for i := len(frac); i < FractionalDigits; i++ {
			f *= 10
		}
	}

	if w > math.MaxUint64/scale || w*scale > math.MaxUint64-f {
		return 0, fmt.Errorf("amount %q overflows UFix64", s)
	}

	return UFix64(w*scale + f), nil
}

// ParseAmount parses a token amount: a valid UFix64 that is strictly greater
// than zero.
func ParseAmount(s string) (UFix64, error) {
	v, err := ParseUFix64(s)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, fmt.Errorf("amount %q must be greater than zero", s)
	}
	return v, nil
}

// String renders the value with exactly 8 fractional digits, the canonical
// on-wire form.
func (v UFix64) String() string {
	return fmt.Sprintf("%d.%08d", uint64(v)/scale, uint64(v)%scale)
}
