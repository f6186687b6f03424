package cadence

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Kind is the declared type of a script argument position.
type Kind string

const (
	KindAddress      Kind = "Address"
	KindUFix64       Kind = "UFix64"
	KindString       Kind = "String"
	KindAddressArray Kind = "[Address]"
	KindUFix64Array  Kind = "[UFix64]"
)

// Argument is one typed, validated script argument. Construct values through
// the New* functions; the zero value is not usable.
type Argument struct {
	kind  Kind
	value any
}

func (a Argument) Kind() Kind { return a.kind }

// jsonValue is the tagged on-wire encoding of a single value.
type jsonValue struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// MarshalJSON encodes the argument in the network's tagged JSON form. Arrays
// encode as {"type":"Array","value":[...]} with every element carrying its
// own primitive tag.
func (a Argument) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case KindAddress, KindUFix64, KindString:
		return json.Marshal(jsonValue{Type: string(a.kind), Value: a.value})
	case KindAddressArray, KindUFix64Array:
		elems := a.value.([]Argument)
		inner := make([]jsonValue, len(elems))
		for i, e := range elems {
			inner[i] = jsonValue{Type: string(e.kind), Value: e.value}
		}
		return json.Marshal(jsonValue{Type: "Array", Value: inner})
	default:
		return nil, fmt.Errorf("unsupported argument kind %q", a.kind)
	}
}

var addressPattern = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{16}$`)

// NewAddress validates and normalizes an account address to its 0x-prefixed
// lowercase form.
func NewAddress(addr string) (Argument, error) {
	if !addressPattern.MatchString(addr) {
		return Argument{}, fmt.Errorf("invalid address %q", addr)
	}
	norm := strings.ToLower(strings.TrimPrefix(addr, "0x"))
	return Argument{kind: KindAddress, value: "0x" + norm}, nil
}

// NewUFix64 validates a decimal string and carries it in canonical 8-digit
// form. Zero is allowed; use NewAmount for token amounts.
func NewUFix64(s string) (Argument, error) {
	v, err := ParseUFix64(s)
	if err != nil {
		return Argument{}, err
	}
	return Argument{kind: KindUFix64, value: v.String()}, nil
}

// NewAmount is NewUFix64 restricted to strictly positive values.
func NewAmount(s string) (Argument, error) {
	v, err := ParseAmount(s)
	if err != nil {
		return Argument{}, err
	}
	return Argument{kind: KindUFix64, value: v.String()}, nil
}

// NewString wraps a plain string argument.
func NewString(s string) Argument {
	return Argument{kind: KindString, value: s}
}

// NewAddressArray validates every element as an address.
func NewAddressArray(addrs []string) (Argument, error) {
	elems := make([]Argument, len(addrs))
	for i, a := range addrs {
		arg, err := NewAddress(a)
		if err != nil {
			return Argument{}, fmt.Errorf("element %d: %w", i, err)
		}
		elems[i] = arg
	}
	return Argument{kind: KindAddressArray, value: elems}, nil
}

// NewAmountArray validates every element as a strictly positive UFix64.
func NewAmountArray(amounts []string) (Argument, error) {
	elems := make([]Argument, len(amounts))
	for i, s := range amounts {
		arg, err := NewAmount(s)
		if err != nil {
			return Argument{}, fmt.Errorf("element %d: %w", i, err)
		}
		elems[i] = arg
	}
	return Argument{kind: KindUFix64Array, value: elems}, nil
}

// EncodeArguments checks the argument list against the template schema and
// marshals each value into its tagged wire form.
func EncodeArguments(tmpl *Template, args []Argument) ([]json.RawMessage, error) {
	if len(args) != len(tmpl.Schema) {
		return nil, fmt.Errorf("template %s expects %d arguments, got %d", tmpl.Name, len(tmpl.Schema), len(args))
	}
	encoded := make([]json.RawMessage, len(args))
	for i, arg := range args {
		if arg.kind != tmpl.Schema[i] {
			return nil, fmt.Errorf("template %s argument %d must be %s, got %s", tmpl.Name, i, tmpl.Schema[i], arg.kind)
		}
		raw, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("encode argument %d: %w", i, err)
		}
		encoded[i] = raw
	}
	return encoded, nil
}
