package fault

import (
	"errors"
	"fmt"
)

// Category buckets a failure for the retry scheduler. The classifier maps
// every error, typed or not, into exactly one category.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryProcessing Category = "processing"
	CategoryNetwork    Category = "network"
	CategorySystem     Category = "system"
	CategoryUnknown    Category = "unknown"
)

// Error is a classified failure. Retryable is authoritative when set via a
// constructor: a signing error is CategorySystem but never retryable, so the
// category alone does not decide requeue behavior.
type Error struct {
	Code      string
	Category  Category
	Retryable bool
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// As is a convenience wrapper around errors.As for *Error.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Validation marks bad or missing caller input. Never retryable.
func Validation(format string, args ...any) *Error {
	return &Error{
		Code:      "VALIDATION_ERROR",
		Category:  CategoryValidation,
		Retryable: false,
		Message:   fmt.Sprintf(format, args...),
	}
}

// Config marks a missing or malformed credential or setting. Operator
// actionable, never retryable.
func Config(format string, args ...any) *Error {
	return &Error{
		Code:      "CONFIGURATION_ERROR",
		Category:  CategorySystem,
		Retryable: false,
		Message:   fmt.Sprintf(format, args...),
	}
}

// Signing marks a cryptographic failure. A defective key or payload is not a
// transient condition, so the job must not be retried.
func Signing(err error, format string, args ...any) *Error {
	return &Error{
		Code:      "SIGNING_ERROR",
		Category:  CategorySystem,
		Retryable: false,
		Message:   fmt.Sprintf(format, args...),
		Err:       err,
	}
}

// Network marks an RPC or transport failure talking to the access node.
func Network(err error, format string, args ...any) *Error {
	return &Error{
		Code:      "NETWORK_ERROR",
		Category:  CategoryNetwork,
		Retryable: true,
		Message:   fmt.Sprintf(format, args...),
		Err:       err,
	}
}

// Submission marks a fatal submission defect, such as the network accepting
// the call but returning no transaction id.
func Submission(format string, args ...any) *Error {
	return &Error{
		Code:      "SUBMISSION_ERROR",
		Category:  CategorySystem,
		Retryable: false,
		Message:   fmt.Sprintf(format, args...),
	}
}

// ChainRejection marks a transaction the network accepted but the ledger
// rejected on execution. Caller actionable, never retryable: resubmitting the
// same transaction fails the same way.
func ChainRejection(format string, args ...any) *Error {
	return &Error{
		Code:      "CHAIN_REJECTION",
		Category:  CategoryProcessing,
		Retryable: false,
		Message:   fmt.Sprintf(format, args...),
	}
}

// Processing marks a transient ledger-side condition worth retrying.
func Processing(err error, format string, args ...any) *Error {
	return &Error{
		Code:      "PROCESSING_ERROR",
		Category:  CategoryProcessing,
		Retryable: true,
		Message:   fmt.Sprintf(format, args...),
		Err:       err,
	}
}
