package retry

import (
	"strings"

	"github.com/socialfi-labs/token-worker/internal/fault"
)

// Classification is the deterministic (category, retryable, ceiling) triple
// for a failure. Re-classifying the same error text always yields the same
// triple.
type Classification struct {
	Code       string
	Category   fault.Category
	Retryable  bool
	MaxRetries int
}

// Retry ceilings per category.
const (
	maxRetriesValidation = 0
	maxRetriesProcessing = 3
	maxRetriesNetwork    = 5
	maxRetriesSystem     = 5
	maxRetriesUnknown    = 2
)

// Classify categorizes any failure. Typed errors carry their own category
// and retryability; everything else goes through the keyword rules on the
// message text.
func Classify(err error) Classification {
	if fe, ok := fault.As(err); ok {
		return Classification{
			Code:       fe.Code,
			Category:   fe.Category,
			Retryable:  fe.Retryable,
			MaxRetries: ceiling(fe.Category, fe.Retryable),
		}
	}
	return ClassifyText(err.Error())
}

// ClassifyText applies the keyword rules to raw error text. It is a pure
// function: same text in, same triple out. Validation keywords are checked
// first so an ambiguous message can never be classified retryable.
func ClassifyText(msg string) Classification {
	lower := strings.ToLower(msg)

	switch {
	case containsAny(lower, "validation", "invalid", "missing", "required", "malformed", "unknown job type"):
		return Classification{
			Code:       "VALIDATION_ERROR",
			Category:   fault.CategoryValidation,
			Retryable:  false,
			MaxRetries: maxRetriesValidation,
		}
	case containsAny(lower, "timeout", "timed out", "network", "connection", "econnrefused", "unavailable", "rate limit", "too many requests", "unexpected eof"):
		return Classification{
			Code:       "NETWORK_ERROR",
			Category:   fault.CategoryNetwork,
			Retryable:  true,
			MaxRetries: maxRetriesNetwork,
		}
	case containsAny(lower, "internal server error", "out of memory", "resource exhausted"):
		return Classification{
			Code:       "SYSTEM_ERROR",
			Category:   fault.CategorySystem,
			Retryable:  true,
			MaxRetries: maxRetriesSystem,
		}
	case containsAny(lower, "sequence number", "expired", "busy", "locked", "conflict", "execution"):
		return Classification{
			Code:       "PROCESSING_ERROR",
			Category:   fault.CategoryProcessing,
			Retryable:  true,
			MaxRetries: maxRetriesProcessing,
		}
	default:
		return Classification{
			Code:       "UNKNOWN_ERROR",
			Category:   fault.CategoryUnknown,
			Retryable:  true,
			MaxRetries: maxRetriesUnknown,
		}
	}
}

func ceiling(category fault.Category, retryable bool) int {
	if !retryable {
		return 0
	}
	switch category {
	case fault.CategoryValidation:
		return maxRetriesValidation
	case fault.CategoryProcessing:
		return maxRetriesProcessing
	case fault.CategoryNetwork:
		return maxRetriesNetwork
	case fault.CategorySystem:
		return maxRetriesSystem
	default:
		return maxRetriesUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
