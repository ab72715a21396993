package responder

import (
	"errors"
	"fmt"
	"strings"
)

// QuotaError marks a backend rejection caused by rate or quota limits, the
// taxonomy class the queue answers with failover instead of rejection.
type QuotaError struct {
	Provider string
	Err      error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exceeded: %v", e.Provider, e.Err)
}

func (e *QuotaError) Unwrap() error { return e.Err }

// IsQuota reports whether err is a quota/rate-limit failure. Besides the
// typed error it sniffs the message for the signals backends actually send,
// since not every provider error path is wrapped.
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	var qe *QuotaError
	if errors.As(err, &qe) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"quota", "rate limit", "too many requests", "resource_exhausted", "429"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
