package resilience

import (
	"context"
	"errors"
	"regexp"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

var (
	nonRetryableStatusRe = regexp.MustCompile(`\b(400|401|403|404|422)\b`)
	rateLimitedStatusRe  = regexp.MustCompile(`\b429\b`)
)

// ClassifyByMessage looks at the status codes mentioned in the error text,
// so it works for any transport that puts the HTTP status in its message.
// A 429 anywhere in the message keeps the error retryable.
func ClassifyByMessage(err error) ErrorClassification {
	if err == nil {
		return ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	// Attempt timeouts land here as DeadlineExceeded; the parent context is
	// checked separately before each attempt.
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if domain.IsKind(err, domain.ErrConfiguration) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if IsCircuitOpen(err) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}

	msg := err.Error()
	if nonRetryableStatusRe.MatchString(msg) && !rateLimitedStatusRe.MatchString(msg) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

// IsRetryable reports whether ClassifyByMessage would retry err.
func IsRetryable(err error) bool {
	return ClassifyByMessage(err).Retryable
}
