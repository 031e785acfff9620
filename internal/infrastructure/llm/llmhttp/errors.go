package llmhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/resilience"
)

// HTTPStatusError keeps the status line in its message so message-based
// retry classification sees the code.
type HTTPStatusError struct {
	Vendor     string
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "provider status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("%s %s status: %s", e.Vendor, e.Operation, e.Status)
	}
	return fmt.Sprintf("%s %s status: %s: %s", e.Vendor, e.Operation, e.Status, e.Body)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// IsAuthRejected reports a 401 or 403, the signal to try the other auth style.
func IsAuthRejected(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// BodyContains reports whether the provider's error body mentions needle.
func BodyContains(err error, needle string) bool {
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return strings.Contains(strings.ToLower(statusErr.Body), strings.ToLower(needle))
}

// Classify maps a transport or status error onto a domain kind. Errors that
// already carry a kind are returned as is.
func Classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{domain.ErrConfiguration, domain.ErrVerificationRequired, domain.ErrNonRetryable, domain.ErrTemporary, domain.ErrInvalidInput} {
		if domain.IsKind(err, kind) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if resilience.IsCircuitOpen(err) || resilience.IsRetryable(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return domain.WrapError(domain.ErrNonRetryable, operation, err)
}

// NotConfigured builds the error returned when a provider lacks credentials.
func NotConfigured(vendor string, missing ...string) error {
	return domain.WrapError(domain.ErrConfiguration, vendor, fmt.Errorf("missing %s", strings.Join(missing, ", ")))
}
