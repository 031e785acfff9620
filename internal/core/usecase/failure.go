package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

const maxPassthroughMessage = 300

var errNotConfigured = errors.New("provider credentials are missing")

// toFailure turns whatever a provider returned into the user-facing failure.
// The original error is logged and dropped.
func toFailure(stage string, err error) error {
	if err == nil {
		return nil
	}
	if f, ok := domain.AsFailure(err); ok {
		return f
	}
	slog.Warn("provider_failure", "stage", stage, "error", err)

	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return domain.NewFailure(domain.ErrInvalidInput, trimMessage(err.Error()), "")
	case domain.IsKind(err, domain.ErrConfiguration):
		return domain.NewFailure(domain.ErrConfiguration,
			"The "+stage+" service is not set up yet. Ask the site operator to configure the provider credentials.", "")
	case domain.IsKind(err, domain.ErrVerificationRequired):
		return domain.NewFailure(domain.ErrVerificationRequired,
			"Image editing needs a verified organization at the image provider. Verify the organization and try again in a few minutes.",
			domain.VerificationHelpURL)
	case domain.IsKind(err, domain.ErrNonRetryable):
		return domain.NewFailure(domain.ErrNonRetryable, "The "+stage+" provider rejected the request: "+trimMessage(err.Error()), "")
	case errors.Is(err, context.Canceled):
		return domain.NewFailure(domain.ErrTemporary, "The request was cancelled.", "")
	default:
		return domain.NewFailure(domain.ErrTemporary,
			"The "+stage+" service is temporarily unavailable. Please try again later.", "")
	}
}

func trimMessage(msg string) string {
	if len(msg) <= maxPassthroughMessage {
		return msg
	}
	return msg[:maxPassthroughMessage] + "..."
}
