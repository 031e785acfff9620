package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrConfiguration):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrVerificationRequired):
		return http.StatusFailedDependency
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrNonRetryable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorKindName(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrConfiguration):
		return "configuration_missing"
	case domain.IsKind(err, domain.ErrVerificationRequired):
		return "verification_required"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	case domain.IsKind(err, domain.ErrNonRetryable):
		return "rejected"
	default:
		return "internal"
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Hint      string `json:"hint,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// writeError only shows orchestrator messages to clients; anything else is
// reported by kind.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{
		Kind:      errorKindName(err),
		RequestID: requestIDFromContext(r.Context()),
	}
	if f, ok := domain.AsFailure(err); ok {
		resp.Error = f.Message
		resp.Hint = f.Hint
	} else if domain.IsKind(err, domain.ErrInvalidInput) {
		resp.Error = err.Error()
	} else {
		slog.Error("request_failed", "request_id", resp.RequestID, "path", r.URL.Path, "error", err)
		resp.Error = http.StatusText(mapErrorToHTTPStatus(err))
	}
	writeJSON(w, mapErrorToHTTPStatus(err), resp)
}
