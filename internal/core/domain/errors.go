package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrConfiguration        = errors.New("provider not configured")
	ErrVerificationRequired = errors.New("organization verification required")
	ErrNonRetryable         = errors.New("request rejected by provider")
	ErrTemporary            = errors.New("temporary failure")
)

// VerificationHelpURL is where operators verify their organization for image editing.
const VerificationHelpURL = "https://platform.openai.com/settings/organization/general"

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// Failure is the only error shape orchestrators hand to callers. It carries
// a user-facing message and the semantic kind, never the provider error.
type Failure struct {
	Kind    error
	Message string
	Hint    string
}

func (f *Failure) Error() string {
	if f == nil {
		return "failure"
	}
	return f.Message
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Kind
}

func NewFailure(kind error, message, hint string) *Failure {
	return &Failure{Kind: kind, Message: message, Hint: hint}
}

// AsFailure extracts the user-facing failure if err carries one.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
