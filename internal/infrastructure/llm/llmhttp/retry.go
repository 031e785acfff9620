package llmhttp

import (
	"context"

	"github.com/kirillkom/facade-estimator/internal/infrastructure/resilience"
)

// Retrier runs provider calls through the shared executor. A zero Retrier
// makes a single attempt.
type Retrier struct {
	Executor *resilience.Executor
	Policy   resilience.Policy
}

func (r Retrier) Do(ctx context.Context, operation string, fn func(context.Context) error) error {
	if r.Executor == nil {
		return fn(ctx)
	}
	return r.Executor.Execute(ctx, operation, fn, r.Policy)
}
