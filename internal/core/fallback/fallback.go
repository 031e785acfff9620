package fallback

import (
	"context"
	"fmt"
	"log/slog"
)

// Alternative is one way of getting a result, e.g. one endpoint or one auth style.
type Alternative[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Predicate decides whether the chain moves on after an alternative returned.
type Predicate[T any] func(result T, err error) bool

// NotifyFunc is called when the chain moves from one alternative to the next.
type NotifyFunc func(from, to string, err error)

// OnError moves on after any error.
func OnError[T any](_ T, err error) bool {
	return err != nil
}

// FirstSuccess runs alternatives in order until next says stop. The result of
// the last alternative tried is returned as is. It never retries an
// alternative; wrap Run with a retrying executor for that.
func FirstSuccess[T any](
	ctx context.Context,
	alternatives []Alternative[T],
	next Predicate[T],
	onFallback NotifyFunc,
) (T, error) {
	var zero T
	if len(alternatives) == 0 {
		return zero, fmt.Errorf("fallback: no alternatives")
	}
	if next == nil {
		next = OnError[T]
	}

	var (
		result T
		err    error
	)
	for i, alt := range alternatives {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return result, err
			}
			return zero, ctxErr
		}

		result, err = alt.Run(ctx)
		if !next(result, err) || i == len(alternatives)-1 {
			return result, err
		}

		to := alternatives[i+1].Name
		slog.Info("provider_fallback", "from", alt.Name, "to", to, "error", err)
		if onFallback != nil {
			onFallback(alt.Name, to, err)
		}
	}
	return result, err
}
