package series

import (
	"context"
	"log/slog"
)

// optional is the result of a best-effort fetch. A failed supplement only
// leaves the current-day tail less fresh, so Err is logged and never
// returned to the caller of the assembler.
type optional[T any] struct {
	Value T
	OK    bool
	Err   error
}

// bestEffort runs fetch and converts any failure into an empty optional.
func bestEffort[T any](ctx context.Context, what string, fetch func(context.Context) (T, error)) optional[T] {
	v, err := fetch(ctx)
	if err != nil {
		slog.WarnContext(ctx, "ignoring failed supplement", "supplement", what, "error", err)
		return optional[T]{Err: err}
	}
	return optional[T]{Value: v, OK: true}
}
