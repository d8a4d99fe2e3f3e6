package panicerr

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/panics"
)

// Safe runs fn and returns a recovered panic as an error.
func Safe(fn func() error) func() error {
	return func() error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn()
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return Safe(func() error { return fn(ctx) })()
	}
}

// Logged adapts fn for conc.WaitGroup.Go: errors and panics are logged under
// name and never propagate.
func Logged(ctx context.Context, name string, fn func(context.Context) error) func() {
	return func() {
		if err := SafeContext(fn)(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "background task failed", "task", name, "error", err)
		}
	}
}
