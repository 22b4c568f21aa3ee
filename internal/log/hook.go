package log

import "context"

// Hook derives extra Fields from a context, letting a caller thread
// correlation data (e.g. the name of the cache being refreshed) through
// every log line without changing every call site.
//
// A Hook must not panic; a Hook that declines to contribute fields for a
// given context returns nil.
type Hook interface {
	Apply(ctx context.Context, msg string) []Field
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx context.Context, msg string) []Field

// Apply implements Hook.
func (f HookFunc) Apply(ctx context.Context, msg string) []Field {
	if f == nil {
		return nil
	}

	return f(ctx, msg)
}
