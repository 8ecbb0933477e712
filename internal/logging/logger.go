// Package logging defines the structured logger used across RecipeHub and
// its slog-backed implementation.
package logging

import "context"

// Logger logs a message with key/value pairs:
//
//	log.Info(ctx, "user registered", "user_id", id)
//
// Attributes stored in ctx with ContextWith are added to every record.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always adds args.
	With(args ...any) Logger
}

type attrsKey struct{}

// ContextWith returns a copy of ctx carrying args in addition to any
// attributes already there. The HTTP layer uses it for the request id.
func ContextWith(ctx context.Context, args ...any) context.Context {
	prev := attrsFrom(ctx)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(merged, prev...)
	merged = append(merged, args...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

func attrsFrom(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(attrsKey{}).([]any)
	return a
}
