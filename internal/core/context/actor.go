package context

import (
	"context"
)

// AnonymousActor is recorded when a mutation arrives without actor attribution.
const AnonymousActor = "anonymous"

type actorContextKey struct{}

// WithActor adds the acting operator's name to context.
// The actor is stamped on every ledger mutation and transfer it causes.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns the actor from context, or AnonymousActor when absent.
func GetActor(ctx context.Context) string {
	if v, ok := ctx.Value(actorContextKey{}).(string); ok && v != "" {
		return v
	}
	return AnonymousActor
}
