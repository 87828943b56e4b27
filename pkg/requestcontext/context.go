// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// The governance engines never read ambient state: the acting address and the
// current time are carried on the context, set by middleware at the boundary
// and injectable in tests.
//
// Usage in services (read values):
//
//	actor := requestcontext.Actor(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithActor(ctx, "addr-alice")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"custodia/pkg/domain"
)

type (
	actorKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyActor       = actorKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Actor retrieves the authenticated caller address from the context.
// Returns the zero Address if not set.
func Actor(ctx context.Context) domain.Address {
	if actor, ok := ctx.Value(ContextKeyActor).(domain.Address); ok {
		return actor
	}
	return ""
}

// WithActor injects a caller address into the context.
func WithActor(ctx context.Context, actor domain.Address) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, CLI).
// The platform guarantees request timestamps are monotonically non-decreasing
// across calls; within one request every operation observes the same instant.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for workers that need a consistent time within a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
