package testutil

import (
	"context"
	"net/http"
	"time"

	"custodia/pkg/domain"
	"custodia/pkg/requestcontext"
)

// WithActor adds an authenticated caller address to the request context,
// simulating what the auth middleware does for authenticated requests.
func WithActor(req *http.Request, addr string) *http.Request {
	parsed, err := domain.ParseAddress(addr)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithActor(req.Context(), parsed))
}

// WithTime pins the request time, simulating the request-time middleware.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// Context builds a service-level context with an actor and a fixed time.
func Context(addr domain.Address, now time.Time) context.Context {
	ctx := requestcontext.WithActor(context.Background(), addr)
	return requestcontext.WithTime(ctx, now)
}
