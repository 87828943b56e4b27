// Package auth authenticates the calling account. The hosting platform signs
// a bearer token asserting the caller's ledger address; this middleware
// validates it and places the address on the request context. Cryptographic
// verification of ledger signatures is the platform's job, not ours.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"custodia/pkg/domain"
	"custodia/pkg/platform/httputil"
	"custodia/pkg/requestcontext"

	dErrors "custodia/pkg/domain-errors"
)

// TokenValidator validates a bearer token and returns the asserted caller
// address.
type TokenValidator interface {
	ValidateToken(tokenString string) (domain.Address, error)
}

// RequireActor rejects requests without a valid bearer token and injects the
// authenticated address into the context for services to read via
// requestcontext.Actor.
func RequireActor(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			actor, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, actor)))
		})
	}
}
