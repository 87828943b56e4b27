// Package metadata assigns each request a correlation ID. Handlers and
// services log it and audit records carry it, so one governance action can be
// traced across log lines, outbox rows, and Kafka records.
package metadata

import (
	"net/http"

	"github.com/google/uuid"

	"custodia/pkg/requestcontext"
)

// HeaderRequestID is honored when the caller supplies its own correlation ID.
const HeaderRequestID = "X-Request-Id"

// RequestID middleware reads or generates the correlation ID and exposes it
// on both the context and the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
