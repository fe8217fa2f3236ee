// Package request provides request-ID middleware. Every request gets an ID,
// either propagated from the X-Request-ID header or freshly generated, and
// the ID is echoed back in the response for client-side correlation.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"sendcore/pkg/requestcontext"
)

const headerRequestID = "X-Request-ID"

// Middleware attaches a request ID to the context and the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
