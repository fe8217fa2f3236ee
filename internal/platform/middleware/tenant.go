// Package middleware holds the service-specific HTTP middleware: tenant
// identification and the cron-secret gate for scheduled endpoints.
package middleware

import (
	"log/slog"
	"net/http"

	id "sendcore/pkg/domain"
	dErrors "sendcore/pkg/domain-errors"
	"sendcore/pkg/platform/httputil"
	"sendcore/pkg/requestcontext"
)

const headerTenantID = "X-Tenant-ID"

// RequireTenant resolves the calling tenant from the X-Tenant-ID header and
// injects it into the request context. Tenant resolution normally happens at
// the API gateway; this middleware is the service-side enforcement of it.
func RequireTenant(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(headerTenantID)
			if raw == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "tenant identification required"))
				return
			}
			tenantID, err := id.ParseTenantID(raw)
			if err != nil {
				logger.WarnContext(r.Context(), "malformed tenant header",
					"request_id", requestcontext.RequestID(r.Context()))
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed tenant identifier"))
				return
			}
			ctx := requestcontext.WithTenantID(r.Context(), tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
