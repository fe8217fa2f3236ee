package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	dErrors "sendcore/pkg/domain-errors"
	"sendcore/pkg/platform/httputil"
	"sendcore/pkg/requestcontext"
)

// RequireCronKey gates scheduler-triggered endpoints with a shared secret.
// Schedulers differ in how they can attach credentials, so the secret is
// accepted from any of: the token query parameter, the X-Cron-Token or
// X-Cron-Key headers, or an Authorization Bearer token. Comparison is
// constant time. An empty configured secret disables the endpoint entirely
// rather than leaving it open.
func RequireCronKey(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "scheduled sync is not configured"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(presentedKey(r)), []byte(secret)) != 1 {
				logger.WarnContext(r.Context(), "cron key mismatch",
					"request_id", requestcontext.RequestID(r.Context()))
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "cron key required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func presentedKey(r *http.Request) string {
	if v := r.URL.Query().Get("token"); v != "" {
		return v
	}
	if v := r.Header.Get("X-Cron-Token"); v != "" {
		return v
	}
	if v := r.Header.Get("X-Cron-Key"); v != "" {
		return v
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}
