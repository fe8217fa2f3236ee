package testutil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	id "sendcore/pkg/domain"
	"sendcore/pkg/requestcontext"
)

// Context returns a background context carrying the given tenant and a pinned
// clock, matching what the middleware chain would produce.
func Context(tenantID id.TenantID, now time.Time) context.Context {
	ctx := requestcontext.WithTenantID(context.Background(), tenantID)
	return requestcontext.WithTime(ctx, now)
}

// WithTenant adds a tenant ID to the request context, simulating the tenant
// middleware. Invalid IDs are silently ignored.
func WithTenant(req *http.Request, tenantID string) *http.Request {
	parsed, err := id.ParseTenantID(tenantID)
	if err != nil {
		return req
	}
	ctx := requestcontext.WithTenantID(req.Context(), parsed)
	return req.WithContext(ctx)
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
