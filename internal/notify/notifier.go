// Package notify is the port to the notification service that emails tenants
// about registration outcomes. Delivery itself lives outside this service;
// the reconciler gates calls with its own one-shot markers regardless of how
// idempotent the downstream claims to be.
package notify

import (
	"context"
	"log/slog"

	id "sendcore/pkg/domain"
	"sendcore/pkg/email"
)

// Notifier sends one-time approval and decline notices.
type Notifier interface {
	SendApprovalNotice(ctx context.Context, tenantID id.TenantID, contactEmail string) error
	SendDeclineNotice(ctx context.Context, tenantID id.TenantID, contactEmail, reason string) error
}

// LogNotifier records notices in the log instead of sending mail. Used in
// development and as the default when no notification backend is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendApprovalNotice(ctx context.Context, tenantID id.TenantID, contactEmail string) error {
	first, _ := email.DeriveNameFromEmail(contactEmail)
	n.logger.InfoContext(ctx, "approval notice",
		"tenant_id", tenantID.String(),
		"recipient", contactEmail,
		"salutation", first,
	)
	return nil
}

func (n *LogNotifier) SendDeclineNotice(ctx context.Context, tenantID id.TenantID, contactEmail, reason string) error {
	first, _ := email.DeriveNameFromEmail(contactEmail)
	n.logger.InfoContext(ctx, "decline notice",
		"tenant_id", tenantID.String(),
		"recipient", contactEmail,
		"salutation", first,
		"reason", reason,
	)
	return nil
}
