// Package billing is the port to the billing system for the one-time A2P
// approval fee. The fee is charged inside the same one-shot gate as the
// approval notice, so a tenant is never billed twice; the charge itself is
// best-effort and never blocks the approval.
package billing

import (
	"context"
	"log/slog"

	id "sendcore/pkg/domain"
)

// Charger bills the one-time approval fee for a tenant.
type Charger interface {
	ChargeApprovalFee(ctx context.Context, tenantID id.TenantID) error
}

// NoopCharger is used when billing is handled elsewhere or disabled. It logs
// so the transition remains visible in development.
type NoopCharger struct {
	logger *slog.Logger
}

func NewNoopCharger(logger *slog.Logger) *NoopCharger {
	return &NoopCharger{logger: logger}
}

func (c *NoopCharger) ChargeApprovalFee(ctx context.Context, tenantID id.TenantID) error {
	c.logger.InfoContext(ctx, "approval fee charge skipped (billing disabled)",
		"tenant_id", tenantID.String(),
	)
	return nil
}
