package reconciler

import (
	"context"

	"golang.org/x/sync/errgroup"

	id "sendcore/pkg/domain"
	dErrors "sendcore/pkg/domain-errors"

	"sendcore/internal/registration/models"
)

// SweepResult summarizes one tenant's pass within a sweep run.
type SweepResult struct {
	TenantID id.TenantID `json:"tenant_id"`
	Outcome  string      `json:"outcome"` // approved, declined, pending, error
	Reason   string      `json:"reason,omitempty"`
}

// Sweep reconciles a bounded batch of unfinished registrations, least
// recently synced first. Tenants run concurrently up to the configured
// limit; one tenant's failure never stops the rest of the batch.
//
// The decline notice fires from here rather than from Reconcile so that a
// tenant polling their own status does not trigger repeated emails; the
// sweep sends at most one per run per tenant.
func (r *Reconciler) Sweep(ctx context.Context) ([]SweepResult, error) {
	profiles, err := r.store.ListUnfinished(ctx, r.sweep.BatchSize)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not list unfinished registrations")
	}
	if len(profiles) == 0 {
		return []SweepResult{}, nil
	}

	results := make([]SweepResult, len(profiles))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.sweep.Concurrency)
	for i, p := range profiles {
		g.Go(func() error {
			results[i] = r.sweepOne(ctx, p)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures land in results

	r.logger.InfoContext(ctx, "registration sweep finished",
		"batch", len(profiles), "results", tally(results))
	return results, nil
}

func (r *Reconciler) sweepOne(ctx context.Context, p *models.RegistrationProfile) SweepResult {
	res := SweepResult{TenantID: p.TenantID}
	out, err := r.Reconcile(ctx, p.TenantID)
	if err != nil {
		r.logger.ErrorContext(ctx, "sweep pass failed",
			"tenant_id", p.TenantID.String(), "error", err)
		res.Outcome = "error"
		res.Reason = err.Error()
		return res
	}
	switch out.ApplicationStatus {
	case models.ApplicationApproved:
		res.Outcome = "approved"
	case models.ApplicationDeclined:
		res.Outcome = "declined"
		res.Reason = out.DeclinedReason
		if err := r.notifier.SendDeclineNotice(ctx, p.TenantID, p.Facts.ContactEmail, out.DeclinedReason); err != nil {
			r.logger.ErrorContext(ctx, "decline notice failed",
				"tenant_id", p.TenantID.String(), "error", err)
		}
	default:
		res.Outcome = "pending"
	}
	return res
}

func tally(results []SweepResult) map[string]int {
	counts := make(map[string]int, 4)
	for _, res := range results {
		counts[res.Outcome]++
	}
	return counts
}
