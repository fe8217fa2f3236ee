// Package handler wires the registration HTTP endpoints to the saga
// orchestrator and the status reconciler.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "sendcore/pkg/domain"
	dErrors "sendcore/pkg/domain-errors"
	"sendcore/pkg/platform/httputil"
	"sendcore/pkg/requestcontext"

	"sendcore/internal/registration/models"
	"sendcore/internal/registration/reconciler"
	"sendcore/internal/registration/saga"
	"sendcore/internal/registration/store"
)

// Registrar runs the registration saga.
type Registrar interface {
	Register(ctx context.Context, tenantID id.TenantID, facts models.BusinessFacts) (*saga.Result, error)
}

// Reconciler runs status reconciliation passes.
type Reconciler interface {
	Reconcile(ctx context.Context, tenantID id.TenantID) (*reconciler.Outcome, error)
	ApplyCallback(ctx context.Context, tenantID id.TenantID, brandStatus, campaignStatus string) (*reconciler.Outcome, error)
	Sweep(ctx context.Context) ([]reconciler.SweepResult, error)
}

// Handler wires registration endpoints to their services.
type Handler struct {
	registrar  Registrar
	reconciler Reconciler
	profiles   store.ProfileStore
	logger     *slog.Logger
}

// New constructs a registration handler with its dependencies.
func New(registrar Registrar, rec Reconciler, profiles store.ProfileStore, logger *slog.Logger) *Handler {
	return &Handler{
		registrar:  registrar,
		reconciler: rec,
		profiles:   profiles,
		logger:     logger,
	}
}

// Register mounts registration endpoints on the router. The callback and
// sync routes carry their own auth (webhook secret, cron key) applied by the
// caller; the tenant routes expect tenant middleware upstream.
func (h *Handler) Register(r chi.Router) {
	r.Post("/a2p/register", h.HandleRegister)
	r.Get("/a2p/status", h.HandleStatus)
}

// RegisterCallback mounts the vendor status callback endpoint.
func (h *Handler) RegisterCallback(r chi.Router) {
	r.Post("/a2p/status-callback", h.HandleStatusCallback)
}

// RegisterSync mounts the scheduled sweep trigger endpoint.
func (h *Handler) RegisterSync(r chi.Router) {
	r.Post("/a2p/sync", h.HandleSync)
}

// HandleRegister handles POST /a2p/register requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "tenant identification required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.registrar.Register(ctx, tenantID, req.Facts())
	if err != nil {
		h.logger.ErrorContext(ctx, "registration failed",
			"request_id", requestID,
			"tenant_id", tenantID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration submitted",
		"request_id", requestID,
		"tenant_id", tenantID.String(),
		"brand_id", result.BrandID,
		"campaign_id", result.CampaignID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleStatus handles GET /a2p/status requests. Every call is a live
// reconciliation pass against the compliance authority, never a cache read.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "tenant identification required"))
		return
	}

	outcome, err := h.reconciler.Reconcile(ctx, tenantID)
	if err != nil {
		h.logger.ErrorContext(ctx, "status reconciliation failed",
			"request_id", requestID,
			"tenant_id", tenantID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, outcome)
}

// HandleStatusCallback handles POST /a2p/status-callback requests from the
// vendor. The tenant is resolved from the object handle in the payload; an
// unknown handle is acknowledged with 204 so the vendor stops retrying.
func (h *Handler) HandleStatusCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[StatusCallbackRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	field, p, err := h.resolveHandle(ctx, req.SID)
	if err != nil {
		h.logger.WarnContext(ctx, "status callback for unknown handle",
			"request_id", requestID, "sid", req.SID)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var brandStatus, campaignStatus string
	var outErr error
	switch field {
	case models.FieldBrandID:
		brandStatus = req.Status
		_, outErr = h.reconciler.ApplyCallback(ctx, p.TenantID, brandStatus, campaignStatus)
	case models.FieldCampaignID:
		campaignStatus = req.Status
		_, outErr = h.reconciler.ApplyCallback(ctx, p.TenantID, brandStatus, campaignStatus)
	default:
		// Profile and trust-product callbacks carry no status axis of their
		// own; run a plain live pass so the stored snapshot stays fresh.
		_, outErr = h.reconciler.Reconcile(ctx, p.TenantID)
	}

	if outErr != nil {
		h.logger.ErrorContext(ctx, "status callback reconciliation failed",
			"request_id", requestID,
			"tenant_id", p.TenantID.String(),
			"error", outErr,
		)
		httputil.WriteError(w, outErr)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resolveHandle finds which profile and axis a vendor handle belongs to.
func (h *Handler) resolveHandle(ctx context.Context, sid string) (models.Field, *models.RegistrationProfile, error) {
	lookup := []models.Field{
		models.FieldBrandID,
		models.FieldCampaignID,
		models.FieldSecondaryProfileID,
		models.FieldTrustProductID,
	}
	var lastErr error
	for _, field := range lookup {
		p, err := h.profiles.FindByHandle(ctx, field, sid)
		if err == nil {
			return field, p, nil
		}
		lastErr = err
	}
	return "", nil, lastErr
}

// HandleSync handles POST /a2p/sync requests from the scheduler. Auth is
// applied by the cron-key middleware upstream.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	results, err := h.reconciler.Sweep(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "registration sweep failed",
			"request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration sweep triggered",
		"request_id", requestID,
		"swept", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, SyncResponse{Swept: len(results), Results: results})
}
