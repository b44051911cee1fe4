package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/tenant/models"
	"storefront/internal/tenant/service"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/requestcontext"
)

// Service is the tenant lifecycle surface the handler depends on.
type Service interface {
	Create(ctx context.Context, p requestcontext.Principal, in service.CreateInput) (*models.Tenant, error)
	List(ctx context.Context, p requestcontext.Principal) ([]*models.Tenant, error)
	Get(ctx context.Context, p requestcontext.Principal, tenantID id.TenantID) (*models.Tenant, error)
	Update(ctx context.Context, p requestcontext.Principal, tenantID id.TenantID, update models.TenantUpdate) (*models.Tenant, error)
	Delete(ctx context.Context, p requestcontext.Principal, tenantID id.TenantID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the tenant routes. Callers wrap r with bearer auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tenants/", h.HandleList)
	r.Post("/tenants/", h.HandleCreate)
	r.Get("/tenants/{id}", h.HandleGet)
	r.Put("/tenants/{id}", h.HandleReplace)
	r.Patch("/tenants/{id}", h.HandlePatch)
	r.Delete("/tenants/{id}", h.HandleDelete)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	tenants, err := h.service.List(ctx, p)
	if err != nil {
		h.fail(ctx, w, "failed to list tenants", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantList(tenants))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateTenantRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	t, err := h.service.Create(ctx, p, req.Input())
	if err != nil {
		h.fail(ctx, w, "failed to create tenant", err)
		return
	}
	h.logger.InfoContext(ctx, "tenant created",
		"request_id", requestID,
		"tenant_id", t.ID.String(),
		"subdomain", t.Subdomain,
	)
	httputil.WriteJSON(w, http.StatusCreated, toTenantResponse(t))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	tenantID, ok := parseTenantID(w, r)
	if !ok {
		return
	}
	t, err := h.service.Get(ctx, p, tenantID)
	if err != nil {
		h.fail(ctx, w, "failed to get tenant", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(t))
}

func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[fullTenantRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	h.update(w, r, req.Update())
}

func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[UpdateTenantRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	h.update(w, r, req.Update())
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, update models.TenantUpdate) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	tenantID, ok := parseTenantID(w, r)
	if !ok {
		return
	}
	t, err := h.service.Update(ctx, p, tenantID, update)
	if err != nil {
		h.fail(ctx, w, "failed to update tenant", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(t))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	tenantID, ok := parseTenantID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, p, tenantID); err != nil {
		h.fail(ctx, w, "failed to delete tenant", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (requestcontext.Principal, bool) {
	p, ok := requestcontext.PrincipalFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication credentials were not provided"))
		return requestcontext.Principal{}, false
	}
	return p, true
}

// parseTenantID treats a malformed id as not found.
func parseTenantID(w http.ResponseWriter, r *http.Request) (id.TenantID, bool) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "tenant not found"))
		return id.TenantID{}, false
	}
	return tenantID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
